// Package fulfillment exposes the dialog engine webhook: the CX agent calls
// it once per flow step with a tag and the session parameters, and gets back
// reply messages plus a parameter patch.
package fulfillment

import (
	"encoding/json"
	"net/http"

	"github.com/coopentrega/recruiting-ai-platform/internal/funnel"
	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

type webhookRequest struct {
	FulfillmentInfo struct {
		Tag string `json:"tag"`
	} `json:"fulfillmentInfo"`
	SessionInfo struct {
		Session    string         `json:"session"`
		Parameters map[string]any `json:"parameters"`
	} `json:"sessionInfo"`
}

type webhookResponse struct {
	FulfillmentResponse fulfillmentResponse `json:"fulfillmentResponse"`
	SessionInfo         *sessionInfo        `json:"sessionInfo,omitempty"`
}

type fulfillmentResponse struct {
	Messages []responseMessage `json:"messages"`
}

type responseMessage struct {
	Text    *textMessage   `json:"text,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

type textMessage struct {
	Text []string `json:"text"`
}

type sessionInfo struct {
	Parameters map[string]any `json:"parameters"`
}

// Handler serves the CX fulfillment webhook.
type Handler struct {
	router *funnel.Router
	logger *logging.Logger
}

// NewHandler creates a fulfillment handler over the tag router.
func NewHandler(router *funnel.Router, logger *logging.Logger) *Handler {
	if router == nil {
		panic("fulfillment: router cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{router: router, logger: logger}
}

// Handle processes one fulfillment call. The engine retries non-200 answers
// and surfaces its own error prompt, so business failures still answer 200
// with a friendly text.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("undecodable fulfillment request", "error", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	params := funnel.Params(req.SessionInfo.Parameters)
	result := h.router.Handle(r.Context(), req.FulfillmentInfo.Tag, params)

	resp := webhookResponse{
		FulfillmentResponse: fulfillmentResponse{
			Messages: encodeMessages(result.Messages),
		},
		SessionInfo: &sessionInfo{
			Parameters: params.Merge(result.Patch),
		},
	}

	h.logger.Info("fulfillment handled",
		"tag", req.FulfillmentInfo.Tag,
		"session", req.SessionInfo.Session,
		"messages", len(result.Messages),
	)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("fulfillment response write failed", "error", err)
	}
}

func encodeMessages(msgs []funnel.Message) []responseMessage {
	out := make([]responseMessage, 0, len(msgs))
	for _, m := range msgs {
		switch msg := m.(type) {
		case funnel.Text:
			out = append(out, responseMessage{Text: &textMessage{Text: []string{msg.Body}}})
		default:
			out = append(out, responseMessage{Payload: funnel.EncodePayload(msg)})
		}
	}
	return out
}
