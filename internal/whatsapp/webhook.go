package whatsapp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// InboundEvent is one inbound message joined with its sender profile.
type InboundEvent struct {
	Message     InboundMessage
	ProfileName string
}

// WebhookHandler handles the Cloud API verification handshake and inbound
// message deliveries.
type WebhookHandler struct {
	verifyToken string
	onEvent     func(InboundEvent)
	logger      *logging.Logger
}

// NewWebhookHandler creates a webhook handler. onEvent is called once per
// inbound message.
func NewWebhookHandler(verifyToken string, onEvent func(InboundEvent), logger *logging.Logger) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{verifyToken: verifyToken, onEvent: onEvent, logger: logger}
}

// HandleVerification answers the GET challenge handshake: echo the challenge
// when the verify token matches, reject otherwise.
func (h *WebhookHandler) HandleVerification(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode == "subscribe" && token == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, challenge)
		return
	}
	http.Error(w, "Forbidden", http.StatusForbidden)
}

// HandleInbound handles POST deliveries. The channel retries on non-200, so
// receipt is always acknowledged; processing failures are logged downstream.
func (h *WebhookHandler) HandleInbound(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Warn("unparseable webhook delivery", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)

	for _, ev := range ParseWebhookEvent(event) {
		if h.onEvent != nil {
			h.onEvent(ev)
		}
	}
}

// ParseWebhookEvent flattens a webhook envelope into per-message events,
// joining each message with the sender's profile name when present.
func ParseWebhookEvent(event WebhookEvent) []InboundEvent {
	var events []InboundEvent
	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			name := ""
			if len(change.Value.Contacts) > 0 {
				name = change.Value.Contacts[0].Profile.Name
			}
			for _, msg := range change.Value.Messages {
				events = append(events, InboundEvent{Message: msg, ProfileName: name})
			}
		}
	}
	return events
}
