// Package nlu adapts the Dialogflow CX sessions API into the one-call-per-turn
// boundary the conversation worker depends on.
package nlu

import (
	"context"
	"encoding/json"
	"fmt"

	cx "cloud.google.com/go/dialogflow/cx/apiv3"
	"cloud.google.com/go/dialogflow/cx/apiv3/cxpb"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/coopentrega/recruiting-ai-platform/internal/funnel"
)

// TurnResult is one engine turn: the session parameter snapshot after the
// turn and the decoded response messages.
type TurnResult struct {
	Parameters map[string]any
	Messages   []funnel.Message
}

// DialogflowCX drives a CX agent through its regional sessions endpoint.
type DialogflowCX struct {
	client   *cx.SessionsClient
	project  string
	location string
	agent    string
	language string
}

// NewDialogflowCX connects to the agent's regional endpoint. language defaults
// to pt-BR.
func NewDialogflowCX(ctx context.Context, project, location, agent, language string, opts ...option.ClientOption) (*DialogflowCX, error) {
	if language == "" {
		language = "pt-BR"
	}
	endpoint := fmt.Sprintf("%s-dialogflow.googleapis.com:443", location)
	opts = append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)
	client, err := cx.NewSessionsClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("nlu: create sessions client: %w", err)
	}
	return &DialogflowCX{
		client:   client,
		project:  project,
		location: location,
		agent:    agent,
		language: language,
	}, nil
}

// Close releases the underlying connection.
func (d *DialogflowCX) Close() error {
	return d.client.Close()
}

func (d *DialogflowCX) sessionPath(sessionID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/agents/%s/sessions/%s",
		d.project, d.location, d.agent, sessionID)
}

// DetectTurn runs one engine turn for the given session. sideParams are
// injected as query parameters so the agent sees them merged into the session.
func (d *DialogflowCX) DetectTurn(ctx context.Context, sessionID, text string, sideParams map[string]any) (*TurnResult, error) {
	params, err := toStruct(sideParams)
	if err != nil {
		return nil, fmt.Errorf("nlu: encode side params: %w", err)
	}

	req := &cxpb.DetectIntentRequest{
		Session: d.sessionPath(sessionID),
		QueryInput: &cxpb.QueryInput{
			Input:        &cxpb.QueryInput_Text{Text: &cxpb.TextInput{Text: text}},
			LanguageCode: d.language,
		},
		QueryParams: &cxpb.QueryParameters{Parameters: params},
	}
	resp, err := d.client.DetectIntent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("nlu: detect intent: %w", err)
	}

	result := resp.GetQueryResult()
	out := &TurnResult{Messages: DecodeResponseMessages(result.GetResponseMessages())}
	if p := result.GetParameters(); p != nil {
		out.Parameters = p.AsMap()
	}
	return out, nil
}

// DecodeResponseMessages converts engine response messages into the abstract
// message shapes. Payloads this service did not produce are skipped.
func DecodeResponseMessages(msgs []*cxpb.ResponseMessage) []funnel.Message {
	var out []funnel.Message
	for _, rm := range msgs {
		if txt := rm.GetText(); txt != nil {
			for _, body := range txt.GetText() {
				if body == "" {
					continue
				}
				out = append(out, funnel.Text{Body: body})
			}
			continue
		}
		if payload := rm.GetPayload(); payload != nil {
			if m, ok := funnel.DecodePayload(payload.AsMap()); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// toStruct encodes an arbitrary parameter map into a proto struct. Values go
// through JSON first so typed slices and structs become plain maps.
func toStruct(params map[string]any) (*structpb.Struct, error) {
	if len(params) == 0 {
		return &structpb.Struct{}, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	var plain map[string]any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, err
	}
	return structpb.NewStruct(plain)
}
