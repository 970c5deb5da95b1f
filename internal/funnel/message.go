// Package funnel implements the fulfillment tag router driving the
// job-application conversation: city check, requirement gate, behavioral
// scoring, vacancy browsing and lead capture. Each tag is a pure transition
// over the session parameter snapshot; the router never keeps per-user state.
package funnel

import "encoding/json"

// Message is an abstract outbound message. The router only ever emits these;
// turning them into channel payloads is the outbound renderer's job.
type Message interface {
	isMessage()
}

// Text is a plain text bubble.
type Text struct {
	Body string
}

// Choice is one tappable option of a ChoiceMenu.
type Choice struct {
	ID    string            `json:"id"`
	Title string            `json:"title"`
	Data  map[string]string `json:"data,omitempty"`
}

// ChoiceMenu is a small set of quick-reply buttons.
type ChoiceMenu struct {
	Body    string   `json:"body"`
	Choices []Choice `json:"choices"`
}

// ListRow is one row of a ListMenu.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListMenu is a list-picker with a header and an open button.
type ListMenu struct {
	Header      string    `json:"header"`
	Body        string    `json:"body"`
	ButtonLabel string    `json:"button_label"`
	Rows        []ListRow `json:"rows"`
}

func (Text) isMessage()       {}
func (ChoiceMenu) isMessage() {}
func (ListMenu) isMessage()   {}

// Payload type discriminators used in the dialog engine's custom payloads.
const (
	payloadChoices = "choices"
	payloadList    = "list"
)

// EncodePayload converts an interactive message into the generic map shape
// carried inside a fulfillment response custom payload. Text messages have no
// payload form and return nil.
func EncodePayload(m Message) map[string]any {
	switch msg := m.(type) {
	case ChoiceMenu:
		return toMap(struct {
			Type string `json:"type"`
			ChoiceMenu
		}{Type: payloadChoices, ChoiceMenu: msg})
	case ListMenu:
		return toMap(struct {
			Type string `json:"type"`
			ListMenu
		}{Type: payloadList, ListMenu: msg})
	default:
		return nil
	}
}

// DecodePayload is the inverse of EncodePayload. The second return value is
// false for payloads this service did not produce.
func DecodePayload(payload map[string]any) (Message, bool) {
	kind, _ := payload["type"].(string)
	switch kind {
	case payloadChoices:
		var menu ChoiceMenu
		if err := fromMap(payload, &menu); err != nil {
			return nil, false
		}
		return menu, true
	case payloadList:
		var menu ListMenu
		if err := fromMap(payload, &menu); err != nil {
			return nil, false
		}
		return menu, true
	}
	return nil, false
}

func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func fromMap(m map[string]any, dst any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
