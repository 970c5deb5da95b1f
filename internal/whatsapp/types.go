package whatsapp

// Outbound wire shapes for the WhatsApp Cloud (Graph) API.

type sendRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *textBody    `json:"text,omitempty"`
	Interactive      *interactive `json:"interactive,omitempty"`
}

type textBody struct {
	Body string `json:"body"`
}

type interactive struct {
	Type   string        `json:"type"`
	Header *headerObject `json:"header,omitempty"`
	Body   textObject    `json:"body"`
	Action actionObject  `json:"action"`
}

type headerObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type textObject struct {
	Text string `json:"text"`
}

type actionObject struct {
	Buttons  []replyButton `json:"buttons,omitempty"`
	Button   string        `json:"button,omitempty"`
	Sections []listSection `json:"sections,omitempty"`
}

type replyButton struct {
	Type  string      `json:"type"`
	Reply buttonReply `json:"reply"`
}

type buttonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type listSection struct {
	Title string        `json:"title,omitempty"`
	Rows  []listRowItem `json:"rows"`
}

type listRowItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Media describes an uploaded media object.
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256"`
	FileSize int64  `json:"file_size"`
	URL      string `json:"url"`
}

// Inbound webhook shapes.

// WebhookEvent is the envelope delivered to the inbound webhook.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one account-level change batch.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change carries the messages and contacts of one delivery.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue is the payload of a messages change.
type ChangeValue struct {
	Messages []InboundMessage `json:"messages"`
	Contacts []Contact        `json:"contacts"`
}

// Contact identifies the sender profile.
type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// InboundMessage is one inbound channel event: free text, a tapped button or
// list row, or media.
type InboundMessage struct {
	ID          string              `json:"id"`
	From        string              `json:"from"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *InboundText        `json:"text,omitempty"`
	Interactive *InboundInteractive `json:"interactive,omitempty"`
	Audio       *InboundAudio       `json:"audio,omitempty"`
}

// InboundText is the body of a free-text message.
type InboundText struct {
	Body string `json:"body"`
}

// InboundInteractive carries a tapped button or list row.
type InboundInteractive struct {
	Type        string       `json:"type"`
	ButtonReply *TappedReply `json:"button_reply,omitempty"`
	ListReply   *TappedReply `json:"list_reply,omitempty"`
}

// InboundAudio references a voice note stored on the Graph API.
type InboundAudio struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
}

// TappedReply is the id/title pair of the option the candidate tapped.
type TappedReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
