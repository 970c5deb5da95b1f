package whatsapp

import (
	"context"
	"strings"

	"github.com/coopentrega/recruiting-ai-platform/pkg/logging"
)

// Turn is a normalized user turn: the text handed to the dialog engine plus
// any side parameters carried by the tapped option. When DirectReply is set
// the engine is skipped and the reply goes straight back to the user.
type Turn struct {
	Text        string
	Side        map[string]any
	DirectReply string
}

// Action is a decomposed interactive id following the "<action>:<payload>"
// convention.
type Action struct {
	Name    string
	Payload string
}

// ParseActionID decomposes a tapped button or row id.
func ParseActionID(id string) Action {
	id = strings.TrimSpace(id)
	if id == "" {
		return Action{Name: "unknown"}
	}
	name, payload, found := strings.Cut(id, ":")
	if !found {
		return Action{Name: name}
	}
	return Action{Name: name, Payload: strings.TrimSpace(payload)}
}

// MediaFetcher resolves and downloads channel media.
type MediaFetcher interface {
	MediaInfo(ctx context.Context, mediaID string) (*Media, error)
	DownloadMedia(ctx context.Context, mediaURL string) ([]byte, string, error)
}

// Transcriber converts an audio payload into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Voice-note replies.
const (
	replyAudioUnclear  = "Não consegui entender seu áudio. Pode digitar em texto, por favor?"
	replyAudioFailed   = "Tive um problema para ouvir seu áudio. Pode enviar em texto?"
	replyAudioDisabled = "Por aqui ainda não consigo ouvir áudios. Pode digitar em texto?"

	placeholderAttachment = "[anexo recebido]"
)

// Normalizer maps heterogeneous inbound events into a single Turn shape.
// media and stt are optional; without them voice notes get a typed-text ask.
type Normalizer struct {
	media  MediaFetcher
	stt    Transcriber
	logger *logging.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(media MediaFetcher, stt Transcriber, logger *logging.Logger) *Normalizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Normalizer{media: media, stt: stt, logger: logger}
}

// Normalize is total: every inbound message type yields some Turn.
func (n *Normalizer) Normalize(ctx context.Context, msg InboundMessage) Turn {
	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return Turn{Text: ""}
		}
		return Turn{Text: strings.TrimSpace(msg.Text.Body)}
	case "interactive":
		return n.normalizeInteractive(msg)
	case "audio":
		return n.normalizeAudio(ctx, msg)
	}
	return Turn{Text: placeholderAttachment}
}

func (n *Normalizer) normalizeInteractive(msg InboundMessage) Turn {
	if msg.Interactive == nil {
		return Turn{Text: placeholderAttachment}
	}

	var tapped *TappedReply
	isList := false
	switch msg.Interactive.Type {
	case "button_reply":
		tapped = msg.Interactive.ButtonReply
	case "list_reply":
		tapped = msg.Interactive.ListReply
		isList = true
	}
	if tapped == nil {
		return Turn{Text: placeholderAttachment}
	}

	action := ParseActionID(tapped.ID)
	switch action.Name {
	case "select":
		return Turn{
			Text: "quero " + action.Payload,
			Side: map[string]any{"vaga_id": action.Payload},
		}
	case "next":
		return Turn{Text: "próxima"}
	}
	if isList {
		// unknown list rows advance the browse cursor
		return Turn{Text: "próxima"}
	}
	return Turn{Text: action.Name}
}

func (n *Normalizer) normalizeAudio(ctx context.Context, msg InboundMessage) Turn {
	if msg.Audio == nil || msg.Audio.ID == "" {
		return Turn{Text: placeholderAttachment}
	}
	if n.media == nil || n.stt == nil {
		return Turn{DirectReply: replyAudioDisabled}
	}

	info, err := n.media.MediaInfo(ctx, msg.Audio.ID)
	if err != nil {
		n.logger.Error("media info failed", "error", err, "media_id", msg.Audio.ID)
		return Turn{DirectReply: replyAudioFailed}
	}
	data, mime, err := n.media.DownloadMedia(ctx, info.URL)
	if err != nil {
		n.logger.Error("media download failed", "error", err, "media_id", msg.Audio.ID)
		return Turn{DirectReply: replyAudioFailed}
	}
	if info.MimeType != "" {
		mime = info.MimeType
	}

	transcript, err := n.stt.Transcribe(ctx, data, mime)
	if err != nil {
		n.logger.Error("transcription failed", "error", err, "media_id", msg.Audio.ID)
		return Turn{DirectReply: replyAudioFailed}
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return Turn{DirectReply: replyAudioUnclear}
	}
	return Turn{
		Text: transcript,
		Side: map[string]any{"audio_transcript": transcript},
	}
}
