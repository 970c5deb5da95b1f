// Package speech transcribes WhatsApp voice notes with Google Cloud Speech.
package speech

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

// GoogleTranscriber implements synchronous speech-to-text for short voice
// notes.
type GoogleTranscriber struct {
	client   *speech.Client
	language string
}

// NewGoogleTranscriber creates a transcriber. language defaults to pt-BR.
func NewGoogleTranscriber(ctx context.Context, language string, opts ...option.ClientOption) (*GoogleTranscriber, error) {
	if language == "" {
		language = "pt-BR"
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech: create client: %w", err)
	}
	return &GoogleTranscriber{client: client, language: language}, nil
}

// Close releases the underlying connection.
func (t *GoogleTranscriber) Close() error {
	return t.client.Close()
}

// Transcribe recognizes the audio payload and joins all alternatives' top
// transcripts.
func (t *GoogleTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	resp, err := t.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               t.language,
			Encoding:                   EncodingFor(mimeType),
			EnableAutomaticPunctuation: true,
			Model:                      "default",
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("speech: recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.GetResults() {
		alts := result.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if transcript := strings.TrimSpace(alts[0].GetTranscript()); transcript != "" {
			parts = append(parts, transcript)
		}
	}
	return strings.Join(parts, " "), nil
}

// EncodingFor guesses the recognition encoding from a media mime type.
// WhatsApp voice notes are ogg/opus; the rest covers forwarded audio files.
func EncodingFor(mimeType string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "ogg"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(m, "mpeg"), strings.Contains(m, "mp3"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "3gpp"):
		return speechpb.RecognitionConfig_AMR_WB
	case strings.Contains(m, "amr"):
		return speechpb.RecognitionConfig_AMR
	}
	return speechpb.RecognitionConfig_OGG_OPUS
}
