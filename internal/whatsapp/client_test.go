package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coopentrega/recruiting-ai-platform/internal/outbound"
)

func newTestServer(t *testing.T, status int, respBody string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if capture != nil && r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
			assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		}
		w.WriteHeader(status)
		w.Write([]byte(respBody))
	}))
}

func TestSendTextPayload(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, http.StatusOK, `{"messages":[{"id":"wamid.X"}]}`, &got)
	defer srv.Close()

	c := NewClient("token-123", "555000", srv.URL)
	require.NoError(t, c.SendText(context.Background(), "5581999990000", "olá"))

	assert.Equal(t, "whatsapp", got["messaging_product"])
	assert.Equal(t, "text", got["type"])
	text := got["text"].(map[string]any)
	assert.Equal(t, "olá", text["body"])
}

func TestSendButtonsPayload(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, http.StatusOK, `{}`, &got)
	defer srv.Close()

	c := NewClient("token-123", "555000", srv.URL)
	err := c.SendButtons(context.Background(), "x", "Escolha:", []outbound.Button{
		{ID: "select:42", Title: "Quero essa (ID 42)"},
		{ID: "next", Title: "Próxima"},
	})
	require.NoError(t, err)

	inter := got["interactive"].(map[string]any)
	assert.Equal(t, "button", inter["type"])
	buttons := inter["action"].(map[string]any)["buttons"].([]any)
	require.Len(t, buttons, 2)
	first := buttons[0].(map[string]any)
	assert.Equal(t, "reply", first["type"])
	assert.Equal(t, "select:42", first["reply"].(map[string]any)["id"])
}

func TestSendListPayload(t *testing.T) {
	var got map[string]any
	srv := newTestServer(t, http.StatusOK, `{}`, &got)
	defer srv.Close()

	c := NewClient("token-123", "555000", srv.URL)
	err := c.SendList(context.Background(), "x", outbound.List{
		Header:      "Vagas em Recife",
		Body:        "Toque para escolher.",
		ButtonLabel: "Ver vagas",
		Rows: []outbound.Row{
			{ID: "select:41", Title: "Vaga 41", Description: "manhã"},
		},
	})
	require.NoError(t, err)

	inter := got["interactive"].(map[string]any)
	assert.Equal(t, "list", inter["type"])
	assert.Equal(t, "Vagas em Recife", inter["header"].(map[string]any)["text"])
	action := inter["action"].(map[string]any)
	assert.Equal(t, "Ver vagas", action["button"])
	sections := action["sections"].([]any)
	require.Len(t, sections, 1)
	rows := sections[0].(map[string]any)["rows"].([]any)
	require.Len(t, rows, 1)
}

func TestSendSurfacesAPIError(t *testing.T) {
	srv := newTestServer(t, http.StatusBadRequest, `{"error":{"code":131009,"message":"invalid rows"}}`, nil)
	defer srv.Close()

	c := NewClient("token-123", "555000", srv.URL)
	err := c.SendText(context.Background(), "x", "olá")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "131009")
}

func TestDownloadMediaFallsBackToAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "audio/ogg")
		w.Write([]byte("opus-bytes"))
	}))
	defer srv.Close()

	c := NewClient("token-123", "555000", srv.URL)
	data, mime, err := c.DownloadMedia(context.Background(), srv.URL+"/media/abc")
	require.NoError(t, err)
	assert.Equal(t, "opus-bytes", string(data))
	assert.Equal(t, "audio/ogg", mime)
}
