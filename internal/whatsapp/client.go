// Package whatsapp implements the WhatsApp Cloud API channel: the outbound
// client, the inbound webhook and the event normalizer.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/coopentrega/recruiting-ai-platform/internal/outbound"
)

const (
	// DefaultGraphAPIBase is the Cloud API base used in production.
	DefaultGraphAPIBase = "https://graph.facebook.com/v20.0"

	defaultHTTPTimeout = 15 * time.Second
)

// Client sends messages via the WhatsApp Cloud (Graph) API. It implements
// outbound.ChannelSender.
type Client struct {
	token      string
	phoneID    string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given phone number id. An empty baseURL
// selects the production Graph API.
func NewClient(token, phoneID, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphAPIBase
	}
	return &Client{
		token:      token,
		phoneID:    phoneID,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SendText sends a plain text bubble.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: body},
	})
}

// SendButtons sends a quick-reply button message.
func (c *Client) SendButtons(ctx context.Context, to, body string, buttons []outbound.Button) error {
	wire := make([]replyButton, 0, len(buttons))
	for _, b := range buttons {
		wire = append(wire, replyButton{Type: "reply", Reply: buttonReply{ID: b.ID, Title: b.Title}})
	}
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &interactive{
			Type:   "button",
			Body:   textObject{Text: body},
			Action: actionObject{Buttons: wire},
		},
	})
}

// SendList sends a list-picker message.
func (c *Client) SendList(ctx context.Context, to string, list outbound.List) error {
	rows := make([]listRowItem, 0, len(list.Rows))
	for _, row := range list.Rows {
		rows = append(rows, listRowItem{ID: row.ID, Title: row.Title, Description: row.Description})
	}
	var header *headerObject
	if list.Header != "" {
		header = &headerObject{Type: "text", Text: list.Header}
	}
	return c.send(ctx, sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &interactive{
			Type:   "list",
			Header: header,
			Body:   textObject{Text: list.Body},
			Action: actionObject{
				Button:   list.ButtonLabel,
				Sections: []listSection{{Rows: rows}},
			},
		},
	})
}

func (c *Client) send(ctx context.Context, req sendRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp sendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}
	if sendResp.Error != nil {
		return fmt.Errorf("whatsapp: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// MediaInfo resolves a media id into its download descriptor.
func (c *Client) MediaInfo(ctx context.Context, mediaID string) (*Media, error) {
	url := fmt.Sprintf("%s/%s", c.baseURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create media request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: media info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whatsapp: media info status %d", resp.StatusCode)
	}

	var media Media
	if err := json.NewDecoder(resp.Body).Decode(&media); err != nil {
		return nil, fmt.Errorf("whatsapp: decode media info: %w", err)
	}
	return &media, nil
}

// DownloadMedia fetches the media content. Some delivery hosts reject the
// Authorization header on the download URL, so the unauthenticated request
// runs first with the authenticated one as fallback.
func (c *Client) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, string, error) {
	data, mime, err := c.download(ctx, mediaURL, false)
	if err == nil {
		return data, mime, nil
	}
	return c.download(ctx, mediaURL, true)
}

func (c *Client) download(ctx context.Context, mediaURL string, authenticated bool) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: create download request: %w", err)
	}
	if authenticated {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: download media: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("whatsapp: download status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("whatsapp: read media: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "application/octet-stream"
	}
	return data, mime, nil
}
