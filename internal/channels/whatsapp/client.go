package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultGraphBaseURL = "https://graph.facebook.com/v17.0"

// Client sends outbound text messages through the WhatsApp Cloud API.
// Each tenant supplies its own access token and business phone number ID.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Graph API client.
func NewClient(httpClient *http.Client, baseURL string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

// SendText delivers one text message to a client phone number.
func (c *Client) SendText(ctx context.Context, token, phoneNumberID, to, body string) error {
	payload, err := json.Marshal(textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Text:             textBody{Body: body},
	})
	if err != nil {
		return fmt.Errorf("whatsapp: failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("whatsapp: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp: send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp: send returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
