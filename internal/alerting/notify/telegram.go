package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTelegramAPI = "https://api.telegram.org"

// TelegramGateway talks to the Telegram Bot API. Non-ok responses are
// reported as errors and never retried within the same cycle.
type TelegramGateway struct {
	baseURL string
	token   string
	client  *http.Client
}

// TelegramOption configures the gateway.
type TelegramOption func(*TelegramGateway)

// WithTelegramBaseURL overrides the API base URL, mainly for tests.
func WithTelegramBaseURL(baseURL string) TelegramOption {
	return func(g *TelegramGateway) {
		if baseURL != "" {
			g.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTelegramHTTPClient overrides the HTTP client.
func WithTelegramHTTPClient(client *http.Client) TelegramOption {
	return func(g *TelegramGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// NewTelegramGateway constructs a gateway for a bot token.
func NewTelegramGateway(token string, opts ...TelegramOption) (*TelegramGateway, error) {
	if token == "" {
		return nil, errors.New("telegram gateway: empty bot token")
	}
	gateway := &TelegramGateway{
		baseURL: defaultTelegramAPI,
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(gateway)
	}
	return gateway, nil
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendText delivers a plain text message to a chat.
func (g *TelegramGateway) SendText(ctx context.Context, chatTarget, text string) error {
	if text == "" {
		return errors.New("telegram gateway: empty text")
	}
	params := url.Values{}
	params.Set("chat_id", chatTarget)
	params.Set("text", text)
	return g.call(ctx, "sendMessage", params)
}

// SendPhotoURL delivers a photo by URL with an optional caption. Telegram
// fetches the image itself, so the renderer never downloads chart bytes.
func (g *TelegramGateway) SendPhotoURL(ctx context.Context, chatTarget, photoURL, caption string) error {
	if photoURL == "" {
		return errors.New("telegram gateway: empty photo url")
	}
	params := url.Values{}
	params.Set("chat_id", chatTarget)
	params.Set("photo", photoURL)
	if caption != "" {
		params.Set("caption", caption)
	}
	return g.call(ctx, "sendPhoto", params)
}

func (g *TelegramGateway) call(ctx context.Context, method string, params url.Values) error {
	if g == nil || g.token == "" {
		return errors.New("telegram gateway: not configured")
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", g.baseURL, g.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var body telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("telegram gateway: decode %s response: %w", method, err)
	}
	if !body.OK {
		description := body.Description
		if description == "" {
			description = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("telegram gateway: %s failed: %s", method, description)
	}
	return nil
}
