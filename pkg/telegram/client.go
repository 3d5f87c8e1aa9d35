// Package telegram is a minimal Telegram Bot API client: long polling,
// webhook removal and HTML replies.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.telegram.org"

// Client defines the Bot API calls the bot uses.
type Client interface {
	GetMe(ctx context.Context) (*User, error)
	GetUpdates(ctx context.Context, offset int64, timeoutSecs int) ([]Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	DeleteWebhook(ctx context.Context, dropPending bool) error
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the API host, for tests and local Bot API servers.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client. Its timeout must exceed
// the long-poll timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the bot token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 90 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type envelope struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (c *httpClient) GetMe(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, "getMe", struct{}{}, &u); err != nil {
		return nil, eris.Wrap(err, "telegram: get me")
	}
	return &u, nil
}

func (c *httpClient) GetUpdates(ctx context.Context, offset int64, timeoutSecs int) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", map[string]any{
		"offset":          offset,
		"timeout":         timeoutSecs,
		"allowed_updates": []string{"message"},
	}, &updates)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: get updates")
	}
	return updates, nil
}

func (c *httpClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	err := c.call(ctx, "sendMessage", map[string]any{
		"chat_id":              chatID,
		"text":                 text,
		"parse_mode":           "HTML",
		"link_preview_options": map[string]bool{"is_disabled": true},
	}, nil)
	return eris.Wrapf(err, "telegram: send message to %d", chatID)
}

func (c *httpClient) DeleteWebhook(ctx context.Context, dropPending bool) error {
	err := c.call(ctx, "deleteWebhook", map[string]any{
		"drop_pending_updates": dropPending,
	}, nil)
	return eris.Wrap(err, "telegram: delete webhook")
}

func (c *httpClient) call(ctx context.Context, method string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bot"+c.token+"/"+method, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		// The token is part of the URL; keep it out of logs.
		return eris.Errorf("send %s: %s", method, redact(err.Error(), c.token))
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return &APIError{Code: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
	}
	if !env.OK {
		apiErr := &APIError{Code: env.ErrorCode, Description: env.Description}
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode
		}
		if env.Parameters != nil {
			apiErr.RetryAfter = time.Duration(env.Parameters.RetryAfter) * time.Second
		}
		return apiErr
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return eris.Wrapf(err, "decode %s result", method)
		}
	}
	return nil
}
