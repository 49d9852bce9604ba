package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const defaultAPIBase = "https://api.telegram.org"

// API performs Bot API management calls that telebot does not expose
// with a context: webhook registration, webhook introspection, token
// validation. Outbound chat traffic goes through the telebot client
// instead.
type API struct {
	token  string
	base   string
	client *http.Client
}

// APIOption customises API construction.
type APIOption func(*API)

// WithBaseURL points the API at a different server, used by tests.
func WithBaseURL(base string) APIOption {
	return func(a *API) {
		if base != "" {
			a.base = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) APIOption {
	return func(a *API) {
		if c != nil {
			a.client = c
		}
	}
}

// NewAPI builds an API bound to the given bot token.
func NewAPI(token string, opts ...APIOption) *API {
	a := &API{
		token:  token,
		base:   defaultAPIBase,
		client: BuildHTTPClient(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// User mirrors the Bot API user object fields relevant to getMe.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

// WebhookInfo mirrors the Bot API getWebhookInfo result.
type WebhookInfo struct {
	URL                string `json:"url"`
	PendingUpdateCount int    `json:"pending_update_count"`
	LastErrorDate      int64  `json:"last_error_date"`
	LastErrorMessage   string `json:"last_error_message"`
}

// GetMe validates the token against the Bot API.
func (a *API) GetMe(ctx context.Context) (User, error) {
	var user User
	err := a.call(ctx, "getMe", nil, &user)
	return user, err
}

// SetWebhook registers url as the bot's webhook endpoint. A non-empty
// secret is passed through so Telegram echoes it back on every delivery.
func (a *API) SetWebhook(ctx context.Context, hookURL, secret string) error {
	params := url.Values{}
	params.Set("url", hookURL)
	if secret != "" {
		params.Set("secret_token", secret)
	}
	return a.call(ctx, "setWebhook", params, nil)
}

// GetWebhookInfo reports the webhook currently registered with Telegram.
func (a *API) GetWebhookInfo(ctx context.Context) (WebhookInfo, error) {
	var info WebhookInfo
	err := a.call(ctx, "getWebhookInfo", nil, &info)
	return info, err
}

// DeleteWebhook removes the registered webhook.
func (a *API) DeleteWebhook(ctx context.Context, dropPending bool) error {
	params := url.Values{}
	if dropPending {
		params.Set("drop_pending_updates", "true")
	}
	return a.call(ctx, "deleteWebhook", params, nil)
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (a *API) call(ctx context.Context, method string, params url.Values, result any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", a.base, a.token, method)

	var body io.Reader
	if len(params) > 0 {
		body = strings.NewReader(params.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("telegram: build %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: %s: %w", method, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("telegram: read %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return fmt.Errorf("telegram: decode %s response: %w", method, err)
	}
	if !parsed.OK {
		return &APIError{Method: method, Code: parsed.ErrorCode, Description: parsed.Description}
	}
	if result != nil && len(parsed.Result) > 0 {
		if err := json.Unmarshal(parsed.Result, result); err != nil {
			return fmt.Errorf("telegram: decode %s result: %w", method, err)
		}
	}
	return nil
}

// APIError is a Bot API level failure, delivered with HTTP 200 and
// ok=false in the envelope.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed: %d %s", e.Method, e.Code, e.Description)
}

// Unauthorized reports whether the error means the token was rejected.
func (e *APIError) Unauthorized() bool {
	return e.Code == http.StatusUnauthorized
}
