// Package bitrix provides inbound-webhook access to the Bitrix24 CRM REST API.
package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zvilnymo/casecheck/internal/resilience"
)

// Client defines the CRM operations the report needs.
type Client interface {
	// FindContactByPhone returns nil when no contact carries the phone.
	FindContactByPhone(ctx context.Context, canonicalPhone string) (*Contact, error)
	// LatestDeal returns the newest deal of a contact in a pipeline, or nil.
	LatestDeal(ctx context.Context, contactID int64, categoryID int, extraFields []string) (*Deal, error)
	// StageLabels maps stage ids (C1:NEW) to their labels for a pipeline.
	StageLabels(ctx context.Context, categoryID int) (map[string]string, error)
	// StageHistory returns up to limit stage transitions of a deal in the
	// order Bitrix returned them, oldest first.
	StageHistory(ctx context.Context, dealID int64, limit int) ([]StageRecord, error)
	// UserName never fails: it falls back to a placeholder with the id.
	UserName(ctx context.Context, userID int64) string
	// DealURL links to the deal card in the portal UI.
	DealURL(dealID int64) string
}

var contactFields = []string{"ID", "NAME", "LAST_NAME", "SECOND_NAME", "PHONE"}

var dealFields = []string{"ID", "TITLE", "STAGE_ID", "ASSIGNED_BY_ID", "DATE_CREATE", "CATEGORY_ID"}

// entityTypeDeal is the crm.stagehistory.list entity type for deals.
const entityTypeDeal = 2

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second. Bitrix allows 2 rps per portal
// sustained; zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithBreaker routes every call through cb.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) {
		c.breaker = cb
	}
}

type httpClient struct {
	base    string
	origin  string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a client for the webhook base URL, see ResolveBase.
func NewClient(base string, opts ...Option) (Client, error) {
	base, err := ResolveBase(base, "")
	if err != nil {
		return nil, err
	}
	origin, err := portalOrigin(base)
	if err != nil {
		return nil, err
	}
	c := &httpClient{
		base:    base,
		origin:  origin,
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(2, 2),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("bitrix", "call")
	}
	return c, nil
}

type envelope struct {
	Result           json.RawMessage `json:"result"`
	Next             int             `json:"next"`
	Total            int             `json:"total"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func (c *httpClient) FindContactByPhone(ctx context.Context, canonicalPhone string) (*Contact, error) {
	var contacts []Contact
	_, err := c.call(ctx, "crm.contact.list", map[string]any{
		"filter": map[string]any{"PHONE": canonicalPhone},
		"select": contactFields,
	}, &contacts)
	if err != nil {
		return nil, eris.Wrap(err, "bitrix: find contact by phone")
	}
	// The PHONE filter is fuzzy on some portals; confirm the digits.
	for i := range contacts {
		if contacts[i].HasPhone(canonicalPhone) {
			return &contacts[i], nil
		}
	}
	return nil, nil
}

func (c *httpClient) LatestDeal(ctx context.Context, contactID int64, categoryID int, extraFields []string) (*Deal, error) {
	sel := append(append([]string{}, dealFields...), extraFields...)
	var deals []Deal
	_, err := c.call(ctx, "crm.deal.list", map[string]any{
		"filter": map[string]any{"CONTACT_ID": contactID, "CATEGORY_ID": categoryID},
		"select": sel,
		"order":  map[string]string{"DATE_CREATE": "DESC"},
	}, &deals)
	if err != nil {
		return nil, eris.Wrapf(err, "bitrix: latest deal for contact %d", contactID)
	}
	if len(deals) == 0 {
		return nil, nil
	}
	return &deals[0], nil
}

func (c *httpClient) StageLabels(ctx context.Context, categoryID int) (map[string]string, error) {
	var rows []stageLabel
	if _, err := c.call(ctx, "crm.dealcategory.stage.list", map[string]any{"id": categoryID}, &rows); err != nil {
		return nil, eris.Wrapf(err, "bitrix: stage labels for category %d", categoryID)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.StatusID] = r.Name
	}
	return out, nil
}

func (c *httpClient) StageHistory(ctx context.Context, dealID int64, limit int) ([]StageRecord, error) {
	var out []StageRecord
	start := 0
	for {
		var page json.RawMessage
		next, err := c.call(ctx, "crm.stagehistory.list", map[string]any{
			"entityTypeId": entityTypeDeal,
			"filter":       map[string]any{"OWNER_ID": dealID},
			"order":        map[string]string{"CREATED_TIME": "ASC"},
			"select":       []string{"ID", "OWNER_ID", "STAGE_ID", "CREATED_TIME", "CATEGORY_ID"},
			"start":        start,
		}, &page)
		if err != nil {
			return nil, eris.Wrapf(err, "bitrix: stage history for deal %d", dealID)
		}

		rows, err := decodeHistoryPage(page)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)

		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if next <= start || len(rows) == 0 {
			return out, nil
		}
		start = next
	}
}

// decodeHistoryPage accepts both {"items": [...]} and a bare list.
func decodeHistoryPage(raw json.RawMessage) ([]StageRecord, error) {
	if len(bytes.TrimSpace(raw)) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var wrapped struct {
		Items []StageRecord `json:"items"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		return wrapped.Items, nil
	}
	var rows []StageRecord
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, eris.Wrap(err, "bitrix: decode stage history")
	}
	return rows, nil
}

func (c *httpClient) UserName(ctx context.Context, userID int64) string {
	var users []User
	if _, err := c.call(ctx, "user.get", map[string]any{"ID": userID}, &users); err != nil {
		zap.L().Debug("bitrix: user.get failed", zap.Int64("user_id", userID), zap.Error(err))
		return fmt.Sprintf("ID %d (no access)", userID)
	}
	if len(users) > 0 {
		if name := users[0].DisplayName(); name != "" {
			return name
		}
	}
	return fmt.Sprintf("ID %d", userID)
}

func (c *httpClient) DealURL(dealID int64) string {
	return c.origin + "/crm/deal/details/" + strconv.FormatInt(dealID, 10) + "/"
}

// call invokes a REST method and decodes "result" into out. It returns the
// "next" offset for list methods.
func (c *httpClient) call(ctx context.Context, method string, payload any, out any) (int, error) {
	fn := func(ctx context.Context) (int, error) {
		return c.do(ctx, method, payload, out)
	}
	if c.breaker != nil {
		inner := fn
		fn = func(ctx context.Context) (int, error) {
			return resilience.ExecuteVal(ctx, c.breaker, inner)
		}
	}
	return resilience.DoVal(ctx, c.retry, fn)
}

func (c *httpClient) do(ctx context.Context, method string, payload any, out any) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, eris.Wrap(err, "rate limit")
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+method+".json", bytes.NewReader(body))
	if err != nil {
		return 0, eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, eris.Wrapf(err, "send %s", method)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, eris.Wrap(err, "read response")
	}

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode != http.StatusOK || env.Error != "" {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: env.Error, Description: env.ErrorDescription}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) || transientCodes[env.Error] {
			return 0, resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return 0, apiErr
	}
	if decodeErr != nil {
		return 0, eris.Wrapf(decodeErr, "decode %s response", method)
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return 0, eris.Wrapf(err, "decode %s result", method)
		}
	}
	return env.Next, nil
}
