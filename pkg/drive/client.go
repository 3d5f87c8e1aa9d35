// Package drive wraps the Google Drive v3 REST API for folder and file
// lookups across shared drives.
package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/zvilnymo/casecheck/internal/resilience"
)

const (
	defaultBaseURL = "https://www.googleapis.com/drive/v3"
	fileFields     = "id,name,mimeType,parents,trashed,webViewLink,webContentLink"
	listFields     = "files(" + fileFields + "),nextPageToken"
	maxPageSize    = 1000
)

// Client defines the Drive operations the resolver and report need.
type Client interface {
	List(ctx context.Context, q Query, pageToken string) (*FileList, error)
	Get(ctx context.Context, fileID string) (*File, error)
	ViewLink(ctx context.Context, fileID string) (string, error)
}

// File is the subset of Drive file metadata the app reads.
type File struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	MimeType       string   `json:"mimeType,omitempty"`
	Parents        []string `json:"parents,omitempty"`
	Trashed        bool     `json:"trashed,omitempty"`
	WebViewLink    string   `json:"webViewLink,omitempty"`
	WebContentLink string   `json:"webContentLink,omitempty"`
}

// HasParent reports whether id is one of the file's parents.
func (f File) HasParent(id string) bool {
	for _, p := range f.Parents {
		if p == id {
			return true
		}
	}
	return false
}

// IsFolder reports whether the file is a Drive folder.
func (f File) IsFolder() bool {
	return f.MimeType == FolderMime
}

// FileList is one page of files.list results.
type FileList struct {
	Files         []File `json:"files"`
	NextPageToken string `json:"nextPageToken"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithRateLimit caps requests per second. Zero disables limiting.
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
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a Drive client. hc must attach credentials to requests,
// see ServiceAccountClient; a nil hc gets an unauthenticated client with a
// 30 second timeout.
func NewClient(hc *http.Client, opts ...Option) Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	c := &httpClient{
		baseURL: defaultBaseURL,
		http:    hc,
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("drive", "request")
	}
	return c
}

func (c *httpClient) List(ctx context.Context, q Query, pageToken string) (*FileList, error) {
	params := url.Values{}
	params.Set("q", q.String())
	params.Set("corpora", "allDrives")
	params.Set("includeItemsFromAllDrives", "true")
	params.Set("supportsAllDrives", "true")
	params.Set("fields", listFields)
	size := q.PageSize
	if size <= 0 || size > maxPageSize {
		size = 100
	}
	params.Set("pageSize", strconv.Itoa(size))
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var out FileList
	if err := c.get(ctx, "/files", params, &out); err != nil {
		return nil, eris.Wrap(err, "drive: list files")
	}
	return &out, nil
}

func (c *httpClient) Get(ctx context.Context, fileID string) (*File, error) {
	params := url.Values{}
	params.Set("fields", fileFields)
	params.Set("supportsAllDrives", "true")

	var out File
	if err := c.get(ctx, "/files/"+url.PathEscape(fileID), params, &out); err != nil {
		return nil, eris.Wrapf(err, "drive: get file %s", fileID)
	}
	return &out, nil
}

func (c *httpClient) ViewLink(ctx context.Context, fileID string) (string, error) {
	f, err := c.Get(ctx, fileID)
	if err != nil {
		return "", err
	}
	if f.WebViewLink != "" {
		return f.WebViewLink, nil
	}
	return f.WebContentLink, nil
}

func (c *httpClient) get(ctx context.Context, path string, params url.Values, out any) error {
	call := func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.do(ctx, path, params, out)
	}
	if c.breaker != nil {
		inner := call
		call = func(ctx context.Context) (struct{}, error) {
			return resilience.ExecuteVal(ctx, c.breaker, inner)
		}
	}
	_, err := resilience.DoVal(ctx, c.retry, call)
	return err
}

func (c *httpClient) do(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := parseError(resp.StatusCode, body)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(apiErr, resp.StatusCode)
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
