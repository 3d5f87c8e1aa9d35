package drive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zvilnymo/casecheck/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestList_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/files", r.URL.Path)
		assert.Equal(t, "'root' in parents and mimeType = 'application/vnd.google-apps.folder' and trashed = false", r.URL.Query().Get("q"))
		assert.Equal(t, "allDrives", r.URL.Query().Get("corpora"))
		assert.Equal(t, "true", r.URL.Query().Get("supportsAllDrives"))
		assert.Equal(t, "tok1", r.URL.Query().Get("pageToken"))
		assert.Equal(t, "200", r.URL.Query().Get("pageSize"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"files":[{"id":"a","name":"Мельник Петро, +380671234567","mimeType":"application/vnd.google-apps.folder","parents":["root"]}],"nextPageToken":"tok2"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), WithBaseURL(srv.URL), WithRateLimit(0))
	list, err := c.List(context.Background(), Query{ParentID: "root", MimeType: FolderMime, PageSize: 200}, "tok1")

	require.NoError(t, err)
	require.Len(t, list.Files, 1)
	assert.Equal(t, "a", list.Files[0].ID)
	assert.True(t, list.Files[0].IsFolder())
	assert.Equal(t, "tok2", list.NextPageToken)
}

func TestList_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The user does not have sufficient permissions"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), WithBaseURL(srv.URL), WithRateLimit(0), WithRetry(fastRetry()))
	list, err := c.List(context.Background(), Query{ParentID: "root"}, "")

	require.Error(t, err)
	assert.Nil(t, list)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.StatusCode)
	assert.Equal(t, "The user does not have sufficient permissions", apiErr.Message)
}

func TestList_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"files":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), WithBaseURL(srv.URL), WithRateLimit(0), WithRetry(fastRetry()))
	list, err := c.List(context.Background(), Query{}, "")

	require.NoError(t, err)
	assert.Empty(t, list.Files)
	assert.Equal(t, int32(3), calls.Load())
}

func TestList_BreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	retry := fastRetry()
	retry.MaxAttempts = 1
	c := NewClient(srv.Client(), WithBaseURL(srv.URL), WithRateLimit(0), WithRetry(retry), WithBreaker(cb))

	for i := 0; i < 2; i++ {
		_, err := c.List(context.Background(), Query{}, "")
		require.Error(t, err)
	}
	_, err := c.List(context.Background(), Query{}, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
}

func TestViewLink(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/doc1":
			_, _ = w.Write([]byte(`{"id":"doc1","webViewLink":"https://docs.google.com/d/doc1"}`)) //nolint:errcheck
		case "/files/bin1":
			_, _ = w.Write([]byte(`{"id":"bin1","webContentLink":"https://drive.google.com/uc?id=bin1"}`)) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"File not found"}}`)) //nolint:errcheck
		}
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), WithBaseURL(srv.URL), WithRateLimit(0))

	link, err := c.ViewLink(context.Background(), "doc1")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.google.com/d/doc1", link)

	link, err = c.ViewLink(context.Background(), "bin1")
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/uc?id=bin1", link)

	_, err = c.ViewLink(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "File not found")
}

func TestParseError_UnknownBody(t *testing.T) {
	e := parseError(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
	assert.Equal(t, 502, e.StatusCode)
	assert.Equal(t, "Bad Gateway", e.Message)
}
