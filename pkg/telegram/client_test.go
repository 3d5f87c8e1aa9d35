package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler func(method string, body map[string]any) (int, string)) Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		prefix := "/botTOKEN/"
		require.True(t, strings.HasPrefix(r.URL.Path, prefix), r.URL.Path)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		status, resp := handler(strings.TrimPrefix(r.URL.Path, prefix), body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)
	return NewClient("TOKEN", WithBaseURL(srv.URL))
}

func TestGetUpdates(t *testing.T) {
	c := newTestServer(t, func(method string, body map[string]any) (int, string) {
		assert.Equal(t, "getUpdates", method)
		assert.EqualValues(t, 42, body["offset"])
		assert.EqualValues(t, 30, body["timeout"])
		return 200, `{"ok":true,"result":[
			{"update_id":42,"message":{"message_id":1,"chat":{"id":-100,"type":"group"},"text":"/check 0671234567"}},
			{"update_id":43}
		]}`
	})

	updates, err := c.GetUpdates(context.Background(), 42, 30)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.EqualValues(t, 42, updates[0].UpdateID)
	require.NotNil(t, updates[0].Message)
	assert.EqualValues(t, -100, updates[0].Message.Chat.ID)
	assert.Equal(t, "/check 0671234567", updates[0].Message.Text)
	assert.Nil(t, updates[1].Message)
}

func TestSendMessage(t *testing.T) {
	c := newTestServer(t, func(method string, body map[string]any) (int, string) {
		assert.Equal(t, "sendMessage", method)
		assert.EqualValues(t, 7, body["chat_id"])
		assert.Equal(t, "<b>hi</b>", body["text"])
		assert.Equal(t, "HTML", body["parse_mode"])
		assert.Equal(t, map[string]any{"is_disabled": true}, body["link_preview_options"])
		return 200, `{"ok":true,"result":{"message_id":9}}`
	})
	require.NoError(t, c.SendMessage(context.Background(), 7, "<b>hi</b>"))
}

func TestDeleteWebhook(t *testing.T) {
	c := newTestServer(t, func(method string, body map[string]any) (int, string) {
		assert.Equal(t, "deleteWebhook", method)
		assert.Equal(t, true, body["drop_pending_updates"])
		return 200, `{"ok":true,"result":true}`
	})
	require.NoError(t, c.DeleteWebhook(context.Background(), true))
}

func TestGetMe(t *testing.T) {
	c := newTestServer(t, func(method string, _ map[string]any) (int, string) {
		assert.Equal(t, "getMe", method)
		return 200, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Case","username":"case_bot"}}`
	})
	u, err := c.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "case_bot", u.Username)
}

func TestConflict(t *testing.T) {
	c := newTestServer(t, func(string, map[string]any) (int, string) {
		return 409, `{"ok":false,"error_code":409,"description":"Conflict: terminated by other getUpdates request"}`
	})
	_, err := c.GetUpdates(context.Background(), 0, 0)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.False(t, IsUnauthorized(err))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Contains(t, apiErr.Description, "Conflict")
}

func TestRetryAfter(t *testing.T) {
	c := newTestServer(t, func(string, map[string]any) (int, string) {
		return 429, `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":3}}`
	})
	err := c.SendMessage(context.Background(), 1, "x")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
}

func TestNonJSONResponse(t *testing.T) {
	c := newTestServer(t, func(string, map[string]any) (int, string) {
		return 502, `<html>bad gateway</html>`
	})
	err := c.DeleteWebhook(context.Background(), false)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 502, apiErr.Code)
}

func TestTransportErrorHidesToken(t *testing.T) {
	c := NewClient("SECRET", WithBaseURL("http://127.0.0.1:1"))
	err := c.DeleteWebhook(context.Background(), false)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
}
