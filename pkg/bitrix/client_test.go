package bitrix

import (
	"context"
	"encoding/json"
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

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL+"/rest/1/secret",
		WithHTTPClient(srv.Client()),
		WithRateLimit(0),
		WithRetry(resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}),
	)
	require.NoError(t, err)
	return c
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestFindContactByPhone_ConfirmsDigits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/1/secret/crm.contact.list.json", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, map[string]any{"PHONE": "+380671234567"}, body["filter"])

		_, _ = w.Write([]byte(`{"result":[
			{"ID":"7","NAME":"Інший","LAST_NAME":"Клієнт","PHONE":[{"VALUE":"+380671234560"}]},
			{"ID":"8","NAME":"Петро","LAST_NAME":"Мельник","SECOND_NAME":null,"PHONE":[{"VALUE":"067 123 45 67","VALUE_TYPE":"WORK"},{"VALUE":"+38 (067) 123-45-67"}]}
		],"total":2}`)) //nolint:errcheck
	})

	contact, err := c.FindContactByPhone(context.Background(), "+380671234567")
	require.NoError(t, err)
	require.NotNil(t, contact)
	assert.Equal(t, FlexID(8), contact.ID)
	assert.Equal(t, "Мельник Петро", contact.PersonName().FullName())
}

func TestFindContactByPhone_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":[],"total":0}`)) //nolint:errcheck
	})

	contact, err := c.FindContactByPhone(context.Background(), "+380671234567")
	require.NoError(t, err)
	assert.Nil(t, contact)
}

func TestLatestDeal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/1/secret/crm.deal.list.json", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, map[string]any{"CONTACT_ID": float64(8), "CATEGORY_ID": float64(1)}, body["filter"])
		assert.Contains(t, body["select"], "UF_CRM_DEBT")
		assert.Equal(t, map[string]any{"DATE_CREATE": "DESC"}, body["order"])

		_, _ = w.Write([]byte(`{"result":[
			{"ID":"42","TITLE":"Банкрутство","STAGE_ID":"C1:NEW","ASSIGNED_BY_ID":"5","CATEGORY_ID":"1","UF_CRM_DEBT":"350000|UAH","UF_CRM_CONSULTANT":["11","Олена"]},
			{"ID":"41"}
		]}`)) //nolint:errcheck
	})

	deal, err := c.LatestDeal(context.Background(), 8, 1, []string{"UF_CRM_DEBT", "UF_CRM_CONSULTANT"})
	require.NoError(t, err)
	require.NotNil(t, deal)
	assert.Equal(t, FlexID(42), deal.ID)
	assert.Equal(t, "C1:NEW", deal.StageID)
	assert.Equal(t, FlexID(5), deal.AssignedByID)
	assert.Equal(t, "350000|UAH", deal.Field("UF_CRM_DEBT"))
	assert.Equal(t, []string{"11", "Олена"}, deal.FieldValues("UF_CRM_CONSULTANT"))
	assert.Empty(t, deal.Field("UF_MISSING"))
}

func TestLatestDeal_None(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":[]}`)) //nolint:errcheck
	})

	deal, err := c.LatestDeal(context.Background(), 8, 1, nil)
	require.NoError(t, err)
	assert.Nil(t, deal)
}

func TestStageLabels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/1/secret/crm.dealcategory.stage.list.json", r.URL.Path)
		assert.Equal(t, float64(1), decodeBody(t, r)["id"])
		_, _ = w.Write([]byte(`{"result":[{"STATUS_ID":"C1:NEW","NAME":"Нова"},{"STATUS_ID":"C1:WON","NAME":"Виграно"}]}`)) //nolint:errcheck
	})

	labels, err := c.StageLabels(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"C1:NEW": "Нова", "C1:WON": "Виграно"}, labels)
}

func TestStageHistory_Paginates(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		assert.Equal(t, float64(2), body["entityTypeId"])
		switch calls.Add(1) {
		case 1:
			assert.Equal(t, float64(0), body["start"])
			_, _ = w.Write([]byte(`{"result":{"items":[{"ID":"1","STAGE_ID":"C1:NEW","CREATED_TIME":"2024-03-01T10:00:00+02:00"}]},"next":50,"total":2}`)) //nolint:errcheck
		default:
			assert.Equal(t, float64(50), body["start"])
			_, _ = w.Write([]byte(`{"result":{"items":[{"ID":"2","STAGE_ID":"C1:WORK","CREATED_TIME":"2024-03-02T10:00:00+02:00"}]},"total":2}`)) //nolint:errcheck
		}
	})

	rows, err := c.StageHistory(context.Background(), 42, 300)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "C1:NEW", rows[0].StageID)
	assert.Equal(t, "C1:WORK", rows[1].StageID)

	ts, err := rows[1].Time()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), ts.UTC())
}

func TestStageHistory_Limit(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"result":[{"ID":"1","STAGE_ID":"A"},{"ID":"2","STAGE_ID":"B"},{"ID":"3","STAGE_ID":"C"}],"next":3}`)) //nolint:errcheck
	})

	rows, err := c.StageHistory(context.Background(), 42, 2)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestUserName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch decodeBody(t, r)["ID"] {
		case float64(5):
			_, _ = w.Write([]byte(`{"result":[{"ID":"5","NAME":"Олена","LAST_NAME":"Коваль","SECOND_NAME":""}]}`)) //nolint:errcheck
		case float64(6):
			_, _ = w.Write([]byte(`{"result":[{"ID":"6"}]}`)) //nolint:errcheck
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"insufficient_scope","error_description":"The request requires higher privileges"}`)) //nolint:errcheck
		}
	})

	assert.Equal(t, "Олена Коваль", c.UserName(context.Background(), 5))
	assert.Equal(t, "ID 6", c.UserName(context.Background(), 6))
	assert.Equal(t, "ID 7 (no access)", c.UserName(context.Background(), 7))
}

func TestCall_ErrorEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"INVALID_CREDENTIALS","error_description":"Invalid request credentials"}`)) //nolint:errcheck
	})

	_, err := c.FindContactByPhone(context.Background(), "+380671234567")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.Equal(t, "Invalid request credentials", apiErr.Description)
}

func TestCall_RetriesQueryLimit(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			_, _ = w.Write([]byte(`{"error":"QUERY_LIMIT_EXCEEDED","error_description":"Too many requests"}`)) //nolint:errcheck
			return
		}
		_, _ = w.Write([]byte(`{"result":[]}`)) //nolint:errcheck
	})

	_, err := c.StageLabels(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestDealURL(t *testing.T) {
	c, err := NewClient("https://crm.example.com/rest/596/abc/")
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com/crm/deal/details/42/", c.DealURL(42))
}
