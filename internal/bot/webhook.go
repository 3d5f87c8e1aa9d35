package bot

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/pkg/telegram"
)

// SecretHeader carries the secret token Telegram echoes on webhook calls.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// MaxUpdateBytes caps the size of a webhook request body.
const MaxUpdateBytes = 1 << 20

// Webhook returns an HTTP handler for Telegram webhook deliveries. When
// secret is set, requests without the matching header are rejected. The
// update is handled before responding; delivery failures are logged and
// still acknowledged so Telegram does not redeliver.
func (h *Handler) Webhook(secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(secret)) != 1 {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}

		var u telegram.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxUpdateBytes)).Decode(&u); err != nil {
			http.Error(w, `{"error":"invalid update"}`, http.StatusBadRequest)
			return
		}

		if err := h.HandleUpdate(r.Context(), u); err != nil {
			zap.L().Error("bot: webhook update", zap.Int64("update_id", u.UpdateID), zap.Error(err))
		}
		w.WriteHeader(http.StatusOK)
	}
}
