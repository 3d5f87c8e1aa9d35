package bot

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/pkg/telegram"
)

// Poller receives updates by long polling and handles them sequentially.
type Poller struct {
	client      telegram.Client
	handler     *Handler
	pollTimeout int
	backoff     time.Duration
}

// NewPoller creates a poller. pollTimeoutSecs is the server-side long-poll
// wait.
func NewPoller(client telegram.Client, handler *Handler, pollTimeoutSecs int) *Poller {
	return &Poller{
		client:      client,
		handler:     handler,
		pollTimeout: pollTimeoutSecs,
		backoff:     3 * time.Second,
	}
}

// Run removes any registered webhook, drops pending updates and polls until
// ctx is cancelled. A conflict with another consumer or a rejected token
// ends Run with an error; other failures are logged and retried.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.client.DeleteWebhook(ctx, true); err != nil {
		if telegram.IsUnauthorized(err) {
			return eris.Wrap(err, "bot: telegram rejected the token")
		}
		zap.L().Warn("bot: delete webhook failed", zap.Error(err))
	}

	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.pollTimeout)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			if telegram.IsConflict(err) {
				zap.L().Error("bot: another instance is polling this bot or a webhook is set; stop it before starting this one")
				return eris.Wrap(err, "bot: polling conflict")
			}
			if telegram.IsUnauthorized(err) {
				return eris.Wrap(err, "bot: telegram rejected the token")
			}
			wait := p.backoff
			var apiErr *telegram.APIError
			if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
				wait = apiErr.RetryAfter
			}
			zap.L().Warn("bot: get updates failed", zap.Error(err), zap.Duration("retry_in", wait))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if err := p.handler.HandleUpdate(ctx, u); err != nil {
				zap.L().Error("bot: handle update", zap.Int64("update_id", u.UpdateID), zap.Error(err))
			}
		}
	}
}
