package bot

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zvilnymo/casecheck/internal/report"
	"github.com/zvilnymo/casecheck/pkg/telegram"
)

// Reporter builds a report for a raw phone. *report.Builder satisfies it.
type Reporter interface {
	Build(ctx context.Context, rawPhone string) (*report.Report, error)
}

// Sender delivers a reply. telegram.Client satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Handler turns updates into replies. Updates are processed one at a time
// no matter how many goroutines deliver them.
type Handler struct {
	reports Reporter
	send    Sender
	render  report.Renderer
	timeout time.Duration
	mu      sync.Mutex
}

// NewHandler creates a handler. timeout bounds one lookup; zero means no
// bound beyond the collaborators' own.
func NewHandler(reports Reporter, send Sender, render report.Renderer, timeout time.Duration) *Handler {
	return &Handler{reports: reports, send: send, render: render, timeout: timeout}
}

// HandleUpdate answers one update. It returns an error only when the reply
// could not be delivered.
func (h *Handler) HandleUpdate(ctx context.Context, u telegram.Update) error {
	if u.Message == nil || u.Message.Text == "" {
		return nil
	}
	kind, arg := ParseCommand(u.Message.Text)
	if kind == KindNone {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	chatID := u.Message.Chat.ID
	log := zap.L().With(zap.Int64("update_id", u.UpdateID), zap.Int64("chat_id", chatID))

	if kind == KindHelp || arg == "" {
		return h.reply(ctx, chatID, report.UsageHint)
	}

	r, err := h.build(ctx, arg)
	if err != nil {
		log.Error("bot: report failed", zap.Error(err))
		return h.reply(ctx, chatID, h.render.Failure(err))
	}
	log.Info("bot: report sent",
		zap.String("request_id", r.RequestID),
		zap.String("outcome", string(r.Outcome)),
	)
	return h.reply(ctx, chatID, h.render.Render(r))
}

// Lookup builds a report for rawPhone outside of chat, for example for the
// JSON API. It waits for any update in progress.
func (h *Handler) Lookup(ctx context.Context, rawPhone string) (*report.Report, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.build(ctx, rawPhone)
}

// build runs one lookup under the handler timeout. Callers hold h.mu.
func (h *Handler) build(ctx context.Context, rawPhone string) (*report.Report, error) {
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}
	return h.reports.Build(ctx, rawPhone)
}

func (h *Handler) reply(ctx context.Context, chatID int64, text string) error {
	for _, chunk := range telegram.SplitMessage(text, telegram.MaxMessageLen) {
		if err := h.send.SendMessage(ctx, chatID, chunk); err != nil {
			return eris.Wrap(err, "bot: reply")
		}
	}
	return nil
}
