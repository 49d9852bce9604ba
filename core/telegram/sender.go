package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrhouse-klg/housebot/core/logger"
	"github.com/mrhouse-klg/housebot/core/menu"
	"github.com/mrhouse-klg/housebot/core/metrics"
	"github.com/mrhouse-klg/housebot/core/router"

	tele "gopkg.in/telebot.v4"
)

// Sender is the outbound half of the telebot client used by the
// executor. *tele.Bot satisfies it; tests substitute a recorder.
type Sender interface {
	Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error)
	Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error
}

// Executor performs the actions a handler returned. All sends are
// synchronous: the caller is the webhook ingress, and Telegram expects
// the update to be fully handled before the HTTP response.
type Executor struct {
	bot Sender
}

// NewExecutor wraps a sender.
func NewExecutor(bot Sender) *Executor {
	return &Executor{bot: bot}
}

// Ack answers a callback query so the client stops showing the spinner.
// Failures are logged and swallowed: an expired callback is routine.
func (e *Executor) Ack(ctx context.Context, callbackID string) {
	if callbackID == "" {
		return
	}
	if err := e.bot.Respond(&tele.Callback{ID: callbackID}); err != nil {
		logger.Debug(ctx, "tg", "callback.ack.failed",
			slog.String("err", logger.RedactToken(err.Error())),
		)
	}
}

// Execute performs each action in order. The first hard failure stops
// the run; photo sends degrade to their text fallback instead of
// failing.
func (e *Executor) Execute(ctx context.Context, actions []router.Action) error {
	for _, action := range actions {
		if err := e.execute(ctx, action); err != nil {
			return err
		}
	}
	return nil
}

func (e *Executor) execute(ctx context.Context, action router.Action) error {
	switch a := action.(type) {
	case router.SendText:
		_, err := e.bot.Send(tele.ChatID(a.ChatID), a.Text, sendOptions(a.Keyboard)...)
		return e.wrap(ctx, "send_text", a.ChatID, err)

	case router.SendPhoto:
		photo := &tele.Photo{File: tele.FromURL(a.ImageRef), Caption: a.Caption}
		_, err := e.bot.Send(tele.ChatID(a.ChatID), photo, sendOptions(a.Keyboard)...)
		if err == nil {
			return nil
		}
		if a.Fallback == nil {
			return e.wrap(ctx, "send_photo", a.ChatID, err)
		}
		logger.Warn(ctx, "tg", "send_photo.degraded",
			slog.Int64("chat_id", a.ChatID),
			slog.String("err", logger.RedactToken(err.Error())),
		)
		_, err = e.bot.Send(tele.ChatID(a.Fallback.ChatID), a.Fallback.Text, sendOptions(a.Fallback.Keyboard)...)
		return e.wrap(ctx, "send_photo.fallback", a.ChatID, err)

	}
	return fmt.Errorf("telegram: unknown action %T", action)
}

func (e *Executor) wrap(ctx context.Context, op string, chatID int64, err error) error {
	if err == nil {
		return nil
	}
	metrics.RecordSendFailure(op)
	attrs := []slog.Attr{
		slog.String("action", op),
		slog.Int64("chat_id", chatID),
		slog.String("err", logger.RedactToken(err.Error())),
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		attrs = append(attrs, slog.Int("retry_after", flood.RetryAfter))
	}
	logger.Error(ctx, "tg", "send.failed", attrs...)
	return fmt.Errorf("telegram: %s for chat %d: %w", op, chatID, err)
}

func sendOptions(grid menu.Grid) []any {
	if grid.Empty() {
		return nil
	}
	return []any{Markup(grid)}
}

// Markup converts a keyboard layout into telebot markup. Reply grids
// become persistent resized keyboards, everything else is inline.
func Markup(grid menu.Grid) *tele.ReplyMarkup {
	if grid.Empty() {
		return nil
	}

	markup := &tele.ReplyMarkup{}
	if grid.Reply {
		markup.ResizeKeyboard = true
		rows := make([]tele.Row, 0, len(grid.Rows))
		for _, row := range grid.Rows {
			buttons := make([]tele.Btn, 0, len(row))
			for _, b := range row {
				buttons = append(buttons, markup.Text(b.Label))
			}
			rows = append(rows, markup.Row(buttons...))
		}
		markup.Reply(rows...)
		return markup
	}

	inline := make([][]tele.InlineButton, 0, len(grid.Rows))
	for _, row := range grid.Rows {
		r := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			btn := tele.InlineButton{Text: b.Label}
			if b.URL != "" {
				btn.URL = b.URL
			} else {
				btn.Data = b.Action
			}
			r = append(r, btn)
		}
		inline = append(inline, r)
	}
	markup.InlineKeyboard = inline
	return markup
}
