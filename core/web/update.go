package web

import (
	"strings"

	"github.com/mrhouse-klg/housebot/core/router"

	tele "gopkg.in/telebot.v4"
)

// mapUpdate converts a decoded Bot API update into the router's inbound
// form. ok is false for update types the bot does not handle (edits,
// channel posts, member events); those are acknowledged and dropped.
func mapUpdate(upd tele.Update) (router.Update, bool) {
	if cb := upd.Callback; cb != nil {
		if cb.Message == nil || cb.Message.Chat == nil {
			return router.Update{}, false
		}
		out := router.Update{
			ID:         upd.ID,
			ChatID:     cb.Message.Chat.ID,
			Kind:       router.KindCallback,
			CallbackID: cb.ID,
			MessageID:  cb.Message.ID,
			Action:     strings.TrimPrefix(cb.Data, "\f"),
		}
		if cb.Sender != nil {
			out.UserID = cb.Sender.ID
		}
		return out, true
	}

	msg := upd.Message
	if msg == nil || msg.Chat == nil {
		return router.Update{}, false
	}

	out := router.Update{
		ID:     upd.ID,
		ChatID: msg.Chat.ID,
	}
	if msg.Sender != nil {
		out.UserID = msg.Sender.ID
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return router.Update{}, false
	}
	if strings.HasPrefix(text, "/") {
		out.Kind = router.KindCommand
		out.Command = normalizeCommand(text)
		return out, true
	}
	out.Kind = router.KindText
	out.Text = text
	return out, true
}

// normalizeCommand extracts the bare command from a message like
// "/start@mrhouse_bot payload".
func normalizeCommand(text string) string {
	cmd := text
	if i := strings.IndexAny(cmd, " \t\n"); i >= 0 {
		cmd = cmd[:i]
	}
	if i := strings.Index(cmd, "@"); i >= 0 {
		cmd = cmd[:i]
	}
	return strings.ToLower(cmd)
}

// updateKindLabel names the update kind for metrics.
func updateKindLabel(kind router.UpdateKind) string {
	switch kind {
	case router.KindCommand:
		return "command"
	case router.KindText:
		return "text"
	case router.KindCallback:
		return "callback"
	}
	return "other"
}
