package web

import (
	"testing"

	"github.com/mrhouse-klg/housebot/core/router"

	tele "gopkg.in/telebot.v4"
)

func TestNormalizeCommand(t *testing.T) {
	cases := map[string]string{
		"/start":                 "/start",
		"/start@mrhouse_bot":     "/start",
		"/Start":                 "/start",
		"/start deep-link-param": "/start",
	}
	for in, want := range cases {
		if got := normalizeCommand(in); got != want {
			t.Errorf("normalizeCommand(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMapUpdateTextMessage(t *testing.T) {
	upd, ok := mapUpdate(tele.Update{
		ID: 5,
		Message: &tele.Message{
			ID:     2,
			Sender: &tele.User{ID: 10},
			Chat:   &tele.Chat{ID: 20},
			Text:   "  📍 Наши локации  ",
		},
	})
	if !ok {
		t.Fatal("text message not mapped")
	}
	if upd.Kind != router.KindText || upd.Text != "📍 Наши локации" || upd.ChatID != 20 || upd.UserID != 10 {
		t.Fatalf("update = %#v", upd)
	}
}

func TestMapUpdateStripsCallbackPrefix(t *testing.T) {
	upd, ok := mapUpdate(tele.Update{
		ID: 6,
		Callback: &tele.Callback{
			ID:      "cb",
			Sender:  &tele.User{ID: 10},
			Message: &tele.Message{ID: 3, Chat: &tele.Chat{ID: 20}},
			Data:    "\fselect:Шопино",
		},
	})
	if !ok {
		t.Fatal("callback not mapped")
	}
	if upd.Action != "select:Шопино" || upd.MessageID != 3 {
		t.Fatalf("update = %#v", upd)
	}
}

func TestMapUpdateDropsNonText(t *testing.T) {
	if _, ok := mapUpdate(tele.Update{ID: 7, Message: &tele.Message{ID: 4, Chat: &tele.Chat{ID: 20}}}); ok {
		t.Fatal("empty message should be dropped")
	}
	if _, ok := mapUpdate(tele.Update{ID: 8}); ok {
		t.Fatal("bare update should be dropped")
	}
}
