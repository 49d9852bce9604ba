package telegram

import (
	"context"
	"errors"
	"testing"

	"github.com/mrhouse-klg/housebot/core/menu"
	"github.com/mrhouse-klg/housebot/core/router"

	tele "gopkg.in/telebot.v4"
)

type sentCall struct {
	what   any
	markup *tele.ReplyMarkup
}

type fakeSender struct {
	calls     []sentCall
	photoErr  error
	responded []string
}

func (f *fakeSender) Send(to tele.Recipient, what any, opts ...any) (*tele.Message, error) {
	if _, ok := what.(*tele.Photo); ok && f.photoErr != nil {
		return nil, f.photoErr
	}
	call := sentCall{what: what}
	for _, opt := range opts {
		if m, ok := opt.(*tele.ReplyMarkup); ok {
			call.markup = m
		}
	}
	f.calls = append(f.calls, call)
	return &tele.Message{}, nil
}

func (f *fakeSender) Respond(c *tele.Callback, resp ...*tele.CallbackResponse) error {
	f.responded = append(f.responded, c.ID)
	return nil
}

func TestExecuteSendText(t *testing.T) {
	fake := &fakeSender{}
	ex := NewExecutor(fake)

	err := ex.Execute(context.Background(), []router.Action{
		router.SendText{ChatID: 1, Text: "hello", Keyboard: menu.Main()},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("calls = %d", len(fake.calls))
	}
	if fake.calls[0].markup == nil || !fake.calls[0].markup.ResizeKeyboard {
		t.Fatalf("reply markup not attached: %#v", fake.calls[0].markup)
	}
}

func TestExecutePhotoFallback(t *testing.T) {
	fake := &fakeSender{photoErr: errors.New("wrong file identifier")}
	ex := NewExecutor(fake)

	err := ex.Execute(context.Background(), []router.Action{
		router.SendPhoto{
			ChatID:   2,
			ImageRef: "https://example.com/a.jpg",
			Caption:  "caption",
			Fallback: &router.SendText{ChatID: 2, Text: "caption"},
		},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(fake.calls) != 1 {
		t.Fatalf("calls = %d, want only the fallback text", len(fake.calls))
	}
	if text, ok := fake.calls[0].what.(string); !ok || text != "caption" {
		t.Fatalf("fallback payload = %#v", fake.calls[0].what)
	}
}

func TestExecutePhotoWithoutFallbackFails(t *testing.T) {
	fake := &fakeSender{photoErr: errors.New("boom")}
	ex := NewExecutor(fake)

	err := ex.Execute(context.Background(), []router.Action{
		router.SendPhoto{ChatID: 3, ImageRef: "https://example.com/a.jpg"},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestAckRecordsCallbackID(t *testing.T) {
	fake := &fakeSender{}
	ex := NewExecutor(fake)

	ex.Ack(context.Background(), "cb-1")
	ex.Ack(context.Background(), "")
	if len(fake.responded) != 1 || fake.responded[0] != "cb-1" {
		t.Fatalf("responded = %v", fake.responded)
	}
}

func TestMarkupInlineButtons(t *testing.T) {
	grid := menu.Grid{Rows: [][]menu.Button{
		{{Label: "Open", URL: "https://example.com"}},
		{{Label: "Pick", Action: "select:x"}},
	}}
	m := Markup(grid)
	if m == nil || len(m.InlineKeyboard) != 2 {
		t.Fatalf("markup = %#v", m)
	}
	if m.InlineKeyboard[0][0].URL != "https://example.com" {
		t.Fatalf("url button = %#v", m.InlineKeyboard[0][0])
	}
	if m.InlineKeyboard[1][0].Data != "select:x" {
		t.Fatalf("data button = %#v", m.InlineKeyboard[1][0])
	}
}

func TestMarkupEmptyGrid(t *testing.T) {
	if m := Markup(menu.Grid{}); m != nil {
		t.Fatalf("markup = %#v, want nil", m)
	}
}
