package router

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mrhouse-klg/housebot/core/catalog"
	"github.com/mrhouse-klg/housebot/core/menu"
	"github.com/mrhouse-klg/housebot/core/state"
)

type fixture struct {
	router *Router
	states state.Tracker
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	f := &fixture{
		states: state.NewMemoryTracker(),
		now:    time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	f.router = New(c, f.states, Config{
		WelcomeDebounce: 10 * time.Second,
		ManagerPhone:    "+7 (999) 123-45-67",
	}, WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) level(t *testing.T, chatID int64) state.Level {
	t.Helper()
	conv, err := f.states.Get(context.Background(), chatID)
	if err != nil {
		t.Fatalf("get state: %v", err)
	}
	return conv.Level
}

func start(chatID int64) Update {
	return Update{ID: 1, ChatID: chatID, UserID: chatID, Kind: KindCommand, Command: "/start"}
}

func text(chatID int64, s string) Update {
	return Update{ID: 2, ChatID: chatID, Kind: KindText, Text: s}
}

func press(chatID int64, action string) Update {
	return Update{ID: 3, ChatID: chatID, Kind: KindCallback, CallbackID: "cb", MessageID: 7, Action: action}
}

func TestStartSendsBannerAndMenu(t *testing.T) {
	f := newFixture(t)
	actions, err := f.router.Handle(context.Background(), start(100))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("got %d actions, want banner + menu", len(actions))
	}
	banner, ok := actions[0].(SendText)
	if !ok || banner.Text != menu.WelcomeText {
		t.Fatalf("first action = %#v", actions[0])
	}
	menuMsg, ok := actions[1].(SendText)
	if !ok || !menuMsg.Keyboard.Reply || len(menuMsg.Keyboard.Buttons()) != 5 {
		t.Fatalf("second action = %#v", actions[1])
	}
	if got := f.level(t, 100); got != state.LevelRoot {
		t.Fatalf("level = %s, want root", got)
	}
}

func TestStartDebounce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.router.Handle(ctx, start(5))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first start: %d actions", len(first))
	}

	f.advance(3 * time.Second)
	second, err := f.router.Handle(ctx, start(5))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("start within debounce window produced %d actions", len(second))
	}

	f.advance(11 * time.Second)
	third, err := f.router.Handle(ctx, start(5))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(third) != 2 {
		t.Fatalf("start after window: %d actions", len(third))
	}
}

func TestDebounceDisabled(t *testing.T) {
	c, err := catalog.Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r := New(c, state.NewMemoryTracker(), Config{WelcomeDebounce: 0})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		actions, err := r.Handle(ctx, start(9))
		if err != nil {
			t.Fatalf("handle: %v", err)
		}
		if len(actions) != 2 {
			t.Fatalf("run %d: %d actions", i, len(actions))
		}
	}
}

func TestLocationsLabelOpensList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	actions, err := f.router.Handle(ctx, text(42, menu.LabelLocations))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	list, ok := actions[0].(SendText)
	if !ok {
		t.Fatalf("action = %#v", actions[0])
	}
	wantButtons := len(f.router.catalog.Entries(catalog.Locations)) + 1
	if got := len(list.Keyboard.Buttons()); got != wantButtons {
		t.Fatalf("buttons = %d, want %d (entries + back)", got, wantButtons)
	}
	if got := f.level(t, 42); got != state.LevelLocations {
		t.Fatalf("level = %s, want locations", got)
	}
}

func TestSelectCallbackEmitsCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.router.Handle(ctx, text(42, menu.LabelLocations)); err != nil {
		t.Fatalf("open list: %v", err)
	}
	actions, err := f.router.Handle(ctx, press(42, menu.SelectAction("Шопино")))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	photo, ok := actions[0].(SendPhoto)
	if !ok {
		t.Fatalf("action = %#v", actions[0])
	}
	if !strings.Contains(photo.Caption, "Шопино") {
		t.Fatalf("caption = %q", photo.Caption)
	}
	if photo.Fallback == nil || !strings.Contains(photo.Fallback.Text, "Шопино") {
		t.Fatalf("fallback = %#v", photo.Fallback)
	}
	if got := f.level(t, 42); got != state.LevelLocations {
		t.Fatalf("level = %s, must stay locations", got)
	}
}

func TestSelectByPlainTextOnListLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.router.Handle(ctx, text(7, menu.LabelProjects)); err != nil {
		t.Fatalf("open list: %v", err)
	}
	actions, err := f.router.Handle(ctx, text(7, "Барн 95"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	photo, ok := actions[0].(SendPhoto)
	if !ok || !strings.Contains(photo.Caption, "Барн 95") {
		t.Fatalf("action = %#v", actions[0])
	}
}

func TestSelectMissFallsBackToComingSoon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.router.Handle(ctx, text(8, menu.LabelLocations)); err != nil {
		t.Fatalf("open list: %v", err)
	}
	actions, err := f.router.Handle(ctx, press(8, menu.SelectAction("Новая Локация")))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	msg, ok := actions[0].(SendText)
	if !ok || msg.Text != menu.ComingSoonText {
		t.Fatalf("action = %#v", actions[0])
	}
	if got := f.level(t, 8); got != state.LevelLocations {
		t.Fatalf("level = %s", got)
	}
}

func TestBackToListReshowsList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.router.Handle(ctx, text(3, menu.LabelProjects))
	actions, err := f.router.Handle(ctx, press(3, menu.ActionBackToList))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	list, ok := actions[0].(SendText)
	if !ok || list.Text != menu.ProjectsListText {
		t.Fatalf("action = %#v", actions[0])
	}
	if got := f.level(t, 3); got != state.LevelProjects {
		t.Fatalf("level = %s", got)
	}
}

func TestBackToMenuResetsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _ = f.router.Handle(ctx, text(4, menu.LabelLocations))
	actions, err := f.router.Handle(ctx, press(4, menu.ActionBackToMenu))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("got %d actions, want welcome + menu", len(actions))
	}
	if got := f.level(t, 4); got != state.LevelRoot {
		t.Fatalf("level = %s, want root", got)
	}
}

func TestUnknownCallbackIsIgnored(t *testing.T) {
	f := newFixture(t)
	actions, err := f.router.Handle(context.Background(), press(6, "bogus_action"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("got %d actions, want none", len(actions))
	}
}

func TestUnknownTextAtRootReshowsMainMenu(t *testing.T) {
	f := newFixture(t)
	actions, err := f.router.Handle(context.Background(), text(11, "привет"))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("got %d actions", len(actions))
	}
	msg, ok := actions[0].(SendText)
	if !ok || msg.Text != menu.UnknownText || !msg.Keyboard.Reply {
		t.Fatalf("action = %#v", actions[0])
	}
}

func TestStubLabelsStayAtRoot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, label := range []string{menu.LabelPrice, menu.LabelQuestion, menu.LabelManager} {
		actions, err := f.router.Handle(ctx, text(21, label))
		if err != nil {
			t.Fatalf("handle %q: %v", label, err)
		}
		if len(actions) != 1 {
			t.Fatalf("%q: %d actions", label, len(actions))
		}
		if got := f.level(t, 21); got != state.LevelRoot {
			t.Fatalf("%q moved level to %s", label, got)
		}
	}
}

func TestManagerStubCarriesContacts(t *testing.T) {
	f := newFixture(t)
	actions, err := f.router.Handle(context.Background(), text(22, menu.LabelManager))
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	msg := actions[0].(SendText)
	if !strings.Contains(msg.Text, "+7 (999) 123-45-67") {
		t.Fatalf("manager text misses phone: %q", msg.Text)
	}
}

// Replays press sequences against the transition table and checks the
// resulting level matches the prediction.
func TestTransitionTableReplay(t *testing.T) {
	type step struct {
		upd  func(chatID int64) Update
		want state.Level
	}
	scenarios := map[string][]step{
		"browse locations and return": {
			{func(id int64) Update { return start(id) }, state.LevelRoot},
			{func(id int64) Update { return text(id, menu.LabelLocations) }, state.LevelLocations},
			{func(id int64) Update { return press(id, menu.SelectAction("Шопино")) }, state.LevelLocations},
			{func(id int64) Update { return press(id, menu.ActionBackToList) }, state.LevelLocations},
			{func(id int64) Update { return press(id, menu.ActionBackToMenu) }, state.LevelRoot},
		},
		"switch lists directly": {
			{func(id int64) Update { return text(id, menu.LabelLocations) }, state.LevelLocations},
			{func(id int64) Update { return text(id, menu.LabelProjects) }, state.LevelProjects},
			{func(id int64) Update { return text(id, menu.LabelLocations) }, state.LevelLocations},
		},
		"stubs do not move the level": {
			{func(id int64) Update { return text(id, menu.LabelProjects) }, state.LevelProjects},
			{func(id int64) Update { return text(id, menu.LabelPrice) }, state.LevelProjects},
		},
	}

	var chatID int64 = 1000
	for name, steps := range scenarios {
		chatID++
		f := newFixture(t)
		for i, s := range steps {
			f.advance(time.Minute)
			if _, err := f.router.Handle(context.Background(), s.upd(chatID)); err != nil {
				t.Fatalf("%s step %d: %v", name, i, err)
			}
			if got := f.level(t, chatID); got != s.want {
				t.Fatalf("%s step %d: level = %s, want %s", name, i, got, s.want)
			}
		}
	}
}
