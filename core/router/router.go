package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/mrhouse-klg/housebot/core/catalog"
	"github.com/mrhouse-klg/housebot/core/logger"
	"github.com/mrhouse-klg/housebot/core/menu"
	"github.com/mrhouse-klg/housebot/core/metrics"
	"github.com/mrhouse-klg/housebot/core/state"
)

// Config carries the router's behavioural settings.
type Config struct {
	// WelcomeDebounce suppresses repeated /start greetings delivered within
	// the window. Zero or negative disables the debounce.
	WelcomeDebounce time.Duration
	ManagerPhone    string
	ManagerHandle   string
}

// Router dispatches updates against the menu transition table.
type Router struct {
	catalog *catalog.Catalog
	states  state.Tracker
	cfg     Config
	now     func() time.Time
}

// Option customises Router construction.
type Option func(*Router)

// WithClock replaces the time source, used by debounce tests.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a Router over the given catalog and state tracker.
func New(c *catalog.Catalog, states state.Tracker, cfg Config, opts ...Option) *Router {
	r := &Router{
		catalog: c,
		states:  states,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle routes one update and returns the actions to perform. A nil
// action slice with nil error means the update was deliberately ignored
// (unknown callbacks, debounced greetings). State store failures degrade
// to root-level behaviour and are reported alongside the actions.
func (r *Router) Handle(ctx context.Context, upd Update) ([]Action, error) {
	conv, err := r.states.Get(ctx, upd.ChatID)
	if err != nil {
		// Get already degrades to root; log and keep serving.
		logger.Warn(ctx, "router", "state.get.degraded",
			slog.Int64("chat_id", upd.ChatID),
			slog.String("err", err.Error()),
		)
	}

	switch upd.Kind {
	case KindCommand:
		return r.handleCommand(ctx, upd, conv)
	case KindText:
		return r.handleText(ctx, upd, conv)
	case KindCallback:
		return r.handleCallback(ctx, upd, conv)
	}
	return nil, nil
}

func (r *Router) handleCommand(ctx context.Context, upd Update, conv state.Conversation) ([]Action, error) {
	if upd.Command != "/start" {
		return []Action{
			SendText{ChatID: upd.ChatID, Text: menu.UnknownText, Keyboard: menu.Main()},
		}, nil
	}

	if r.welcomeDebounced(conv) {
		metrics.RecordWelcomeDebounced()
		logger.Debug(ctx, "router", "welcome.debounced",
			slog.Int64("chat_id", upd.ChatID),
		)
		return nil, r.states.Reset(ctx, upd.ChatID)
	}

	if err := r.states.MarkWelcome(ctx, upd.ChatID, r.now()); err != nil {
		return r.welcomeActions(upd.ChatID), err
	}
	return r.welcomeActions(upd.ChatID), r.states.Reset(ctx, upd.ChatID)
}

func (r *Router) welcomeDebounced(conv state.Conversation) bool {
	if r.cfg.WelcomeDebounce <= 0 || conv.LastWelcomeAt.IsZero() {
		return false
	}
	return r.now().Sub(conv.LastWelcomeAt) < r.cfg.WelcomeDebounce
}

func (r *Router) welcomeActions(chatID int64) []Action {
	return []Action{
		SendText{ChatID: chatID, Text: menu.WelcomeText},
		SendText{ChatID: chatID, Text: menu.MenuPromptText, Keyboard: menu.Main()},
	}
}

func (r *Router) handleText(ctx context.Context, upd Update, conv state.Conversation) ([]Action, error) {
	// Main-menu labels are global vocabulary: the root reply keyboard stays
	// on screen while inline lists are open, so its presses are honored
	// regardless of the current level.
	switch upd.Text {
	case menu.LabelLocations:
		return r.listActions(upd.ChatID, catalog.Locations),
			r.states.SetLevel(ctx, upd.ChatID, state.LevelLocations)
	case menu.LabelProjects:
		return r.listActions(upd.ChatID, catalog.Projects),
			r.states.SetLevel(ctx, upd.ChatID, state.LevelProjects)
	case menu.LabelPrice:
		return []Action{SendText{ChatID: upd.ChatID, Text: menu.PriceStubText}}, nil
	case menu.LabelQuestion:
		return []Action{SendText{ChatID: upd.ChatID, Text: menu.QuestionStubText}}, nil
	case menu.LabelManager:
		text := menu.ManagerText(r.cfg.ManagerPhone, r.cfg.ManagerHandle)
		return []Action{SendText{ChatID: upd.ChatID, Text: text}}, nil
	}

	// Plain text on a list level selects a catalog entry by name; older
	// revisions of the menus used reply keyboards on the lists.
	if kind, ok := listKind(conv.Level); ok {
		if r.catalog.Has(kind, upd.Text) {
			return r.cardActions(upd.ChatID, kind, upd.Text), nil
		}
		return []Action{
			SendText{ChatID: upd.ChatID, Text: menu.UnknownText, Keyboard: menu.Main()},
			r.listAction(upd.ChatID, kind),
		}, nil
	}

	return []Action{
		SendText{ChatID: upd.ChatID, Text: menu.UnknownText, Keyboard: menu.Main()},
	}, nil
}

func (r *Router) handleCallback(ctx context.Context, upd Update, conv state.Conversation) ([]Action, error) {
	if name, ok := menu.ParseSelect(upd.Action); ok {
		kind, onList := listKind(conv.Level)
		if !onList {
			// Stale inline keyboard after a reset: resolve against both
			// catalogs instead of dead-ending the interaction.
			if r.catalog.Has(catalog.Locations, name) {
				kind = catalog.Locations
			} else {
				kind = catalog.Projects
			}
		}
		return r.cardActions(upd.ChatID, kind, name), nil
	}

	switch upd.Action {
	case menu.ActionBackToList:
		kind, onList := listKind(conv.Level)
		if !onList {
			return []Action{
				SendText{ChatID: upd.ChatID, Text: menu.MenuPromptText, Keyboard: menu.Main()},
			}, nil
		}
		return []Action{r.listAction(upd.ChatID, kind)}, nil

	case menu.ActionBackToMenu:
		// Explicit return to the main menu is never debounced.
		actions := r.welcomeActions(upd.ChatID)
		return actions, r.states.Reset(ctx, upd.ChatID)
	}

	// Unknown action: the ingress has already acknowledged the callback,
	// nothing else to do.
	logger.Debug(ctx, "router", "callback.unknown",
		slog.Int64("chat_id", upd.ChatID),
		slog.String("cb_key", logger.SanitizeLimit(upd.Action, 64)),
	)
	return nil, nil
}

func (r *Router) listActions(chatID int64, kind catalog.Kind) []Action {
	return []Action{r.listAction(chatID, kind)}
}

func (r *Router) listAction(chatID int64, kind catalog.Kind) Action {
	text := menu.LocationsListText
	if kind == catalog.Projects {
		text = menu.ProjectsListText
	}
	grid := menu.List(r.catalog, kind)
	if grid.Empty() {
		return SendText{ChatID: chatID, Text: text + "\n\n" + menu.ComingSoonText}
	}
	return SendText{ChatID: chatID, Text: text, Keyboard: grid}
}

func (r *Router) cardActions(chatID int64, kind catalog.Kind, name string) []Action {
	entry, ok := r.catalog.Lookup(kind, name)
	if !ok {
		return []Action{SendText{ChatID: chatID, Text: menu.ComingSoonText}}
	}

	if entry.Image == "" {
		return []Action{
			SendText{ChatID: chatID, Text: entry.Caption, Keyboard: menu.Card(entry)},
		}
	}
	return []Action{
		SendPhoto{
			ChatID:   chatID,
			ImageRef: entry.Image,
			Caption:  entry.Caption,
			Keyboard: menu.Card(entry),
			Fallback: &SendText{
				ChatID:   chatID,
				Text:     entry.Caption,
				Keyboard: menu.ImageFallback(entry),
			},
		},
	}
}

func listKind(level state.Level) (catalog.Kind, bool) {
	switch level {
	case state.LevelLocations:
		return catalog.Locations, true
	case state.LevelProjects:
		return catalog.Projects, true
	}
	return catalog.Locations, false
}
