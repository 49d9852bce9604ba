// Package web is the HTTP ingress: the Telegram webhook endpoint plus
// the health, version, metrics and webhook-management routes.
package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	tele "gopkg.in/telebot.v4"

	"github.com/mrhouse-klg/housebot/core/buildinfo"
	"github.com/mrhouse-klg/housebot/core/config"
	"github.com/mrhouse-klg/housebot/core/logger"
	"github.com/mrhouse-klg/housebot/core/metrics"
	"github.com/mrhouse-klg/housebot/core/router"
	"github.com/mrhouse-klg/housebot/core/telegram"
)

const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateBody = 1 << 20

// Handler routes one inbound update into outbound actions.
type Handler interface {
	Handle(ctx context.Context, upd router.Update) ([]router.Action, error)
}

// Executor performs the actions a handler returned.
type Executor interface {
	Ack(ctx context.Context, callbackID string)
	Execute(ctx context.Context, actions []router.Action) error
}

// WebhookManager is the slice of the Bot API needed by /set_webhook.
type WebhookManager interface {
	SetWebhook(ctx context.Context, url, secret string) error
	GetWebhookInfo(ctx context.Context) (telegram.WebhookInfo, error)
}

// App wires the ingress routes to the router and executor.
type App struct {
	cfg     *config.Config
	handler Handler
	exec    Executor
	api     WebhookManager
}

// NewApp builds the ingress application.
func NewApp(cfg *config.Config, handler Handler, exec Executor, api WebhookManager) *App {
	return &App{cfg: cfg, handler: handler, exec: exec, api: api}
}

// Routes assembles the chi handler tree.
func (a *App) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(accessLog)
	r.Use(recoverer)

	r.Get("/", a.handleHealth)
	r.Get("/version", a.handleVersion)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/set_webhook", a.handleSetWebhook)
	r.Post("/webhook", a.handleWebhook)

	return r
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *App) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

// handleSetWebhook registers the webhook with Telegram. The call is
// idempotent: when the registered URL already matches, nothing is sent.
func (a *App) handleSetWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hookURL := a.cfg.WebhookURL()

	info, err := a.api.GetWebhookInfo(ctx)
	if err != nil {
		logger.Error(ctx, "web", "set_webhook.inspect.failed",
			slog.String("err", logger.RedactToken(err.Error())),
		)
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": "getWebhookInfo failed"})
		return
	}

	if info.URL == hookURL {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "webhook_url": hookURL, "changed": false})
		return
	}

	if err := a.api.SetWebhook(ctx, hookURL, a.cfg.Webhook.Secret); err != nil {
		logger.Error(ctx, "web", "set_webhook.failed",
			slog.String("webhook_url", hookURL),
			slog.String("err", logger.RedactToken(err.Error())),
		)
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": "setWebhook failed"})
		return
	}

	logger.Info(ctx, "web", "set_webhook.registered",
		slog.String("webhook_url", hookURL),
	)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "webhook_url": hookURL, "changed": true})
}

// handleWebhook is the update ingress. Telegram redelivers any update
// that does not get a 200, so once an update is decoded the response is
// always 200: send failures are logged, never bounced back.
func (a *App) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if secret := a.cfg.Webhook.Secret; secret != "" {
		if r.Header.Get(secretTokenHeader) != secret {
			logger.Warn(ctx, "web", "webhook.secret.mismatch")
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBody))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var raw tele.Update
	if err := json.Unmarshal(body, &raw); err != nil {
		logger.Warn(ctx, "web", "webhook.decode.failed",
			slog.String("err", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	upd, ok := mapUpdate(raw)
	if !ok {
		// Unsupported update type, acknowledge and move on.
		metrics.RecordUpdate("other", "ignored")
		w.WriteHeader(http.StatusOK)
		return
	}

	ctx = logger.WithUpdateMeta(ctx, upd.ID, upd.UserID, upd.ChatID)

	if upd.Kind == router.KindCallback {
		a.exec.Ack(ctx, upd.CallbackID)
	}

	actions, err := a.handler.Handle(ctx, upd)
	kind := updateKindLabel(upd.Kind)
	if err != nil {
		metrics.RecordUpdate(kind, "fail")
		logger.Error(ctx, "web", "webhook.route.failed",
			slog.String("err", logger.RedactToken(err.Error())),
		)
	} else {
		metrics.RecordUpdate(kind, "ok")
	}

	if execErr := a.exec.Execute(ctx, actions); execErr != nil {
		logger.Error(ctx, "web", "webhook.send.failed",
			slog.String("err", logger.RedactToken(execErr.Error())),
		)
	}

	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
