// Package ops is the diagnostic companion: it inspects a deployed bot
// from the outside (token validity, webhook registration, health
// endpoints) and can repair the webhook or trigger a redeploy. Every run
// completes and produces a summary; problems are reported, not fatal.
package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mrhouse-klg/housebot/core/logger"
	"github.com/mrhouse-klg/housebot/core/telegram"
)

// Supported actions.
const (
	ActionDiagnose   = "diagnose"
	ActionFixWebhook = "fix-webhook"
	ActionRedeploy   = "redeploy"
	ActionFull       = "full"
)

// Problem codes surfaced in the summary.
const (
	ProblemTokenInvalid      = "TELEGRAM_TOKEN_INVALID"
	ProblemSetWebhookFailed  = "SET_WEBHOOK_FAILED"
	ProblemMissingWebhookEnv = "MISSING_ENV_FOR_WEBHOOK"
	ProblemWebhookMismatch   = "WEBHOOK_MISMATCH"
	ProblemHealthFailed      = "HEALTH_CHECK_FAILED"
	ProblemRedeployFailed    = "REDEPLOY_FAILED"
)

// Redeploy modes recorded in the summary.
const (
	RedeployModeHook = "hook"
	RedeployModeAPI  = "api"
	RedeployModeNone = "none"
)

const defaultRenderAPIBase = "https://api.render.com"

// Config is the companion's environment. It deliberately mirrors the
// bot's deployment variables so the same env block drives both.
type Config struct {
	Token         string `envconfig:"BOT_TOKEN"`
	BaseURL       string `envconfig:"BASE_URL"`
	WebhookSecret string `envconfig:"WEBHOOK_SECRET"`

	DeployHook      string `envconfig:"RENDER_DEPLOY_HOOK"`
	RenderAPIKey    string `envconfig:"RENDER_API_KEY"`
	RenderServiceID string `envconfig:"RENDER_SERVICE_ID"`

	HealthAttempts int `envconfig:"OPS_HEALTH_ATTEMPTS"`
	HealthDelaySec int `envconfig:"OPS_HEALTH_DELAY_SECONDS"`
}

// Summary is the machine-readable outcome of one run, printed as JSON.
type Summary struct {
	Action         string    `json:"action"`
	MeOK           bool      `json:"me_ok"`
	BotUsername    string    `json:"bot_username,omitempty"`
	WebhookURL     string    `json:"webhook_url"`
	WebhookMatches bool      `json:"webhook_matches"`
	HealthRoot     bool      `json:"health_root"`
	HealthVersion  bool      `json:"health_version"`
	RedeployMode   string    `json:"redeploy_mode"`
	Problems       []string  `json:"problems"`
	CheckedAt      time.Time `json:"checked_at"`
}

// BotAPI is the slice of the Bot API the companion needs.
type BotAPI interface {
	GetMe(ctx context.Context) (telegram.User, error)
	SetWebhook(ctx context.Context, url, secret string) error
	GetWebhookInfo(ctx context.Context) (telegram.WebhookInfo, error)
}

// Runner executes companion actions sequentially.
type Runner struct {
	cfg        Config
	api        BotAPI
	client     *http.Client
	renderBase string
	sleep      func(time.Duration)
	now        func() time.Time
}

// Option customises Runner construction, used by tests.
type Option func(*Runner)

// WithBotAPI replaces the Bot API client.
func WithBotAPI(api BotAPI) Option {
	return func(r *Runner) { r.api = api }
}

// WithHTTPClient replaces the probe client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithRenderBase points redeploy API calls at a different server.
func WithRenderBase(base string) Option {
	return func(r *Runner) { r.renderBase = strings.TrimRight(base, "/") }
}

// WithSleep replaces the retry delay.
func WithSleep(sleep func(time.Duration)) Option {
	return func(r *Runner) { r.sleep = sleep }
}

// NewRunner builds a Runner for the given environment.
func NewRunner(cfg Config, opts ...Option) *Runner {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.HealthAttempts <= 0 {
		cfg.HealthAttempts = 5
	}
	if cfg.HealthDelaySec <= 0 {
		cfg.HealthDelaySec = 3
	}
	r := &Runner{
		cfg:        cfg,
		client:     telegram.BuildProbeClient(),
		renderBase: defaultRenderAPIBase,
		sleep:      time.Sleep,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.api == nil {
		r.api = telegram.NewAPI(cfg.Token, telegram.WithHTTPClient(r.client))
	}
	return r
}

// Run executes the requested action and always returns a summary. An
// unknown action falls back to diagnose.
func (r *Runner) Run(ctx context.Context, action string) Summary {
	s := Summary{
		Action:       action,
		RedeployMode: r.redeployMode(),
		CheckedAt:    r.now().UTC(),
		Problems:     []string{},
	}

	switch action {
	case ActionRedeploy:
		r.redeploy(ctx, &s)
		return s
	case ActionDiagnose, ActionFixWebhook, ActionFull:
	default:
		s.Action = ActionDiagnose
	}

	r.checkToken(ctx, &s)
	r.checkWebhook(ctx, &s)

	if (action == ActionFixWebhook || action == ActionFull) && s.MeOK && !s.WebhookMatches {
		r.fixWebhook(ctx, &s)
	}

	r.checkHealth(ctx, &s)

	if action == ActionFull {
		r.redeploy(ctx, &s)
	}
	return s
}

func (r *Runner) checkToken(ctx context.Context, s *Summary) {
	user, err := r.api.GetMe(ctx)
	if err != nil {
		s.addProblem(ProblemTokenInvalid)
		logger.Warn(ctx, "ops", "token.check.failed",
			slog.String("err", logger.RedactToken(err.Error())),
		)
		return
	}
	s.MeOK = true
	s.BotUsername = user.Username
	logger.Info(ctx, "ops", "token.check.ok",
		slog.String("bot", user.Username),
	)
}

func (r *Runner) checkWebhook(ctx context.Context, s *Summary) {
	if !s.MeOK {
		return
	}
	info, err := r.api.GetWebhookInfo(ctx)
	if err != nil {
		s.addProblem(ProblemWebhookMismatch)
		logger.Warn(ctx, "ops", "webhook.check.failed",
			slog.String("err", logger.RedactToken(err.Error())),
		)
		return
	}
	s.WebhookURL = info.URL

	want := r.expectedWebhookURL()
	if want == "" {
		s.addProblem(ProblemMissingWebhookEnv)
		return
	}
	if info.URL == want {
		s.WebhookMatches = true
		return
	}
	s.addProblem(ProblemWebhookMismatch)
	logger.Warn(ctx, "ops", "webhook.mismatch",
		slog.String("webhook_url", info.URL),
		slog.String("expected", want),
	)
}

func (r *Runner) fixWebhook(ctx context.Context, s *Summary) {
	want := r.expectedWebhookURL()
	if want == "" {
		return
	}
	if err := r.api.SetWebhook(ctx, want, r.cfg.WebhookSecret); err != nil {
		s.addProblem(ProblemSetWebhookFailed)
		logger.Error(ctx, "ops", "webhook.fix.failed",
			slog.String("webhook_url", want),
			slog.String("err", logger.RedactToken(err.Error())),
		)
		return
	}
	s.WebhookURL = want
	s.WebhookMatches = true
	s.removeProblem(ProblemWebhookMismatch)
	logger.Info(ctx, "ops", "webhook.fixed",
		slog.String("webhook_url", want),
	)
}

func (r *Runner) checkHealth(ctx context.Context, s *Summary) {
	if r.cfg.BaseURL == "" {
		s.addProblem(ProblemMissingWebhookEnv)
		return
	}
	s.HealthRoot = r.waitOK(ctx, r.cfg.BaseURL+"/")
	s.HealthVersion = r.waitOK(ctx, r.cfg.BaseURL+"/version")
	if !s.HealthRoot || !s.HealthVersion {
		s.addProblem(ProblemHealthFailed)
	}
}

// waitOK probes url until it answers 200 or attempts are exhausted.
func (r *Runner) waitOK(ctx context.Context, url string) bool {
	delay := time.Duration(r.cfg.HealthDelaySec) * time.Second
	for attempt := 1; attempt <= r.cfg.HealthAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return false
		}
		resp, err := r.client.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		if attempt == r.cfg.HealthAttempts || ctx.Err() != nil {
			break
		}
		r.sleep(delay)
	}
	return false
}

func (r *Runner) redeployMode() string {
	switch {
	case r.cfg.DeployHook != "":
		return RedeployModeHook
	case r.cfg.RenderAPIKey != "" && r.cfg.RenderServiceID != "":
		return RedeployModeAPI
	}
	return RedeployModeNone
}

// redeploy triggers a new deploy through the deploy hook when present,
// else the Render API. Without credentials it records mode "none" and
// does nothing.
func (r *Runner) redeploy(ctx context.Context, s *Summary) {
	switch s.RedeployMode {
	case RedeployModeHook:
		r.postRedeploy(ctx, s, r.cfg.DeployHook, "")
	case RedeployModeAPI:
		url := fmt.Sprintf("%s/v1/services/%s/deploys", r.renderBase, r.cfg.RenderServiceID)
		r.postRedeploy(ctx, s, url, r.cfg.RenderAPIKey)
	default:
		logger.Info(ctx, "ops", "redeploy.skipped",
			slog.String("reason", "no deploy hook or API credentials"),
		)
	}
}

func (r *Runner) postRedeploy(ctx context.Context, s *Summary, url, apiKey string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		s.addProblem(ProblemRedeployFailed)
		return
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
		req.Header.Set("Accept", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		s.addProblem(ProblemRedeployFailed)
		logger.Error(ctx, "ops", "redeploy.failed",
			slog.String("err", logger.RedactToken(err.Error())),
		)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusBadRequest {
		s.addProblem(ProblemRedeployFailed)
		logger.Error(ctx, "ops", "redeploy.failed",
			slog.Int("http_code", resp.StatusCode),
		)
		return
	}
	logger.Info(ctx, "ops", "redeploy.triggered",
		slog.String("mode", s.RedeployMode),
	)
}

func (r *Runner) expectedWebhookURL() string {
	if r.cfg.BaseURL == "" {
		return ""
	}
	return r.cfg.BaseURL + "/webhook"
}

func (s *Summary) addProblem(code string) {
	for _, p := range s.Problems {
		if p == code {
			return
		}
	}
	s.Problems = append(s.Problems, code)
}

func (s *Summary) removeProblem(code string) {
	out := s.Problems[:0]
	for _, p := range s.Problems {
		if p != code {
			out = append(out, p)
		}
	}
	s.Problems = out
}

// Print writes the summary as indented JSON.
func (s Summary) Print(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
