package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot credentials and admin settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
}

// WebhookConfig specifies the public URL and the local listener for updates.
type WebhookConfig struct {
	BaseURL string `yaml:"base_url" envconfig:"BASE_URL"`
	Listen  string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port    int    `yaml:"port" envconfig:"PORT"`
	// Secret enables the X-Telegram-Bot-Api-Secret-Token check when non-empty.
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// DefaultWelcomeDebounceSeconds is the window used to absorb duplicate
// /start deliveries when no explicit window is configured.
const DefaultWelcomeDebounceSeconds = 10

// MenuConfig carries user-facing menu settings.
type MenuConfig struct {
	// WelcomeDebounceSeconds suppresses repeated /start greetings within the
	// window. Unset (0) falls back to the default; a negative value disables
	// the debounce entirely.
	WelcomeDebounceSeconds int    `yaml:"welcome_debounce_seconds" envconfig:"WELCOME_DEBOUNCE_SECONDS"`
	ManagerPhone           string `yaml:"manager_phone" envconfig:"MANAGER_PHONE"`
	ManagerHandle          string `yaml:"manager_handle" envconfig:"MANAGER_HANDLE"`
}

// CatalogConfig points to an optional catalog file overriding embedded content.
type CatalogConfig struct {
	Path string `yaml:"path" envconfig:"CATALOG_PATH"`
}

const (
	// StoreMemory keeps conversation state in the process; single worker only.
	StoreMemory = "memory"
	// StorePostgres keeps conversation state in a shared Postgres table.
	StorePostgres = "postgres"
)

// StateConfig selects the conversation state store.
type StateConfig struct {
	Store string `yaml:"store" envconfig:"STATE_STORE"`
}

// DatabaseConfig holds Postgres connection settings for the shared state store.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile"`
}

// Config aggregates the bot process configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Menu     MenuConfig     `yaml:"menu"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	State    StateConfig    `yaml:"state"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from a YAML file and environment variables.
// The file may be absent; env vars alone are enough for hosted deployments.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}

	cfg.Webhook.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Webhook.BaseURL), "/")
	if cfg.Webhook.BaseURL == "" {
		return fmt.Errorf("webhook.base_url is required")
	}
	if strings.TrimSpace(cfg.Webhook.Listen) == "" {
		cfg.Webhook.Listen = "0.0.0.0"
	}
	if cfg.Webhook.Port == 0 {
		cfg.Webhook.Port = 8080
	}
	if cfg.Webhook.Port < 0 {
		return fmt.Errorf("webhook.port must be > 0")
	}

	if cfg.Menu.WelcomeDebounceSeconds == 0 {
		cfg.Menu.WelcomeDebounceSeconds = DefaultWelcomeDebounceSeconds
	}

	store := strings.ToLower(strings.TrimSpace(cfg.State.Store))
	if store == "" {
		store = StoreMemory
	}
	switch store {
	case StoreMemory:
	case StorePostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("database host, name and user are required when state.store is 'postgres'")
		}
		if cfg.Database.Port == "" {
			cfg.Database.Port = "5432"
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	default:
		return fmt.Errorf("invalid state.store %q; allowed: memory, postgres", cfg.State.Store)
	}
	cfg.State.Store = store

	return nil
}

// WebhookURL is the public URL Telegram should deliver updates to.
func (c *Config) WebhookURL() string {
	return c.Webhook.BaseURL + "/webhook"
}

// ListenAddr is the local address the HTTP server binds.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Webhook.Listen, c.Webhook.Port)
}
