// Command housebot runs the Mr. House Telegram bot: webhook ingress,
// menu routing and the outbound Telegram client in one process.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrhouse-klg/housebot/core/buildinfo"
	"github.com/mrhouse-klg/housebot/core/catalog"
	"github.com/mrhouse-klg/housebot/core/config"
	"github.com/mrhouse-klg/housebot/core/database"
	"github.com/mrhouse-klg/housebot/core/logger"
	"github.com/mrhouse-klg/housebot/core/router"
	"github.com/mrhouse-klg/housebot/core/state"
	"github.com/mrhouse-klg/housebot/core/telegram"
	"github.com/mrhouse-klg/housebot/core/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "housebot",
		Short:         "Mr. House construction company Telegram bot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("housebot %s (%s, %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		},
	}
}

func newServeCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgPath == "" {
				cfgPath = os.Getenv("CONFIG_PATH")
			}
			if cfgPath == "" {
				cfgPath = "config.yaml"
			}
			return serve(cfgPath)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "config file path (defaults to $CONFIG_PATH or config.yaml)")
	return cmd
}

func serve(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	tracker, err := buildTracker(cfg)
	if err != nil {
		return err
	}

	bot, err := telegram.NewBot(cfg.Telegram.Token, false)
	if err != nil {
		return err
	}

	debounce := time.Duration(cfg.Menu.WelcomeDebounceSeconds) * time.Second
	handler := router.New(cat, tracker, router.Config{
		WelcomeDebounce: debounce,
		ManagerPhone:    cfg.Menu.ManagerPhone,
		ManagerHandle:   cfg.Menu.ManagerHandle,
	})

	app := web.NewApp(cfg,
		handler,
		telegram.NewExecutor(bot),
		telegram.NewAPI(cfg.Telegram.Token),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.L.With("component", "app").Info("starting",
		slog.String("event", "start"),
		slog.String("version", buildinfo.Version),
		slog.String("bot", bot.Me.Username),
		slog.String("store", cfg.State.Store),
	)

	err = app.Run(ctx)

	logger.L.With("component", "app").Info("shutting down...",
		slog.String("event", "shutdown"),
	)
	return err
}

func buildTracker(cfg *config.Config) (state.Tracker, error) {
	if cfg.State.Store != config.StorePostgres {
		return state.NewMemoryTracker(), nil
	}
	if err := database.RunMigrations(cfg.Database); err != nil {
		return nil, err
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}
	return state.NewPostgresTracker(db), nil
}
