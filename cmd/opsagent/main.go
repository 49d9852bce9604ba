// Command opsagent diagnoses and repairs a deployed bot from the
// outside: token check, webhook registration, health probes and an
// optional redeploy. It always exits 0; problems are reported in the
// JSON summary so cron runs never flap.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/mrhouse-klg/housebot/core/ops"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:           "opsagent",
		Short:         "Diagnose and repair the deployed bot",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg ops.Config
			if err := envconfig.Process("", &cfg); err != nil {
				return fmt.Errorf("process env: %w", err)
			}
			if cfg.Token == "" {
				return fmt.Errorf("BOT_TOKEN is required")
			}

			runner := ops.NewRunner(cfg)
			summary := runner.Run(cmd.Context(), action)
			if err := summary.Print(os.Stdout); err != nil {
				log.Printf("print summary: %v", err)
			}
			// Problems are part of the report, not an exit condition.
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", ops.ActionDiagnose, "diagnose, fix-webhook, redeploy or full")
	return cmd
}
