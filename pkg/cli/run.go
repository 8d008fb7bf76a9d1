package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/testingsyndicate/stubctl/internal/ports"
	"github.com/testingsyndicate/stubctl/pkg/lifecycle"
	"github.com/testingsyndicate/stubctl/pkg/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run stubby in the foreground until interrupted",
	Long: `Run stubby in the foreground, streaming its output, until it exits or
stubctl receives SIGINT or SIGTERM. Interrupting stops stubby.`,
	Example: `  stubctl run
  stubctl run --debug --mute=false`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if err := ports.CheckAll(configuredPorts(cfg)...); err != nil {
		return err
	}

	factory, err := newFactory(cfg, session.NewStore(cfg.StateDir), foreground, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return lifecycle.Run(ctx, lifecycle.Options{Server: serverConfig(cfg, factory, log), Logger: log})
}
