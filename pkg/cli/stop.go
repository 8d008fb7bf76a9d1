package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/testingsyndicate/stubctl/pkg/lifecycle"
	"github.com/testingsyndicate/stubctl/pkg/session"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the stubby started by stubctl start",
	Long: `Stop the stubby recorded in the session file by "stubctl start".

Fails when the session has no running stubby.`,
	Example: `  stubctl stop
  stubctl stop --session payments`,
	Args: cobra.NoArgs,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

// stopResult is the JSON output of stop.
type stopResult struct {
	Session string `json:"session"`
	Stopped bool   `json:"stopped"`
}

func runStop(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	store := session.NewStore(cfg.StateDir)
	sess, err := store.Load(cfg.Session)
	if err != nil {
		return err
	}

	factory, err := newFactory(cfg, store, background, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}
	opts := lifecycle.Options{Server: serverConfig(cfg, factory, log), Logger: log}

	stopErr := lifecycle.Stop(cmd.Context(), sess, opts)
	if err := store.Save(cfg.Session, sess); err != nil && stopErr == nil {
		return err
	}
	if stopErr != nil {
		return stopErr
	}

	return printResult(cmd, stopResult{Session: cfg.Session, Stopped: true}, func(w io.Writer) {
		fmt.Fprintf(w, "stubby stopped (session %q)\n", cfg.Session)
	})
}
