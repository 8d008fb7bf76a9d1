package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/testingsyndicate/stubctl/internal/ports"
	"github.com/testingsyndicate/stubctl/pkg/lifecycle"
	"github.com/testingsyndicate/stubctl/pkg/logging"
	"github.com/testingsyndicate/stubctl/pkg/session"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start stubby in the background",
	Long: `Start stubby in the background and record it in the session file.

stubctl returns once stubby accepts connections on its stubs port. Run
"stubctl stop" with the same --session and --state-dir to shut it down.`,
	Example: `  # Start with the defaults (testdata/stubs.yaml on port 8882)
  stubctl start

  # Start on another port with the admin portal enabled
  stubctl start --http-port 9000 --admin-port 9001

  # Start in Docker instead of a local JVM
  stubctl start --backend container`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store := session.NewStore(cfg.StateDir)
	if err := store.Init(); err != nil {
		return err
	}
	sess, err := store.Load(cfg.Session)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(store.LogPath(cfg.Session), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open session log: %w", err)
	}
	defer logFile.Close()
	log := logging.Tee(newLogger(cfg), logFile, logging.LevelInfo)

	if _, recorded := session.Get(sess, lifecycle.HandleKey); !recorded {
		if err := ports.CheckAll(configuredPorts(cfg)...); err != nil {
			return err
		}
	}

	factory, err := newFactory(cfg, store, background, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}
	opts := lifecycle.Options{Server: serverConfig(cfg, factory, log), Logger: log}

	startErr := lifecycle.Start(cmd.Context(), sess, opts)
	if err := store.Save(cfg.Session, sess); err != nil {
		if startErr != nil {
			return startErr
		}
		return err
	}
	if startErr != nil {
		return startErr
	}

	h, _ := session.Get(sess, lifecycle.HandleKey)
	info := newServerInfo(cfg.Session, h, true)
	return printResult(cmd, info, func(w io.Writer) {
		fmt.Fprintf(w, "stubby started on %s (session %q)\n", h.URL(), cfg.Session)
		if h.LogFile != "" {
			fmt.Fprintf(w, "output: %s\n", h.LogFile)
		}
	})
}
