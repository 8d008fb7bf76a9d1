package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/testingsyndicate/stubctl/pkg/cli/internal/output"
	"github.com/testingsyndicate/stubctl/pkg/config"
	"github.com/testingsyndicate/stubctl/pkg/logging"
	"github.com/testingsyndicate/stubctl/pkg/session"
	"github.com/testingsyndicate/stubctl/pkg/stubby"
	"github.com/testingsyndicate/stubctl/pkg/stubby/container"
	"github.com/testingsyndicate/stubctl/pkg/stubby/process"
)

// loadConfig resolves and validates the effective configuration:
// defaults, settings file, environment, then the flags set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.Load(dir, settingsPath)
	if err != nil {
		return nil, err
	}
	cfg.Apply(cfgFlags.overrides(cmd.Flags()), config.SourceFlag)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the CLI logger. --debug in any layer raises it to debug.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.FromFlags(logLevel, logFormat, cfg.Debug)
}

// factoryMode selects how the backend attaches stubby's output.
type factoryMode int

const (
	// background leaves stubby running after stubctl exits.
	background factoryMode = iota
	// foreground streams stubby's output to the terminal.
	foreground
)

// newFactory returns the backend factory selected by cfg.
func newFactory(cfg *config.Config, store *session.Store, mode factoryMode, stdout io.Writer, log *slog.Logger) (stubby.Factory, error) {
	switch cfg.Backend {
	case config.BackendProcess:
		opts := process.Options{
			Java:         cfg.Java,
			Jar:          cfg.Jar,
			ReadyTimeout: cfg.ReadyTimeout,
			StopTimeout:  cfg.StopTimeout,
			Logger:       log,
		}
		if mode == background {
			opts.Detach = true
			opts.LogFile = store.LogPath(cfg.Session)
		} else {
			opts.Output = stdout
		}
		return process.NewFactory(opts), nil

	case config.BackendContainer:
		opts := container.Options{
			Image:        cfg.Image,
			Name:         containerName(cfg.Session),
			ReadyTimeout: cfg.ReadyTimeout,
			Logger:       log,
		}
		if mode == background {
			opts.Detach = true
		} else {
			opts.Output = stdout
		}
		return container.NewFactory(opts), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// containerName names the stubby container of a session.
func containerName(sessionName string) string {
	return "stubctl-" + sessionName
}

// serverConfig maps the CLI configuration onto the stub server description.
func serverConfig(cfg *config.Config, factory stubby.Factory, log *slog.Logger) stubby.Config {
	return stubby.Config{
		StubsFile: cfg.StubsFile,
		HTTPPort:  cfg.HTTPPort,
		HTTPSPort: cfg.HTTPSPort,
		AdminPort: cfg.AdminPort,
		Mute:      cfg.Mute,
		Debug:     cfg.Debug,
		Watch:     cfg.Watch,
		Factory:   factory,
		Logger:    log,
	}
}

// configuredPorts lists every port stubby will bind.
func configuredPorts(cfg *config.Config) []int {
	ps := []int{cfg.HTTPPort}
	if cfg.HTTPSPort != nil {
		ps = append(ps, *cfg.HTTPSPort)
	}
	if cfg.AdminPort != nil {
		ps = append(ps, *cfg.AdminPort)
	}
	return ps
}

// printResult outputs a single operation result.
//
// When --json is active, ONLY the JSON encoding of data is written to
// stdout. textFn is called only in text mode.
func printResult(cmd *cobra.Command, data any, textFn func(w io.Writer)) error {
	if jsonOutput {
		return output.JSON(cmd.OutOrStdout(), data)
	}
	textFn(cmd.OutOrStdout())
	return nil
}
