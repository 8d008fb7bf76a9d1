package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	logLevel     string
	logFormat    string
	settingsPath string
	jsonOutput   bool
	cfgFlags     configFlags

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stubctl",
	Short: "stubctl starts and stops a stubby4j stub server around your tests",
	Long: `stubctl manages a stubby4j stub server for integration tests.

  stubctl start   start stubby in the background
  stubctl stop    stop the stubby started by "stubctl start"
  stubctl run     run stubby in the foreground until interrupted

Configuration is read from flags, STUBCTL_* environment variables and a
.stubctl.yaml file in the working directory, in that order of precedence.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

// Execute runs the root command and exits non-zero on failure.
// This is called by main.main().
func Execute() {
	if code := Main(); code != 0 {
		os.Exit(code)
	}
}

// Main runs the root command with os.Args and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "Settings file (default: .stubctl.yaml in the working directory)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")

	cfgFlags.register(rootCmd.PersistentFlags())
}
