package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/testingsyndicate/stubctl/pkg/cli/internal/output"
	"github.com/testingsyndicate/stubctl/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and where each value came from",
	Example: `  stubctl config
  STUBCTL_HTTP_PORT=9000 stubctl config --json`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// configEntry is one row of the config output.
type configEntry struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	entries := configEntries(cfg)
	return printResult(cmd, entries, func(w io.Writer) {
		t := output.Table(w)
		t.AppendHeader(table.Row{"Field", "Value", "Source"})
		for _, e := range entries {
			t.AppendRow(table.Row{e.Field, e.Value, e.Source})
		}
		t.Render()
	})
}

func configEntries(cfg *config.Config) []configEntry {
	values := map[string]string{
		"stubsFile":    cfg.StubsFile,
		"httpPort":     strconv.Itoa(cfg.HTTPPort),
		"httpsPort":    optionalPortString(cfg.HTTPSPort),
		"adminPort":    optionalPortString(cfg.AdminPort),
		"mute":         strconv.FormatBool(cfg.Mute),
		"debug":        strconv.FormatBool(cfg.Debug),
		"watch":        strconv.FormatBool(cfg.Watch),
		"backend":      cfg.Backend,
		"java":         cfg.Java,
		"jar":          cfg.Jar,
		"image":        cfg.Image,
		"readyTimeout": cfg.ReadyTimeout.String(),
		"stopTimeout":  cfg.StopTimeout.String(),
		"stateDir":     cfg.StateDir,
		"session":      cfg.Session,
	}

	fields := config.Fields()
	entries := make([]configEntry, 0, len(fields))
	for _, f := range fields {
		entries = append(entries, configEntry{Field: f, Value: values[f], Source: cfg.Source(f)})
	}
	return entries
}

func optionalPortString(p *int) string {
	if p == nil {
		return "disabled"
	}
	return fmt.Sprint(*p)
}
