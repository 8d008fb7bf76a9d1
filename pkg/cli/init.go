package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/testingsyndicate/stubctl/pkg/cli/templates"
	"github.com/testingsyndicate/stubctl/pkg/config"
)

var (
	initForce       bool
	initInteractive bool
	initTemplate    string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .stubctl.yaml and a starter stubs file",
	Long: `Create a .stubctl.yaml settings file in the working directory and, if it
does not exist yet, a starter stubs file.

Values come from the usual flags, or from prompts with --interactive. An
existing stubs file is never overwritten.`,
	Example: `  # Settings for the defaults
  stubctl init

  # REST starter stubs on port 9000
  stubctl init -t rest --http-port 9000

  # Prompt for each value
  stubctl init -i`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing settings file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Prompt for the settings")
	initCmd.Flags().StringVarP(&initTemplate, "template", "t", "default", "Starter stubs: "+strings.Join(templates.List(), ", "))
}

// settingsFile is the YAML written by init.
type settingsFile struct {
	StubsFile string `yaml:"stubsFile"`
	HTTPPort  int    `yaml:"httpPort"`
	HTTPSPort *int   `yaml:"httpsPort,omitempty"`
	AdminPort *int   `yaml:"adminPort,omitempty"`
	Mute      bool   `yaml:"mute"`
	Backend   string `yaml:"backend"`
}

// initResult is the JSON output of init.
type initResult struct {
	Settings     string `json:"settings"`
	StubsFile    string `json:"stubsFile"`
	StubsCreated bool   `json:"stubsCreated"`
}

func runInit(cmd *cobra.Command, _ []string) error {
	stubs, err := templates.Get(initTemplate)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if initInteractive {
		if err := promptSettings(cfg); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	path := settingsPath
	if path == "" {
		path = config.LocalConfigFileNames[0]
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	data, err := yaml.Marshal(settingsFile{
		StubsFile: cfg.StubsFile,
		HTTPPort:  cfg.HTTPPort,
		HTTPSPort: cfg.HTTPSPort,
		AdminPort: cfg.AdminPort,
		Mute:      cfg.Mute,
		Backend:   cfg.Backend,
	})
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	created, err := writeIfMissing(cfg.StubsFile, stubs)
	if err != nil {
		return err
	}

	result := initResult{Settings: path, StubsFile: cfg.StubsFile, StubsCreated: created}
	return printResult(cmd, result, func(w io.Writer) {
		fmt.Fprintf(w, "Created %s\n", path)
		if created {
			fmt.Fprintf(w, "Created %s\n", cfg.StubsFile)
		} else {
			fmt.Fprintf(w, "Kept existing %s\n", cfg.StubsFile)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Next: stubctl start")
	})
}

// writeIfMissing writes data to path unless the file already exists.
func writeIfMissing(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return true, nil
}

// promptSettings asks for each setting, starting from the values in cfg.
func promptSettings(cfg *config.Config) error {
	a := newPromptAnswers(cfg)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Stubs file").
				Value(&a.stubsFile).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("stubs file is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("HTTP port").
				Value(&a.httpPort).
				Validate(validatePortInput(false)),
			huh.NewInput().
				Title("HTTPS port").
				Description("Leave empty to disable TLS").
				Value(&a.httpsPort).
				Validate(validatePortInput(true)),
			huh.NewInput().
				Title("Admin portal port").
				Description("Leave empty to disable the admin portal").
				Value(&a.adminPort).
				Validate(validatePortInput(true)),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("How should stubby run?").
				Options(
					huh.NewOption("Local JVM (java -jar stubby4j.jar)", config.BackendProcess),
					huh.NewOption("Docker container", config.BackendContainer),
				).
				Value(&a.backend),
			huh.NewConfirm().
				Title("Silence stubby's request logging?").
				Value(&a.mute),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}
	a.apply(cfg)
	return nil
}

// promptAnswers holds the raw form input.
type promptAnswers struct {
	stubsFile string
	httpPort  string
	httpsPort string
	adminPort string
	backend   string
	mute      bool
}

func newPromptAnswers(cfg *config.Config) *promptAnswers {
	return &promptAnswers{
		stubsFile: cfg.StubsFile,
		httpPort:  strconv.Itoa(cfg.HTTPPort),
		httpsPort: optionalPortInput(cfg.HTTPSPort),
		adminPort: optionalPortInput(cfg.AdminPort),
		backend:   cfg.Backend,
		mute:      cfg.Mute,
	}
}

// apply copies validated answers into cfg. An unparsable HTTP port leaves
// the current value in place.
func (a *promptAnswers) apply(cfg *config.Config) {
	cfg.StubsFile = strings.TrimSpace(a.stubsFile)
	if p := parsePortInput(a.httpPort); p != nil {
		cfg.HTTPPort = *p
	}
	cfg.HTTPSPort = parsePortInput(a.httpsPort)
	cfg.AdminPort = parsePortInput(a.adminPort)
	cfg.Backend = a.backend
	cfg.Mute = a.mute
}

func optionalPortInput(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func parsePortInput(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p == 0 {
		return nil
	}
	return config.Port(p)
}

func validatePortInput(optional bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if optional {
				return nil
			}
			return errors.New("port is required")
		}
		p, err := strconv.Atoi(s)
		if err != nil || p < 1 || p > 65535 {
			return errors.New("enter a port between 1 and 65535")
		}
		return nil
	}
}
