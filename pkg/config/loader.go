package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable stubctl reads.
const EnvPrefix = "STUBCTL"

// LocalConfigFileNames are the names searched for a local settings file, in order.
var LocalConfigFileNames = []string{".stubctl.yaml", ".stubctl.yml"}

// FindLocalConfig returns the first local settings file in dir, or "" if none exists.
func FindLocalConfig(dir string) string {
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadFile decodes a settings file into a layer.
func LoadFile(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newConfigError(path, err, nil)
	}

	var o Overrides
	if doc.Kind == 0 {
		return &o, nil
	}
	if err := doc.Decode(&o); err != nil {
		return nil, newConfigError(path, err, &doc)
	}
	return &o, nil
}

// LoadEnv decodes the STUBCTL_* environment into a layer.
func LoadEnv() (*Overrides, error) {
	var o Overrides
	if err := envconfig.Process(EnvPrefix, &o); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return &o, nil
}

// Load builds the configuration from defaults, the settings file and the
// environment. An empty path searches dir for a local settings file; a
// missing local file is not an error, a missing explicit path is.
func Load(dir, path string) (*Config, error) {
	cfg := NewDefault()

	if path == "" {
		path = FindLocalConfig(dir)
	}
	if path != "" {
		o, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Apply(o, SourceFile)
	}

	env, err := LoadEnv()
	if err != nil {
		return nil, err
	}
	cfg.Apply(env, SourceEnv)

	return cfg, nil
}

// ConfigError represents a settings file error with location info.
type ConfigError struct {
	Path    string
	Line    int
	Column  int
	Message string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return e.Path + " (line " + strconv.Itoa(e.Line) + ", column " + strconv.Itoa(e.Column) + "): " + e.Message
	case e.Line > 0:
		return e.Path + " (line " + strconv.Itoa(e.Line) + "): " + e.Message
	}
	return e.Path + ": " + e.Message
}

// newConfigError extracts the line number yaml.v3 embeds in its messages.
// With the decoded document at hand, the column of the offending value is
// looked up as well.
func newConfigError(path string, err error, doc *yaml.Node) *ConfigError {
	msg := err.Error()

	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	msg = strings.TrimPrefix(msg, "yaml: ")

	ce := &ConfigError{Path: path, Message: msg}
	var line int
	if n, _ := fmt.Sscanf(msg, "line %d:", &line); n == 1 {
		ce.Line = line
		ce.Message = strings.TrimSpace(msg[strings.Index(msg, ":")+1:])
		if doc != nil {
			ce.Column = valueColumn(doc, line)
		}
	}
	return ce
}

// valueColumn returns the column of the first mapping value on line, or 0.
func valueColumn(n *yaml.Node, line int) int {
	if n.Kind == yaml.MappingNode {
		for i := 1; i < len(n.Content); i += 2 {
			if v := n.Content[i]; v.Line == line {
				return v.Column
			}
		}
	}
	for _, c := range n.Content {
		if col := valueColumn(c, line); col > 0 {
			return col
		}
	}
	return 0
}
