package config

import (
	"time"
)

// Config is the effective stubctl configuration.
type Config struct {
	// Stub server settings
	StubsFile string `yaml:"stubsFile" json:"stubsFile"`
	HTTPPort  int    `yaml:"httpPort" json:"httpPort"`
	HTTPSPort *int   `yaml:"httpsPort,omitempty" json:"httpsPort,omitempty"`
	AdminPort *int   `yaml:"adminPort,omitempty" json:"adminPort,omitempty"`
	Mute      bool   `yaml:"mute" json:"mute"`
	Debug     bool   `yaml:"debug" json:"debug"`
	Watch     bool   `yaml:"watch" json:"watch"`

	// Backend settings
	Backend      string        `yaml:"backend" json:"backend"`
	Java         string        `yaml:"java" json:"java"`
	Jar          string        `yaml:"jar" json:"jar"`
	Image        string        `yaml:"image" json:"image"`
	ReadyTimeout time.Duration `yaml:"readyTimeout" json:"readyTimeout"`
	StopTimeout  time.Duration `yaml:"stopTimeout" json:"stopTimeout"`

	// Session settings
	StateDir string `yaml:"stateDir" json:"stateDir"`
	Session  string `yaml:"session" json:"session"`

	// Sources tracks where each value came from.
	Sources map[string]string `yaml:"-" json:"-"`
}

// Overrides is one configuration layer. Nil fields are not set by the layer.
// The same struct decodes the settings file and the STUBCTL_* environment;
// fields carry no explicit env names so nothing is read without the prefix.
type Overrides struct {
	StubsFile    *string        `yaml:"stubsFile" split_words:"true"`
	HTTPPort     *int           `yaml:"httpPort" split_words:"true"`
	HTTPSPort    *int           `yaml:"httpsPort" split_words:"true"`
	AdminPort    *int           `yaml:"adminPort" split_words:"true"`
	Mute         *bool          `yaml:"mute" split_words:"true"`
	Debug        *bool          `yaml:"debug" split_words:"true"`
	Watch        *bool          `yaml:"watch" split_words:"true"`
	Backend      *string        `yaml:"backend" split_words:"true"`
	Java         *string        `yaml:"java" split_words:"true"`
	Jar          *string        `yaml:"jar" split_words:"true"`
	Image        *string        `yaml:"image" split_words:"true"`
	ReadyTimeout *time.Duration `yaml:"readyTimeout" split_words:"true"`
	StopTimeout  *time.Duration `yaml:"stopTimeout" split_words:"true"`
	StateDir     *string        `yaml:"stateDir" split_words:"true"`
	Session      *string        `yaml:"session" split_words:"true"`
}

// Sources identify where a config value originated.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// Backends.
const (
	BackendProcess   = "process"
	BackendContainer = "container"
)

// Port returns a pointer to p, for the optional port fields.
func Port(p int) *int {
	return &p
}

// Source returns where the named field's value came from.
func (c *Config) Source(field string) string {
	if s, ok := c.Sources[field]; ok {
		return s
	}
	return SourceDefault
}
