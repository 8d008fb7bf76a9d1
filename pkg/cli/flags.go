package cli

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/testingsyndicate/stubctl/pkg/config"
)

// configFlags holds the flags that override configuration values.
type configFlags struct {
	stubsFile    string
	httpPort     int
	httpsPort    int
	adminPort    int
	mute         bool
	debug        bool
	watch        bool
	backend      string
	java         string
	jar          string
	image        string
	readyTimeout time.Duration
	stopTimeout  time.Duration
	stateDir     string
	session      string
}

func (f *configFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.stubsFile, "stubs-file", "f", config.DefaultStubsFile, "stubby4j stubs YAML file")
	fs.IntVar(&f.httpPort, "http-port", config.DefaultHTTPPort, "Stubs HTTP port")
	fs.IntVar(&f.httpsPort, "https-port", 0, "Stubs HTTPS port (0 disables TLS)")
	fs.IntVar(&f.adminPort, "admin-port", 0, "Admin portal port (0 disables the portal)")
	fs.BoolVar(&f.mute, "mute", config.DefaultMute, "Silence stubby's request logging")
	fs.BoolVar(&f.debug, "debug", false, "Verbose stubby output and debug logging")
	fs.BoolVar(&f.watch, "watch", false, "Reload stubs when the stubs file changes")
	fs.StringVar(&f.backend, "backend", config.BackendProcess, "How to run stubby: process or container")
	fs.StringVar(&f.java, "java", config.DefaultJava, "Java executable (process backend)")
	fs.StringVar(&f.jar, "jar", config.DefaultJar, "stubby4j jar (process backend)")
	fs.StringVar(&f.image, "image", config.DefaultImage, "stubby4j image (container backend)")
	fs.DurationVar(&f.readyTimeout, "ready-timeout", config.DefaultReadyTimeout, "How long to wait for stubby to accept connections")
	fs.DurationVar(&f.stopTimeout, "stop-timeout", config.DefaultStopTimeout, "How long to wait for stubby to exit before killing it")
	fs.StringVar(&f.stateDir, "state-dir", config.DefaultStateDir, "Directory holding session files")
	fs.StringVar(&f.session, "session", config.DefaultSession, "Session name, to run several stubby servers side by side")
}

// overrides returns the flags the user actually set as a config layer.
func (f *configFlags) overrides(fs *pflag.FlagSet) *config.Overrides {
	o := &config.Overrides{}
	set := func(name string) bool { return fs.Changed(name) }

	if set("stubs-file") {
		o.StubsFile = &f.stubsFile
	}
	if set("http-port") {
		o.HTTPPort = &f.httpPort
	}
	if set("https-port") {
		o.HTTPSPort = &f.httpsPort
	}
	if set("admin-port") {
		o.AdminPort = &f.adminPort
	}
	if set("mute") {
		o.Mute = &f.mute
	}
	if set("debug") {
		o.Debug = &f.debug
	}
	if set("watch") {
		o.Watch = &f.watch
	}
	if set("backend") {
		o.Backend = &f.backend
	}
	if set("java") {
		o.Java = &f.java
	}
	if set("jar") {
		o.Jar = &f.jar
	}
	if set("image") {
		o.Image = &f.image
	}
	if set("ready-timeout") {
		o.ReadyTimeout = &f.readyTimeout
	}
	if set("stop-timeout") {
		o.StopTimeout = &f.stopTimeout
	}
	if set("state-dir") {
		o.StateDir = &f.stateDir
	}
	if set("session") {
		o.Session = &f.session
	}
	return o
}
