package config

import "time"

// DefaultStubsFile is the stub definition file used when none is configured.
const DefaultStubsFile = "testdata/stubs.yaml"

// DefaultHTTPPort is the default stubs port.
const DefaultHTTPPort = 8882

// DefaultMute silences stubby's own request logging.
const DefaultMute = true

// DefaultJava is the java executable used by the process backend.
const DefaultJava = "java"

// DefaultJar is the stubby4j jar used by the process backend.
const DefaultJar = "stubby4j.jar"

// DefaultImage is the stubby4j image used by the container backend.
const DefaultImage = "azagniotov/stubby4j:latest-jre21"

// DefaultReadyTimeout bounds how long start waits for the stubs port.
const DefaultReadyTimeout = 30 * time.Second

// DefaultStopTimeout bounds how long stop waits before killing the server.
const DefaultStopTimeout = 10 * time.Second

// DefaultStateDir holds session files, relative to the working directory.
const DefaultStateDir = ".stubctl"

// DefaultSession is the session name used when none is configured.
const DefaultSession = "default"

// fields lists every Config field name as used in Sources.
var fields = []string{
	"stubsFile", "httpPort", "httpsPort", "adminPort", "mute", "debug", "watch",
	"backend", "java", "jar", "image", "readyTimeout", "stopTimeout",
	"stateDir", "session",
}

// Fields returns the field names tracked in Sources, in display order.
func Fields() []string {
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// NewDefault creates a Config with default values.
func NewDefault() *Config {
	cfg := &Config{
		StubsFile:    DefaultStubsFile,
		HTTPPort:     DefaultHTTPPort,
		Mute:         DefaultMute,
		Backend:      BackendProcess,
		Java:         DefaultJava,
		Jar:          DefaultJar,
		Image:        DefaultImage,
		ReadyTimeout: DefaultReadyTimeout,
		StopTimeout:  DefaultStopTimeout,
		StateDir:     DefaultStateDir,
		Session:      DefaultSession,
		Sources:      make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		cfg.Sources[f] = SourceDefault
	}
	return cfg
}
