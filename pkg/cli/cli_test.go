package cli

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testingsyndicate/stubctl/pkg/config"
	"github.com/testingsyndicate/stubctl/pkg/session"
	"github.com/testingsyndicate/stubctl/pkg/stubby/container"
	"github.com/testingsyndicate/stubctl/pkg/stubby/process"
)

// TestMain lets scripts run "stubctl" in-process.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"stubctl": Main,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}

func parseConfigFlags(t *testing.T, args ...string) *config.Overrides {
	t.Helper()
	var f configFlags
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f.register(fs)
	require.NoError(t, fs.Parse(args))
	return f.overrides(fs)
}

func TestConfigFlags_OnlyChanged(t *testing.T) {
	o := parseConfigFlags(t, "--http-port", "9000", "-f", "fixtures/stubs.yaml", "--ready-timeout", "5s")

	require.NotNil(t, o.HTTPPort)
	assert.Equal(t, 9000, *o.HTTPPort)
	require.NotNil(t, o.StubsFile)
	assert.Equal(t, "fixtures/stubs.yaml", *o.StubsFile)
	require.NotNil(t, o.ReadyTimeout)
	assert.Equal(t, 5*time.Second, *o.ReadyTimeout)

	assert.Nil(t, o.HTTPSPort)
	assert.Nil(t, o.AdminPort)
	assert.Nil(t, o.Mute)
	assert.Nil(t, o.Backend)
	assert.Nil(t, o.Session)
}

func TestConfigFlags_ApplyOverFile(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Apply(&config.Overrides{HTTPSPort: config.Port(8443), Mute: boolPtr(true)}, config.SourceFile)

	cfg.Apply(parseConfigFlags(t, "--https-port", "0", "--mute=false"), config.SourceFlag)

	assert.Nil(t, cfg.HTTPSPort, "--https-port 0 disables TLS")
	assert.False(t, cfg.Mute)
	assert.Equal(t, config.SourceFlag, cfg.Source("httpsPort"))
	assert.Equal(t, config.SourceFlag, cfg.Source("mute"))
	assert.Equal(t, config.SourceDefault, cfg.Source("httpPort"))
}

func TestNewFactory(t *testing.T) {
	store := session.NewStore(t.TempDir())

	cfg := config.NewDefault()
	f, err := newFactory(cfg, store, background, io.Discard, nil)
	require.NoError(t, err)
	assert.IsType(t, &process.Factory{}, f)

	cfg.Backend = config.BackendContainer
	f, err = newFactory(cfg, store, foreground, io.Discard, nil)
	require.NoError(t, err)
	assert.IsType(t, &container.Factory{}, f)

	cfg.Backend = "podman"
	_, err = newFactory(cfg, store, background, io.Discard, nil)
	assert.Error(t, err)
}

func TestServerConfig(t *testing.T) {
	cfg := config.NewDefault()
	cfg.AdminPort = config.Port(8889)
	cfg.Watch = true

	sc := serverConfig(cfg, nil, nil)
	assert.Equal(t, config.DefaultStubsFile, sc.StubsFile)
	assert.Equal(t, 8882, sc.HTTPPort)
	assert.Nil(t, sc.HTTPSPort)
	require.NotNil(t, sc.AdminPort)
	assert.Equal(t, 8889, *sc.AdminPort)
	assert.True(t, sc.Mute)
	assert.True(t, sc.Watch)

	assert.Equal(t, []int{8882, 8889}, configuredPorts(cfg))
}

func TestConfigEntries(t *testing.T) {
	cfg := config.NewDefault()
	cfg.Apply(&config.Overrides{HTTPPort: config.Port(9000)}, config.SourceEnv)

	entries := configEntries(cfg)
	require.Len(t, entries, len(config.Fields()))

	byField := map[string]configEntry{}
	for _, e := range entries {
		byField[e.Field] = e
	}
	assert.Equal(t, configEntry{Field: "httpPort", Value: "9000", Source: config.SourceEnv}, byField["httpPort"])
	assert.Equal(t, "disabled", byField["httpsPort"].Value)
	assert.Equal(t, "30s", byField["readyTimeout"].Value)
	assert.Equal(t, config.SourceDefault, byField["session"].Source)
}

func TestPortInput(t *testing.T) {
	assert.Nil(t, parsePortInput(""))
	assert.Nil(t, parsePortInput("0"))
	assert.Equal(t, 8443, *parsePortInput(" 8443 "))

	assert.NoError(t, validatePortInput(true)(""))
	assert.Error(t, validatePortInput(false)(""))
	assert.Error(t, validatePortInput(true)("70000"))
	assert.Error(t, validatePortInput(true)("abc"))
	assert.NoError(t, validatePortInput(false)("8882"))
}

func TestPromptAnswers_Apply(t *testing.T) {
	cfg := config.NewDefault()
	a := newPromptAnswers(cfg)
	assert.Equal(t, "8882", a.httpPort)
	assert.Empty(t, a.httpsPort)

	a.stubsFile = " stubs/api.yaml "
	a.httpPort = " 9000"
	a.httpsPort = "9443 "
	a.adminPort = ""
	a.backend = config.BackendContainer
	a.mute = false
	require.NoError(t, validatePortInput(false)(a.httpPort))
	a.apply(cfg)

	assert.Equal(t, "stubs/api.yaml", cfg.StubsFile)
	assert.Equal(t, 9000, cfg.HTTPPort)
	require.NotNil(t, cfg.HTTPSPort)
	assert.Equal(t, 9443, *cfg.HTTPSPort)
	assert.Nil(t, cfg.AdminPort)
	assert.Equal(t, config.BackendContainer, cfg.Backend)
	assert.False(t, cfg.Mute)
	assert.NoError(t, cfg.Validate())
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "stubctl-default", containerName("default"))
}

func boolPtr(b bool) *bool {
	return &b
}
