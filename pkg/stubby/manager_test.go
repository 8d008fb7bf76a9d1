package stubby

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStubs = `- request:
    method: GET
    url: /hello
  response:
    status: 200
    body: hello
`

func writeStubs(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stubs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleStubs), 0o644))
	return path
}

func newTestManager(t *testing.T) (*ServerManager, *fakeFactory) {
	t.Helper()
	factory := newFakeFactory()
	mgr := NewServerManager(Config{
		StubsFile: writeStubs(t),
		HTTPPort:  8887,
		HTTPSPort: intPtr(8886),
		AdminPort: intPtr(8888),
		Factory:   factory,
	})
	return mgr, factory
}

func TestServerManager_Start(t *testing.T) {
	mgr, factory := newTestManager(t)

	require.NoError(t, mgr.Start(context.Background()))

	starts, _, _ := factory.server.counts()
	assert.Equal(t, 1, starts)
	assert.True(t, mgr.IsStarted())
	assert.Equal(t, mgr.Config().StubsFile, factory.stubsFile)
	assert.Equal(t, "8887", factory.args[OptionClientPort])
	assert.Equal(t, "8886", factory.args[OptionTLSPort])
	assert.Equal(t, "8888", factory.args[OptionAdminPort])
	assert.Equal(t, 1, factory.stubs)

	h, ok := mgr.Handle()
	require.True(t, ok)
	assert.Equal(t, "fake", h.Backend)
}

func TestServerManager_StartFailure(t *testing.T) {
	mgr, factory := newTestManager(t)
	cause := errors.New("Hello")
	factory.server.startErr = cause

	err := mgr.Start(context.Background())

	require.Error(t, err)
	assert.True(t, IsOp(err, OpStart))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to start stubby: Hello", err.Error())
	assert.False(t, mgr.IsStarted())
	_, ok := mgr.Handle()
	assert.False(t, ok)
}

func TestServerManager_ConstructFailure(t *testing.T) {
	mgr, factory := newTestManager(t)
	cause := errors.New("port in use")
	factory.constructErr = cause

	err := mgr.Start(context.Background())

	assert.True(t, IsOp(err, OpStart))
	assert.ErrorIs(t, err, cause)
	starts, _, _ := factory.server.counts()
	assert.Zero(t, starts)
	assert.False(t, mgr.IsStarted())
}

func TestServerManager_StartFailsOnBadStubsFile(t *testing.T) {
	factory := newFakeFactory()
	mgr := NewServerManager(Config{
		StubsFile: filepath.Join(t.TempDir(), "missing.yaml"),
		HTTPPort:  8882,
		Factory:   factory,
	})

	err := mgr.Start(context.Background())

	assert.True(t, IsOp(err, OpStart))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, mgr.IsStarted())
}

func TestServerManager_StartTwice(t *testing.T) {
	mgr, factory := newTestManager(t)
	require.NoError(t, mgr.Start(context.Background()))

	err := mgr.Start(context.Background())

	assert.True(t, IsOp(err, OpStart))
	assert.Equal(t, 1, factory.constructs)
	assert.True(t, mgr.IsStarted())
}

func TestServerManager_NoFactory(t *testing.T) {
	mgr := NewServerManager(Config{StubsFile: "stubs.yaml", HTTPPort: 8882})

	err := mgr.Start(context.Background())
	assert.True(t, IsOp(err, OpStart))
}

func TestServerManager_Stop(t *testing.T) {
	mgr, factory := newTestManager(t)
	require.NoError(t, mgr.Start(context.Background()))

	require.NoError(t, mgr.Stop(context.Background()))

	_, stops, _ := factory.server.counts()
	assert.Equal(t, 1, stops)
	assert.False(t, mgr.IsStarted())
}

func TestServerManager_StopFailure(t *testing.T) {
	mgr, factory := newTestManager(t)
	cause := errors.New("Boom!")
	factory.server.stopErr = cause
	require.NoError(t, mgr.Start(context.Background()))

	err := mgr.Stop(context.Background())

	assert.True(t, IsOp(err, OpStop))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to stop stubby: Boom!", err.Error())
	assert.True(t, mgr.IsStarted())
}

func TestServerManager_StopNotStarted(t *testing.T) {
	mgr, factory := newTestManager(t)

	err := mgr.Stop(context.Background())

	assert.Equal(t, ErrNotStarted, err)
	assert.Equal(t, "cannot stop stubby when it has not been started", err.Error())
	assert.Nil(t, errors.Unwrap(err))
	_, stops, _ := factory.server.counts()
	assert.Zero(t, stops)
	assert.Zero(t, factory.constructs)
}

func TestServerManager_StopTwice(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.Start(context.Background()))
	require.NoError(t, mgr.Stop(context.Background()))

	assert.ErrorIs(t, mgr.Stop(context.Background()), ErrNotStarted)
}

func TestServerManager_JoinStartsIfNotStarted(t *testing.T) {
	mgr, factory := newTestManager(t)

	require.NoError(t, mgr.Join(context.Background()))

	starts, _, joins := factory.server.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, joins)
	assert.False(t, mgr.IsStarted())
}

func TestServerManager_JoinIfAlreadyStarted(t *testing.T) {
	mgr, factory := newTestManager(t)
	require.NoError(t, mgr.Start(context.Background()))

	require.NoError(t, mgr.Join(context.Background()))

	starts, _, joins := factory.server.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, joins)
	assert.Equal(t, 1, factory.constructs)
	assert.False(t, mgr.IsStarted())
}

func TestServerManager_JoinFailure(t *testing.T) {
	mgr, factory := newTestManager(t)
	cause := errors.New("broken")
	factory.server.joinErr = cause

	err := mgr.Join(context.Background())

	assert.True(t, IsOp(err, OpJoin))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "could not join stubby: broken", err.Error())
	assert.True(t, mgr.IsStarted())
}

func TestServerManager_JoinStartFailure(t *testing.T) {
	mgr, factory := newTestManager(t)
	factory.server.startErr = errors.New("no java")

	err := mgr.Join(context.Background())

	assert.True(t, IsOp(err, OpStart))
	_, _, joins := factory.server.counts()
	assert.Zero(t, joins)
}

func TestResume(t *testing.T) {
	factory := newFakeFactory()
	h := Handle{Backend: "fake", PID: 42, HTTPPort: 8882}

	mgr, err := Resume(context.Background(), Config{StubsFile: "stubs.yaml", HTTPPort: 8882, Factory: factory}, h)
	require.NoError(t, err)

	assert.True(t, mgr.IsStarted())
	assert.Equal(t, 42, factory.attached.PID)

	require.NoError(t, mgr.Stop(context.Background()))
	_, stops, _ := factory.server.counts()
	assert.Equal(t, 1, stops)
}

func TestResume_Gone(t *testing.T) {
	factory := newFakeFactory()
	factory.attachErr = ErrServerGone

	_, err := Resume(context.Background(), Config{Factory: factory}, Handle{PID: 42})
	assert.ErrorIs(t, err, ErrServerGone)
}

func TestServerManager_ArgumentsIsCopy(t *testing.T) {
	mgr, _ := newTestManager(t)

	args := mgr.Arguments()
	args[OptionClientPort] = "1"

	assert.Equal(t, "8887", mgr.Arguments()[OptionClientPort])
}
