//go:build !windows

package process

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/testingsyndicate/stubctl/pkg/stubby"
)

// helperMode selects how the fake stubby behaves: serve, exit, hang,
// ignore-term, exit-after or exit-soon.
var helperMode = "serve"

func init() {
	settleDelay = 200 * time.Millisecond
	execCommand = mockExecCommand
	lookPath = func(file string) (string, error) {
		if file == "missing-java" {
			return "", exec.ErrNotFound
		}
		return file, nil
	}
}

func mockExecCommand(command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.Command(os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1", "STUBBY_HELPER_MODE=" + helperMode}
	return cmd
}

// TestHelperProcess stands in for "java -jar stubby4j.jar".
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}
	port := ""
	for i, arg := range args {
		if arg == "--stubs" && i+1 < len(args) {
			port = args[i+1]
		}
	}

	mode := os.Getenv("STUBBY_HELPER_MODE")
	switch mode {
	case "exit":
		fmt.Fprintln(os.Stderr, "Address already in use")
		os.Exit(3)
	case "hang":
		time.Sleep(time.Minute)
		os.Exit(0)
	case "ignore-term":
		signal.Ignore(syscall.SIGTERM)
	}

	fmt.Printf("stubby helper listening on %s\n", port)
	ln, err := net.Listen("tcp", "localhost:"+port)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	switch mode {
	case "exit-after":
		time.Sleep(time.Second)
		os.Exit(0)
	case "exit-soon":
		time.Sleep(150 * time.Millisecond)
		fmt.Fprintln(os.Stderr, "Address already in use")
		os.Exit(1)
	}
	time.Sleep(time.Minute)
	os.Exit(0)
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func setMode(t *testing.T, mode string) {
	t.Helper()
	old := helperMode
	helperMode = mode
	t.Cleanup(func() { helperMode = old })
}

type fixture struct {
	factory *Factory
	args    stubby.Arguments
	stubs   string
	port    int
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()

	stubs := filepath.Join(dir, "stubs.yaml")
	require.NoError(t, os.WriteFile(stubs, []byte("- request:\n    url: /\n  response:\n    status: 200\n"), 0o644))
	jar := filepath.Join(dir, "stubby4j.jar")
	require.NoError(t, os.WriteFile(jar, []byte("jar"), 0o644))

	if opts.Jar == "" {
		opts.Jar = jar
	}
	if opts.ReadyTimeout == 0 {
		opts.ReadyTimeout = 5 * time.Second
	}
	if opts.StopTimeout == 0 {
		opts.StopTimeout = 2 * time.Second
	}

	port := freePort(t)
	return &fixture{
		factory: NewFactory(opts),
		args:    stubby.BuildArguments(stubby.Config{StubsFile: stubs, HTTPPort: port, Mute: true}),
		stubs:   stubs,
		port:    port,
	}
}

func (f *fixture) construct(t *testing.T) *Server {
	t.Helper()
	srv, err := f.factory.Construct(context.Background(), f.stubs, f.args, stubby.StartPreflight(f.stubs))
	require.NoError(t, err)
	return srv.(*Server)
}

func portOpen(port int) bool {
	conn, err := net.DialTimeout("tcp", "localhost:"+strconv.Itoa(port), 200*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func TestServer_StartStop(t *testing.T) {
	f := newFixture(t, Options{})
	srv := f.construct(t)

	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	h := srv.Handle()
	assert.Equal(t, Backend, h.Backend)
	assert.Positive(t, h.PID)
	assert.Equal(t, f.port, h.HTTPPort)
	assert.True(t, portOpen(f.port))

	require.NoError(t, srv.Stop(context.Background()))
	assert.True(t, srv.exited())
	assert.False(t, processRunning(h.PID))
}

func TestServer_StartExitsEarly(t *testing.T) {
	setMode(t, "exit")
	f := newFixture(t, Options{})

	err := f.construct(t).Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited before accepting connections")
}

func TestServer_StartPortInUse(t *testing.T) {
	f := newFixture(t, Options{})
	ln, err := net.Listen("tcp", "localhost:"+strconv.Itoa(f.port))
	require.NoError(t, err)
	defer ln.Close()
	srv := f.construct(t)

	err = srv.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in use")
	assert.Zero(t, srv.Handle().PID)
}

func TestServer_StartAdminPortInUse(t *testing.T) {
	f := newFixture(t, Options{})
	admin := freePort(t)
	ln, err := net.Listen("tcp", "localhost:"+strconv.Itoa(admin))
	require.NoError(t, err)
	defer ln.Close()

	args := stubby.BuildArguments(stubby.Config{StubsFile: f.stubs, HTTPPort: f.port, AdminPort: &admin})
	srv, err := f.factory.Construct(context.Background(), f.stubs, args, stubby.StartPreflight(f.stubs))
	require.NoError(t, err)

	err = srv.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), strconv.Itoa(admin))
}

func TestServer_StartExitsRightAfterPortOpens(t *testing.T) {
	setMode(t, "exit-soon")
	f := newFixture(t, Options{})
	srv := f.construct(t)

	err := srv.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited right after")
	assert.True(t, srv.exited())
}

func TestServer_StartReadyTimeout(t *testing.T) {
	setMode(t, "hang")
	f := newFixture(t, Options{ReadyTimeout: 300 * time.Millisecond})
	srv := f.construct(t)

	err := srv.Start(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not accept connections")
	assert.True(t, srv.exited())
}

func TestServer_StartCancelled(t *testing.T) {
	setMode(t, "hang")
	f := newFixture(t, Options{})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := f.construct(t).Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestServer_JoinReturnsWhenProcessExits(t *testing.T) {
	setMode(t, "exit-after")
	f := newFixture(t, Options{})
	srv := f.construct(t)
	require.NoError(t, srv.Start(context.Background()))

	assert.NoError(t, srv.Join(context.Background()))
}

func TestServer_JoinCancelStops(t *testing.T) {
	f := newFixture(t, Options{})
	srv := f.construct(t)
	require.NoError(t, srv.Start(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	assert.NoError(t, srv.Join(ctx))
	assert.True(t, srv.exited())
}

func TestServer_StopKillsStubbornProcess(t *testing.T) {
	setMode(t, "ignore-term")
	f := newFixture(t, Options{StopTimeout: 300 * time.Millisecond})
	srv := f.construct(t)
	require.NoError(t, srv.Start(context.Background()))

	require.NoError(t, srv.Stop(context.Background()))
	assert.True(t, srv.exited())
}

func TestServer_StopNeverStarted(t *testing.T) {
	f := newFixture(t, Options{})
	assert.Error(t, f.construct(t).Stop(context.Background()))
}

func TestServer_LogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "stubby.log")
	f := newFixture(t, Options{LogFile: logFile, Detach: true})
	srv := f.construct(t)
	require.NoError(t, srv.Start(context.Background()))
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	assert.Equal(t, logFile, srv.Handle().LogFile)
	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stubby helper listening")
}

func TestFactory_Attach(t *testing.T) {
	f := newFixture(t, Options{})
	owner := f.construct(t)
	require.NoError(t, owner.Start(context.Background()))
	t.Cleanup(func() { _ = owner.Stop(context.Background()) })

	attached, err := NewFactory(Options{StopTimeout: 2 * time.Second}).Attach(context.Background(), owner.Handle())
	require.NoError(t, err)
	assert.Equal(t, owner.Handle().PID, attached.Handle().PID)

	require.NoError(t, attached.Stop(context.Background()))

	select {
	case <-owner.doneCh():
	case <-time.After(2 * time.Second):
		t.Fatal("owned process did not exit after attached stop")
	}
}

func TestFactory_AttachGone(t *testing.T) {
	_, err := NewFactory(Options{}).Attach(context.Background(), stubby.Handle{Backend: Backend, PID: 9999999})
	assert.ErrorIs(t, err, stubby.ErrServerGone)

	_, err = NewFactory(Options{}).Attach(context.Background(), stubby.Handle{Backend: Backend})
	assert.ErrorIs(t, err, stubby.ErrServerGone)
}

func TestFactory_AttachWrongBackend(t *testing.T) {
	_, err := NewFactory(Options{}).Attach(context.Background(), stubby.Handle{Backend: "container", PID: os.Getpid()})
	require.Error(t, err)
	assert.False(t, errors.Is(err, stubby.ErrServerGone))
}

func TestFactory_ConstructErrors(t *testing.T) {
	f := newFixture(t, Options{})

	t.Run("missing jar", func(t *testing.T) {
		factory := NewFactory(Options{Jar: filepath.Join(t.TempDir(), "nope.jar")})
		_, err := factory.Construct(context.Background(), f.stubs, f.args, stubby.StartPreflight(f.stubs))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("missing java", func(t *testing.T) {
		factory := NewFactory(Options{Java: "missing-java", Jar: f.factory.opts.Jar})
		_, err := factory.Construct(context.Background(), f.stubs, f.args, stubby.StartPreflight(f.stubs))
		assert.ErrorIs(t, err, exec.ErrNotFound)
	})

	t.Run("bad stubs file", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "missing.yaml")
		_, err := f.factory.Construct(context.Background(), missing, f.args, stubby.StartPreflight(missing))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("no stubs port", func(t *testing.T) {
		_, err := f.factory.Construct(context.Background(), f.stubs, stubby.Arguments{}, nil)
		assert.Error(t, err)
	})
}

func TestNewFactory_Defaults(t *testing.T) {
	f := NewFactory(Options{Jar: "stubby4j.jar"})
	assert.Equal(t, "java", f.opts.Java)
	assert.Equal(t, 30*time.Second, f.opts.ReadyTimeout)
	assert.Equal(t, 10*time.Second, f.opts.StopTimeout)
}

func TestProcessRunning(t *testing.T) {
	assert.True(t, processRunning(os.Getpid()))
	assert.False(t, processRunning(9999999))
}

func TestServerManager_StartFailsOnBusyPort(t *testing.T) {
	f := newFixture(t, Options{})
	ln, err := net.Listen("tcp", "localhost:"+strconv.Itoa(f.port))
	require.NoError(t, err)
	defer ln.Close()

	mgr := stubby.NewServerManager(stubby.Config{StubsFile: f.stubs, HTTPPort: f.port, Factory: f.factory})
	err = mgr.Start(context.Background())

	require.Error(t, err)
	assert.True(t, stubby.IsOp(err, stubby.OpStart))
	assert.Contains(t, err.Error(), "failed to start stubby")
	assert.False(t, mgr.IsStarted())
}
