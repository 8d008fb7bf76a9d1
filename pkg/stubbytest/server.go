package stubbytest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/testingsyndicate/stubctl/pkg/stubby"
	"github.com/testingsyndicate/stubctl/pkg/stubby/process"
)

// JarEnv names the environment variable holding the default stubby4j jar.
const JarEnv = "STUBBY4J_JAR"

// Server is a stubby4j instance scoped to one test.
type Server struct {
	t   testing.TB
	cfg stubby.Config

	mu      sync.Mutex
	stubs   []*Stub
	mgr     *stubby.ServerManager
	baseURL string
}

// Option configures a Server.
type Option func(*Server)

// WithFactory selects the backend that runs stubby.
func WithFactory(f stubby.Factory) Option {
	return func(s *Server) { s.cfg.Factory = f }
}

// WithPort fixes the stubs port instead of picking a free one.
func WithPort(port int) Option {
	return func(s *Server) { s.cfg.HTTPPort = port }
}

// WithAdminPort enables the admin portal on port.
func WithAdminPort(port int) Option {
	return func(s *Server) { s.cfg.AdminPort = &port }
}

// WithStubsFile serves an existing stubs file instead of the stubs added with Stub.
func WithStubsFile(path string) Option {
	return func(s *Server) { s.cfg.StubsFile = path }
}

// WithDebug enables stubby's verbose output.
func WithDebug() Option {
	return func(s *Server) { s.cfg.Debug = true }
}

// WithLogger sets the logger for lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.cfg.Logger = l }
}

// New creates a server for t. Nothing runs until Start.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := &Server{
		t:   t,
		cfg: stubby.Config{Mute: true},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.Factory == nil {
		s.cfg.Factory = process.NewFactory(process.Options{Jar: os.Getenv(JarEnv)})
	}
	return s
}

// Stub adds a stub and returns a builder for it. Call Reply to register it.
func (s *Server) Stub(method, url string) *Stub {
	return newStub(s, method, url)
}

func (s *Server) add(st *Stub) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stubs = append(s.stubs, st)
}

// Start writes the stubs, starts stubby and returns its base URL. The server
// is stopped when the test ends. Start fails the test if stubby cannot start.
func (s *Server) Start() string {
	s.t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mgr != nil {
		return s.baseURL
	}

	cfg := s.cfg
	if cfg.StubsFile == "" {
		path, err := s.writeStubs()
		if err != nil {
			s.t.Fatalf("failed to write stubs: %v", err)
		}
		cfg.StubsFile = path
	}
	if cfg.HTTPPort == 0 {
		port, err := FreePort()
		if err != nil {
			s.t.Fatalf("failed to find a free port: %v", err)
		}
		cfg.HTTPPort = port
	}

	mgr := stubby.NewServerManager(cfg)
	if err := mgr.Start(context.Background()); err != nil {
		s.t.Fatalf("%v", err)
	}
	s.t.Cleanup(s.Stop)

	s.mgr = mgr
	s.baseURL = fmt.Sprintf("http://%s:%d", stubby.DefaultAddress, cfg.HTTPPort)
	return s.baseURL
}

func (s *Server) writeStubs() (string, error) {
	data, err := Render(s.stubs...)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.t.TempDir(), "stubs.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Stop stops stubby. Stopping a server that is not running does nothing.
func (s *Server) Stop() {
	s.t.Helper()

	s.mu.Lock()
	mgr := s.mgr
	s.mgr = nil
	s.mu.Unlock()
	if mgr == nil {
		return
	}

	if err := mgr.Stop(context.Background()); err != nil && !errors.Is(err, stubby.ErrNotStarted) {
		s.t.Errorf("%v", err)
	}
}

// URL returns the base URL, or "" before Start.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

// AdminURL returns the admin portal URL, or "" when the portal is disabled.
func (s *Server) AdminURL() string {
	if s.cfg.AdminPort == nil {
		return ""
	}
	return fmt.Sprintf("http://%s:%d", stubby.DefaultAddress, *s.cfg.AdminPort)
}

// FreePort asks the kernel for a free TCP port.
func FreePort() (int, error) {
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}

// Runner is satisfied by *testing.M.
type Runner interface {
	Run() int
}

// Main starts stubby, runs the tests and stops stubby, returning the exit
// code for os.Exit. A failure to start or stop makes the run fail.
func Main(m Runner, cfg stubby.Config) int {
	ctx := context.Background()
	mgr := stubby.NewServerManager(cfg)

	if err := mgr.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	code := m.Run()

	if err := mgr.Stop(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if code == 0 {
			code = 1
		}
	}
	return code
}
