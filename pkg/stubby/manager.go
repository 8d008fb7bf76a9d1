package stubby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/testingsyndicate/stubctl/pkg/logging"
)

var (
	errNoFactory      = errors.New("no server factory configured")
	errAlreadyStarted = errors.New("stubby is already started")
)

// Config describes the stub server a ServerManager drives.
type Config struct {
	// StubsFile is the stub definition file, passed to stubby unmodified.
	StubsFile string
	// HTTPPort is the stubs port. Always required.
	HTTPPort int
	// HTTPSPort enables TLS when set.
	HTTPSPort *int
	// AdminPort enables the admin portal when set.
	AdminPort *int
	// Mute suppresses stubby's request logging.
	Mute bool
	// Debug enables stubby's verbose output.
	Debug bool
	// Watch makes stubby reload the stubs file when it changes.
	Watch bool

	Factory Factory
	Logger  *slog.Logger
}

// ServerManager is the lifecycle facade over one stub server.
type ServerManager struct {
	cfg  Config
	args Arguments
	log  *slog.Logger

	mu      sync.Mutex
	server  Server
	started bool
}

// NewServerManager creates a manager in the not-started state.
func NewServerManager(cfg Config) *ServerManager {
	return &ServerManager{
		cfg:  cfg,
		args: BuildArguments(cfg),
		log:  logging.OrNop(cfg.Logger),
	}
}

// Resume rebuilds a started manager around the server described by h.
func Resume(ctx context.Context, cfg Config, h Handle) (*ServerManager, error) {
	m := NewServerManager(cfg)
	if cfg.Factory == nil {
		return nil, errNoFactory
	}
	server, err := cfg.Factory.Attach(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("failed to resume stubby: %w", err)
	}
	m.server = server
	m.started = true
	m.log.Debug("resumed stubby", "backend", h.Backend, "port", h.HTTPPort)
	return m, nil
}

// Config returns the configuration the manager was built with.
func (m *ServerManager) Config() Config {
	return m.cfg
}

// Arguments returns the stubby options derived from the configuration.
func (m *ServerManager) Arguments() Arguments {
	out := make(Arguments, len(m.args))
	for k, v := range m.args {
		out[k] = v
	}
	return out
}

// IsStarted reports whether the server is running as far as the manager knows.
func (m *ServerManager) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Handle returns the running server's handle.
func (m *ServerManager) Handle() (Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started || m.server == nil {
		return Handle{}, false
	}
	return m.server.Handle(), true
}

// Start constructs and starts the server. On failure the manager stays not started.
func (m *ServerManager) Start(ctx context.Context) error {
	if m.IsStarted() {
		return &LifecycleError{Op: OpStart, Err: errAlreadyStarted}
	}
	if m.cfg.Factory == nil {
		return &LifecycleError{Op: OpStart, Err: errNoFactory}
	}

	m.log.Debug("constructing stubby", "args", m.args.CommandLine())
	preflight := StartPreflight(m.cfg.StubsFile)

	server, err := m.cfg.Factory.Construct(ctx, m.cfg.StubsFile, m.Arguments(), preflight)
	if err != nil {
		return &LifecycleError{Op: OpStart, Err: err}
	}
	if err := server.Start(ctx); err != nil {
		return &LifecycleError{Op: OpStart, Err: err}
	}

	m.mu.Lock()
	m.server = server
	m.started = true
	m.mu.Unlock()
	return nil
}

// Stop stops a started server. It returns ErrNotStarted, without touching
// any server, when nothing was started. On failure the manager stays started.
func (m *ServerManager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return ErrNotStarted
	}
	server := m.server
	m.mu.Unlock()

	if err := server.Stop(ctx); err != nil {
		return &LifecycleError{Op: OpStop, Err: err}
	}

	m.reset()
	return nil
}

// Join starts the server if needed, then blocks until it terminates.
// Once Join returns successfully the manager is not started.
func (m *ServerManager) Join(ctx context.Context) error {
	if !m.IsStarted() {
		if err := m.Start(ctx); err != nil {
			return err
		}
	}

	m.mu.Lock()
	server := m.server
	m.mu.Unlock()
	if server == nil {
		// Stopped concurrently between Start and here.
		return nil
	}

	if err := server.Join(ctx); err != nil {
		return &LifecycleError{Op: OpJoin, Err: err}
	}

	m.reset()
	return nil
}

func (m *ServerManager) reset() {
	m.mu.Lock()
	m.server = nil
	m.started = false
	m.mu.Unlock()
}
