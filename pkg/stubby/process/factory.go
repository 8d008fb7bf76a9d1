package process

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/testingsyndicate/stubctl/pkg/logging"
	"github.com/testingsyndicate/stubctl/pkg/stubby"
)

// Backend is the handle backend name for this package.
const Backend = "process"

// Seams for tests.
var (
	execCommand = exec.Command
	lookPath    = exec.LookPath
)

// Options configures the process backend.
type Options struct {
	// Java is the java executable. Defaults to "java".
	Java string
	// Jar is the stubby4j jar.
	Jar string
	// Output receives stubby's stdout and stderr. Nil discards it.
	Output io.Writer
	// LogFile, when set, receives stubby's output instead of Output.
	LogFile string
	// Detach starts stubby in its own process group.
	Detach bool
	// ReadyTimeout bounds how long Start waits for the stubs port.
	ReadyTimeout time.Duration
	// StopTimeout bounds how long Stop waits before killing stubby.
	StopTimeout time.Duration

	Logger *slog.Logger
}

// Factory constructs process-backed servers.
type Factory struct {
	opts Options
	log  *slog.Logger
}

// NewFactory creates a Factory, filling unset options with defaults.
func NewFactory(opts Options) *Factory {
	if opts.Java == "" {
		opts.Java = "java"
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 30 * time.Second
	}
	if opts.StopTimeout <= 0 {
		opts.StopTimeout = 10 * time.Second
	}
	return &Factory{opts: opts, log: logging.OrNop(opts.Logger)}
}

// Construct waits for the preflight, checks the java and jar paths and
// returns a server ready to Start.
func (f *Factory) Construct(ctx context.Context, stubsFile string, args stubby.Arguments, preflight *stubby.Preflight) (stubby.Server, error) {
	stubs, err := preflight.Wait()
	if err != nil {
		return nil, err
	}
	f.log.Debug("stubs file checked", "path", stubsFile, "stubs", stubs)

	java, err := lookPath(f.opts.Java)
	if err != nil {
		return nil, fmt.Errorf("java executable %q not found: %w", f.opts.Java, err)
	}
	if _, err := os.Stat(f.opts.Jar); err != nil {
		return nil, fmt.Errorf("stubby4j jar not found: %w", err)
	}

	port, ok := args.Port(stubby.OptionClientPort)
	if !ok {
		return nil, fmt.Errorf("missing %q option", stubby.OptionClientPort)
	}

	return &Server{
		opts: f.opts,
		java: java,
		args: args,
		port: port,
		log:  f.log,
	}, nil
}

// Attach re-acquires a server started by an earlier invocation.
func (f *Factory) Attach(_ context.Context, h stubby.Handle) (stubby.Server, error) {
	if h.Backend != Backend {
		return nil, fmt.Errorf("handle belongs to backend %q, not %q", h.Backend, Backend)
	}
	if h.PID <= 0 || !processRunning(h.PID) {
		return nil, fmt.Errorf("process %d: %w", h.PID, stubby.ErrServerGone)
	}
	proc, err := os.FindProcess(h.PID)
	if err != nil {
		return nil, fmt.Errorf("process %d: %w", h.PID, stubby.ErrServerGone)
	}
	return &Server{
		opts:   f.opts,
		port:   h.HTTPPort,
		proc:   proc,
		handle: h,
		log:    f.log,
	}, nil
}
