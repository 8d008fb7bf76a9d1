package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/testingsyndicate/stubctl/internal/ports"
	"github.com/testingsyndicate/stubctl/pkg/stubby"
)

const pollInterval = 100 * time.Millisecond

// settleDelay is how long stubby must stay up after its port first accepts
// a connection. A stubby that lost the port to another listener exits
// within it.
var settleDelay = 500 * time.Millisecond

// Server is a stubby4j child process.
type Server struct {
	opts Options
	java string
	args stubby.Arguments
	port int
	log  *slog.Logger

	mu     sync.Mutex
	proc   *os.Process
	handle stubby.Handle

	// done is closed when an owned process exits; nil for attached ones.
	done    chan struct{}
	waitErr error
}

// Start launches the process and waits until the stubs port accepts connections.
func (s *Server) Start(ctx context.Context) error {
	if err := ports.CheckAll(s.listenPorts()...); err != nil {
		return err
	}

	cmdArgs := append([]string{"-jar", s.opts.Jar}, s.args.CommandLine()...)
	cmd := execCommand(s.java, cmdArgs...)

	out, closeOut, err := s.output()
	if err != nil {
		return err
	}
	defer closeOut()
	cmd.Stdout = out
	cmd.Stderr = out
	if s.opts.Detach {
		setDetached(cmd)
	}

	s.log.Debug("launching stubby", "java", s.java, "args", cmdArgs)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch stubby: %w", err)
	}

	done := make(chan struct{})
	go func() {
		err := cmd.Wait()
		s.mu.Lock()
		s.waitErr = err
		s.mu.Unlock()
		close(done)
	}()

	handle := stubby.NewHandle(Backend, s.args)
	handle.PID = cmd.Process.Pid
	handle.LogFile = s.opts.LogFile

	s.mu.Lock()
	s.proc = cmd.Process
	s.done = done
	s.handle = handle
	s.mu.Unlock()

	if err := s.waitReady(ctx, done); err != nil {
		_ = cmd.Process.Kill()
		<-done
		return err
	}
	s.log.Debug("stubby accepting connections", "pid", handle.PID, "port", s.port)
	return nil
}

// listenPorts returns every port stubby will bind.
func (s *Server) listenPorts() []int {
	ps := []int{s.port}
	for _, opt := range []string{stubby.OptionTLSPort, stubby.OptionAdminPort} {
		if p, ok := s.args.Port(opt); ok {
			ps = append(ps, p)
		}
	}
	return ps
}

// output returns the writer for the child's output and a func that closes
// the parent's copy once the child has been started.
func (s *Server) output() (io.Writer, func(), error) {
	if s.opts.LogFile == "" {
		if s.opts.Output == nil {
			return io.Discard, func() {}, nil
		}
		return s.opts.Output, func() {}, nil
	}
	f, err := os.OpenFile(s.opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stubby log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func (s *Server) waitReady(ctx context.Context, done <-chan struct{}) error {
	addr := net.JoinHostPort(stubby.DefaultAddress, strconv.Itoa(s.port))
	deadline := time.NewTimer(s.opts.ReadyTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		conn, err := net.DialTimeout("tcp", addr, pollInterval)
		if err == nil {
			_ = conn.Close()
			return s.settle(ctx, done)
		}

		select {
		case <-done:
			return fmt.Errorf("stubby exited before accepting connections: %v", s.exitErr())
		case <-deadline.C:
			return fmt.Errorf("stubby did not accept connections on %s within %s", addr, s.opts.ReadyTimeout)
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// settle fails if the process exits within settleDelay of the port opening.
func (s *Server) settle(ctx context.Context, done <-chan struct{}) error {
	t := time.NewTimer(settleDelay)
	defer t.Stop()
	select {
	case <-done:
		return fmt.Errorf("stubby exited right after port %d opened: %v", s.port, s.exitErr())
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stop signals the process and waits for it to exit, killing it after
// StopTimeout.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()
	if proc == nil {
		return errors.New("stubby process was never started")
	}

	if s.exited() {
		return nil
	}

	s.log.Debug("signalling stubby", "pid", proc.Pid, "signal", signalTermName())
	if err := proc.Signal(signalTerm); err != nil {
		if s.exited() {
			return nil
		}
		s.log.Debug("graceful signal failed, killing", "pid", proc.Pid, "error", err)
		return s.kill(ctx, proc)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.opts.StopTimeout)
	defer cancel()
	if s.waitExit(waitCtx) {
		return nil
	}

	s.log.Warn("stubby did not stop in time, killing", "pid", proc.Pid, "timeout", s.opts.StopTimeout)
	return s.kill(ctx, proc)
}

func (s *Server) kill(ctx context.Context, proc *os.Process) error {
	if err := proc.Kill(); err != nil && !s.exited() {
		return fmt.Errorf("failed to kill stubby (pid %d): %w", proc.Pid, err)
	}
	waitCtx, cancel := context.WithTimeout(ctx, s.opts.StopTimeout)
	defer cancel()
	if !s.waitExit(waitCtx) {
		return fmt.Errorf("stubby (pid %d) still running after kill", proc.Pid)
	}
	return nil
}

// Join blocks until the process exits. Cancelling ctx stops the process.
// Termination by signal counts as a normal exit.
func (s *Server) Join(ctx context.Context) error {
	if s.waitExit(ctx) {
		return s.exitErr()
	}
	s.log.Debug("join cancelled, stopping stubby")
	return s.Stop(context.Background())
}

// Handle describes the running process.
func (s *Server) Handle() stubby.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// waitExit reports whether the process exited before ctx was done.
func (s *Server) waitExit(ctx context.Context) bool {
	if done := s.doneCh(); done != nil {
		select {
		case <-done:
			return true
		case <-ctx.Done():
			return false
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if s.exited() {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

func (s *Server) exited() bool {
	if done := s.doneCh(); done != nil {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
	s.mu.Lock()
	proc := s.proc
	s.mu.Unlock()
	return proc == nil || !processRunning(proc.Pid)
}

func (s *Server) doneCh() chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// exitErr maps the owned process's exit status to Join's result.
func (s *Server) exitErr() error {
	s.mu.Lock()
	err := s.waitErr
	s.mu.Unlock()

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		switch ee.ExitCode() {
		case -1, 130, 143:
			// Killed by, or exited in response to, a signal.
			return nil
		}
		return fmt.Errorf("stubby exited: %w", err)
	}
	return err
}
