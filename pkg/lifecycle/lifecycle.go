package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/testingsyndicate/stubctl/pkg/logging"
	"github.com/testingsyndicate/stubctl/pkg/session"
	"github.com/testingsyndicate/stubctl/pkg/stubby"
)

var (
	// ManagerKey holds the manager created by Start in this process.
	ManagerKey = session.NewKey[*stubby.ServerManager]("stubby.manager")
	// HandleKey holds the running server's handle across processes.
	HandleKey = session.NewDurableKey[stubby.Handle]("stubby.handle")
)

// Options configures a lifecycle phase.
type Options struct {
	// Server describes the stub server and the factory that builds it.
	Server stubby.Config
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	return logging.OrNop(o.Logger)
}

// Start starts the server and records it in sess. A session that already
// records a live server is left alone and Start fails.
func Start(ctx context.Context, sess *session.Context, opts Options) error {
	log := opts.logger()
	if err := checkNotRunning(ctx, sess, opts); err != nil {
		return &stubby.LifecycleError{Op: stubby.OpStart, Err: err}
	}

	mgr := stubby.NewServerManager(opts.Server)
	if err := session.Put(sess, ManagerKey, mgr); err != nil {
		return err
	}

	log.Info("starting stubby", "port", opts.Server.HTTPPort, "stubs", opts.Server.StubsFile)
	if err := mgr.Start(ctx); err != nil {
		session.Delete(sess, ManagerKey)
		return err
	}

	h, _ := mgr.Handle()
	if err := session.Put(sess, HandleKey, h); err != nil {
		return err
	}
	log.Debug("stubby started", "backend", h.Backend, "url", h.URL())
	return nil
}

// Run starts the server and blocks until it terminates or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	log := opts.logger()
	mgr := stubby.NewServerManager(opts.Server)

	log.Info("starting stubby", "port", opts.Server.HTTPPort, "stubs", opts.Server.StubsFile)
	if err := mgr.Join(ctx); err != nil {
		return err
	}
	log.Info("stopping stubby")
	return nil
}

// Stop stops the server recorded in sess. Without a recorded server it
// fails with stubby.ErrNotStarted.
func Stop(ctx context.Context, sess *session.Context, opts Options) error {
	log := opts.logger()

	mgr, err := managerFor(ctx, sess, opts)
	if err != nil {
		if errors.Is(err, stubby.ErrServerGone) {
			// Stale handle
			forget(sess)
			log.Warn("stubby is no longer running, session cleared")
			return &stubby.LifecycleError{Op: stubby.OpStop, Err: err}
		}
		return err
	}

	log.Info("stopping stubby")
	if err := mgr.Stop(ctx); err != nil {
		return err
	}
	forget(sess)
	return nil
}

func checkNotRunning(ctx context.Context, sess *session.Context, opts Options) error {
	if mgr, ok := session.Get(sess, ManagerKey); ok && mgr != nil && mgr.IsStarted() {
		return errors.New("stubby is already running in this session")
	}
	h, ok := session.Get(sess, HandleKey)
	if !ok {
		return nil
	}

	_, err := stubby.Resume(ctx, opts.Server, h)
	switch {
	case err == nil:
		return fmt.Errorf("stubby is already running on port %d in this session", h.HTTPPort)
	case errors.Is(err, stubby.ErrServerGone):
		opts.logger().Debug("discarding stale stubby handle", "backend", h.Backend)
		forget(sess)
		return nil
	default:
		return err
	}
}

func managerFor(ctx context.Context, sess *session.Context, opts Options) (*stubby.ServerManager, error) {
	if mgr, ok := session.Get(sess, ManagerKey); ok && mgr != nil {
		return mgr, nil
	}
	if h, ok := session.Get(sess, HandleKey); ok {
		return stubby.Resume(ctx, opts.Server, h)
	}
	return stubby.NewServerManager(opts.Server), nil
}

func forget(sess *session.Context) {
	session.Delete(sess, ManagerKey)
	session.Delete(sess, HandleKey)
}
