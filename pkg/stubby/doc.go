// Package stubby manages the lifecycle of a stubby4j stub server.
//
// ServerManager is the facade the build phases talk to. It translates a
// Config into stubby4j's command-line arguments, asks a Factory to construct
// a Server, and drives that server through start, stop and join:
//
//	mgr := stubby.NewServerManager(stubby.Config{
//	    StubsFile: "testdata/stubs.yaml",
//	    HTTPPort:  8882,
//	    Factory:   process.NewFactory(process.Options{Jar: "stubby4j.jar"}),
//	})
//	if err := mgr.Start(ctx); err != nil {
//	    return err
//	}
//	defer mgr.Stop(ctx)
//
// The manager only knows two states, not started and started. Stop on a
// manager that was never started returns ErrNotStarted without touching the
// server. Failures of the server itself come back as *LifecycleError with
// the original error as cause.
//
// Backends live in sub-packages: process runs the stubby4j jar as a child
// process, container runs the stubby4j image through testcontainers.
package stubby
