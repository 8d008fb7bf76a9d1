// Package lifecycle provides the build-phase entry points for a stub server:
// Start before integration tests, Stop after them, and Run to serve in the
// foreground until interrupted.
//
// Start and Stop share state through a session.Context. When both phases run
// in one process the manager itself is handed over; across processes the
// server's handle is persisted and Stop re-attaches to it.
package lifecycle
