// Package cli implements the stubctl command tree.
//
// stubctl start and stubctl stop bracket an integration test run: start
// launches stubby4j in the background and records it in a session file under
// the state directory, stop finds it there and shuts it down. stubctl run keeps
// stubby in the foreground until interrupted.
package cli
