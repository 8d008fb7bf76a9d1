// Package process runs stubby4j as a child java process.
//
// The server command line is
//
//	<java> -jar <jar> --data <stubs> --location localhost --stubs <port> ...
//
// Start returns once the stubs port accepts TCP connections. A detached
// server runs in its own process group and writes its output to a log file,
// so it outlives the stubctl invocation that started it. A later invocation
// re-attaches through the PID recorded in the handle.
package process
