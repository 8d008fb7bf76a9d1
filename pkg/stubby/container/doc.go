// Package container runs stubby4j from its Docker image using testcontainers.
//
// The stubs file is copied into /home/stubby4j/data and the configured ports
// are bound on the host with the same numbers, so tests reach the server at
// the addresses they were configured with.
//
// Containers created by testcontainers are reaped when the creating process
// exits unless the reaper is disabled (TESTCONTAINERS_RYUK_DISABLED=true).
// Keep that in mind when starting and stopping from separate invocations.
package container
