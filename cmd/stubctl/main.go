// stubctl starts, runs and stops a stubby4j stub server for integration tests.
package main

import "github.com/testingsyndicate/stubctl/pkg/cli"

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
