package main

import (
	"fmt"
	"os"

	"tokengate.dev/cli/internal/interfaces/cli"
)

var (
	version   = "dev"     // Overridden by ldflags
	buildTime = "unknown" // Overridden by ldflags
)

func main() {
	cli.Version = version
	cli.BuildTime = buildTime

	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
