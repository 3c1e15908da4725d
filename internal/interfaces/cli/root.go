package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// NewRootCommand builds the base command and its subcommands.
func NewRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tokengate",
		Short: "Tokengate - authenticated HTTP client with coordinated token refresh",
		Long: `Tokengate is a command-line client for bearer-protected HTTP APIs.

It attaches the current bearer credential to every request, refreshes it when
the server rejects it, and coordinates that refresh so concurrent requests
share a single token exchange instead of racing each other.`,
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default is ~/.config/tokengate/config.yaml)")

	container := func() (*CLIContainer, error) {
		return NewCLIContainer(configPath)
	}

	rootCmd.AddCommand(NewSendCommand(container))
	rootCmd.AddCommand(NewTokenCommand(container))
	rootCmd.AddCommand(NewDashboardCommand(container))

	return rootCmd
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}
