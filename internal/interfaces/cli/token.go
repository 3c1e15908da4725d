package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command group
func NewTokenCommand(container func() (*CLIContainer, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect and manage the cached bearer credential",
	}

	cmd.AddCommand(newTokenShowCommand(container))
	cmd.AddCommand(newTokenRefreshCommand(container))
	cmd.AddCommand(newTokenClearCommand(container))

	return cmd
}

func newTokenShowCommand(container func() (*CLIContainer, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			if c.Store == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no credential store configured (running with a fixed token)")
				return nil
			}
			cred, err := c.Store.Load()
			if err != nil {
				return err
			}
			if cred == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no stored credential")
				return nil
			}
			printCredential(cmd, cred.Masked(), cred.ExpiresAt)
			return nil
		},
	}
}

func newTokenRefreshCommand(container func() (*CLIContainer, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a credential refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			cred, err := c.Interceptor.ForceRefresh(cmd.Context())
			if err != nil {
				return err
			}
			printCredential(cmd, cred.Masked(), cred.ExpiresAt)
			return nil
		},
	}
}

func newTokenClearCommand(container func() (*CLIContainer, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			if c.Store == nil {
				return fmt.Errorf("no credential store configured")
			}
			if err := c.Store.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "stored credential removed")
			return nil
		},
	}
}

func printCredential(cmd *cobra.Command, masked string, expiresAt time.Time) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "token:      %s\n", masked)
	fmt.Fprintf(out, "expires at: %s", expiresAt.Format(time.RFC3339))
	if remaining := time.Until(expiresAt); remaining > 0 {
		fmt.Fprintf(out, " (in %s)\n", remaining.Round(time.Second))
	} else {
		fmt.Fprintf(out, " (%s)\n", failureStyle.Render("expired"))
	}
}
