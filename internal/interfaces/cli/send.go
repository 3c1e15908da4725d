package cli

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// SendFlags holds command-line flags for the send command
type SendFlags struct {
	Method  string
	Data    string
	Headers []string
	Count   int
	Quiet   bool
}

var (
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	failureStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// NewSendCommand creates the send command
func NewSendCommand(container func() (*CLIContainer, error)) *cobra.Command {
	flags := &SendFlags{}

	cmd := &cobra.Command{
		Use:   "send [url]",
		Short: "Send an authenticated HTTP request",
		Long: `Send an HTTP request with the current bearer credential attached.

The URL may be absolute or relative to the configured base URL. When the
server rejects the credential, it is refreshed once and the request retried.

Examples:
  tokengate send /v1/items
  tokengate send --method POST --data '{"name":"x"}' /v1/items
  tokengate send --count 10 /v1/ping     # 10 concurrent requests`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			return runSend(cmd, c, flags, args[0])
		},
	}

	cmd.Flags().StringVarP(&flags.Method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&flags.Data, "data", "d", "", "Request body")
	cmd.Flags().StringArrayVarP(&flags.Headers, "header", "H", nil, "Extra header, name:value (repeatable)")
	cmd.Flags().IntVar(&flags.Count, "count", 1, "Number of concurrent requests to send")
	cmd.Flags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Print response bodies only")

	return cmd
}

type sendResult struct {
	status   int
	body     []byte
	duration time.Duration
}

func runSend(cmd *cobra.Command, c *CLIContainer, flags *SendFlags, target string) error {
	headers, err := parseHeaderFlags(flags.Headers)
	if err != nil {
		return err
	}
	if flags.Count < 1 {
		return fmt.Errorf("--count must be positive, got %d", flags.Count)
	}

	results := make([]sendResult, flags.Count)
	g, ctx := errgroup.WithContext(cmd.Context())
	for i := 0; i < flags.Count; i++ {
		i := i
		g.Go(func() error {
			var body io.Reader
			if flags.Data != "" {
				body = strings.NewReader(flags.Data)
			}
			start := time.Now()
			resp, err := c.Requester.Do(ctx, strings.ToUpper(flags.Method), target, headers, body)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			payload, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			results[i] = sendResult{status: resp.StatusCode, body: payload, duration: time.Since(start)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, res := range results {
		if flags.Quiet {
			fmt.Fprintf(out, "%s\n", res.body)
			continue
		}
		statusLine := successStyle.Render(fmt.Sprintf("%d", res.status))
		if res.status < 200 || res.status > 299 {
			statusLine = failureStyle.Render(fmt.Sprintf("%d", res.status))
		}
		prefix := ""
		if flags.Count > 1 {
			prefix = dimStyle.Render(fmt.Sprintf("[%d] ", i+1))
		}
		fmt.Fprintf(out, "%s%s %s\n", prefix, statusLine, dimStyle.Render(res.duration.Round(time.Millisecond).String()))
		if len(res.body) > 0 {
			fmt.Fprintf(out, "%s\n", res.body)
		}
	}
	return nil
}

func parseHeaderFlags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid header %q, expected name:value", h)
		}
		headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return headers, nil
}
