package cli

import (
	"fmt"
	"io"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// DashboardFlags holds command-line flags for the dashboard command
type DashboardFlags struct {
	ProbePath   string
	RefreshRate time.Duration
}

// NewDashboardCommand creates the dashboard command
func NewDashboardCommand(container func() (*CLIContainer, error)) *cobra.Command {
	flags := &DashboardFlags{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live view of the credential and probe request results",
		Long: `Launch an interactive terminal view of the authentication state.

The dashboard shows the current credential, its generation and time to
expiry, and periodically sends an authenticated probe request so refreshes
can be watched as they happen.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := container()
			if err != nil {
				return err
			}
			model := newDashboardModel(c, flags)
			program := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("dashboard failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.ProbePath, "probe", "/", "Path probed on each refresh tick")
	cmd.Flags().DurationVar(&flags.RefreshRate, "refresh", 2*time.Second, "Interval between probe requests")

	return cmd
}

type tickMsg time.Time

type probeMsg struct {
	status   int
	duration time.Duration
	err      error
}

type refreshedMsg struct {
	err error
}

// dashboardModel holds the state for the Bubble Tea dashboard
type dashboardModel struct {
	container *CLIContainer
	flags     *DashboardFlags

	lastProbe  *probeMsg
	lastUpdate time.Time
	paused     bool
	err        error
}

func newDashboardModel(container *CLIContainer, flags *DashboardFlags) dashboardModel {
	return dashboardModel{
		container:  container,
		flags:      flags,
		lastUpdate: time.Now(),
	}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.tickCmd(), m.probeCmd())
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case " ":
			m.paused = !m.paused
			return m, nil

		case "p":
			return m, m.probeCmd()

		case "r":
			return m, m.forceRefreshCmd()
		}

	case tickMsg:
		if m.paused {
			return m, m.tickCmd()
		}
		return m, tea.Batch(m.tickCmd(), m.probeCmd())

	case probeMsg:
		m.lastProbe = &msg
		m.lastUpdate = time.Now()
		return m, nil

	case refreshedMsg:
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m dashboardModel) View() string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86")).
		Render("Tokengate Dashboard")

	status := "LIVE"
	statusStyle := successStyle
	if m.paused {
		status = "PAUSED"
		statusStyle = failureStyle
	}

	header := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", statusStyle.Render(status))

	credential := m.renderCredential()
	probe := m.renderProbe()

	errLine := ""
	if m.err != nil {
		errLine = failureStyle.Render(fmt.Sprintf("error: %v", m.err))
	}

	controls := dimStyle.Render("Controls: [Space] Pause/Resume | [p] Probe now | [r] Force refresh | [q] Quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, "", credential, probe, errLine, "", controls)
}

func (m dashboardModel) renderCredential() string {
	cred, gen := m.container.Interceptor.Credential()
	if cred == nil {
		return dimStyle.Render("credential:  none (no request made yet, or provider returned none)")
	}

	remaining := time.Until(cred.ExpiresAt).Round(time.Second)
	expiry := fmt.Sprintf("expires in %s", remaining)
	if remaining <= 0 {
		expiry = failureStyle.Render("expired")
	}

	return fmt.Sprintf("credential:  %s\ngeneration:  %d\nexpiry:      %s",
		cred.Masked(), gen, expiry)
}

func (m dashboardModel) renderProbe() string {
	if m.lastProbe == nil {
		return dimStyle.Render("probe:       waiting for first result...")
	}
	if m.lastProbe.err != nil {
		return fmt.Sprintf("probe:       %s", failureStyle.Render(m.lastProbe.err.Error()))
	}

	statusText := successStyle.Render(fmt.Sprintf("%d", m.lastProbe.status))
	if m.lastProbe.status < 200 || m.lastProbe.status > 299 {
		statusText = failureStyle.Render(fmt.Sprintf("%d", m.lastProbe.status))
	}
	return fmt.Sprintf("probe:       %s %s %s",
		statusText,
		dimStyle.Render(m.lastProbe.duration.Round(time.Millisecond).String()),
		dimStyle.Render("at "+m.lastUpdate.Format("15:04:05")))
}

func (m dashboardModel) tickCmd() tea.Cmd {
	return tea.Tick(m.flags.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m dashboardModel) probeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(m.container)
		defer cancel()

		start := time.Now()
		resp, err := m.container.Requester.Do(ctx, http.MethodGet, m.flags.ProbePath, nil, nil)
		if err != nil {
			return probeMsg{err: err}
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		return probeMsg{status: resp.StatusCode, duration: time.Since(start)}
	}
}

func (m dashboardModel) forceRefreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := contextWithTimeout(m.container)
		defer cancel()

		_, err := m.container.Interceptor.ForceRefresh(ctx)
		return refreshedMsg{err: err}
	}
}
