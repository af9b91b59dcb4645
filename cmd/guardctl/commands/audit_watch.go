// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/Nick-heo-eg/execution-guard-action/cmd/guardctl/cli"
)

const auditWatchPollInterval = 750 * time.Millisecond

var (
	paneTitleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	paneBorder     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	allowStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	holdStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	stopStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// AuditCommand's watch subcommand opens a small split-pane TUI that
// live-tails this gate's two audit streams, colorized by decision.
func auditWatchCommand() *cli.Command {
	var common commonFlags

	return &cli.Command{
		Name:    "watch",
		Summary: "Live-tail the audit log and used-token stream, split-pane",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			common.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			program := tea.NewProgram(newWatchModel(common.auditDir, common.stream), tea.WithAltScreen())
			_, err := program.Run()
			return err
		},
	}
}

type watchTickMsg struct{}

func watchTick() tea.Cmd {
	return tea.Tick(auditWatchPollInterval, func(time.Time) tea.Msg { return watchTickMsg{} })
}

type watchModel struct {
	auditDir string
	stream   string
	width    int
	height   int
	logLines []string
	usedLines []string
}

func newWatchModel(auditDir, stream string) watchModel {
	return watchModel{auditDir: auditDir, stream: stream, width: 100, height: 30}
}

func (m watchModel) Init() tea.Cmd {
	return watchTick()
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil

	case watchTickMsg:
		capacity := m.height - 4
		if capacity < 1 {
			capacity = 1
		}
		m.logLines = readLastLines(logStreamPath(m.auditDir, m.stream), capacity)
		m.usedLines = readLastLines(usedTokensStreamPath(m.auditDir, m.stream), capacity)
		return m, watchTick()
	}
	return m, nil
}

func (m watchModel) View() string {
	paneWidth := (m.width - 4) / 2
	if paneWidth < 20 {
		paneWidth = 20
	}
	paneHeight := m.height - 4
	if paneHeight < 3 {
		paneHeight = 3
	}

	left := paneBorder.Width(paneWidth).Height(paneHeight).Render(
		paneTitleStyle.Render("log."+m.stream) + "\n" + colorizeLines(m.logLines))
	right := paneBorder.Width(paneWidth).Height(paneHeight).Render(
		paneTitleStyle.Render("used_tokens."+m.stream) + "\n" + colorizeLines(m.usedLines))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	footer := dimStyle.Render("q to quit")
	return body + "\n" + footer
}

// colorizeLines joins lines, tinting each by the decision keyword it
// contains (ALLOW/HOLD/STOP), so an operator can scan the pane by
// color rather than reading every record.
func colorizeLines(lines []string) string {
	if len(lines) == 0 {
		return dimStyle.Render("(no records yet)")
	}
	styled := make([]string, len(lines))
	for i, line := range lines {
		styled[i] = colorizeLine(line)
	}
	return strings.Join(styled, "\n")
}

func colorizeLine(line string) string {
	switch {
	case strings.Contains(line, "ALLOW"):
		return allowStyle.Render(line)
	case strings.Contains(line, "HOLD"):
		return holdStyle.Render(line)
	case strings.Contains(line, "STOP") || strings.Contains(line, "_ERROR") || strings.Contains(line, "DENIED") || strings.Contains(line, "MISMATCH") || strings.Contains(line, "INVALID"):
		return stopStyle.Render(line)
	default:
		return line
	}
}
