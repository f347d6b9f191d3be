package tui

import "github.com/charmbracelet/lipgloss"

// Colors adapt to the terminal background.
var (
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#0E7C72", Dark: "#2EC4B6"}
	colorText      = lipgloss.AdaptiveColor{Light: "#24283B", Dark: "#C0CAF5"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#8C8C8C", Dark: "#666666"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#C8CCD8", Dark: "#414868"}
	colorHighlight = lipgloss.AdaptiveColor{Light: "#3D59A1", Dark: "#7AA2F7"}
	colorGood      = lipgloss.AdaptiveColor{Light: "#1E8449", Dark: "#2ECC71"}
	colorWarn      = lipgloss.AdaptiveColor{Light: "#B9770E", Dark: "#F39C12"}
	colorBad       = lipgloss.AdaptiveColor{Light: "#B03A2E", Dark: "#E74C3C"}
)

// userColors tints one bar per user on the dashboard chart.
var userColors = []string{"#2EC4B6", "#6C63FF", "#FF6B6B", "#F39C12", "#2ECC71", "#9B59B6", "#3498DB", "#E74C3C"}

func userColor(i int) lipgloss.Color {
	return lipgloss.Color(userColors[i%len(userColors)])
}

func fg(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func panel(border lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(border).Padding(1, 2)
}

var (
	tabStyle         = lipgloss.NewStyle().Padding(0, 2)
	activeTabStyle   = tabStyle.Bold(true).Foreground(colorPrimary).Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(colorPrimary)
	inactiveTabStyle = tabStyle.Foreground(colorDim)

	panelStyle       = panel(colorBorder)
	activePanelStyle = panel(colorPrimary)

	titleStyle     = fg(colorText).Bold(true)
	mutedStyle     = fg(colorDim)
	highlightStyle = fg(colorHighlight)
	successStyle   = fg(colorGood)
	warningStyle   = fg(colorWarn)
	errorStyle     = fg(colorBad)

	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = mutedStyle.Padding(0, 1)

	normalItemStyle   = fg(colorText)
	selectedItemStyle = fg(colorPrimary).Bold(true)
)
