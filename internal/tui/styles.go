package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorMuted   = lipgloss.Color("#6C7086")
	ColorText    = lipgloss.Color("#CDD6F4")

	ColorSuccess = lipgloss.Color("#50FA7B")
	ColorFailure = lipgloss.Color("#FF5F87")
	ColorRunning = lipgloss.Color("#89B4FA")
	ColorCached  = lipgloss.Color("#FFB86C")
)

var (
	StyleTitle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(ColorPrimary).
			Padding(0, 1).
			Bold(true)

	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)

	StyleTaskName = lipgloss.NewStyle().Foreground(ColorText).Width(30)

	StylePane = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1)

	StylePaneFocused = StylePane.Copy().BorderForeground(ColorPrimary)

	StyleFilterBar = lipgloss.NewStyle().Foreground(ColorText).Bold(true)

	StyleCountdown = lipgloss.NewStyle().Foreground(ColorFailure).Bold(true)
)

// statusStyle returns the color a task row's status indicator renders in.
func statusStyle(status TaskStatus) lipgloss.Style {
	switch status {
	case InProgress:
		return lipgloss.NewStyle().Foreground(ColorRunning)
	case Success:
		return lipgloss.NewStyle().Foreground(ColorSuccess)
	case Failure:
		return lipgloss.NewStyle().Foreground(ColorFailure)
	case LocalCache, LocalCacheKeptExisting, RemoteCache:
		return lipgloss.NewStyle().Foreground(ColorCached)
	default:
		return StyleMuted
	}
}

// statusIcon mirrors the status colors with a one-glyph indicator.
func statusIcon(status TaskStatus) string {
	switch status {
	case InProgress:
		return "●"
	case Success:
		return "✓"
	case Failure:
		return "✗"
	case Skipped:
		return "-"
	case LocalCache, LocalCacheKeptExisting:
		return "↺"
	case RemoteCache:
		return "☁"
	case Stopped:
		return "■"
	case Shared:
		return "~"
	default:
		return "○"
	}
}
