package tui

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 32

var (
	accent = lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#9D8CFF"}
	subtle = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
	danger = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF6B6B"}
)

type styles struct {
	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	Title       lipgloss.Style
	Contact     lipgloss.Style
	Cursor      lipgloss.Style
	ActiveChat  lipgloss.Style
	Preview     lipgloss.Style
	Header      lipgloss.Style
	Badge       lipgloss.Style
	Self        lipgloss.Style
	Other       lipgloss.Style
	Meta        lipgloss.Style
	Popup       lipgloss.Style
	Alert       lipgloss.Style
	Status      lipgloss.Style
}

func defaultStyles() styles {
	pane := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(subtle)
	return styles{
		Pane:        pane,
		PaneFocused: pane.BorderForeground(accent),
		Title:       lipgloss.NewStyle().Bold(true).Foreground(accent),
		Contact:     lipgloss.NewStyle().PaddingLeft(1),
		Cursor:      lipgloss.NewStyle().Foreground(accent).Bold(true),
		ActiveChat:  lipgloss.NewStyle().Bold(true).Underline(true),
		Preview:     lipgloss.NewStyle().Foreground(subtle).PaddingLeft(3),
		Header:      lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Badge:       lipgloss.NewStyle().Foreground(accent).Padding(0, 1),
		Self:        lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(accent).Padding(0, 1),
		Other:       lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(subtle).Padding(0, 1),
		Meta:        lipgloss.NewStyle().Foreground(subtle),
		Popup:       lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(accent).Padding(1, 2),
		Alert:       lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(danger).Padding(1, 2),
		Status:      lipgloss.NewStyle().Foreground(danger),
	}
}
