package ui

import "github.com/charmbracelet/lipgloss"

const (
	Primary   = lipgloss.Color("#fff")
	Secondary = lipgloss.Color("#888")
	Faded     = lipgloss.Color("#555")

	Blue   = lipgloss.Color("#4db7ff")
	Green  = lipgloss.Color("#00a352")
	Red    = lipgloss.Color("#c42912")
	Yellow = lipgloss.Color("#c4b810")
	Orange = lipgloss.Color("#c27510")
)

var (
	Title        = lipgloss.NewStyle().Bold(true)
	SubtaskTitle = lipgloss.NewStyle().Foreground(Secondary)
	Divider      = lipgloss.NewStyle().Foreground(Faded).Padding(0, 1).Render("∙")

	StatusLine = lipgloss.NewStyle().Foreground(Secondary)
	ErrorLine  = lipgloss.NewStyle().Foreground(Red)
	ToastLine  = lipgloss.NewStyle().Foreground(Yellow)

	TeacherBadge = lipgloss.NewStyle().Foreground(Blue).Render("🎓")
)

// PriorityColor maps urgency to the shared palette.
func PriorityColor(p string) lipgloss.Color {
	switch p {
	case "urgent":
		return Red
	case "high":
		return Orange
	case "medium":
		return Yellow
	default:
		return Faded
	}
}

// StatusIcon is the single-rune marker rendered before each task title.
func StatusIcon(status string) string {
	switch status {
	case "completed":
		return "✓"
	case "in_progress":
		return "◐"
	default:
		return "○"
	}
}

// ConnDot renders the push-channel connectivity indicator.
func ConnDot(connected bool) string {
	if connected {
		return lipgloss.NewStyle().Foreground(Green).Render("●")
	}
	return lipgloss.NewStyle().Foreground(Red).Render("●")
}
