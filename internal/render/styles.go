package render

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	HeaderColor   = lipgloss.Color("#F780FF") // Bright pink
	QuestionColor = lipgloss.Color("#8BE9FD") // Cyan
	AnswerColor   = lipgloss.Color("#E9E9F4") // Light purple/white
	ContextColor  = lipgloss.Color("#6272A4") // Muted purple
	ErrorColor    = lipgloss.Color("#FF5555") // Red
	SuccessColor  = lipgloss.Color("#50FA7B") // Green
	WarningColor  = lipgloss.Color("#F1FA8C") // Yellow
	AccentColor   = lipgloss.Color("#BD93F9") // Purple
	BorderColor   = lipgloss.Color("#44475A")
)

// seriesColors cycles through categorical bars.
var seriesColors = []lipgloss.Color{
	"#8BE9FD", "#50FA7B", "#FFB86C", "#FF79C6", "#BD93F9", "#F1FA8C", "#FF5555",
}

var (
	HeaderStyle   = lipgloss.NewStyle().Foreground(HeaderColor).Bold(true)
	QuestionStyle = lipgloss.NewStyle().Foreground(QuestionColor).Italic(true)
	AnswerStyle   = lipgloss.NewStyle().Foreground(AnswerColor)
	ContextStyle  = lipgloss.NewStyle().Foreground(ContextColor).Italic(true)
	ErrorStyle    = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	SuccessStyle  = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle  = lipgloss.NewStyle().Foreground(WarningColor)
	MutedStyle    = lipgloss.NewStyle().Foreground(ContextColor)
)
