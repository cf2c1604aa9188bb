package render

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// NoticeKind selects the styling of a one-line notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// Notice renders a short status line.
func Notice(kind NoticeKind, text string) string {
	switch kind {
	case NoticeSuccess:
		return SuccessStyle.Render("✓ " + text)
	case NoticeWarning:
		return WarningStyle.Render("! " + text)
	case NoticeError:
		return ErrorStyle.Render("Error: ") + AnswerStyle.Render(text)
	default:
		return ContextStyle.Render("→ " + text)
	}
}

// AnswerBox frames normalized answer text in a rounded border.
func AnswerBox(answer any, width int) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(AccentColor).
		Foreground(AnswerColor).
		Padding(0, 1)
	if width > 4 {
		box = box.Width(width - 2)
	}
	return box.Render(strings.TrimSpace(NormalizeForDisplay(answer)))
}

// Card renders a titled section.
func Card(title, body string, width int) string {
	card := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Padding(0, 1)
	if width > 4 {
		card = card.Width(width - 2)
	}
	return card.Render(HeaderStyle.Render(title) + "\n" + body)
}

// Chip renders a numbered quick-fill suggestion.
func Chip(index int, label string, selected bool) string {
	style := lipgloss.NewStyle().Padding(0, 1).Foreground(QuestionColor)
	if selected {
		style = style.Background(AccentColor).Foreground(lipgloss.Color("#282A36"))
	}
	return style.Render(strconv.Itoa(index) + ". " + strings.TrimSpace(label))
}
