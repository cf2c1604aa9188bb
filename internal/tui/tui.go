// Package tui provides the interactive terminal programs: the support chat
// and the analytics dashboard.
package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Yates-Labs/spoke/internal/render"
)

// item represents a selectable item in a Bubble Tea list.
type item struct {
	title string
	desc  string
}

// Title returns the title of the list item.
func (i item) Title() string { return i.title }

// Description returns the description of the list item.
func (i item) Description() string { return i.desc }

// FilterValue returns the title of the item, used for filtering.
func (i item) FilterValue() string { return i.title }

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(render.HeaderColor).Padding(0, 1)
	badgeStyle = lipgloss.NewStyle().Background(render.AccentColor).Foreground(lipgloss.Color("#282A36")).Padding(0, 1)
	helpStyle  = render.MutedStyle
)

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(render.AccentColor)
	return s
}

// newInput creates a single-line question box submitted with enter.
func newInput(placeholder, prompt string) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.Prompt = prompt
	ta.ShowLineNumbers = false
	ta.CharLimit = -1
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()
	return ta
}
