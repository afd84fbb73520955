// Package dateinput is a small text-entry widget that live-parses human
// deadline phrases ("tomorrow", "3d", "fri", "20/04/26") into a date.
package dateinput

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	indicator = lipgloss.NewStyle().Padding(0, 1).Bold(true)
	checkmark = indicator.Copy().
			Foreground(lipgloss.AdaptiveColor{Light: "#00ad3b", Dark: "#73F59F"}).
			Render("✓")

	cross = indicator.Copy().
		Foreground(lipgloss.AdaptiveColor{Light: "", Dark: "#FF5047"}).
		Render("✗")
)

type Model struct {
	input textinput.Model
	value *time.Time
}

func NewModel() Model {
	i := textinput.NewModel()
	i.Focus()
	i.CharLimit = 20
	i.Prompt = ""
	return Model{input: i}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	if _, ok := msg.(tea.KeyMsg); ok {
		m.input, cmd = m.input.Update(msg)
		m.value = Parse(m.input.Value(), time.Now())
	}
	return m, cmd
}

func (m Model) View() string {
	status := cross
	if m.value != nil || m.input.Value() == "" {
		status = checkmark
	}
	return m.input.View() + status
}

// Value is the parsed date, nil when empty or unparseable.
func (m Model) Value() *time.Time {
	return m.value
}

func (m Model) Empty() bool {
	return m.input.Value() == ""
}

func (m *Model) Reset() {
	m.input.SetValue("")
	m.value = nil
}
