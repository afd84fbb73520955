package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	tabContainer = lipgloss.NewStyle().Padding(1, 1)
	activeTab    = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	inactiveTab  = lipgloss.NewStyle().Foreground(Secondary)
	tabDivider   = lipgloss.NewStyle().Foreground(Faded)
)

// Tabs is the dashboard's status tab bar. Counts are refreshed by the
// caller on every store change so the bar doubles as a totals readout.
type Tabs struct {
	tabs   []string
	counts []int
	i      int

	Width int
	Info  string
}

func NewTabs(tabs []string) Tabs {
	return Tabs{tabs: tabs, counts: make([]int, len(tabs))}
}

func (m Tabs) View() string {
	rendered := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		label := t
		if m.counts[i] > 0 {
			label = fmt.Sprintf("%s %d", t, m.counts[i])
		}
		style := inactiveTab
		if i == m.i {
			style = activeTab
		}
		rendered[i] = style.Render(label)
	}
	w := lipgloss.Width
	left := strings.Join(rendered, tabDivider.Render(" | "))
	right := m.Info
	space := lipgloss.NewStyle().Width(m.Width - 2 - w(left) - w(right)).Render("")
	return tabContainer.Render(lipgloss.JoinHorizontal(lipgloss.Center, left, space, right)) + "\n"
}

func (m Tabs) Value() int {
	return m.i
}

func (m *Tabs) Set(i int) {
	m.i = clamp(i, 0, len(m.tabs)-1)
}

func (m *Tabs) Next() {
	m.Set((m.i + 1) % len(m.tabs))
}

func (m *Tabs) SetCount(i, n int) {
	if i >= 0 && i < len(m.counts) {
		m.counts[i] = n
	}
}

func clamp(v, low, high int) int {
	if v < low {
		return low
	}
	if v > high {
		return high
	}
	return v
}
