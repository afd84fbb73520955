package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studysync/internal/ui"
	"studysync/pkg/task"
)

type entryKind int

const (
	entryNone entryKind = iota
	entrySubtask
	entryNote
	entryGrade
)

// detail is the open task view. It owns a draft copy of the subtask list:
// edits go to the draft and to the store optimistically, and the draft is
// reset to the last confirmed base when a persist fails. The saving flag
// serializes edits — nothing else may touch the list until the in-flight
// call resolves.
type detail struct {
	taskID string

	draft  []task.Subtask
	base   []task.Subtask
	saving bool

	cursor int
	entry  textinput.Model
	kind   entryKind
}

func openDetail(t task.Task) *detail {
	i := textinput.NewModel()
	i.Prompt = ""
	i.CharLimit = 120
	d := &detail{taskID: t.ID, entry: i}
	d.reset(t.Subtasks)
	return d
}

// reset installs a confirmed subtask list as both base and draft.
func (d *detail) reset(subs []task.Subtask) {
	d.base = append([]task.Subtask(nil), subs...)
	d.draft = append([]task.Subtask(nil), subs...)
	if d.cursor >= len(d.draft) {
		d.cursor = max(len(d.draft)-1, 0)
	}
}

// rollback discards the draft in favor of the base.
func (d *detail) rollback() {
	d.draft = append([]task.Subtask(nil), d.base...)
}

// confirm promotes the draft to the new base after a successful persist.
func (d *detail) confirm() {
	d.base = append([]task.Subtask(nil), d.draft...)
}

func (m *App) detailKey(msg tea.KeyMsg) tea.Cmd {
	d := m.detail

	if d.kind != entryNone {
		switch msg.Type {
		case tea.KeyEsc:
			d.kind = entryNone
			return nil
		case tea.KeyEnter:
			return m.detailEntryDone()
		}
		var cmd tea.Cmd
		d.entry, cmd = d.entry.Update(msg)
		return cmd
	}

	switch msg.String() {
	case "esc", "q":
		m.closeDetail()
	case "j":
		if d.cursor < len(d.draft)-1 {
			d.cursor++
		}
	case "k":
		if d.cursor > 0 {
			d.cursor--
		}
	case " ", "x":
		return m.toggleDraftSubtask()
	case "a":
		d.kind = entrySubtask
		d.entry.SetValue("")
		d.entry.Focus()
	case "o":
		d.kind = entryNote
		d.entry.SetValue("")
		d.entry.Focus()
	case "G":
		d.kind = entryGrade
		d.entry.SetValue("")
		d.entry.Focus()
	}
	return nil
}

func (m *App) toggleDraftSubtask() tea.Cmd {
	d := m.detail
	if d.saving {
		m.setError("still saving, hold on")
		return nil
	}
	if len(d.draft) == 0 || d.cursor >= len(d.draft) {
		return nil
	}
	d.draft[d.cursor].Toggle()
	d.saving = true
	return m.toggleSubtaskCmd(d.taskID, d.cursor)
}

func (m *App) detailEntryDone() tea.Cmd {
	d := m.detail
	value := strings.TrimSpace(d.entry.Value())
	kind := d.kind
	d.kind = entryNone
	if value == "" {
		return nil
	}
	switch kind {
	case entrySubtask:
		if d.saving {
			m.setError("still saving, hold on")
			return nil
		}
		d.draft = append(d.draft, task.NewSubtask(value))
		d.saving = true
		return m.putSubtasksCmd(d.taskID, append([]task.Subtask(nil), d.draft...))
	case entryNote:
		return m.addNoteCmd(d.taskID, value)
	case entryGrade:
		n, err := strconv.Atoi(value)
		if err != nil {
			m.setError("grade must be a number")
			return nil
		}
		return m.setGradeCmd(d.taskID, n)
	}
	return nil
}

func (m *App) closeDetail() {
	m.detail = nil
	m.store.Select("")
	m.updateVisible()
}

// subtasksSaved resolves the detail saving flag for one task.
func (m *App) subtasksSaved(msg subtasksSavedMsg) {
	d := m.detail
	if d == nil || d.taskID != msg.id {
		return
	}
	d.saving = false
	if msg.err != nil {
		d.rollback()
		m.setError(msg.err.Error())
		return
	}
	d.confirm()
}

func (m *App) viewDetail() string {
	d := m.detail
	t, found := m.store.Get(d.taskID)
	if !found {
		return "\n  task no longer exists (deleted remotely)\n\n  esc to go back\n"
	}

	var b strings.Builder
	title := ui.Title.Render(t.Title)
	if t.TeacherAssigned {
		title += " " + ui.TeacherBadge
		if t.TeacherName != "" {
			title += ui.SubtaskTitle.Render(" "+t.TeacherName)
		}
	}
	b.WriteString("\n  " + title + "\n")

	meta := string(t.Status) + ui.Divider +
		lipgloss.NewStyle().Foreground(ui.PriorityColor(string(t.Priority))).Render(string(t.Priority))
	if t.Deadline != nil {
		meta += ui.Divider + "due " + t.Deadline.Format("2 Jan")
	}
	if t.EstimatedHours > 0 {
		meta += ui.Divider + fmt.Sprintf("~%.1fh", t.EstimatedHours)
	}
	meta += ui.Divider + fmt.Sprintf("complexity %d/10", t.Complexity())
	b.WriteString("  " + ui.StatusLine.Render(meta) + "\n")

	if t.Description != "" {
		b.WriteString("\n  " + ui.SubtaskTitle.Render(t.Description) + "\n")
	}

	b.WriteString("\n  subtasks\n")
	if len(d.draft) == 0 {
		b.WriteString(ui.SubtaskTitle.Render("    none — press a to add one") + "\n")
	}
	for i, s := range d.draft {
		mark := "[ ]"
		if s.Completed {
			mark = "[x]"
		}
		line := "  " + mark + " " + s.Title
		if s.AIGenerated {
			line += ui.SubtaskTitle.Render(" ⚙")
		}
		style := ui.SubtaskTitle
		if i == d.cursor {
			style = style.Copy().Background(ui.Faded)
		}
		if s.Completed {
			style = style.Copy().Strikethrough(true)
		}
		b.WriteString("  " + style.Render(line) + "\n")
	}

	if len(t.Notes) > 0 {
		b.WriteString("\n  notes\n")
		for _, n := range t.Notes {
			b.WriteString(ui.SubtaskTitle.Render("    · "+n.Content) + "\n")
		}
	}
	if len(t.Attachments) > 0 {
		b.WriteString("\n  attachments\n")
		for _, a := range t.Attachments {
			b.WriteString(ui.SubtaskTitle.Render(fmt.Sprintf("    · %s (%d bytes)", a.Filename, a.Size)) + "\n")
		}
	}
	if t.Grade != nil {
		b.WriteString("\n  " + ui.Title.Render(fmt.Sprintf("grade: %d/100", *t.Grade)) + "\n")
	}
	if t.Feedback != "" {
		b.WriteString("  " + ui.SubtaskTitle.Render("feedback: "+t.Feedback) + "\n")
	}

	switch d.kind {
	case entrySubtask:
		b.WriteString("\n  new subtask: " + d.entry.View() + "\n")
	case entryNote:
		b.WriteString("\n  new note: " + d.entry.View() + "\n")
	case entryGrade:
		b.WriteString("\n  grade (0-100): " + d.entry.View() + "\n")
	default:
		help := "space toggle ∙ a subtask ∙ o note ∙ G grade ∙ esc back"
		if d.saving {
			help = "saving…"
		}
		b.WriteString("\n  " + ui.StatusLine.Render(help) + "\n")
	}
	return b.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
