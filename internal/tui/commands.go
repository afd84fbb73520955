package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"studysync/pkg/task"
)

// Messages produced by remote-call commands and the push bridge. All
// store mutations triggered by these flows happen inside the gateway or
// reconciler; the messages only carry outcomes back to the loop.
type (
	// refreshedMsg reports a full-collection reload.
	refreshedMsg struct{ err error }

	// createdMsg carries the server's canonical copy of a new task.
	createdMsg struct {
		created task.Task
		err     error
	}

	// opDoneMsg reports any optimistic update/delete cycle.
	opDoneMsg struct {
		id  string
		err error
	}

	// subtasksSavedMsg resolves the detail view's saving flag.
	subtasksSavedMsg struct {
		id  string
		err error
	}

	// storeChangedMsg means the reconciler applied a push event.
	storeChangedMsg struct{}

	// connMsg tracks push-channel connectivity.
	connMsg struct{ connected bool }

	// toastMsg is a non-authoritative server notification.
	toastMsg struct {
		kind    string
		message string
	}

	// toastExpiredMsg clears a toast shown seq ticks ago.
	toastExpiredMsg struct{ seq int }
)

// listen re-arms the push bridge: one command per delivered message.
func (m *App) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *App) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{err: m.gateway.Refresh(context.Background())}
	}
}

func (m *App) createCmd(t task.Task) tea.Cmd {
	return func() tea.Msg {
		created, err := m.gateway.Create(context.Background(), t)
		return createdMsg{created: created, err: err}
	}
}

func (m *App) setStatusCmd(id string, st task.Status) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{id: id, err: m.gateway.SetStatus(context.Background(), id, st)}
	}
}

func (m *App) setPriorityCmd(id string, p task.Priority) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{id: id, err: m.gateway.SetPriority(context.Background(), id, p)}
	}
}

func (m *App) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{id: id, err: m.gateway.Delete(context.Background(), id)}
	}
}

func (m *App) toggleSubtaskCmd(id string, index int) tea.Cmd {
	return func() tea.Msg {
		return subtasksSavedMsg{id: id, err: m.gateway.ToggleSubtask(context.Background(), id, index)}
	}
}

func (m *App) putSubtasksCmd(id string, subs []task.Subtask) tea.Cmd {
	return func() tea.Msg {
		return subtasksSavedMsg{id: id, err: m.gateway.PutSubtasks(context.Background(), id, subs)}
	}
}

func (m *App) setGradeCmd(id string, grade int) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{id: id, err: m.gateway.SetGrade(context.Background(), id, grade)}
	}
}

func (m *App) addNoteCmd(id, content string) tea.Cmd {
	return func() tea.Msg {
		note, err := m.api.AddNote(context.Background(), id, content)
		if err == nil {
			// notes bypass push reconciliation; patch the store directly
			if t, ok := m.store.Get(id); ok {
				m.store.SetNotes(id, append(t.Notes, note))
			}
		}
		return opDoneMsg{id: id, err: err}
	}
}

func (m *App) expireToastCmd(seq int) tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}
