// Package tui is the interactive dashboard over the sync core. It renders
// whatever the entity store holds; every mutation goes through the
// mutation gateway, and push events land via the reconciler bridge.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"studysync/internal/api"
	"studysync/internal/config"
	"studysync/internal/push"
	syncer "studysync/internal/sync"
	"studysync/internal/ui"
	"studysync/pkg/dateinput"
	"studysync/pkg/task"
)

const (
	headerHeight = 3
	footerHeight = 2
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeNewTitle
	modeNewDeadline
	modeDetail
)

type App struct {
	store   *task.Store
	gateway *syncer.Gateway
	api     *api.Client
	push    *push.Client
	events  chan tea.Msg

	mode     mode
	tabs     ui.Tabs
	viewport viewport.Model
	input    textinput.Model
	deadline dateinput.Model

	filter  task.Filter
	cursor  int
	visible []task.Task
	detail  *detail

	// draft of a task being created, filled across the new-task modes
	draft task.Task

	connected bool
	status    string
	statusErr bool
	toastSeq  int
	loaded    bool
}

func newApp(store *task.Store, gw *syncer.Gateway, client *api.Client, pc *push.Client, events chan tea.Msg) *App {
	i := textinput.NewModel()
	i.Prompt = ""
	i.CharLimit = 120
	return &App{
		store:    store,
		gateway:  gw,
		api:      client,
		push:     pc,
		events:   events,
		tabs:     ui.NewTabs([]string{"All", "To Do", "In Progress", "Completed"}),
		input:    i,
		deadline: dateinput.NewModel(),
		viewport: viewport.Model{},
	}
}

// Run wires the whole client together and blocks until the UI exits.
// The store, gateway, push client and reconciler are owned here — the
// composition root — and live exactly one session.
func Run(cfg config.Config) error {
	store := task.NewStore()
	client := api.New(cfg.ServerURL, cfg.Token)
	gateway := syncer.NewGateway(store, client)

	events := make(chan tea.Msg, 64)
	pc := push.New(cfg.SocketURL, cfg.Token,
		push.WithClientID(client.ClientID()),
		push.WithRetry(cfg.ReconnectAttempts, cfg.ReconnectDelay),
		push.WithOnState(func(s push.State) {
			events <- connMsg{connected: s == push.Connected}
		}),
	)
	defer pc.Close()

	reconciler := syncer.NewReconciler(store)
	reconciler.Attach(pc, func() {
		events <- storeChangedMsg{}
	})
	pc.Subscribe(push.EventNotification, func(data json.RawMessage) {
		var n struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &n); err == nil {
			events <- toastMsg{kind: n.Type, message: n.Message}
		}
	})

	// a missing token or an unreachable push server degrades to a
	// disconnected session, it never blocks the dashboard
	if err := pc.Connect(context.Background()); err != nil && !errors.Is(err, push.ErrNoToken) {
		events <- connMsg{connected: false}
	}

	a := newApp(store, gateway, client, pc, events)
	p := tea.NewProgram(a)
	p.EnterAltScreen()
	defer p.ExitAltScreen()
	return p.Start()
}

func (m *App) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.listen())
}

func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - headerHeight - footerHeight
		m.tabs.Width = msg.Width
		m.updateVisible()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		cmd = m.keyUpdate(msg)

	case refreshedMsg:
		m.loaded = true
		if msg.err != nil {
			m.setError(msg.err.Error())
		} else {
			m.setStatus("synced")
		}
		m.updateVisible()

	case createdMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
		} else {
			m.setStatus("created " + msg.created.Title)
		}
		m.updateVisible()

	case opDoneMsg:
		if msg.err != nil {
			// the optimistic write has already been rolled back
			m.setError(msg.err.Error())
		}
		m.updateVisible()

	case subtasksSavedMsg:
		m.subtasksSaved(msg)
		m.updateVisible()

	case storeChangedMsg:
		// a push event mutated the store; if the open task vanished the
		// selection is already cleared
		if m.detail != nil {
			if t, found := m.store.Get(m.detail.taskID); found {
				if !m.detail.saving {
					m.detail.reset(t.Subtasks)
				}
			} else {
				m.closeDetail()
				m.mode = modeList
			}
		}
		m.updateVisible()
		cmd = m.listen()

	case connMsg:
		m.connected = msg.connected
		cmd = m.listen()

	case toastMsg:
		m.toastSeq++
		m.setStatus(msg.message)
		cmd = tea.Batch(m.listen(), m.expireToastCmd(m.toastSeq))

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.status = ""
		}
	}

	m.viewport.SetContent(m.viewTasks())
	return m, cmd
}

func (m *App) keyUpdate(msg tea.KeyMsg) tea.Cmd {
	switch m.mode {
	case modeDetail:
		cmd := m.detailKey(msg)
		if m.detail == nil {
			m.mode = modeList
		}
		return cmd

	case modeSearch:
		switch msg.Type {
		case tea.KeyEsc:
			m.mode = modeList
			m.filter.Search = ""
			m.input.SetValue("")
			m.updateVisible()
		case tea.KeyEnter:
			m.mode = modeList
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			m.filter.Search = m.input.Value()
			m.updateVisible()
			return cmd
		}

	case modeNewTitle:
		switch msg.Type {
		case tea.KeyEsc:
			m.mode = modeList
		case tea.KeyEnter:
			if m.input.Value() == "" {
				m.setError("title must not be empty")
				return nil
			}
			m.draft.Title = m.input.Value()
			m.deadline.Reset()
			m.mode = modeNewDeadline
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return cmd
		}

	case modeNewDeadline:
		switch msg.Type {
		case tea.KeyEsc:
			m.mode = modeList
		case tea.KeyEnter:
			if !m.deadline.Empty() && m.deadline.Value() == nil {
				return nil // unparseable, indicator already shows ✗
			}
			m.draft.Deadline = m.deadline.Value()
			m.mode = modeList
			return m.createCmd(m.draft)
		default:
			var cmd tea.Cmd
			m.deadline, cmd = m.deadline.Update(msg)
			return cmd
		}

	case modeList:
		return m.listKey(msg)
	}
	return nil
}

func (m *App) listKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "j":
		m.setCursor(m.cursor + 1)
	case "k":
		m.setCursor(m.cursor - 1)
	case "g":
		m.setCursor(0)
	case "G":
		m.setCursor(len(m.visible) - 1)
	case "tab":
		m.tabs.Next()
		m.setCursor(0)
		m.updateVisible()
	case "/":
		m.mode = modeSearch
		m.input.SetValue(m.filter.Search)
		m.input.Focus()
	case "f":
		m.cycleFilterPriority()
		m.updateVisible()
	case "n":
		m.mode = modeNewTitle
		m.draft = task.Task{Priority: task.PriorityMedium}
		m.input.SetValue("")
		m.input.Focus()
	case "r":
		return m.refreshCmd()
	case "enter":
		if t, ok := m.atCursor(); ok {
			m.store.Select(t.ID)
			m.detail = openDetail(t)
			m.mode = modeDetail
		}
	case "t":
		if t, ok := m.atCursor(); ok {
			return m.setStatusCmd(t.ID, nextStatus(t.Status))
		}
	case "p":
		if t, ok := m.atCursor(); ok {
			return m.setPriorityCmd(t.ID, nextPriority(t.Priority))
		}
	case "d":
		if t, ok := m.atCursor(); ok {
			if t.TeacherAssigned {
				m.setError("teacher-assigned tasks cannot be deleted")
				return nil
			}
			return m.deleteCmd(t.ID)
		}
	}
	return nil
}

func nextStatus(s task.Status) task.Status {
	switch s {
	case task.StatusTodo:
		return task.StatusInProgress
	case task.StatusInProgress:
		return task.StatusCompleted
	default:
		return task.StatusTodo
	}
}

func nextPriority(p task.Priority) task.Priority {
	for i, v := range task.Priorities {
		if v == p {
			return task.Priorities[(i+1)%len(task.Priorities)]
		}
	}
	return task.PriorityMedium
}

func (m *App) cycleFilterPriority() {
	switch m.filter.Priority {
	case "":
		m.filter.Priority = task.PriorityLow
	case task.PriorityLow:
		m.filter.Priority = task.PriorityMedium
	case task.PriorityMedium:
		m.filter.Priority = task.PriorityHigh
	case task.PriorityHigh:
		m.filter.Priority = task.PriorityUrgent
	default:
		m.filter.Priority = ""
	}
}

// updateVisible recomputes the filtered projection for the active tab.
// Tab counts always come from the unfiltered collection so the bar keeps
// showing true totals while a search narrows the list.
func (m *App) updateVisible() {
	all := m.store.Filtered(m.filter)
	parts := task.ByStatus(all)
	switch m.tabs.Value() {
	case 1:
		m.visible = parts[task.StatusTodo]
	case 2:
		m.visible = parts[task.StatusInProgress]
	case 3:
		m.visible = parts[task.StatusCompleted]
	default:
		m.visible = all
	}

	stats := task.Statistics(m.store.All())
	m.tabs.SetCount(0, stats.Total)
	m.tabs.SetCount(1, stats.Todo)
	m.tabs.SetCount(2, stats.InProgress)
	m.tabs.SetCount(3, stats.Completed)

	m.setCursor(m.cursor)
}

func (m *App) setCursor(value int) {
	size := len(m.visible)
	m.cursor = clamp(value, 0, max(size-1, 0))
	if size == 0 {
		return
	}
	if m.cursor >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.YOffset = m.cursor - m.viewport.Height + 1
	}
	if m.cursor < m.viewport.YOffset {
		m.viewport.YOffset = m.cursor
	}
}

func (m *App) atCursor() (task.Task, bool) {
	if m.cursor >= len(m.visible) {
		return task.Task{}, false
	}
	return m.visible[m.cursor], true
}

func (m *App) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *App) setError(s string) {
	m.status = s
	m.statusErr = true
}

func (m *App) viewTasks() string {
	if m.mode == modeDetail && m.detail != nil {
		return m.viewDetail()
	}
	if !m.loaded {
		return "\n  loading…\n"
	}
	if len(m.visible) == 0 {
		return "\n  " + ui.StatusLine.Render("nothing here — n to add a task") + "\n"
	}

	s := ""
	for i, t := range m.visible {
		title := ui.Title
		if i == m.cursor {
			title = title.Copy().Background(ui.Faded)
		}
		if t.Done() {
			title = title.Copy().Strikethrough(true)
		}

		s += "  " + ui.StatusIcon(string(t.Status)) + " "
		s += title.Render(t.Title)
		s += " " + lipgloss.NewStyle().Foreground(ui.PriorityColor(string(t.Priority))).Render(string(t.Priority))
		if t.TeacherAssigned {
			s += " " + ui.TeacherBadge
		}
		if n := len(t.Subtasks); n > 0 {
			done := 0
			for _, st := range t.Subtasks {
				if st.Completed {
					done++
				}
			}
			s += ui.Divider + ui.SubtaskTitle.Render(fmt.Sprintf("%d/%d", done, n))
		}
		if t.Deadline != nil {
			s += ui.Divider + ui.SubtaskTitle.Render(t.Deadline.Format("2 Jan"))
		}
		s += "\n"
	}
	return s
}

func (m *App) View() string {
	footer := "\n "
	stats := task.Statistics(m.store.All())
	footer += ui.StatusLine.Render(fmt.Sprintf("%d tasks ∙ %d%% complete ", stats.Total, stats.CompletionRate))
	footer += ui.ConnDot(m.connected)

	switch m.mode {
	case modeSearch:
		footer += "  /" + m.input.View()
	case modeNewTitle:
		footer += "  title: " + m.input.View()
	case modeNewDeadline:
		footer += "  deadline: " + m.deadline.View()
	default:
		if m.status != "" {
			style := ui.ToastLine
			if m.statusErr {
				style = ui.ErrorLine
			}
			footer += "  " + style.Render(m.status)
		}
	}
	if m.filter.Priority != "" {
		footer += ui.Divider + ui.StatusLine.Render("filter: "+string(m.filter.Priority))
	}

	return m.tabs.View() + m.viewport.View() + "\n" + footer
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
