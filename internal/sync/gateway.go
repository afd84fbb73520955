// Package sync keeps the entity store consistent with the remote service
// while three update sources race: user mutations applied optimistically,
// push events from other actors, and full reloads.
package sync

import (
	"context"
	"errors"
	"fmt"

	"time"

	"studysync/pkg/task"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrTeacherAssigned = errors.New("teacher-assigned tasks cannot be deleted")
	ErrSaveInFlight    = errors.New("a save for this task is still in flight")
	ErrEmptyTitle      = errors.New("title must not be empty")
	ErrGradeRange      = errors.New("grade must be between 0 and 100")
	ErrNegativeHours   = errors.New("estimated hours must not be negative")
)

// Remote is the slice of the API client the gateway needs. Kept narrow so
// tests can slot in a failing fake.
type Remote interface {
	ListTasks(ctx context.Context) ([]task.Task, error)
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)
	UpdateTask(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteTask(ctx context.Context, id string) error
}

// Gateway wraps each user-initiated change as an optimistic store write
// plus a remote call, replaying the pre-mutation snapshot on failure.
// Validation failures are rejected before any optimistic write.
type Gateway struct {
	store  *task.Store
	remote Remote

	inflight inflightSet
}

func NewGateway(store *task.Store, remote Remote) *Gateway {
	return &Gateway{store: store, remote: remote}
}

// Refresh replaces the collection with the server's truth.
func (g *Gateway) Refresh(ctx context.Context) error {
	ts, err := g.remote.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	for i := range ts {
		ts[i].Subtasks = task.NormalizeSubtasks(ts[i].Subtasks)
	}
	g.store.ReplaceAll(ts)
	return nil
}

// Create sends the record and inserts the returned canonical copy; the
// server assigns the ID. Nothing is written locally before confirmation,
// so a failure has no pre-image to roll back.
func (g *Gateway) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if t.Title == "" {
		return task.Task{}, ErrEmptyTitle
	}
	if t.EstimatedHours < 0 {
		return task.Task{}, ErrNegativeHours
	}
	created, err := g.remote.CreateTask(ctx, t)
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}
	created.Subtasks = task.NormalizeSubtasks(created.Subtasks)
	g.store.Insert(created)
	return created, nil
}

// update runs the shared optimistic cycle: capture pre-image, apply, call
// the server, and on failure restore the pre-image. The restore re-reads
// the store first; if a push event removed the record meanwhile there is
// nothing left to roll back.
func (g *Gateway) update(ctx context.Context, id string, updates map[string]interface{}, apply, restore func()) error {
	_, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	apply()
	if err := g.remote.UpdateTask(ctx, id, updates); err != nil {
		if _, still := g.store.Get(id); still {
			restore()
		}
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (g *Gateway) SetStatus(ctx context.Context, id string, st task.Status) error {
	prev, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	return g.update(ctx, id, map[string]interface{}{"status": st},
		func() { g.store.SetStatus(id, st) },
		func() { g.store.SetStatus(id, prev.Status) },
	)
}

func (g *Gateway) SetPriority(ctx context.Context, id string, p task.Priority) error {
	prev, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	return g.update(ctx, id, map[string]interface{}{"priority": p},
		func() { g.store.SetPriority(id, p) },
		func() { g.store.SetPriority(id, prev.Priority) },
	)
}

func (g *Gateway) Rename(ctx context.Context, id, title string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	prev, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	return g.update(ctx, id, map[string]interface{}{"title": title},
		func() { g.store.SetTitle(id, title) },
		func() { g.store.SetTitle(id, prev.Title) },
	)
}

func (g *Gateway) SetDeadline(ctx context.Context, id string, d *time.Time) error {
	prev, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	var wire interface{}
	if d != nil {
		wire = d.Format(time.RFC3339)
	}
	return g.update(ctx, id, map[string]interface{}{"deadline": wire},
		func() { g.store.SetDeadline(id, d) },
		func() { g.store.SetDeadline(id, prev.Deadline) },
	)
}

func (g *Gateway) SetGrade(ctx context.Context, id string, grade int) error {
	if grade < 0 || grade > 100 {
		return ErrGradeRange
	}
	prev, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	gr := grade
	return g.update(ctx, id, map[string]interface{}{"grade": grade},
		func() { g.store.SetGrade(id, &gr) },
		func() { g.store.SetGrade(id, prev.Grade) },
	)
}

func (g *Gateway) SetFeedback(ctx context.Context, id, feedback string) error {
	prev, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	return g.update(ctx, id, map[string]interface{}{"feedback": feedback},
		func() { g.store.SetFeedback(id, feedback) },
		func() { g.store.SetFeedback(id, prev.Feedback) },
	)
}

// Delete removes the task optimistically and reinserts it at its old
// position if the server refuses. Teacher-assigned tasks are refused
// before any mutation.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	prev, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	if prev.TeacherAssigned {
		return ErrTeacherAssigned
	}
	pos := g.store.IndexOf(id)
	wasSelected := g.store.SelectedID() == id

	g.store.Remove(id)
	if err := g.remote.DeleteTask(ctx, id); err != nil {
		g.store.InsertAt(prev, pos)
		if wasSelected {
			g.store.Select(id)
		}
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// PutSubtasks persists the whole subtask list, the unit the service
// accepts. Only one persist per task may be committing at a time; a second
// call while one is in flight gets ErrSaveInFlight and leaves the store
// untouched.
func (g *Gateway) PutSubtasks(ctx context.Context, id string, subs []task.Subtask) error {
	if !g.inflight.begin(id) {
		return ErrSaveInFlight
	}
	defer g.inflight.end(id)

	prev, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	subs = task.NormalizeSubtasks(subs)
	pre := append([]task.Subtask(nil), prev.Subtasks...)

	return g.update(ctx, id, map[string]interface{}{"subtasks": subs},
		func() { g.store.SetSubtasks(id, subs) },
		func() { g.store.SetSubtasks(id, pre) },
	)
}

// ToggleSubtask flips one subtask's completion and persists the full list.
func (g *Gateway) ToggleSubtask(ctx context.Context, id string, index int) error {
	t, ok := g.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	if index < 0 || index >= len(t.Subtasks) {
		return ErrNotFound
	}
	next := append([]task.Subtask(nil), t.Subtasks...)
	next[index].Toggle()
	return g.PutSubtasks(ctx, id, next)
}
