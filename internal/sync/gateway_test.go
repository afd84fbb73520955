package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"

	"studysync/pkg/task"
)

// fakeRemote is an in-memory stand-in for the task service. Set fail to
// make every call report a transport failure.
type fakeRemote struct {
	fail    error
	nextID  int
	updates []map[string]interface{}
	deleted []string

	// release, when set, blocks UpdateTask until it is closed
	release chan struct{}
	entered chan struct{}
}

func (f *fakeRemote) ListTasks(context.Context) ([]task.Task, error) {
	return nil, f.fail
}

func (f *fakeRemote) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	if f.fail != nil {
		return task.Task{}, f.fail
	}
	f.nextID++
	t.ID = "srv-" + string(rune('0'+f.nextID))
	if t.Status == "" {
		t.Status = task.StatusTodo
	}
	return t, nil
}

func (f *fakeRemote) UpdateTask(_ context.Context, id string, updates map[string]interface{}) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if f.fail != nil {
		return f.fail
	}
	f.updates = append(f.updates, updates)
	return nil
}

func (f *fakeRemote) DeleteTask(_ context.Context, id string) error {
	if f.fail != nil {
		return f.fail
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newGateway(seed ...task.Task) (*Gateway, *task.Store, *fakeRemote) {
	store := task.NewStore()
	for _, t := range seed {
		store.Insert(t)
	}
	remote := &fakeRemote{}
	return NewGateway(store, remote), store, remote
}

func TestGateway_SetStatusOptimistic(t *testing.T) {
	is := is.New(t)

	g, store, remote := newGateway(task.Task{ID: "1", Status: task.StatusTodo})
	is.NoErr(g.SetStatus(context.Background(), "1", task.StatusCompleted))

	got, _ := store.Get("1")
	is.Equal(got.Status, task.StatusCompleted)
	is.Equal(remote.updates, []map[string]interface{}{{"status": task.StatusCompleted}})
}

func TestGateway_SetStatusRollback(t *testing.T) {
	is := is.New(t)

	g, store, remote := newGateway(task.Task{ID: "1", Status: task.StatusTodo})
	remote.fail = errors.New("boom")

	err := g.SetStatus(context.Background(), "1", task.StatusCompleted)
	is.True(err != nil)

	got, _ := store.Get("1")
	is.Equal(got.Status, task.StatusTodo)
}

func TestGateway_SubtaskRollbackExactPreImage(t *testing.T) {
	is := is.New(t)

	pre := []task.Subtask{task.NewSubtask("A")}
	g, store, remote := newGateway(task.Task{ID: "1", Title: "t", Subtasks: pre})
	remote.fail = errors.New("network down")

	err := g.ToggleSubtask(context.Background(), "1", 0)
	is.True(err != nil)

	got, _ := store.Get("1")
	// bit-for-bit the pre-mutation value, not a partial merge
	is.Equal(got.Subtasks, []task.Subtask{{Title: "A", Text: "A", Completed: false, Status: task.StatusTodo}})
}

func TestGateway_ToggleSubtask(t *testing.T) {
	is := is.New(t)

	g, store, remote := newGateway(task.Task{ID: "1", Subtasks: []task.Subtask{
		task.NewSubtask("A"), task.NewSubtask("B"),
	}})
	is.NoErr(g.ToggleSubtask(context.Background(), "1", 1))

	got, _ := store.Get("1")
	is.True(!got.Subtasks[0].Completed)
	is.True(got.Subtasks[1].Completed)
	is.Equal(got.Subtasks[1].Status, task.StatusCompleted)

	// the service always receives the entire list
	is.Equal(len(remote.updates), 1)
	sent := remote.updates[0]["subtasks"].([]task.Subtask)
	is.Equal(len(sent), 2)

	t.Run("out of range index", func(t *testing.T) {
		is := is.New(t)
		is.Equal(g.ToggleSubtask(context.Background(), "1", 5), ErrNotFound)
	})
}

func TestGateway_RollbackSkippedWhenTaskGone(t *testing.T) {
	is := is.New(t)

	g, store, remote := newGateway(task.Task{ID: "1", Status: task.StatusTodo})
	remote.fail = errors.New("boom")
	remote.entered = make(chan struct{}, 1)
	remote.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- g.SetStatus(context.Background(), "1", task.StatusCompleted) }()

	<-remote.entered
	// a concurrent push deletion lands while the call is in flight
	store.Remove("1")
	close(remote.release)

	is.True(<-done != nil)
	// the rollback must not resurrect the deleted record
	is.Equal(store.Len(), 0)
}

func TestGateway_SaveInFlightSerialized(t *testing.T) {
	is := is.New(t)

	g, store, remote := newGateway(task.Task{ID: "1", Subtasks: []task.Subtask{task.NewSubtask("A")}})
	remote.entered = make(chan struct{}, 1)
	remote.release = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- g.ToggleSubtask(context.Background(), "1", 0) }()
	<-remote.entered

	// second edit while the first is still committing
	err := g.PutSubtasks(context.Background(), "1", []task.Subtask{task.NewSubtask("B")})
	is.Equal(err, ErrSaveInFlight)

	// the rejected call left the optimistic state of the first intact
	got, _ := store.Get("1")
	is.Equal(got.Subtasks[0].Title, "A")
	is.True(got.Subtasks[0].Completed)

	close(remote.release)
	is.NoErr(<-done)

	t.Run("released after resolve", func(t *testing.T) {
		is := is.New(t)
		remote.entered = nil
		remote.release = nil
		is.NoErr(g.PutSubtasks(context.Background(), "1", []task.Subtask{task.NewSubtask("B")}))
		got, _ := store.Get("1")
		is.Equal(got.Subtasks[0].Title, "B")
	})
}

func TestGateway_Create(t *testing.T) {
	is := is.New(t)

	g, store, _ := newGateway()
	created, err := g.Create(context.Background(), task.Task{Title: "Essay", Priority: task.PriorityMedium})
	is.NoErr(err)
	is.True(created.ID != "") // the server assigned an ID
	is.Equal(created.Status, task.StatusTodo)
	is.Equal(store.Len(), 1)

	t.Run("failure leaves no local state", func(t *testing.T) {
		is := is.New(t)
		g, store, remote := newGateway()
		remote.fail = errors.New("boom")
		_, err := g.Create(context.Background(), task.Task{Title: "Essay"})
		is.True(err != nil)
		is.Equal(store.Len(), 0)
	})

	t.Run("empty title rejected before any call", func(t *testing.T) {
		is := is.New(t)
		_, err := g.Create(context.Background(), task.Task{})
		is.Equal(err, ErrEmptyTitle)
	})

	t.Run("negative hours rejected", func(t *testing.T) {
		is := is.New(t)
		_, err := g.Create(context.Background(), task.Task{Title: "x", EstimatedHours: -1})
		is.Equal(err, ErrNegativeHours)
	})
}

func TestGateway_Delete(t *testing.T) {
	is := is.New(t)

	g, store, remote := newGateway(task.Task{ID: "1"}, task.Task{ID: "2"})
	is.NoErr(g.Delete(context.Background(), "1"))
	is.Equal(store.Len(), 1)
	is.Equal(remote.deleted, []string{"1"})

	t.Run("teacher-assigned refused before mutation", func(t *testing.T) {
		is := is.New(t)
		g, store, remote := newGateway(task.Task{ID: "t1", TeacherAssigned: true})
		is.Equal(g.Delete(context.Background(), "t1"), ErrTeacherAssigned)
		is.Equal(store.Len(), 1)
		is.Equal(len(remote.deleted), 0)
	})

	t.Run("failure reinserts at old position", func(t *testing.T) {
		is := is.New(t)
		g, store, remote := newGateway(task.Task{ID: "a"}, task.Task{ID: "b"}, task.Task{ID: "c"})
		remote.fail = errors.New("boom")
		store.Select("b")

		is.True(g.Delete(context.Background(), "b") != nil)
		all := store.All()
		is.Equal([]string{all[0].ID, all[1].ID, all[2].ID}, []string{"a", "b", "c"})
		is.Equal(store.SelectedID(), "b") // selection restored with the record
	})
}

func TestGateway_SetGradeValidation(t *testing.T) {
	is := is.New(t)

	g, store, remote := newGateway(task.Task{ID: "1"})
	is.Equal(g.SetGrade(context.Background(), "1", 101), ErrGradeRange)
	is.Equal(g.SetGrade(context.Background(), "1", -1), ErrGradeRange)
	is.Equal(len(remote.updates), 0) // rejected before any optimistic write

	is.NoErr(g.SetGrade(context.Background(), "1", 87))
	got, _ := store.Get("1")
	is.Equal(*got.Grade, 87)
}

func TestGateway_RenameValidation(t *testing.T) {
	is := is.New(t)

	g, store, _ := newGateway(task.Task{ID: "1", Title: "old"})
	is.Equal(g.Rename(context.Background(), "1", ""), ErrEmptyTitle)
	got, _ := store.Get("1")
	is.Equal(got.Title, "old")
}

func TestGateway_SetDeadline(t *testing.T) {
	is := is.New(t)

	g, store, remote := newGateway(task.Task{ID: "1"})
	d := time.Date(2026, 9, 15, 17, 0, 0, 0, time.UTC)
	is.NoErr(g.SetDeadline(context.Background(), "1", &d))

	got, _ := store.Get("1")
	is.Equal(*got.Deadline, d)
	is.Equal(remote.updates[0]["deadline"], "2026-09-15T17:00:00Z")

	t.Run("clearing sends null", func(t *testing.T) {
		is := is.New(t)
		is.NoErr(g.SetDeadline(context.Background(), "1", nil))
		got, _ := store.Get("1")
		is.Equal(got.Deadline, nil)
		is.Equal(remote.updates[1]["deadline"], nil)
	})
}

func TestGateway_UpdateAbsentID(t *testing.T) {
	is := is.New(t)

	g, _, remote := newGateway()
	is.Equal(g.SetStatus(context.Background(), "ghost", task.StatusCompleted), ErrNotFound)
	is.Equal(g.Delete(context.Background(), "ghost"), ErrNotFound)
	is.Equal(len(remote.updates), 0)
	is.Equal(len(remote.deleted), 0)
}
