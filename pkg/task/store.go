package task

import (
	"sync"
	"time"
)

// Store is the single authoritative in-memory task collection. Every
// operation is total: acting on an absent ID is a safe no-op, never an
// error. Push events may legitimately arrive redundantly, so duplicate
// inserts and patches of missing records are absorbed by design.
//
// A mutex serializes access; mutations are atomic and strictly ordered by
// call order, so readers always observe a fully-applied prior mutation.
type Store struct {
	mu       sync.Mutex
	tasks    map[string]Task
	order    []string
	selected string
}

func NewStore() *Store {
	return &Store{tasks: map[string]Task{}}
}

// ReplaceAll swaps the whole collection, e.g. after a full reload.
// The selection survives only if the selected ID is still present.
func (s *Store) ReplaceAll(ts []Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]Task, len(ts))
	s.order = s.order[:0]
	for _, t := range ts {
		if _, dup := s.tasks[t.ID]; dup {
			continue
		}
		s.tasks[t.ID] = t
		s.order = append(s.order, t.ID)
	}
	if _, ok := s.tasks[s.selected]; !ok {
		s.selected = ""
	}
}

// Insert adds a task. A duplicate ID is a no-op and the first payload
// wins; this guards against a push event re-delivering a record the
// client's own create-reload already added.
func (s *Store) Insert(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.tasks[t.ID]; found {
		return
	}
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
}

// InsertAt behaves like Insert but restores the task at a given position,
// used to undo an optimistic delete. The index is clamped.
func (s *Store) InsertAt(t Task, i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.tasks[t.ID]; found {
		return
	}
	if i < 0 {
		i = 0
	}
	if i > len(s.order) {
		i = len(s.order)
	}
	s.tasks[t.ID] = t
	s.order = append(s.order[:i], append([]string{t.ID}, s.order[i:]...)...)
}

// Put replaces the full record for an existing ID. No-op if absent: a
// remote update for a task this client never loaded (or already deleted)
// must not resurrect it.
func (s *Store) Put(t Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.tasks[t.ID]; !found {
		return
	}
	s.tasks[t.ID] = t
}

// patch applies fn to the record if present.
func (s *Store) patch(id string, fn func(*Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, found := s.tasks[id]
	if !found {
		return
	}
	fn(&t)
	s.tasks[id] = t
}

func (s *Store) SetTitle(id, title string) {
	s.patch(id, func(t *Task) { t.Title = title })
}

func (s *Store) SetDescription(id, desc string) {
	s.patch(id, func(t *Task) { t.Description = desc })
}

func (s *Store) SetStatus(id string, st Status) {
	s.patch(id, func(t *Task) { t.Status = st })
}

func (s *Store) SetPriority(id string, p Priority) {
	s.patch(id, func(t *Task) { t.Priority = p })
}

func (s *Store) SetDeadline(id string, d *time.Time) {
	s.patch(id, func(t *Task) { t.Deadline = d })
}

func (s *Store) SetGrade(id string, grade *int) {
	s.patch(id, func(t *Task) { t.Grade = grade })
}

func (s *Store) SetFeedback(id, feedback string) {
	s.patch(id, func(t *Task) { t.Feedback = feedback })
}

func (s *Store) SetSubtasks(id string, subs []Subtask) {
	s.patch(id, func(t *Task) { t.Subtasks = subs })
}

func (s *Store) SetAttachments(id string, atts []Attachment) {
	s.patch(id, func(t *Task) { t.Attachments = atts })
}

func (s *Store) SetNotes(id string, notes []Note) {
	s.patch(id, func(t *Task) { t.Notes = notes })
}

// Remove deletes a task; removing the selected task clears the selection.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.tasks[id]; !found {
		return
	}
	delete(s.tasks, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.selected == id {
		s.selected = ""
	}
}

func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, found := s.tasks[id]
	return t, found
}

// All returns the collection in stable insertion order.
func (s *Store) All() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// IndexOf returns the position of a task in insertion order, -1 if absent.
func (s *Store) IndexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.order {
		if o == id {
			return i
		}
	}
	return -1
}

// Select points the open detail view at a task. Selecting an absent ID
// clears the selection.
func (s *Store) Select(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.tasks[id]; !found {
		s.selected = ""
		return
	}
	s.selected = id
}

func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Store) Selected() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, found := s.tasks[s.selected]
	return t, found
}
