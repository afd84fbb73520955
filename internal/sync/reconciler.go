package sync

import (
	"encoding/json"
	"log"

	"studysync/internal/push"
	"studysync/pkg/task"
)

// Actions carried by task_update events.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TaskEvent is the push payload describing a remote mutation performed by
// any actor. Subtasks inside Task normalize during decoding.
type TaskEvent struct {
	Action string     `json:"action"`
	Task   *task.Task `json:"task"`
	TaskID string     `json:"task_id"`
}

// Reconciler folds push-delivered mutations into the entity store. Every
// effect is idempotent at the store boundary (insert dedups, put is a pure
// overwrite, remove absorbs absence), so duplicate or redundant delivery
// is harmless. Events apply strictly in arrival order; there is no
// buffering and no timestamp arbitration against concurrent optimistic
// writes. Whichever write lands last wins, which is the documented
// eventual-consistency stance of the product.
type Reconciler struct {
	store *task.Store
}

func NewReconciler(store *task.Store) *Reconciler {
	return &Reconciler{store: store}
}

// Attach subscribes the reconciler to the push channel and returns the
// disposer for the subscription. applied, if non-nil, runs after each
// event has been folded into the store, so UIs can repaint knowing the
// store already reflects the event.
func (r *Reconciler) Attach(c *push.Client, applied func()) func() {
	return c.Subscribe(push.EventTaskUpdate, func(data json.RawMessage) {
		r.Handle(data)
		if applied != nil {
			applied()
		}
	})
}

// Handle decodes one raw task_update frame. Malformed frames are logged
// and dropped, never fatal.
func (r *Reconciler) Handle(data json.RawMessage) {
	var ev TaskEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		log.Printf("sync: dropping malformed task_update: %v", err)
		return
	}
	r.Apply(ev)
}

// Apply executes one event against the store.
func (r *Reconciler) Apply(ev TaskEvent) {
	switch ev.Action {
	case ActionCreated:
		if ev.Task == nil {
			return
		}
		// no-op when our own create-reload already added the record
		r.store.Insert(*ev.Task)
	case ActionUpdated:
		if ev.Task == nil {
			return
		}
		t := *ev.Task
		if t.ID == "" {
			t.ID = ev.TaskID
		}
		// replace semantics at task granularity, not a deep merge
		r.store.Put(t)
	case ActionDeleted:
		// the store clears the selection if this was the open task
		r.store.Remove(ev.TaskID)
	default:
		log.Printf("sync: ignoring unknown task_update action %q", ev.Action)
	}
}
