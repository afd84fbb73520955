package task

import "time"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities in ascending order of urgency, for cycling and sorting.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Task is the canonical client-side record. IDs are assigned by the server,
// never by the client; a Task without an ID has not been persisted yet.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	EstimatedHours  float64 `json:"estimated_hours,omitempty"`
	ComplexityScore int     `json:"complexity_score,omitempty"`

	Subtasks    []Subtask    `json:"subtasks,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Notes       []Note       `json:"notes,omitempty"`

	// Teacher-assigned tasks cannot be deleted locally; enforced by the
	// mutation gateway, not the store.
	TeacherAssigned bool   `json:"is_teacher_assigned,omitempty"`
	TeacherName     string `json:"teacher_name,omitempty"`
	Feedback        string `json:"feedback,omitempty"`
	Grade           *int   `json:"grade,omitempty"`

	AssignedTo string `json:"assigned_to,omitempty"`
	CreatedBy  string `json:"created_by,omitempty"`

	CreatedAt           *time.Time `json:"created_at,omitempty"`
	AISuggestedDeadline *time.Time `json:"ai_suggested_deadline,omitempty"`
}

func (t Task) Done() bool {
	return t.Status == StatusCompleted
}

// Complexity returns the complexity score clamped for display.
// Servers conventionally score 0-10 but the field is not validated upstream.
func (t Task) Complexity() int {
	if t.ComplexityScore > 10 {
		return 10
	}
	if t.ComplexityScore < 0 {
		return 0
	}
	return t.ComplexityScore
}

// Attachment is created by upload and deleted individually, never mutated.
type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	URL      string `json:"url"`
	TaskID   string `json:"task_id"`
}

// Note is created and deleted individually, never mutated.
type Note struct {
	ID        string     `json:"id"`
	Content   string     `json:"content"`
	TaskID    string     `json:"task_id"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
