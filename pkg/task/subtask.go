package task

import "encoding/json"

// Subtask travels embedded in its parent Task. Historical payloads are
// loose about its shape: a bare string, or an object naming the text field
// either "title" or "text". Normalization happens once, at every ingress
// (fetch, push event, local edit), so nothing downstream branches on shape.
type Subtask struct {
	Title string `json:"title"`
	// Text mirrors Title for consumers of the legacy field name.
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	Status      Status `json:"status"`
	AIGenerated bool   `json:"ai_generated,omitempty"`
}

// NewSubtask returns a normalized subtask in the todo state.
func NewSubtask(title string) Subtask {
	s := Subtask{Title: title}
	s.normalize()
	return s
}

func (s *Subtask) normalize() {
	if s.Title == "" {
		s.Title = s.Text
	}
	s.Text = s.Title
	// status is derived solely from the completed flag
	if s.Completed {
		s.Status = StatusCompleted
	} else {
		s.Status = StatusTodo
	}
}

// Toggle flips completion and re-derives the status.
func (s *Subtask) Toggle() {
	s.Completed = !s.Completed
	s.normalize()
}

func (s *Subtask) UnmarshalJSON(bs []byte) error {
	if len(bs) > 0 && bs[0] == '"' {
		var title string
		if err := json.Unmarshal(bs, &title); err != nil {
			return err
		}
		*s = NewSubtask(title)
		return nil
	}
	type alias Subtask
	var out alias
	if err := json.Unmarshal(bs, &out); err != nil {
		return err
	}
	*s = Subtask(out)
	s.normalize()
	return nil
}

func (s Subtask) MarshalJSON() ([]byte, error) {
	s.normalize()
	type alias Subtask
	return json.Marshal(alias(s))
}

// NormalizeSubtasks normalizes a whole list in place and returns it.
func NormalizeSubtasks(subs []Subtask) []Subtask {
	for i := range subs {
		subs[i].normalize()
	}
	return subs
}
