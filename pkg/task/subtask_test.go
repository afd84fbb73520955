package task

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"
)

func TestSubtask_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Subtask
	}{
		{"bare string", `"read intro"`, Subtask{Title: "read intro", Text: "read intro", Status: StatusTodo}},
		{"title field", `{"title":"a","completed":false}`, Subtask{Title: "a", Text: "a", Status: StatusTodo}},
		{"legacy text field", `{"text":"b"}`, Subtask{Title: "b", Text: "b", Status: StatusTodo}},
		{"title wins over text", `{"title":"a","text":"b"}`, Subtask{Title: "a", Text: "a", Status: StatusTodo}},
		{"completed derives status", `{"title":"a","completed":true}`, Subtask{Title: "a", Text: "a", Completed: true, Status: StatusCompleted}},
		{"stale status is overridden", `{"title":"a","completed":false,"status":"completed"}`, Subtask{Title: "a", Text: "a", Status: StatusTodo}},
		{"ai flag survives", `{"text":"c","ai_generated":true}`, Subtask{Title: "c", Text: "c", Status: StatusTodo, AIGenerated: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is := is.New(t)
			var got Subtask
			is.NoErr(json.Unmarshal([]byte(tt.in), &got))
			is.Equal(got, tt.want)
		})
	}
}

func TestSubtask_MarshalNormalizes(t *testing.T) {
	is := is.New(t)

	// a hand-built subtask may be missing the mirrored field
	bs, err := json.Marshal(Subtask{Title: "a", Completed: true})
	is.NoErr(err)

	var got map[string]interface{}
	is.NoErr(json.Unmarshal(bs, &got))
	is.Equal(got["title"], "a")
	is.Equal(got["text"], "a")
	is.Equal(got["status"], "completed")
}

func TestSubtask_Toggle(t *testing.T) {
	is := is.New(t)

	s := NewSubtask("a")
	is.Equal(s.Status, StatusTodo)

	s.Toggle()
	is.True(s.Completed)
	is.Equal(s.Status, StatusCompleted)

	s.Toggle()
	is.True(!s.Completed)
	is.Equal(s.Status, StatusTodo)
}

func TestTask_SubtaskListDecodes(t *testing.T) {
	is := is.New(t)

	// mixed shapes in one payload, as older servers emit
	in := `{"id":"t1","title":"mixed","status":"todo","priority":"low",
		"subtasks":["plain", {"text":"legacy"}, {"title":"new","completed":true}]}`
	var got Task
	is.NoErr(json.Unmarshal([]byte(in), &got))
	is.Equal(len(got.Subtasks), 3)
	is.Equal(got.Subtasks[0].Title, "plain")
	is.Equal(got.Subtasks[1].Title, "legacy")
	is.Equal(got.Subtasks[2].Status, StatusCompleted)
}

func TestTask_Complexity(t *testing.T) {
	is := is.New(t)

	is.Equal(Task{ComplexityScore: 7}.Complexity(), 7)
	is.Equal(Task{ComplexityScore: 14}.Complexity(), 10)
	is.Equal(Task{ComplexityScore: -2}.Complexity(), 0)
}
