package task

import (
	"math"
	"strings"
	"time"
)

// Filter is the transient read-time view state. Zero-valued dimensions
// match everything; populated dimensions compose by logical AND. Filters
// never mutate the underlying collection.
type Filter struct {
	Search   string
	Priority Priority
	Assignee string
	DueFrom  *time.Time
	DueTo    *time.Time
}

func (f Filter) Zero() bool {
	return f.Search == "" && f.Priority == "" && f.Assignee == "" &&
		f.DueFrom == nil && f.DueTo == nil
}

func (f Filter) Match(t Task) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Assignee != "" && t.AssignedTo != f.Assignee {
		return false
	}
	if f.DueFrom != nil || f.DueTo != nil {
		if t.Deadline == nil {
			return false
		}
		// inclusive on both ends
		if f.DueFrom != nil && t.Deadline.Before(*f.DueFrom) {
			return false
		}
		if f.DueTo != nil && t.Deadline.After(*f.DueTo) {
			return false
		}
	}
	return true
}

// Filtered projects the collection through a filter, preserving order.
// Recomputed on every read; the store keeps no materialized views.
func (s *Store) Filtered(f Filter) []Task {
	all := s.All()
	if f.Zero() {
		return all
	}
	out := []Task{}
	for _, t := range all {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}

// ByStatus partitions tasks into the three status buckets.
func ByStatus(ts []Task) map[Status][]Task {
	out := map[Status][]Task{}
	for _, t := range ts {
		out[t.Status] = append(out[t.Status], t)
	}
	return out
}

type Stats struct {
	Total      int
	Todo       int
	InProgress int
	Completed  int
	// CompletionRate is a whole percentage, rounded to nearest.
	CompletionRate int
}

// Statistics aggregates over whatever slice it is given. Dashboard totals
// must be computed over the unfiltered collection, regardless of any
// active search or priority filter.
func Statistics(ts []Task) Stats {
	var st Stats
	st.Total = len(ts)
	for _, t := range ts {
		switch t.Status {
		case StatusInProgress:
			st.InProgress++
		case StatusCompleted:
			st.Completed++
		default:
			st.Todo++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	return st
}
