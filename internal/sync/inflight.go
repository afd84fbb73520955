package sync

import gosync "sync"

// inflightSet tracks which task IDs have a persist call committing.
type inflightSet struct {
	mu  gosync.Mutex
	ids map[string]bool
}

func (s *inflightSet) begin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids == nil {
		s.ids = map[string]bool{}
	}
	if s.ids[id] {
		return false
	}
	s.ids[id] = true
	return true
}

func (s *inflightSet) end(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}
