package transaction

import "sync"

// Sequence hands out transaction numbers, strictly increasing within
// the process. One instance is shared by every transaction; it is
// passed in explicitly rather than kept as package state so that tests
// can run with a fresh counter.
type Sequence struct {
	mu   sync.Mutex
	next int
}

func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next transaction number.
func (s *Sequence) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}
