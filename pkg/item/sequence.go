package item

import (
	"sync"
)

// Sequencer hands out increasing sequence numbers per record so that only
// the newest save of a record is allowed to land.
type Sequencer struct {
	mu   sync.Mutex
	last map[string]uint64
}

// NewSequencer returns an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{last: make(map[string]uint64)}
}

// Next issues the next sequence number for key.
func (s *Sequencer) Next(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[key]++
	return s.last[key]
}

// Current reports whether seq is still the newest number issued for key.
func (s *Sequencer) Current(key string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last[key] == seq
}

// Forget drops the bookkeeping for key.
func (s *Sequencer) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.last, key)
}
