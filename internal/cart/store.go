package cart

import "sync"

// Store owns the in-memory snapshot shared by the cart service, pricing,
// rendering and checkout.
//
// Every request takes a ticket when it is issued. A response is applied only
// if its ticket is newer than the last applied one, so the most recently
// issued request wins even when responses resolve out of order.
type Store struct {
	mu      sync.RWMutex
	lines   Snapshot
	issued  uint64
	applied uint64
}

func NewStore() *Store {
	return &Store{lines: Snapshot{}}
}

func (s *Store) Ticket() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply replaces the snapshot if ticket is newer than the applied version.
func (s *Store) Apply(ticket uint64, snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket <= s.applied {
		return false
	}
	s.applied = ticket
	s.lines = snap.Clone()
	return true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lines.Clone()
}

// Version is the ticket of the snapshot currently held.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.applied
}
