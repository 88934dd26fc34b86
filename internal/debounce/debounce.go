// Package debounce coalesces bursts of calls per key into one trailing call.
package debounce

import (
	"sync"
	"time"
)

type pending struct {
	timer *time.Timer
	fn    func()
	gen   uint64
}

// Scheduler runs only the last function triggered for a key once the key has
// been quiet for the window. Keys are independent of each other.
type Scheduler struct {
	window time.Duration

	mu      sync.Mutex
	gen     uint64
	pending map[string]*pending
	stopped bool
}

func New(window time.Duration) *Scheduler {
	return &Scheduler{window: window, pending: make(map[string]*pending)}
}

func (s *Scheduler) Window() time.Duration { return s.window }

// Trigger arms (or re-arms) the timer for key with fn, superseding any fn
// still waiting for that key.
func (s *Scheduler) Trigger(key string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
	}

	s.gen++
	gen := s.gen
	p := &pending{fn: fn, gen: gen}
	p.timer = time.AfterFunc(s.window, func() { s.fire(key, gen) })
	s.pending[key] = p
}

func (s *Scheduler) fire(key string, gen uint64) {
	s.mu.Lock()
	p, ok := s.pending[key]
	if !ok || p.gen != gen {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	p.fn()
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Flush runs every waiting function now, in no particular order.
func (s *Scheduler) Flush() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.pending))
	for key, p := range s.pending {
		p.timer.Stop()
		fns = append(fns, p.fn)
		delete(s.pending, key)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Stop drops everything waiting and ignores later triggers.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, key)
	}
	s.stopped = true
}
