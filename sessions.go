package pubform

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Sessions maps form session ids to their controllers. Sessions idle for
// longer than ttl are closed and dropped.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*sessionEntry
	ttl     time.Duration
	factory func() *Controller
	stop    chan struct{}
	once    sync.Once
}

type sessionEntry struct {
	ctrl     *Controller
	lastSeen time.Time
}

// NewSessions creates a registry that builds controllers with factory.
func NewSessions(ttl time.Duration, factory func() *Controller) *Sessions {
	s := &Sessions{
		entries: make(map[string]*sessionEntry),
		ttl:     ttl,
		factory: factory,
		stop:    make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Get returns the controller for id, creating a session when id is empty,
// unknown or already closed. The returned id is the one the caller should store.
func (s *Sessions) Get(id string) (string, *Controller) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok && id != "" {
		if !e.ctrl.isClosed() {
			e.lastSeen = now
			return id, e.ctrl
		}
		delete(s.entries, id)
	}
	id = uuid.NewString()
	e := &sessionEntry{ctrl: s.factory(), lastSeen: now}
	s.entries[id] = e
	return id, e.ctrl
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Expire closes and removes sessions not seen since cutoff.
func (s *Sessions) Expire(cutoff time.Time) int {
	var stale []*Controller
	s.mu.Lock()
	for id, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.ctrl)
			delete(s.entries, id)
		}
	}
	s.mu.Unlock()
	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

func (s *Sessions) cleanup() {
	interval := s.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Expire(time.Now().Add(-s.ttl))
		}
	}
}

// Close stops the janitor and closes every controller.
func (s *Sessions) Close() {
	s.once.Do(func() {
		close(s.stop)
		s.mu.Lock()
		entries := s.entries
		s.entries = make(map[string]*sessionEntry)
		s.mu.Unlock()
		for _, e := range entries {
			e.ctrl.Close()
		}
	})
}
