package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/bookfinder/internal/models"
)

// Cycle is an in-flight resolution cycle for one session
type Cycle struct {
	ID        string
	Session   string
	StartedAt time.Time
	gen       uint64
	cancel    context.CancelFunc
	// anonymous cycles have no caller-named session and are never stored
	anonymous bool
}

type session struct {
	gen     uint64
	current *Cycle
	latest  *models.CycleSnapshot
}

// CycleStore tracks the current cycle per session. Starting a new cycle
// cancels the previous one, and only the current cycle may publish a result.
type CycleStore struct {
	sessions map[string]*session
	mu       sync.RWMutex
}

func New() *CycleStore {
	return &CycleStore{
		sessions: make(map[string]*session),
	}
}

// Begin starts a new cycle for sessionID, cancelling any cycle still running
// for it. The returned context is cancelled when the cycle is superseded, or
// when parent is done. An empty sessionID gets a one-off session ID that is
// never registered: nothing can supersede it and its result is not kept.
func (s *CycleStore) Begin(parent context.Context, sessionID string) (context.Context, *Cycle) {
	ctx, cancel := context.WithCancel(parent)
	if sessionID == "" {
		return ctx, &Cycle{
			ID:        uuid.NewString(),
			Session:   uuid.NewString(),
			StartedAt: time.Now(),
			cancel:    cancel,
			anonymous: true,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	if sess.current != nil {
		sess.current.cancel()
	}
	sess.gen++

	c := &Cycle{
		ID:        uuid.NewString(),
		Session:   sessionID,
		StartedAt: time.Now(),
		gen:       sess.gen,
		cancel:    cancel,
	}
	sess.current = c
	return ctx, c
}

// Complete publishes snap as the session's latest result if c is still the
// current cycle, returning it with the cycle identifiers filled in. A
// superseded cycle's result is discarded and false returned. The cycle's
// context is released either way.
func (s *CycleStore) Complete(c *Cycle, snap models.CycleSnapshot) (models.CycleSnapshot, bool) {
	defer c.cancel()

	snap.SessionID = c.Session
	snap.CycleID = c.ID
	if c.anonymous {
		return stamp(c, snap), true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[c.Session]
	if !ok || sess.gen != c.gen {
		return snap, false
	}

	snap = stamp(c, snap)
	sess.latest = &snap
	sess.current = nil
	return snap, true
}

func stamp(c *Cycle, snap models.CycleSnapshot) models.CycleSnapshot {
	if snap.StartedAt.IsZero() {
		snap.StartedAt = c.StartedAt
	}
	if snap.CompletedAt.IsZero() {
		snap.CompletedAt = time.Now()
	}
	return snap
}

// Current reports whether c is still the newest cycle for its session
func (s *CycleStore) Current(c *Cycle) bool {
	if c.anonymous {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[c.Session]
	return ok && sess.gen == c.gen
}

// Get returns the latest published snapshot for sessionID
func (s *CycleStore) Get(sessionID string) (models.CycleSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.latest == nil {
		return models.CycleSnapshot{}, false
	}
	return *sess.latest, true
}

// Sessions lists every known session ID
func (s *CycleStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]string, 0, len(s.sessions))
	for k := range s.sessions {
		result = append(result, k)
	}
	return result
}

// Delete forgets a session, cancelling its running cycle
func (s *CycleStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok && sess.current != nil {
		sess.current.cancel()
	}
	delete(s.sessions, sessionID)
}
