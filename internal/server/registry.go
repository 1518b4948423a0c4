package server

import (
	"sync"
	"time"

	"github.com/walma-app/walma/internal/playback"
)

// session pairs a sequencer with the lock that serializes its transitions.
// touched and evicted are guarded by mu.
type session struct {
	mu      sync.Mutex
	seq     *playback.Sequencer
	touched time.Time
	evicted bool
}

// expired reports whether the session may be dropped at now. Completed
// sessions linger for grace after their last request once the report has
// finished; anything else goes after idle.
func (s *session) expired(now time.Time, idle, grace time.Duration) bool {
	age := now.Sub(s.touched)
	if s.seq.Phase() == playback.PhaseComplete {
		if p := s.seq.Report(); p == nil || p.Finished() {
			return age >= grace
		}
	}
	return age >= idle
}

// registry holds live sessions by id.
type registry struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

func (r *registry) add(seq *playback.Sequencer, now time.Time) *session {
	s := &session{seq: seq, touched: now}
	r.mu.Lock()
	r.sessions[seq.SessionID()] = s
	r.mu.Unlock()
	return s
}

func (r *registry) get(id string) (*session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *registry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *registry) snapshot() []*session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// sweep drops expired sessions and returns them. Sessions dropped before
// completion are abandoned first, so they never report.
func (r *registry) sweep(now time.Time, idle, grace time.Duration) []*session {
	var dropped []*session
	for _, s := range r.snapshot() {
		s.mu.Lock()
		if !s.evicted && s.expired(now, idle, grace) {
			s.seq.Abandon()
			s.evicted = true
			dropped = append(dropped, s)
		}
		s.mu.Unlock()
	}
	if len(dropped) == 0 {
		return nil
	}
	r.mu.Lock()
	for _, s := range dropped {
		delete(r.sessions, s.seq.SessionID())
	}
	r.mu.Unlock()
	return dropped
}
