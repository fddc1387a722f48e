package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/YelzhanWeb/bloompizza/internal/adapter/metrics"
	"github.com/YelzhanWeb/bloompizza/internal/app/form"
)

const SessionCookie = "bloom_session"

// SessionStore gives every browser session its own order form controller.
// Sessions idle longer than the configured timeout are closed by Sweep.
type SessionStore struct {
	newController func() *form.Controller
	idle          time.Duration
	metrics       *metrics.Metrics
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	ctrl     *form.Controller
	lastSeen time.Time
}

func NewSessionStore(newController func() *form.Controller, idle time.Duration, m *metrics.Metrics) *SessionStore {
	return &SessionStore{
		newController: newController,
		idle:          idle,
		metrics:       m,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// Controller returns the controller bound to the request's session cookie,
// starting a new session (and setting the cookie) when there is none.
func (s *SessionStore) Controller(w http.ResponseWriter, r *http.Request) *form.Controller {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := s.sessions[c.Value]; ok {
			sess.lastSeen = s.now()
			return sess.ctrl
		}
	}

	id := uuid.NewString()
	sess := &session{ctrl: s.newController(), lastSeen: s.now()}
	s.sessions[id] = sess
	s.metrics.SetSessions(len(s.sessions))

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess.ctrl
}

// Sweep closes and forgets idle sessions and reports how many went.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idle)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			sess.ctrl.Close()
			delete(s.sessions, id)
			removed++
		}
	}
	s.metrics.SetSessions(len(s.sessions))
	return removed
}

// Run sweeps every interval until ctx is done, then closes all sessions.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.CloseAll()
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *SessionStore) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.ctrl.Close()
		delete(s.sessions, id)
	}
	s.metrics.SetSessions(0)
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
