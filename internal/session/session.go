// Package session keeps browsing sessions in memory.
//
// Sessions are mocked: signing in accepts any email and password and grants a
// per-session upload portal. Nothing survives a restart. Expired sessions are
// removed by a periodic sweep (see Janitor), which closes their portal so no
// lifecycle timers outlive the session.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/JonMunkholm/taxpro/internal/core"
)

// Session is one browser's state.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	email    string
	signedIn time.Time
	portal   *core.Portal
}

// SignIn marks the session signed in and attaches its portal. A portal from
// an earlier sign-in is closed.
func (s *Session) SignIn(email string, p *core.Portal, at time.Time) {
	s.mu.Lock()
	old := s.portal
	s.email = email
	s.signedIn = at
	s.portal = p
	s.mu.Unlock()

	if old != nil && old != p {
		old.Close()
	}
}

// SignOut clears the sign-in and closes the portal. Safe to call when signed out.
func (s *Session) SignOut() {
	s.mu.Lock()
	p := s.portal
	s.email = ""
	s.signedIn = time.Time{}
	s.portal = nil
	s.mu.Unlock()

	if p != nil {
		p.Close()
	}
}

// SignedIn reports whether the session has a portal.
func (s *Session) SignedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portal != nil
}

// Email returns the address used to sign in.
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// SignedInAt returns when the session signed in, or the zero time.
func (s *Session) SignedInAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signedIn
}

// Portal returns the session's upload portal, or nil when signed out.
func (s *Session) Portal() *core.Portal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portal
}

// Store holds sessions with a sliding expiry.
type Store struct {
	cache  *cache.Cache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
// Expired sessions become invisible immediately but are only closed by Sweep.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	// Cleanup interval 0 disables go-cache's own janitor; Janitor drives Sweep.
	c := cache.New(ttl, 0)
	c.OnEvicted(func(id string, v interface{}) {
		if s, ok := v.(*Session); ok {
			s.SignOut()
			logger.Debug("session evicted", "session_id", id)
		}
	})

	return &Store{cache: c, ttl: ttl, logger: logger, now: time.Now}
}

// TTL returns the inactivity timeout.
func (st *Store) TTL() time.Duration {
	return st.ttl
}

// Create starts a new signed-out session.
func (st *Store) Create() *Session {
	s := &Session{ID: uuid.NewString(), CreatedAt: st.now()}
	st.cache.Set(s.ID, s, cache.DefaultExpiration)
	return s
}

// Get returns a live session and extends its expiry.
func (st *Store) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	if !ok {
		return nil, false
	}
	st.cache.Set(id, s, cache.DefaultExpiration)
	return s, true
}

// Delete removes a session and closes its portal.
func (st *Store) Delete(id string) {
	st.cache.Delete(id)
}

// Sweep removes expired sessions and returns how many were removed.
func (st *Store) Sweep() int {
	before := st.cache.ItemCount()
	st.cache.DeleteExpired()
	return before - st.cache.ItemCount()
}

// Len returns the number of stored sessions, including expired ones not yet swept.
func (st *Store) Len() int {
	return st.cache.ItemCount()
}

// Close removes every session, closing their portals.
func (st *Store) Close() {
	for id := range st.cache.Items() {
		st.cache.Delete(id)
	}
}
