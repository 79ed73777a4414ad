// sessions.go - In-memory analysis sessions

package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bosocmputer/prescription_analyzer/internal/translate"
)

type sessionEntry struct {
	session   *translate.Session
	expiresAt time.Time
}

// SessionStore keeps analysis sessions in memory only; uploads are never
// persisted. Entries expire ttl after their last use.
type SessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*sessionEntry
	now     func() time.Time
}

// NewSessionStore creates a store with the given idle TTL
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionStore{
		ttl:     ttl,
		entries: make(map[string]*sessionEntry),
		now:     time.Now,
	}
}

// Put stores s under a new id
func (st *SessionStore) Put(s *translate.Session) string {
	id := uuid.New().String()

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	st.entries[id] = &sessionEntry{session: s, expiresAt: st.now().Add(st.ttl)}
	return id
}

// Get returns the session for id and extends its lifetime
func (st *SessionStore) Get(id string) (*translate.Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	e, ok := st.entries[id]
	if !ok {
		return nil, false
	}
	if st.now().After(e.expiresAt) {
		delete(st.entries, id)
		return nil, false
	}
	e.expiresAt = st.now().Add(st.ttl)
	return e.session, true
}

// Delete drops a session
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, id)
}

// Len returns the number of live sessions
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sweepLocked()
	return len(st.entries)
}

func (st *SessionStore) sweepLocked() {
	now := st.now()
	for id, e := range st.entries {
		if now.After(e.expiresAt) {
			delete(st.entries, id)
		}
	}
}
