package operations

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrTableNotFound   = errors.New("table not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrRecipeNotFound  = errors.New("recipe not found")
)

const sweepInterval = 5 * time.Minute

// SessionStore keeps the signed-in waiters of this instance in memory. Expired
// sessions stop being served immediately and are swept out periodically.
type SessionStore struct {
	mu       sync.RWMutex
	byID     map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &SessionStore{
		byID: map[string]*Session{},
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go s.sweepLoop(sweepInterval)
	return s
}

func (s *SessionStore) TTL() time.Duration {
	return s.ttl
}

// Save registers session. A zero ExpiresAt is set to now plus the TTL.
func (s *SessionStore) Save(session *Session) error {
	if session == nil {
		return errors.New("session is nil")
	}
	if session.ExpiresAt.IsZero() {
		session.ExpiresAt = time.Now().Add(s.ttl)
	}

	s.mu.Lock()
	s.byID[session.ID] = session
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.byID[id]
	s.mu.RUnlock()

	switch {
	case !ok:
		return nil, ErrSessionNotFound
	case expiredAt(session, time.Now()):
		return nil, ErrSessionExpired
	}
	return session, nil
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.byID, id)
	s.mu.Unlock()
}

// All returns the sessions that have not expired, in no particular order.
func (s *SessionStore) All() []*Session {
	now := time.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()
	live := make([]*Session, 0, len(s.byID))
	for _, session := range s.byID {
		if !expiredAt(session, now) {
			live = append(live, session)
		}
	}
	return live
}

// Close stops the sweeper. It is safe to call more than once.
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *SessionStore) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.purgeExpired(now)
		}
	}
}

// purgeExpired drops every session expired at now and returns how many went.
func (s *SessionStore) purgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, session := range s.byID {
		if expiredAt(session, now) {
			delete(s.byID, id)
			n++
		}
	}
	return n
}

func expiredAt(session *Session, now time.Time) bool {
	return now.After(session.ExpiresAt)
}
