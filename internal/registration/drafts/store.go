// Package drafts holds the wizard drafts of open operator sessions. Drafts are
// process memory only; discarding one, or letting it expire, has no persisted
// effect.
package drafts

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"examboard/internal/registration/service"
	"examboard/internal/registration/wizard"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/sentinel"
)

const defaultTTL = 2 * time.Hour

// Session is one operator's draft against one quota record. mu serialises
// every operation on the draft.
type Session struct {
	ID         id.DraftID
	OperatorID id.OperatorID
	Scope      service.Scope
	Draft      *wizard.Draft
	CreatedAt  time.Time

	mu        sync.Mutex
	expiresAt time.Time
}

// Store is an in-memory draft registry with sliding expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[id.DraftID]*Session
	ttl      time.Duration
	now      func() time.Time
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[id.DraftID]*Session),
		ttl:      defaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new session owned by operatorID.
func (s *Store) Create(_ context.Context, operatorID id.OperatorID, scope service.Scope, draft *wizard.Draft) *Session {
	now := s.now()
	sess := &Session{
		ID:         id.DraftID(uuid.New()),
		OperatorID: operatorID,
		Scope:      scope,
		Draft:      draft,
		CreatedAt:  now,
		expiresAt:  now.Add(s.ttl),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return sess
}

// With runs fn while holding the session lock and extends the session's
// expiry. Sessions owned by another operator are reported as not found.
func (s *Store) With(ctx context.Context, draftID id.DraftID, operatorID id.OperatorID, fn func(*Session) error) error {
	sess, err := s.lookup(draftID, operatorID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	sess.expiresAt = s.now().Add(s.ttl)
	s.mu.Unlock()

	return fn(sess)
}

// Delete discards a session.
func (s *Store) Delete(_ context.Context, draftID id.DraftID, operatorID id.OperatorID) error {
	if _, err := s.lookup(draftID, operatorID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, draftID)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key, sess := range s.sessions {
		if !now.Before(sess.expiresAt) {
			delete(s.sessions, key)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Len returns the number of live sessions, expired ones included until swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) lookup(draftID id.DraftID, operatorID id.OperatorID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[draftID]
	if !ok || sess.OperatorID != operatorID || !s.now().Before(sess.expiresAt) {
		return nil, sentinel.ErrNotFound
	}
	return sess, nil
}
