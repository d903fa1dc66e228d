package drafts

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"examboard/internal/registration/service"
	"examboard/internal/registration/wizard"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/sentinel"
)

type DraftStoreSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	store    *Store
	operator id.OperatorID
	scope    service.Scope
}

func TestDraftStoreSuite(t *testing.T) {
	suite.Run(t, new(DraftStoreSuite))
}

func (s *DraftStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	s.store = NewStore(WithTTL(time.Hour), WithClock(func() time.Time { return s.now }))
	s.operator = id.OperatorID(uuid.New())
	s.scope = service.Scope{
		ExamID:        id.ExamID(uuid.New()),
		InstitutionID: id.InstitutionID(uuid.New()),
		QuotaRecordID: id.QuotaRecordID(uuid.New()),
	}
}

func (s *DraftStoreSuite) create() *Session {
	return s.store.Create(s.ctx, s.operator, s.scope, wizard.New(wizard.NewValidator()))
}

// =============================================================================
// Ownership
// =============================================================================

func (s *DraftStoreSuite) TestOwnerCanUseSession() {
	sess := s.create()

	var seen *Session
	err := s.store.With(s.ctx, sess.ID, s.operator, func(got *Session) error {
		seen = got
		return nil
	})
	s.Require().NoError(err)
	s.Same(sess, seen)
	s.Equal(s.scope, seen.Scope)
}

func (s *DraftStoreSuite) TestOtherOperatorSeesNotFound() {
	sess := s.create()
	other := id.OperatorID(uuid.New())

	err := s.store.With(s.ctx, sess.ID, other, func(*Session) error { return nil })
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(s.ctx, sess.ID, other), sentinel.ErrNotFound)
	s.Equal(1, s.store.Len())
}

func (s *DraftStoreSuite) TestCallbackErrorIsReturned() {
	sess := s.create()
	boom := errors.New("boom")
	s.ErrorIs(s.store.With(s.ctx, sess.ID, s.operator, func(*Session) error { return boom }), boom)
}

func (s *DraftStoreSuite) TestDelete() {
	sess := s.create()
	s.Require().NoError(s.store.Delete(s.ctx, sess.ID, s.operator))
	err := s.store.With(s.ctx, sess.ID, s.operator, func(*Session) error { return nil })
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// =============================================================================
// Expiry
// =============================================================================

func (s *DraftStoreSuite) TestUseExtendsExpiry() {
	sess := s.create()

	s.now = s.now.Add(50 * time.Minute)
	s.Require().NoError(s.store.With(s.ctx, sess.ID, s.operator, func(*Session) error { return nil }))

	s.now = s.now.Add(50 * time.Minute)
	s.Require().NoError(s.store.With(s.ctx, sess.ID, s.operator, func(*Session) error { return nil }))
}

func (s *DraftStoreSuite) TestExpiredSessionIsGoneAndSwept() {
	sess := s.create()
	s.create()

	s.now = s.now.Add(time.Hour)
	err := s.store.With(s.ctx, sess.ID, s.operator, func(*Session) error { return nil })
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Equal(2, s.store.Sweep())
	s.Equal(0, s.store.Len())
}

// Operations on one session never interleave.
func (s *DraftStoreSuite) TestSessionOperationsAreSerialised() {
	sess := s.create()

	var (
		wg     sync.WaitGroup
		inside int
		maxIn  int
		mu     sync.Mutex
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.store.With(s.ctx, sess.ID, s.operator, func(*Session) error {
				mu.Lock()
				inside++
				maxIn = max(maxIn, inside)
				mu.Unlock()
				time.Sleep(time.Millisecond)
				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	s.Equal(1, maxIn)
}
