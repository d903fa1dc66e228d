package quota

import (
	"context"
	"slices"
	"strings"
	"sync"

	"examboard/internal/registration/models"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/sentinel"
)

// InMemory is a quota lookup backed by a map. Records are copied on the way in
// and out so callers cannot mutate stored allocations.
type InMemory struct {
	mu      sync.RWMutex
	records map[id.QuotaRecordID]models.QuotaRecord
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[id.QuotaRecordID]models.QuotaRecord)}
}

// Put stores or replaces a quota record after checking its invariants.
func (s *InMemory) Put(_ context.Context, record models.QuotaRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = clone(record)
	return nil
}

// FetchQuotaRecords returns the records of an institution for an exam, oldest
// issue first.
func (s *InMemory) FetchQuotaRecords(_ context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.QuotaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.QuotaRecord, 0)
	for _, r := range s.records {
		if r.ExamID == examID && r.InstitutionID == institutionID {
			out = append(out, clone(r))
		}
	}
	slices.SortFunc(out, func(a, b models.QuotaRecord) int {
		if c := a.IssuedAt.Compare(b.IssuedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out, nil
}

// FindByID returns a single record or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, quotaID id.QuotaRecordID) (*models.QuotaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[quotaID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := clone(r)
	return &c, nil
}

func clone(r models.QuotaRecord) models.QuotaRecord {
	r.StageAllocations = slices.Clone(r.StageAllocations)
	for i := range r.StageAllocations {
		a := &r.StageAllocations[i]
		if a.NumberRangeStart != nil {
			a.NumberRangeStart = models.IntPtr(*a.NumberRangeStart)
		}
		if a.NumberRangeEnd != nil {
			a.NumberRangeEnd = models.IntPtr(*a.NumberRangeEnd)
		}
	}
	return r
}
