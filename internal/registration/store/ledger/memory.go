package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"examboard/internal/registration/models"
	"examboard/internal/registration/slots"
	id "examboard/pkg/domain"
	"examboard/pkg/platform/sentinel"
)

// QuotaFinder resolves the quota record an allocation is made against.
type QuotaFinder interface {
	FindByID(ctx context.Context, quotaID id.QuotaRecordID) (*models.QuotaRecord, error)
}

// InMemory is a ledger and allocator held in process memory. CreateRegistrant
// runs under a single lock, so the capacity re-check, number assignment and
// insert are atomic with respect to every other call. It follows the same
// rules as the create_registrant database function.
type InMemory struct {
	mu     sync.RWMutex
	quotas QuotaFinder
	byExam map[id.ExamID][]models.RegistrantRecord
	now    func() time.Time
}

type Option func(*InMemory)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *InMemory) {
		s.now = now
	}
}

func NewInMemory(quotas QuotaFinder, opts ...Option) *InMemory {
	s := &InMemory{
		quotas: quotas,
		byExam: make(map[id.ExamID][]models.RegistrantRecord),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchRegistrants returns the registrants of an institution, ordered by
// registration number.
func (s *InMemory) FetchRegistrants(_ context.Context, examID id.ExamID, institutionID id.InstitutionID) ([]models.RegistrantRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.RegistrantRecord, 0)
	for _, r := range s.byExam[examID] {
		if r.InstitutionID == institutionID {
			out = append(out, r)
		}
	}
	slices.SortFunc(out, func(a, b models.RegistrantRecord) int {
		return a.RegistrationNumber - b.RegistrationNumber
	})
	return out, nil
}

// CreateRegistrant re-checks capacity, assigns the lowest free number and
// stores the registrant.
func (s *InMemory) CreateRegistrant(ctx context.Context, req models.AllocationRequest) (*models.RegistrantRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !req.Category.IsValid() {
		return nil, models.NewAllocationError(models.ReasonValidationFailed, fmt.Sprintf("unknown category %q", req.Category))
	}

	quota, err := s.quotas.FindByID(ctx, req.QuotaRecordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.NewAllocationError(models.ReasonValidationFailed, "quota record not found")
		}
		return nil, fmt.Errorf("load quota record: %w", err)
	}
	alloc, ok := quota.Allocation(req.StageID)
	if !ok {
		return nil, models.NewAllocationError(models.ReasonValidationFailed, "stage is not allocated in this quota record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	examRegistrants := s.byExam[quota.ExamID]
	quotaRegistrants := make([]models.RegistrantRecord, 0, len(examRegistrants))
	for _, r := range examRegistrants {
		if r.QuotaRecordID == quota.ID {
			quotaRegistrants = append(quotaRegistrants, r)
		}
	}

	summary := slots.ComputeSummary(alloc, quotaRegistrants)
	if summary.Available(req.Category) <= 0 {
		return nil, models.NewAllocationError(models.ReasonQuotaExhausted,
			fmt.Sprintf("no %s seats left for this stage", req.Category))
	}

	number, err := nextNumber(alloc, examRegistrants)
	if err != nil {
		return nil, err
	}

	record := models.RegistrantRecord{
		ID:                 id.RegistrantID(uuid.New()),
		QuotaRecordID:      quota.ID,
		ExamID:             quota.ExamID,
		InstitutionID:      quota.InstitutionID,
		StageID:            req.StageID,
		Category:           req.Category,
		RegistrationNumber: number,
		Details:            req.Details,
		PhotoURL:           req.PhotoURL,
		CreatedBy:          req.OperatorID,
		CreatedAt:          s.now(),
	}
	s.byExam[quota.ExamID] = append(examRegistrants, record)
	return &record, nil
}

// Insert stores a registrant with a caller-chosen number, as an import or an
// out-of-band correction would. The number must be free within the exam.
func (s *InMemory) Insert(_ context.Context, record models.RegistrantRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.byExam[record.ExamID] {
		if r.RegistrationNumber == record.RegistrationNumber {
			return sentinel.ErrConflict
		}
	}
	if record.ID.IsNil() {
		record.ID = id.RegistrantID(uuid.New())
	}
	s.byExam[record.ExamID] = append(s.byExam[record.ExamID], record)
	return nil
}

// Remove deletes the registrant holding number, freeing it for reuse.
func (s *InMemory) Remove(_ context.Context, examID id.ExamID, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	regs := s.byExam[examID]
	idx := slices.IndexFunc(regs, func(r models.RegistrantRecord) bool {
		return r.RegistrationNumber == number
	})
	if idx < 0 {
		return sentinel.ErrNotFound
	}
	s.byExam[examID] = slices.Delete(regs, idx, idx+1)
	return nil
}

// nextNumber applies the first-gap rule inside a bounded range and max+1
// across the exam otherwise.
func nextNumber(alloc models.StageAllocation, examRegistrants []models.RegistrantRecord) (int, error) {
	if alloc.Bounded() {
		next := slots.ComputeSummary(alloc, examRegistrants).NextFreeNumber
		n, ok := next.Get()
		if !ok {
			return 0, models.NewAllocationError(models.ReasonQuotaExhausted,
				fmt.Sprintf("every registration number from %d to %d is taken", *alloc.NumberRangeStart, *alloc.NumberRangeEnd))
		}
		return n, nil
	}
	highest := 0
	for _, r := range examRegistrants {
		highest = max(highest, r.RegistrationNumber)
	}
	return highest + 1, nil
}
