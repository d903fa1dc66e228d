package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	id "examboard/pkg/domain"
	dErrors "examboard/pkg/domain-errors"
)

// QuotaRecord is the seat quota an institution bought for one exam. It is
// issued by the board and is read-only to the registration engine.
type QuotaRecord struct {
	ID               id.QuotaRecordID  `json:"id"`
	ExamID           id.ExamID         `json:"exam_id"`
	InstitutionID    id.InstitutionID  `json:"institution_id"`
	StageAllocations []StageAllocation `json:"stage_allocations"`
	FeePaid          decimal.Decimal   `json:"fee_paid"`
	IssuedAt         time.Time         `json:"issued_at"`
}

// Allocation returns the allocation for stageID.
func (q *QuotaRecord) Allocation(stageID id.StageID) (StageAllocation, bool) {
	for _, a := range q.StageAllocations {
		if a.StageID == stageID {
			return a, true
		}
	}
	return StageAllocation{}, false
}

// StageAllocation is the slice of a quota record granted to a single stage.
// Range bounds are inclusive; a nil bound means the range is unbounded.
//
// Invariants:
//   - RegularSeats and IrregularSeats are non-negative
//   - when both bounds are present, NumberRangeStart <= NumberRangeEnd
type StageAllocation struct {
	StageID          id.StageID `json:"stage_id"`
	StageName        string     `json:"stage_name,omitempty"`
	RegularSeats     int        `json:"regular_seats"`
	IrregularSeats   int        `json:"irregular_seats"`
	NumberRangeStart *int       `json:"number_range_start,omitempty"`
	NumberRangeEnd   *int       `json:"number_range_end,omitempty"`
	RequiresPhoto    bool       `json:"requires_photo"`
}

// Bounded reports whether both range bounds are present.
func (a StageAllocation) Bounded() bool {
	return a.NumberRangeStart != nil && a.NumberRangeEnd != nil
}

// InRange reports whether n falls inside the reserved range. Unbounded
// allocations accept every number.
func (a StageAllocation) InRange(n int) bool {
	if !a.Bounded() {
		return true
	}
	return n >= *a.NumberRangeStart && n <= *a.NumberRangeEnd
}

// Seats returns the purchased seats for a category.
func (a StageAllocation) Seats(c id.Category) int {
	switch c {
	case id.CategoryRegular:
		return a.RegularSeats
	case id.CategoryIrregular:
		return a.IrregularSeats
	default:
		return 0
	}
}

// Validate checks the allocation invariants.
func (a StageAllocation) Validate() error {
	if a.StageID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "stage id is required")
	}
	if a.RegularSeats < 0 || a.IrregularSeats < 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "seat counts must not be negative")
	}
	if a.Bounded() && *a.NumberRangeStart > *a.NumberRangeEnd {
		return dErrors.New(dErrors.CodeInvariantViolation,
			fmt.Sprintf("number range %d-%d is inverted", *a.NumberRangeStart, *a.NumberRangeEnd))
	}
	return nil
}

// Validate checks the record and each of its allocations.
func (q *QuotaRecord) Validate() error {
	if q.ID.IsNil() || q.ExamID.IsNil() || q.InstitutionID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "quota record ids are required")
	}
	seen := make(map[id.StageID]struct{}, len(q.StageAllocations))
	for _, a := range q.StageAllocations {
		if err := a.Validate(); err != nil {
			return err
		}
		if _, dup := seen[a.StageID]; dup {
			return dErrors.New(dErrors.CodeInvariantViolation, "stage allocated twice in one quota record")
		}
		seen[a.StageID] = struct{}{}
	}
	return nil
}

// IntPtr is a helper for building bounded allocations.
func IntPtr(n int) *int {
	return &n
}
