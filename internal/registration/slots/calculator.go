// Package slots derives seat and registration-number availability for a stage
// from its allocation and the current ledger snapshot.
//
// The calculator is pure: the same allocation and registrants always yield
// the same summary, and nothing is cached between calls. Results are advisory;
// the allocator is the authority on whether a seat and number are still free.
package slots

import (
	"slices"

	"examboard/internal/registration/models"
	id "examboard/pkg/domain"
)

// ComputeSummary summarises one stage allocation against the ledger.
//
// Registrants count toward the stage when they belong to it and, for bounded
// allocations, their number lies inside the reserved range. The next free
// number is the lowest number in the range held by no registrant of the
// snapshot, regardless of stage, because registration numbers are unique
// across the whole exam.
func ComputeSummary(alloc models.StageAllocation, registrants []models.RegistrantRecord) models.StageSlotSummary {
	var usedRegular, usedIrregular int
	for _, r := range registrants {
		if r.StageID != alloc.StageID || !alloc.InRange(r.RegistrationNumber) {
			continue
		}
		switch r.Category {
		case id.CategoryRegular:
			usedRegular++
		case id.CategoryIrregular:
			usedIrregular++
		}
	}

	summary := models.StageSlotSummary{
		StageID:            alloc.StageID,
		PurchasedRegular:   alloc.RegularSeats,
		PurchasedIrregular: alloc.IrregularSeats,
		UsedRegular:        usedRegular,
		UsedIrregular:      usedIrregular,
		AvailableRegular:   alloc.RegularSeats - usedRegular,
		AvailableIrregular: alloc.IrregularSeats - usedIrregular,
		NextFreeNumber:     models.Unbounded(),
	}
	if alloc.Bounded() {
		start, end := *alloc.NumberRangeStart, *alloc.NumberRangeEnd
		summary.RangeStart = models.IntPtr(start)
		summary.RangeEnd = models.IntPtr(end)
		summary.NextFreeNumber = firstGap(start, end, registrants)
	}
	return summary
}

// ComputeAll summarises every stage of a quota record, in allocation order.
func ComputeAll(quota *models.QuotaRecord, registrants []models.RegistrantRecord) []models.StageSlotSummary {
	if quota == nil {
		return nil
	}
	out := make([]models.StageSlotSummary, 0, len(quota.StageAllocations))
	for _, alloc := range quota.StageAllocations {
		out = append(out, ComputeSummary(alloc, registrants))
	}
	return out
}

// firstGap returns the lowest number in [start, end] not taken by any
// registrant. The taken numbers inside the range are sorted and deduplicated,
// so the scan costs O(k log k) in the number of registrants and is independent
// of the width of the range.
func firstGap(start, end int, registrants []models.RegistrantRecord) models.NextNumber {
	if start > end {
		return models.Exhausted()
	}
	taken := make([]int, 0, len(registrants))
	for _, r := range registrants {
		if r.RegistrationNumber >= start && r.RegistrationNumber <= end {
			taken = append(taken, r.RegistrationNumber)
		}
	}
	slices.Sort(taken)
	taken = slices.Compact(taken)

	candidate := start
	for _, n := range taken {
		if n != candidate {
			break
		}
		if candidate == end {
			return models.Exhausted()
		}
		candidate++
	}
	return models.Number(candidate)
}
