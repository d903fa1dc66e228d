package models

import (
	"encoding/json"
	"strconv"

	id "examboard/pkg/domain"
)

// NextNumberKind tags the variant held by NextNumber.
type NextNumberKind string

const (
	NextNumberValue     NextNumberKind = "number"
	NextNumberExhausted NextNumberKind = "exhausted"
	NextNumberUnbounded NextNumberKind = "unbounded"
)

// NextNumber is the next unused registration number of a stage: a concrete
// value, Exhausted when every number in the range is taken, or Unbounded when
// the allocation has no range.
type NextNumber struct {
	Kind  NextNumberKind
	Value int
}

func Number(n int) NextNumber { return NextNumber{Kind: NextNumberValue, Value: n} }
func Exhausted() NextNumber   { return NextNumber{Kind: NextNumberExhausted} }
func Unbounded() NextNumber   { return NextNumber{Kind: NextNumberUnbounded} }

func (n NextNumber) IsExhausted() bool { return n.Kind == NextNumberExhausted }

// Get returns the concrete value when the variant holds one.
func (n NextNumber) Get() (int, bool) {
	if n.Kind != NextNumberValue {
		return 0, false
	}
	return n.Value, true
}

func (n NextNumber) String() string {
	if n.Kind == NextNumberValue {
		return strconv.Itoa(n.Value)
	}
	return string(n.Kind)
}

type nextNumberJSON struct {
	Kind  NextNumberKind `json:"kind"`
	Value *int           `json:"value,omitempty"`
}

func (n NextNumber) MarshalJSON() ([]byte, error) {
	out := nextNumberJSON{Kind: n.Kind}
	if n.Kind == NextNumberValue {
		v := n.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

func (n *NextNumber) UnmarshalJSON(data []byte) error {
	var in nextNumberJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*n = NextNumber{Kind: in.Kind}
	if in.Value != nil {
		n.Value = *in.Value
	}
	return nil
}

// StageSlotSummary is the derived seat and number availability of one stage.
// It is recomputed from the ledger on every interaction and never stored.
//
// Invariants:
//   - UsedX + AvailableX == PurchasedX for both categories
//   - NextFreeNumber is Unbounded iff RangeStart or RangeEnd is nil
type StageSlotSummary struct {
	StageID            id.StageID `json:"stage_id"`
	PurchasedRegular   int        `json:"purchased_regular"`
	PurchasedIrregular int        `json:"purchased_irregular"`
	UsedRegular        int        `json:"used_regular"`
	UsedIrregular      int        `json:"used_irregular"`
	AvailableRegular   int        `json:"available_regular"`
	AvailableIrregular int        `json:"available_irregular"`
	NextFreeNumber     NextNumber `json:"next_free_number"`
	RangeStart         *int       `json:"range_start,omitempty"`
	RangeEnd           *int       `json:"range_end,omitempty"`
}

// Available returns the remaining seats for a category. Unknown categories
// have none.
func (s StageSlotSummary) Available(c id.Category) int {
	switch c {
	case id.CategoryRegular:
		return s.AvailableRegular
	case id.CategoryIrregular:
		return s.AvailableIrregular
	default:
		return 0
	}
}

// DisplayRange renders the reserved range as "start-end", or "" when unbounded.
func (s StageSlotSummary) DisplayRange() string {
	if s.RangeStart == nil || s.RangeEnd == nil {
		return ""
	}
	return strconv.Itoa(*s.RangeStart) + "-" + strconv.Itoa(*s.RangeEnd)
}

// DefaultCategory is the category a fresh draft starts with: Regular when it
// has seats, otherwise Irregular when it has seats, otherwise none.
func (s StageSlotSummary) DefaultCategory() id.Category {
	switch {
	case s.AvailableRegular > 0:
		return id.CategoryRegular
	case s.AvailableIrregular > 0:
		return id.CategoryIrregular
	default:
		return ""
	}
}
