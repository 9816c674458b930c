package leave

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PLAN DETAIL SET - Validated collection of unique leave dates
// =============================================================================
//
// A plan's details are always built through this type so the duplicate-date
// invariant is checked before anything is persisted. The set keeps dates in
// ascending order; the plan's amount is the set's size.

type PlanDetailSet struct {
	dates []time.Time
}

// NewPlanDetailSet validates and normalizes a list of leave dates.
// Dates are truncated to midnight UTC and sorted ascending. A repeated date
// fails with DuplicateDateError before any persistence happens.
func NewPlanDetailSet(dates []time.Time) (*PlanDetailSet, error) {
	seen := make(map[time.Time]bool, len(dates))
	normalized := make([]time.Time, 0, len(dates))

	for _, d := range dates {
		day := DateOnly(d)
		if seen[day] {
			return nil, &DuplicateDateError{Date: day}
		}
		seen[day] = true
		normalized = append(normalized, day)
	}

	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Before(normalized[j]) })
	return &PlanDetailSet{dates: normalized}, nil
}

// Len returns the distinct-date count, which is also the plan's amount.
func (s *PlanDetailSet) Len() int { return len(s.dates) }

// Amount returns the day count as a ledger amount.
func (s *PlanDetailSet) Amount() decimal.Decimal { return decimal.NewFromInt(int64(len(s.dates))) }

// Dates returns the normalized dates in ascending order.
func (s *PlanDetailSet) Dates() []time.Time {
	out := make([]time.Time, len(s.dates))
	copy(out, s.dates)
	return out
}

// Year returns the year of the earliest date, or fallback when empty.
func (s *PlanDetailSet) Year(fallback int) int {
	if len(s.dates) == 0 {
		return fallback
	}
	return s.dates[0].Year()
}

// Details materializes fresh detail rows owned by the given plan. Fresh IDs
// on every call: details are replaced wholesale, never reused.
func (s *PlanDetailSet) Details(planID uuid.UUID) []PlanDetail {
	out := make([]PlanDetail, len(s.dates))
	for i, d := range s.dates {
		out[i] = PlanDetail{ID: uuid.New(), PlanID: planID, LeaveDate: d}
	}
	return out
}
