/*
Package recommend scores every day of a year and selects the days an owner
should plan leave on.

PIPELINE (one year at a time, stages strictly ordered):
  1. calendar generation      features.go
  2. holiday marking          features.go
  3. bridge-day detection     features.go
  4. team workload            features.go
  5. policy scoring           policy.go (rules compiled + validated at load)
  6. predictive ranking       model.go  (least-squares smoothing)
  7. constrained selection    engine.go (min gap, max workload, entitlement)
  8. response shaping         engine.go (ascending by date)

The engine is read-only: it aggregates over the ledger, the team's committed
leave, the holiday calendar and the policy catalog, holds no locks and
persists nothing. Every invocation regenerates the table and refits the
model from scratch, so policy or holiday edits take effect immediately.
*/
package recommend

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/meridian/leave-engine/leave"
)

// =============================================================================
// ENGINE
// =============================================================================

// Options constrain the selection stage.
type Options struct {
	// MinGap is the minimum distance, in days, between two selected days.
	// A candidate closer than or exactly MinGap days to an accepted day is
	// skipped.
	MinGap int

	// MaxWorkload is the highest committed team workload a selected day may
	// carry.
	MaxWorkload int
}

// DefaultOptions mirror the planning defaults: spread selections at least
// three days apart and avoid days where four teammates are already out.
var DefaultOptions = Options{MinGap: 2, MaxWorkload: 4}

type Engine struct {
	Store     leave.Store
	Holidays  leave.HolidayCalendar
	Policies  leave.PolicyCatalog
	Teams     leave.TeamDirectory
	Committed leave.CommittedLeave

	Opts Options
}

func NewEngine(store leave.Store, holidays leave.HolidayCalendar, policies leave.PolicyCatalog, teams leave.TeamDirectory, committed leave.CommittedLeave) *Engine {
	return &Engine{
		Store:     store,
		Holidays:  holidays,
		Policies:  policies,
		Teams:     teams,
		Committed: committed,
		Opts:      DefaultOptions,
	}
}

// Recommend produces the owner's ranked leave-day selection for a year,
// ordered ascending by date. Fails with ErrNoBalanceAvailable when the
// owner has no remaining entitlement to plan with.
func (e *Engine) Recommend(ctx context.Context, ownerID, teamID uuid.UUID, year int) ([]Day, error) {
	leaveTypeID, entitlement, err := e.planningEntitlement(ctx, ownerID, year)
	if err != nil {
		return nil, err
	}

	snap, err := e.buildSnapshot(ctx, teamID, year)
	if err != nil {
		return nil, err
	}

	days := buildCalendar(snap.year)
	markHolidays(days, snap)
	markBridgeDays(days)
	applyWorkload(days, snap)
	applyRules(days, snap)

	model := fitRanker(days)
	for i := range days {
		days[i].PredictedScore = model.predict(days[i].DayOfYear, days[i].TeamWorkload)
	}

	selected := selectDays(days, entitlement, e.Opts)
	for i := range selected {
		selected[i].LeaveTypeID = leaveTypeID
	}
	return selected, nil
}

// planningEntitlement resolves the earliest active leave type eligible for
// planning and the owner's remaining balance for it. Zero entitlement is an
// error, not an empty recommendation.
func (e *Engine) planningEntitlement(ctx context.Context, ownerID uuid.UUID, year int) (uuid.UUID, int, error) {
	types, err := e.Store.ActiveLeaveTypes(ctx)
	if err != nil {
		return uuid.Nil, 0, err
	}
	if len(types) == 0 {
		return uuid.Nil, 0, leave.ErrNotFound
	}
	lt := types[0]

	avail, err := leave.NewLedger(e.Store).Available(ctx, ownerID, lt.ID, year)
	if err != nil {
		return uuid.Nil, 0, err
	}
	n := int(avail.IntPart())
	if n <= 0 {
		return uuid.Nil, 0, leave.ErrNoBalanceAvailable
	}
	return lt.ID, n, nil
}

// buildSnapshot captures the collaborator data for one invocation and
// compiles the policy rules against it.
func (e *Engine) buildSnapshot(ctx context.Context, teamID uuid.UUID, year int) (snapshot, error) {
	holidays, err := e.Holidays.HolidaysInYear(ctx, year)
	if err != nil {
		return snapshot{}, err
	}
	workload, err := e.Committed.TeamLeaveDates(ctx, teamID, year)
	if err != nil {
		return snapshot{}, err
	}
	teamSize, err := e.Teams.TeamSize(ctx, teamID)
	if err != nil {
		return snapshot{}, err
	}
	policies, err := e.Policies.ActivePolicies(ctx)
	if err != nil {
		return snapshot{}, err
	}
	rules, err := CompileRules(policies, teamSize)
	if err != nil {
		return snapshot{}, err
	}

	return snapshot{
		year:     year,
		teamSize: teamSize,
		holidays: holidays,
		workload: workload,
		rules:    rules,
	}, nil
}

// =============================================================================
// CONSTRAINED SELECTION
// =============================================================================

// selectDays walks candidates by predicted score descending and accepts a
// day only when it is farther than MinGap days from every accepted day and
// its workload does not exceed MaxWorkload, stopping at n accepted days.
// Ties break toward the earlier date so the result is deterministic.
func selectDays(days []Day, n int, opts Options) []Day {
	candidates := make([]Day, len(days))
	copy(candidates, days)
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].PredictedScore != candidates[j].PredictedScore {
			return candidates[i].PredictedScore > candidates[j].PredictedScore
		}
		return candidates[i].DayOfYear < candidates[j].DayOfYear
	})

	var accepted []Day
	for _, c := range candidates {
		if len(accepted) == n {
			break
		}
		if c.TeamWorkload > opts.MaxWorkload {
			continue
		}
		ok := true
		for _, a := range accepted {
			if absInt(c.DayOfYear-a.DayOfYear) <= opts.MinGap {
				ok = false
				break
			}
		}
		if ok {
			accepted = append(accepted, c)
		}
	}

	sort.Slice(accepted, func(i, j int) bool { return accepted[i].Date.Before(accepted[j].Date) })
	return accepted
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
