package recommend_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/leave-engine/leave"
	"github.com/meridian/leave-engine/recommend"
	"github.com/meridian/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type engineFixture struct {
	store  *memory.Store
	engine *recommend.Engine
	lt     leave.LeaveType
	owner  uuid.UUID
	team   leave.Team
}

// newEngineFixture seeds a team of eight, an annual leave type with the given
// entitlement, an initialized 2026 balance and the standard scoring policies.
func newEngineFixture(t *testing.T, entitlement int64) *engineFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	lt := leave.LeaveType{
		ID: uuid.New(), Code: "annual", Name: "Annual Leave",
		Entitlement: decimal.NewFromInt(entitlement), Active: true,
	}
	require.NoError(t, store.PutLeaveType(ctx, lt))

	team := leave.Team{ID: uuid.New(), Name: "Platform", OwnerID: uuid.New()}
	require.NoError(t, store.PutTeam(ctx, team))
	owner := uuid.New()
	require.NoError(t, store.SetMember(ctx, owner, team.ID))
	require.NoError(t, store.SetMember(ctx, team.OwnerID, team.ID))
	for i := 0; i < 6; i++ {
		require.NoError(t, store.SetMember(ctx, uuid.New(), team.ID))
	}

	require.NoError(t, leave.NewLedger(store).EnsureInitialized(ctx, owner, 2026))

	for _, p := range []leave.Policy{
		{ID: uuid.New(), Code: "is_holiday", Operation: "==", Value: "true", Score: -100, Active: true},
		{ID: uuid.New(), Code: "bridge_holiday", Operation: "==", Value: "true", Score: 30, Active: true},
		{ID: uuid.New(), Code: "weekday", Operation: "in", Value: "[0,4]", Score: 10, Active: true},
		{ID: uuid.New(), Code: "team_workload", Operation: ">=", Value: "50%", Score: -40, Active: true},
	} {
		require.NoError(t, store.PutPolicy(ctx, p))
	}

	return &engineFixture{
		store:  store,
		engine: recommend.NewEngine(store, store, store, store, store),
		lt:     lt,
		owner:  owner,
		team:   team,
	}
}

// commitTeamLeave records an approved request for a teammate so the span
// shows up as committed workload.
func (f *engineFixture) commitTeamLeave(t *testing.T, start, end time.Time) {
	t.Helper()
	r := &leave.Request{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		TeamID:      f.team.ID,
		LeaveTypeID: f.lt.ID,
		Year:        start.Year(),
		StartDate:   start,
		EndDate:     end,
		Amount:      decimal.NewFromInt(int64(leave.InclusiveDays(start, end))),
		Status:      leave.StatusApproved,
		RequestedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.SaveRequest(context.Background(), r))
}

// =============================================================================
// RECOMMENDATION
// =============================================================================

func TestEngine_Recommend_FillsEntitlement(t *testing.T) {
	// GIVEN: 12 remaining days and a full policy catalog
	// WHEN: Recommending for 2026
	// THEN: Exactly 12 days, ascending, spread farther than the minimum gap

	f := newEngineFixture(t, 12)
	days, err := f.engine.Recommend(context.Background(), f.owner, f.team.ID, 2026)
	require.NoError(t, err)
	require.Len(t, days, 12)

	for i, day := range days {
		assert.Equal(t, f.lt.ID, day.LeaveTypeID)
		assert.Equal(t, 2026, day.Date.Year())
		if i > 0 {
			assert.True(t, day.Date.After(days[i-1].Date), "days must come back in date order")
			assert.Greater(t, day.DayOfYear-days[i-1].DayOfYear, recommend.DefaultOptions.MinGap)
		}
	}
}

func TestEngine_Recommend_RemainingBalanceCapsSelection(t *testing.T) {
	// GIVEN: 10 granted days of which 7 are already taken
	// WHEN: Recommending
	// THEN: Only 3 days come back

	f := newEngineFixture(t, 10)
	ctx := context.Background()
	_, err := leave.NewLedger(f.store).Debit(ctx, f.owner, f.lt.ID, 2026, decimal.NewFromInt(7))
	require.NoError(t, err)

	days, err := f.engine.Recommend(ctx, f.owner, f.team.ID, 2026)
	require.NoError(t, err)
	assert.Len(t, days, 3)
}

func TestEngine_Recommend_NoBalance(t *testing.T) {
	// GIVEN: An owner with no balance row at all
	// WHEN: Recommending
	// THEN: ErrNoBalanceAvailable, not an empty plan

	f := newEngineFixture(t, 10)
	_, err := f.engine.Recommend(context.Background(), uuid.New(), f.team.ID, 2026)
	assert.ErrorIs(t, err, leave.ErrNoBalanceAvailable)
}

func TestEngine_Recommend_ExhaustedBalance(t *testing.T) {
	f := newEngineFixture(t, 5)
	ctx := context.Background()
	_, err := leave.NewLedger(f.store).Debit(ctx, f.owner, f.lt.ID, 2026, decimal.NewFromInt(5))
	require.NoError(t, err)

	_, err = f.engine.Recommend(ctx, f.owner, f.team.ID, 2026)
	assert.ErrorIs(t, err, leave.ErrNoBalanceAvailable)
}

func TestEngine_Recommend_EmptyCatalog(t *testing.T) {
	store := memory.New()
	engine := recommend.NewEngine(store, store, store, store, store)
	_, err := engine.Recommend(context.Background(), uuid.New(), uuid.New(), 2026)
	assert.ErrorIs(t, err, leave.ErrNotFound)
}

func TestEngine_Recommend_SkipsOverloadedDays(t *testing.T) {
	// GIVEN: Five teammates already committed for all of June
	// WHEN: Recommending
	// THEN: No selected day lands in June

	f := newEngineFixture(t, 8)
	start := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		f.commitTeamLeave(t, start, end)
	}

	days, err := f.engine.Recommend(context.Background(), f.owner, f.team.ID, 2026)
	require.NoError(t, err)
	require.Len(t, days, 8)
	for _, day := range days {
		assert.NotEqual(t, time.June, day.Date.Month(),
			"workload above the cap must exclude the day")
	}
}

func TestEngine_Recommend_BadPolicySurfaces(t *testing.T) {
	// GIVEN: A malformed policy slipped into the catalog
	// WHEN: Recommending
	// THEN: The compile error reaches the caller instead of being skipped

	f := newEngineFixture(t, 5)
	ctx := context.Background()
	bad := leave.Policy{ID: uuid.New(), Code: "weekday", Operation: "~", Value: "1", Active: true}
	require.NoError(t, f.store.PutPolicy(ctx, bad))

	_, err := f.engine.Recommend(ctx, f.owner, f.team.ID, 2026)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestEngine_Recommend_FreshTableEveryCall(t *testing.T) {
	// GIVEN: A first recommendation already produced
	// WHEN: A holiday is added and the engine runs again
	// THEN: The second run reflects the edit (no cached state)

	f := newEngineFixture(t, 5)
	ctx := context.Background()
	first, err := f.engine.Recommend(ctx, f.owner, f.team.ID, 2026)
	require.NoError(t, err)
	require.Len(t, first, 5)

	require.NoError(t, f.store.PutHoliday(ctx, leave.Holiday{
		ID:   uuid.New(),
		Date: first[0].Date,
		Name: "Surprise holiday",
	}))

	second, err := f.engine.Recommend(ctx, f.owner, f.team.ID, 2026)
	require.NoError(t, err)
	require.Len(t, second, 5)
	for _, day := range second {
		if day.Date.Equal(first[0].Date) {
			assert.True(t, day.IsHoliday)
		}
	}
}
