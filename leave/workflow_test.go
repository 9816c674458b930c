package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/leave-engine/leave"
	"github.com/meridian/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type workflowFixture struct {
	store    *memory.Store
	workflow *leave.Workflow
	lt       leave.LeaveType
	actor    leave.Actor
	approver leave.Actor
}

// newWorkflowFixture builds a team with an owner (the approver), one member
// (the actor) and an initialized 18-day balance for 2026.
func newWorkflowFixture(t *testing.T) *workflowFixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	lt := seedLeaveType(t, store, 18)

	team := leave.Team{ID: uuid.New(), Name: "Platform", OwnerID: uuid.New()}
	require.NoError(t, store.PutTeam(ctx, team))

	actor := leave.Actor{ID: uuid.New(), TeamID: team.ID}
	require.NoError(t, store.SetMember(ctx, actor.ID, team.ID))
	require.NoError(t, store.SetMember(ctx, team.OwnerID, team.ID))

	require.NoError(t, leave.NewLedger(store).EnsureInitialized(ctx, actor.ID, 2026))

	return &workflowFixture{
		store:    store,
		workflow: leave.NewWorkflow(store, store),
		lt:       lt,
		actor:    actor,
		approver: leave.Actor{ID: team.OwnerID, TeamID: team.ID},
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (f *workflowFixture) available(t *testing.T, year int) int64 {
	t.Helper()
	avail, err := leave.NewLedger(f.store).Available(context.Background(), f.actor.ID, f.lt.ID, year)
	require.NoError(t, err)
	return avail.IntPart()
}

func (f *workflowFixture) draftRequest(t *testing.T, start, end time.Time) *leave.Request {
	t.Helper()
	r, err := f.workflow.CreateRequest(context.Background(), f.actor, leave.RequestInput{
		LeaveTypeID: f.lt.ID,
		StartDate:   start,
		EndDate:     end,
	})
	require.NoError(t, err)
	return r
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

func TestWorkflow_CreateRequest_Draft(t *testing.T) {
	// GIVEN: A member with 18 days available
	// WHEN: Creating a 5-day request
	// THEN: Draft row, inclusive amount, no ledger movement yet

	f := newWorkflowFixture(t)
	r := f.draftRequest(t, date(2026, time.March, 9), date(2026, time.March, 13))

	assert.Equal(t, leave.StatusDraft, r.Status)
	assert.True(t, r.Amount.Equal(days(5)))
	assert.Equal(t, 2026, r.Year)
	assert.Nil(t, r.SubmittedAt)
	assert.EqualValues(t, 18, f.available(t, 2026), "creating a draft must not debit")
}

func TestWorkflow_CreateRequest_InvalidRange(t *testing.T) {
	f := newWorkflowFixture(t)
	_, err := f.workflow.CreateRequest(context.Background(), f.actor, leave.RequestInput{
		LeaveTypeID: f.lt.ID,
		StartDate:   date(2026, time.March, 13),
		EndDate:     date(2026, time.March, 9),
	})
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestWorkflow_CreateRequest_BeyondBalance(t *testing.T) {
	// GIVEN: 18 days available
	// WHEN: Drafting a 20-day request
	// THEN: Rejected up front

	f := newWorkflowFixture(t)
	_, err := f.workflow.CreateRequest(context.Background(), f.actor, leave.RequestInput{
		LeaveTypeID: f.lt.ID,
		StartDate:   date(2026, time.March, 2),
		EndDate:     date(2026, time.March, 21),
	})
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

func TestWorkflow_SubmitRequest_DebitsAndSetsApprover(t *testing.T) {
	// GIVEN: A 5-day draft
	// WHEN: The owner submits it
	// THEN: Pending, approver recorded, ledger debited, all in one step

	f := newWorkflowFixture(t)
	r := f.draftRequest(t, date(2026, time.March, 9), date(2026, time.March, 13))

	submitted, err := f.workflow.SubmitRequest(context.Background(), f.actor, r.ID)
	require.NoError(t, err)

	assert.Equal(t, leave.StatusPending, submitted.Status)
	require.NotNil(t, submitted.ApproverID)
	assert.Equal(t, f.approver.ID, *submitted.ApproverID)
	assert.NotNil(t, submitted.SubmittedAt)
	assert.EqualValues(t, 13, f.available(t, 2026))
}

func TestWorkflow_SubmitRequest_FailedDebitAbortsEverything(t *testing.T) {
	// GIVEN: Two drafts of 10 days each against an 18-day balance
	// WHEN: Submitting both
	// THEN: The second submit fails and its row stays draft

	f := newWorkflowFixture(t)
	ctx := context.Background()
	first := f.draftRequest(t, date(2026, time.March, 2), date(2026, time.March, 11))
	second := f.draftRequest(t, date(2026, time.June, 1), date(2026, time.June, 10))

	_, err := f.workflow.SubmitRequest(ctx, f.actor, first.ID)
	require.NoError(t, err)

	_, err = f.workflow.SubmitRequest(ctx, f.actor, second.ID)
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	row, err := f.store.RequestByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusDraft, row.Status, "failed submit must leave the row draft")
	assert.Nil(t, row.ApproverID)
	assert.EqualValues(t, 8, f.available(t, 2026), "only the first debit may land")
}

func TestWorkflow_SubmitRequest_NoTeamOwner(t *testing.T) {
	// GIVEN: A team without a designated owner
	// WHEN: Submitting
	// THEN: ErrNoApproverFound before any state change

	f := newWorkflowFixture(t)
	ctx := context.Background()
	team := leave.Team{ID: uuid.New(), Name: "Orphans"}
	require.NoError(t, f.store.PutTeam(ctx, team))
	orphan := leave.Actor{ID: f.actor.ID, TeamID: team.ID}

	r := f.draftRequest(t, date(2026, time.March, 9), date(2026, time.March, 13))
	_, err := f.workflow.SubmitRequest(ctx, orphan, r.ID)
	assert.ErrorIs(t, err, leave.ErrNoApproverFound)
	assert.EqualValues(t, 18, f.available(t, 2026))
}

func TestWorkflow_ApproveRequest_KeepsDebit(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	r := f.draftRequest(t, date(2026, time.March, 9), date(2026, time.March, 13))
	_, err := f.workflow.SubmitRequest(ctx, f.actor, r.ID)
	require.NoError(t, err)

	approved, err := f.workflow.ApproveRequest(ctx, f.approver, r.ID)
	require.NoError(t, err)

	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovalAt)
	assert.EqualValues(t, 13, f.available(t, 2026), "approval keeps the submit-time debit")
}

func TestWorkflow_RejectRequest_RefundsDebit(t *testing.T) {
	// GIVEN: A submitted 5-day request (balance at 13)
	// WHEN: The approver rejects it
	// THEN: Terminal rejected and the 5 days are credited back

	f := newWorkflowFixture(t)
	ctx := context.Background()
	r := f.draftRequest(t, date(2026, time.March, 9), date(2026, time.March, 13))
	_, err := f.workflow.SubmitRequest(ctx, f.actor, r.ID)
	require.NoError(t, err)
	require.EqualValues(t, 13, f.available(t, 2026))

	rejected, err := f.workflow.RejectRequest(ctx, f.approver, r.ID)
	require.NoError(t, err)

	assert.Equal(t, leave.StatusRejected, rejected.Status)
	assert.EqualValues(t, 18, f.available(t, 2026), "rejection must restore the balance")
}

// =============================================================================
// GUARDS
// =============================================================================

func TestWorkflow_DraftGuards(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	r := f.draftRequest(t, date(2026, time.March, 9), date(2026, time.March, 13))

	// Non-owner cannot mutate a draft.
	stranger := leave.Actor{ID: uuid.New(), TeamID: f.actor.TeamID}
	err := f.workflow.DeleteRequest(ctx, stranger, r.ID)
	assert.ErrorIs(t, err, leave.ErrForbidden)

	// After submit the row is no longer draft.
	_, err = f.workflow.SubmitRequest(ctx, f.actor, r.ID)
	require.NoError(t, err)
	_, err = f.workflow.UpdateRequest(ctx, f.actor, r.ID, leave.RequestInput{
		LeaveTypeID: f.lt.ID,
		StartDate:   date(2026, time.April, 1),
		EndDate:     date(2026, time.April, 2),
	})
	assert.ErrorIs(t, err, leave.ErrInvalidState)
}

func TestWorkflow_DecisionGuards(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	r := f.draftRequest(t, date(2026, time.March, 9), date(2026, time.March, 13))

	// A draft cannot be decided: no approver recorded yet.
	_, err := f.workflow.ApproveRequest(ctx, f.approver, r.ID)
	assert.ErrorIs(t, err, leave.ErrForbidden)

	_, err = f.workflow.SubmitRequest(ctx, f.actor, r.ID)
	require.NoError(t, err)

	// Only the recorded approver decides; the owner does not.
	_, err = f.workflow.ApproveRequest(ctx, f.actor, r.ID)
	assert.ErrorIs(t, err, leave.ErrForbidden)

	// Terminal rows stay decided.
	_, err = f.workflow.ApproveRequest(ctx, f.approver, r.ID)
	require.NoError(t, err)
	_, err = f.workflow.RejectRequest(ctx, f.approver, r.ID)
	assert.ErrorIs(t, err, leave.ErrInvalidState)
}

// =============================================================================
// PLAN LIFECYCLE
// =============================================================================

func TestWorkflow_CreatePlan_DistinctDates(t *testing.T) {
	// GIVEN: Three distinct dates
	// WHEN: Creating a plan
	// THEN: Draft, amount 3, details sorted ascending

	f := newWorkflowFixture(t)
	p, err := f.workflow.CreatePlan(context.Background(), f.actor, leave.PlanInput{
		LeaveTypeID: f.lt.ID,
		Dates: []time.Time{
			date(2026, time.July, 20),
			date(2026, time.May, 4),
			date(2026, time.June, 12),
		},
	})
	require.NoError(t, err)

	assert.Equal(t, leave.StatusDraft, p.Status)
	assert.True(t, p.Amount.Equal(days(3)))
	require.Len(t, p.Details, 3)
	assert.Equal(t, date(2026, time.May, 4), p.Details[0].LeaveDate)
	assert.Equal(t, date(2026, time.July, 20), p.Details[2].LeaveDate)
}

func TestWorkflow_CreatePlan_DuplicateDateRejected(t *testing.T) {
	f := newWorkflowFixture(t)
	_, err := f.workflow.CreatePlan(context.Background(), f.actor, leave.PlanInput{
		LeaveTypeID: f.lt.ID,
		Dates: []time.Time{
			date(2026, time.May, 4),
			date(2026, time.May, 4),
		},
	})
	assert.ErrorIs(t, err, leave.ErrDuplicateDate)

	var dup *leave.DuplicateDateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, date(2026, time.May, 4), dup.Date)
}

func TestWorkflow_UpdatePlan_ReplacesDetailsWholesale(t *testing.T) {
	// GIVEN: A draft plan with two dates
	// WHEN: Updating with a disjoint three-date set
	// THEN: Old details are gone, amount recomputed

	f := newWorkflowFixture(t)
	ctx := context.Background()
	p, err := f.workflow.CreatePlan(ctx, f.actor, leave.PlanInput{
		LeaveTypeID: f.lt.ID,
		Dates:       []time.Time{date(2026, time.May, 4), date(2026, time.May, 8)},
	})
	require.NoError(t, err)

	updated, err := f.workflow.UpdatePlan(ctx, f.actor, p.ID, leave.PlanInput{
		LeaveTypeID: f.lt.ID,
		Dates: []time.Time{
			date(2026, time.August, 3),
			date(2026, time.August, 10),
			date(2026, time.August, 17),
		},
	})
	require.NoError(t, err)

	assert.True(t, updated.Amount.Equal(days(3)))
	require.Len(t, updated.Details, 3)
	for _, d := range updated.Details {
		assert.Equal(t, time.August, d.LeaveDate.Month(), "old dates must not survive")
	}

	stored, err := f.store.PlanByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Details, 3)
}

func TestWorkflow_PlanLifecycle_NoLedgerMovement(t *testing.T) {
	// GIVEN: A plan covering 4 dates
	// WHEN: Submitting and approving it
	// THEN: The ledger never moves; plans are intentions

	f := newWorkflowFixture(t)
	ctx := context.Background()
	p, err := f.workflow.CreatePlan(ctx, f.actor, leave.PlanInput{
		LeaveTypeID: f.lt.ID,
		Dates: []time.Time{
			date(2026, time.May, 4), date(2026, time.May, 11),
			date(2026, time.May, 18), date(2026, time.May, 25),
		},
	})
	require.NoError(t, err)

	submitted, err := f.workflow.SubmitPlan(ctx, f.actor, p.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, submitted.Status)
	require.NotNil(t, submitted.ApproverID)
	assert.Equal(t, f.approver.ID, *submitted.ApproverID)

	approved, err := f.workflow.ApprovePlan(ctx, f.approver, p.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)

	assert.EqualValues(t, 18, f.available(t, 2026))
}

func TestWorkflow_DeletePlan_RemovesDetails(t *testing.T) {
	f := newWorkflowFixture(t)
	ctx := context.Background()
	p, err := f.workflow.CreatePlan(ctx, f.actor, leave.PlanInput{
		LeaveTypeID: f.lt.ID,
		Dates:       []time.Time{date(2026, time.May, 4)},
	})
	require.NoError(t, err)

	require.NoError(t, f.workflow.DeletePlan(ctx, f.actor, p.ID))

	_, err = f.store.PlanByID(ctx, p.ID)
	assert.ErrorIs(t, err, leave.ErrNotFound)
}
