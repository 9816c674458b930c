package leave_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/leave-engine/leave"
	"github.com/meridian/leave-engine/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func days(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func seedLeaveType(t *testing.T, store *memory.Store, entitlement int64) leave.LeaveType {
	t.Helper()
	lt := leave.LeaveType{
		ID:          uuid.New(),
		Code:        "annual",
		Name:        "Annual Leave",
		Entitlement: days(entitlement),
		Active:      true,
	}
	require.NoError(t, store.PutLeaveType(context.Background(), lt))
	return lt
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func TestLedger_EnsureInitialized_CreatesRowPerActiveType(t *testing.T) {
	// GIVEN: Two active leave types and one inactive
	// WHEN: Initializing an owner's year
	// THEN: One row per active type, seeded with its entitlement

	ctx := context.Background()
	store := memory.New()
	annual := seedLeaveType(t, store, 18)
	sick := leave.LeaveType{ID: uuid.New(), Code: "sick", Name: "Sick", Entitlement: days(10), Active: true}
	require.NoError(t, store.PutLeaveType(ctx, sick))
	retired := leave.LeaveType{ID: uuid.New(), Code: "old", Name: "Old", Entitlement: days(5), Active: false}
	require.NoError(t, store.PutLeaveType(ctx, retired))

	owner := uuid.New()
	require.NoError(t, leave.NewLedger(store).EnsureInitialized(ctx, owner, 2026))

	rows, err := store.BalancesByOwner(ctx, owner, 2026)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	avail, err := leave.NewLedger(store).Available(ctx, owner, annual.ID, 2026)
	require.NoError(t, err)
	assert.True(t, avail.Equal(days(18)))
}

func TestLedger_EnsureInitialized_Idempotent(t *testing.T) {
	// GIVEN: An initialized owner with a partially consumed balance
	// WHEN: Initializing again
	// THEN: The existing row is untouched

	ctx := context.Background()
	store := memory.New()
	lt := seedLeaveType(t, store, 18)
	owner := uuid.New()
	ledger := leave.NewLedger(store)

	require.NoError(t, ledger.EnsureInitialized(ctx, owner, 2026))
	_, err := ledger.Debit(ctx, owner, lt.ID, 2026, days(3))
	require.NoError(t, err)

	require.NoError(t, ledger.EnsureInitialized(ctx, owner, 2026))

	avail, err := ledger.Available(ctx, owner, lt.ID, 2026)
	require.NoError(t, err)
	assert.True(t, avail.Equal(days(15)), "re-initialization must not reset consumption")
}

// =============================================================================
// DEBIT / CREDIT
// =============================================================================

func TestLedger_Debit_ReducesAvailable(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	lt := seedLeaveType(t, store, 18)
	owner := uuid.New()
	ledger := leave.NewLedger(store)
	require.NoError(t, ledger.EnsureInitialized(ctx, owner, 2026))

	avail, err := ledger.Debit(ctx, owner, lt.ID, 2026, days(5))
	require.NoError(t, err)
	assert.True(t, avail.Equal(days(13)))
}

func TestLedger_Debit_Overdraw_RejectedAndUntouched(t *testing.T) {
	// GIVEN: 18 days available
	// WHEN: Debiting 19
	// THEN: ErrInsufficientBalance, balance unchanged

	ctx := context.Background()
	store := memory.New()
	lt := seedLeaveType(t, store, 18)
	owner := uuid.New()
	ledger := leave.NewLedger(store)
	require.NoError(t, ledger.EnsureInitialized(ctx, owner, 2026))

	_, err := ledger.Debit(ctx, owner, lt.ID, 2026, days(19))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	var shortage *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &shortage)
	assert.True(t, shortage.Available.Equal(days(18)))
	assert.True(t, shortage.Requested.Equal(days(19)))

	avail, err := ledger.Available(ctx, owner, lt.ID, 2026)
	require.NoError(t, err)
	assert.True(t, avail.Equal(days(18)), "failed debit must not move the balance")
}

func TestLedger_Debit_MissingRow_InsufficientBalance(t *testing.T) {
	// GIVEN: No balance row for the key
	// WHEN: Debiting
	// THEN: ErrInsufficientBalance, not ErrNotFound

	ctx := context.Background()
	store := memory.New()
	lt := seedLeaveType(t, store, 18)

	_, err := leave.NewLedger(store).Debit(ctx, uuid.New(), lt.ID, 2026, days(1))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

func TestLedger_Credit_RestoresAvailable(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	lt := seedLeaveType(t, store, 18)
	owner := uuid.New()
	ledger := leave.NewLedger(store)
	require.NoError(t, ledger.EnsureInitialized(ctx, owner, 2026))

	_, err := ledger.Debit(ctx, owner, lt.ID, 2026, days(5))
	require.NoError(t, err)

	avail, err := ledger.Credit(ctx, owner, lt.ID, 2026, days(5))
	require.NoError(t, err)
	assert.True(t, avail.Equal(days(18)))
}

func TestLedger_Credit_BeyondTaken_Rejected(t *testing.T) {
	// GIVEN: Only 2 days taken
	// WHEN: Crediting 3 back
	// THEN: Rejected; credits only reverse debits

	ctx := context.Background()
	store := memory.New()
	lt := seedLeaveType(t, store, 18)
	owner := uuid.New()
	ledger := leave.NewLedger(store)
	require.NoError(t, ledger.EnsureInitialized(ctx, owner, 2026))

	_, err := ledger.Debit(ctx, owner, lt.ID, 2026, days(2))
	require.NoError(t, err)

	_, err = ledger.Credit(ctx, owner, lt.ID, 2026, days(3))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
}

func TestLedger_Available_MissingRowIsZero(t *testing.T) {
	store := memory.New()
	avail, err := leave.NewLedger(store).Available(context.Background(), uuid.New(), uuid.New(), 2026)
	require.NoError(t, err)
	assert.True(t, avail.IsZero())
}

// =============================================================================
// YEAR ISOLATION
// =============================================================================

func TestLedger_YearsAreIndependent(t *testing.T) {
	// GIVEN: Balances for 2026 and 2027
	// WHEN: Debiting against 2026
	// THEN: 2027 is unaffected

	ctx := context.Background()
	store := memory.New()
	lt := seedLeaveType(t, store, 18)
	owner := uuid.New()
	ledger := leave.NewLedger(store)
	require.NoError(t, ledger.EnsureInitialized(ctx, owner, 2026))
	require.NoError(t, ledger.EnsureInitialized(ctx, owner, 2027))

	_, err := ledger.Debit(ctx, owner, lt.ID, 2026, days(10))
	require.NoError(t, err)

	avail, err := ledger.Available(ctx, owner, lt.ID, 2027)
	require.NoError(t, err)
	assert.True(t, avail.Equal(days(18)))
}

// =============================================================================
// SERVICE-LEVEL TRANSACTIONS
// =============================================================================

func TestLedgerService_DebitRunsAtomically(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	lt := seedLeaveType(t, store, 18)
	owner := uuid.New()
	svc := &leave.LedgerService{Store: store}
	require.NoError(t, svc.EnsureInitialized(ctx, owner, 2026))

	avail, err := svc.Debit(ctx, owner, lt.ID, 2026, days(4))
	require.NoError(t, err)
	assert.True(t, avail.Equal(days(14)))

	avail, err = svc.Credit(ctx, owner, lt.ID, 2026, days(4))
	require.NoError(t, err)
	assert.True(t, avail.Equal(days(18)))
}
