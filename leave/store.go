/*
store.go - Persistence and collaborator interfaces

PURPOSE:
  Defines the seam between the domain logic and whatever holds the rows.
  The core never talks to a database directly; it receives a Store (or a
  TxStore when it needs an atomic boundary) and the read-only collaborator
  lookups the recommendation engine aggregates over.

ATOMIC BOUNDARIES:
  Every debit/credit and every state transition is a single
  read-validate-write against one row and MUST run inside WithTx so two
  concurrent submits against the same balance cannot both pass the
  availability check. Implementations provide snapshot-rollback (memory)
  or database transactions (sqlite).

IMPLEMENTATIONS:
  - store/memory: in-memory, for tests and dev
  - store/sqlite: production SQLite via sqlx
*/
package leave

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROW STORES
// =============================================================================

// BalanceStore persists ledger rows. One row per (owner, leave type, year);
// implementations must enforce the key's uniqueness.
type BalanceStore interface {
	// BalanceByKey returns the unique row for the key, or ErrNotFound.
	BalanceByKey(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int) (*Balance, error)

	// BalancesByOwner returns all rows for an owner in a year.
	BalancesByOwner(ctx context.Context, ownerID uuid.UUID, year int) ([]Balance, error)

	// SaveBalance inserts or updates a row by ID.
	SaveBalance(ctx context.Context, b *Balance) error
}

// RequestStore persists single-date leave requests.
type RequestStore interface {
	RequestByID(ctx context.Context, id uuid.UUID) (*Request, error)
	RequestsByOwner(ctx context.Context, ownerID uuid.UUID) ([]Request, error)
	SaveRequest(ctx context.Context, r *Request) error
	DeleteRequest(ctx context.Context, id uuid.UUID) error
}

// PlanStore persists plan requests together with their details.
// SavePlan replaces the detail set wholesale: old rows are destroyed and the
// new set inserted within the same write. Details are never patched.
type PlanStore interface {
	PlanByID(ctx context.Context, id uuid.UUID) (*PlanRequest, error)
	PlansByOwner(ctx context.Context, ownerID uuid.UUID) ([]PlanRequest, error)
	SavePlan(ctx context.Context, p *PlanRequest) error
	DeletePlan(ctx context.Context, id uuid.UUID) error
}

// LeaveTypeStore exposes the externally-owned leave type catalog.
type LeaveTypeStore interface {
	// ActiveLeaveTypes returns active types in catalog order.
	ActiveLeaveTypes(ctx context.Context) ([]LeaveType, error)
}

// Store bundles the row stores the workflow and ledger operate on.
type Store interface {
	BalanceStore
	RequestStore
	PlanStore
	LeaveTypeStore
}

// TxStore wraps Store with an atomic boundary.
//
// WithTx executes fn against a transactional view. If fn returns an error,
// nothing fn wrote is visible afterwards; if it returns nil, everything is.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// COLLABORATORS - Read-only lookups injected into the core
// =============================================================================

// HolidayCalendar resolves the non-working dates of a year.
type HolidayCalendar interface {
	// HolidaysInYear returns the set of holiday dates, normalized to
	// midnight UTC.
	HolidaysInYear(ctx context.Context, year int) (map[time.Time]bool, error)
}

// PolicyCatalog resolves the active scoring policies in catalog order.
type PolicyCatalog interface {
	ActivePolicies(ctx context.Context) ([]Policy, error)
}

// TeamDirectory resolves team membership facts.
type TeamDirectory interface {
	// TeamSize returns the member count of a team.
	TeamSize(ctx context.Context, teamID uuid.UUID) (int, error)

	// TeamOwner returns the team's designated owner (the line approver)
	// and whether one exists.
	TeamOwner(ctx context.Context, teamID uuid.UUID) (uuid.UUID, bool, error)
}

// CommittedLeave aggregates a team's committed leave days: plan detail dates
// plus the expanded date ranges of approved and pending single requests.
type CommittedLeave interface {
	// TeamLeaveDates returns, per date, how many committed leave days the
	// team has in the year. Dates with no committed leave are absent.
	TeamLeaveDates(ctx context.Context, teamID uuid.UUID, year int) (map[time.Time]int, error)
}
