/*
Package leave implements the leave ledger and approval workflow core.

PURPOSE:
  This package contains the domain types and business rules for tracking
  leave entitlement: the per-(owner, leave type, year) balance ledger, the
  approval state machine shared by single-date and multi-date requests, and
  the date arithmetic both depend on.

KEY CONCEPTS IN THIS FILE (types.go):
  - Balance: entitlement/consumption record; Available() is the derived value
  - Request: a single contiguous date-range leave request
  - PlanRequest / PlanDetail: a multi-date plan owning individual leave dates
  - Status: the shared draft → pending → approved/rejected enum
  - Policy, Holiday, Team, LeaveType: reference rows owned by collaborators

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for day balances, never float arithmetic
  2. The ledger never clamps: a debit that would go negative is rejected
  3. Rows leave draft exactly once and are immutable afterwards except for
     the fields the workflow itself sets (status, approver, timestamps)

SEE ALSO:
  - ledger.go:   debit/credit/ensure operations
  - workflow.go: the state machine
  - store.go:    persistence and collaborator interfaces
*/
package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// STATUS - Shared request/plan lifecycle
// =============================================================================

type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

// =============================================================================
// ACTOR - The caller identity, resolved by the (excluded) identity layer
// =============================================================================

// Actor is who is performing an operation. The transport layer authenticates
// it; the core only enforces ownership and approver checks against it.
type Actor struct {
	ID     uuid.UUID
	TeamID uuid.UUID
}

// =============================================================================
// REFERENCE DATA - Owned externally, referenced by id
// =============================================================================

// LeaveType is a catalog entry: a kind of leave with a yearly entitlement.
type LeaveType struct {
	ID          uuid.UUID
	Code        string
	Name        string
	Entitlement decimal.Decimal // days granted per year
	Active      bool
}

// Holiday is a calendar date marked non-working.
type Holiday struct {
	ID   uuid.UUID
	Date time.Time
	Name string
}

// Team groups owners; the team owner acts as line approver.
type Team struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
}

// Policy is a data-described scoring rule for the recommendation engine.
// Code names a feature column; Value is a literal (number, bool, list or a
// percentage-of-team-size string for team_workload); Score is the signed
// contribution added when the condition holds.
type Policy struct {
	ID        uuid.UUID
	Code      string
	Name      string
	Operation string
	Value     string
	Score     float64
	Active    bool
}

// =============================================================================
// BALANCE - Per-(owner, leave type, year) entitlement record
// =============================================================================

// Balance is the ledger row. Granted is the entitlement for the year,
// Taken what has been consumed so far.
//
// INVARIANT: Available() >= 0 at all times. The ledger enforces it; no code
// path writes a Taken that exceeds Granted.
type Balance struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	LeaveTypeID uuid.UUID
	Year        int
	Granted     decimal.Decimal
	Taken       decimal.Decimal
}

// Available returns the derived remaining entitlement.
func (b Balance) Available() decimal.Decimal { return b.Granted.Sub(b.Taken) }

// =============================================================================
// REQUEST - Single contiguous date-range leave request
// =============================================================================

type Request struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	TeamID      uuid.UUID
	LeaveTypeID uuid.UUID
	Year        int
	StartDate   time.Time
	EndDate     time.Time
	Amount      decimal.Decimal // inclusive day count, computed, never client-set
	Status      Status
	Description string
	RequestedAt time.Time
	SubmittedAt *time.Time
	ApproverID  *uuid.UUID
	ApprovalAt  *time.Time
}

// =============================================================================
// PLAN REQUEST - Multi-date request owning individual leave dates
// =============================================================================

type PlanRequest struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	TeamID      uuid.UUID
	LeaveTypeID uuid.UUID
	Year        int
	Amount      decimal.Decimal // distinct detail-date count
	Status      Status
	Description string
	RequestedAt time.Time
	SubmittedAt *time.Time
	ApproverID  *uuid.UUID
	ApprovalAt  *time.Time

	// Details are owned exclusively by this plan and replaced wholesale on
	// every edit. Never patched in place.
	Details []PlanDetail
}

// PlanDetail is a single leave date belonging to a plan.
type PlanDetail struct {
	ID        uuid.UUID
	PlanID    uuid.UUID
	LeaveDate time.Time
}
