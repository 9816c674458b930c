/*
errors.go - Centralized error types for the leave core

PURPOSE:
  All business-rule errors in one place. Each represents a rule violation,
  not a transient fault: none are retried internally, all surface to the
  caller synchronously.

ERROR CATEGORIES:
  1. Permission errors  - caller may not perform the transition (Forbidden)
  2. State errors       - operation invalid for the row's status
  3. Ledger errors      - debit/credit would break the non-negative invariant
  4. Validation errors  - bad dates, duplicate plan dates

USAGE:
  Callers match with errors.Is():

    if errors.Is(err, leave.ErrInsufficientBalance) { ... }

  Structured variants carry context and Unwrap() to the sentinel.
*/
package leave

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrForbidden is returned when the caller lacks permission for the
	// requested transition or mutation (wrong owner, wrong approver).
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState is returned when an operation is not valid for the
	// row's current status (e.g. updating a submitted request).
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrDuplicateDate is returned when plan details contain a repeated date.
	ErrDuplicateDate = errors.New("duplicate leave date")

	// ErrInvalidDateRange is returned when start is after end or a date is
	// unparsable. An inclusive day count of zero is never a legitimate
	// zero-day request.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInsufficientBalance is returned when a debit or credit would
	// violate the non-negative balance invariant.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrNoApproverFound is returned at submit time when the owner's team
	// has no resolvable line approver.
	ErrNoApproverFound = errors.New("no approver found")

	// ErrNoBalanceAvailable is returned by the recommendation engine when
	// the caller has zero entitlement left to plan with.
	ErrNoBalanceAvailable = errors.New("no balance available")

	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	OwnerID     string
	LeaveTypeID string
	Year        int
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %d: available %s, requested %s",
		e.Year, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// DuplicateDateError reports which date was repeated in a plan detail list.
type DuplicateDateError struct {
	Date time.Time
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("duplicate leave date in plan details: %s", e.Date.Format("2006-01-02"))
}

func (e *DuplicateDateError) Unwrap() error { return ErrDuplicateDate }

// InvalidStateError reports the status that blocked an operation.
type InvalidStateError struct {
	Op     string
	Status Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s: status is %s", e.Op, e.Status)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input
// rather than an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrDuplicateDate) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrNoBalanceAvailable)
}

// IsPermission reports whether the error is a permission/state guard failure.
func IsPermission(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrInvalidState)
}
