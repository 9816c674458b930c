/*
ledger.go - The balance ledger

PURPOSE:
  Debit and credit operations over per-(owner, leave type, year) balance
  rows, plus lazy initialization of the rows themselves.

CRITICAL INVARIANT:
  available = granted - taken >= 0, always. A debit that would overdraw is
  rejected and leaves the row untouched. Errors never silently clamp.

ATOMICITY:
  Each operation is one read-validate-write of one row. A Ledger constructed
  over a plain Store performs the read-modify-write directly and is meant to
  run inside a WithTx boundary; the exported convenience methods on
  LedgerService wrap each call in its own transaction. The workflow embeds
  ledger calls in ITS transaction so a failed debit aborts the whole submit.

SEE ALSO:
  - workflow.go: submit/reject embed Debit/Credit transactionally
  - store.go:    BalanceStore contract
*/
package leave

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER - Row operations against a (possibly transactional) Store
// =============================================================================

// Ledger performs balance arithmetic against the store it was built over.
// Build one over the Store handed to you by WithTx to make an operation part
// of a larger atomic unit.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Debit consumes amount days from the unique balance row for the key.
// Fails with ErrInsufficientBalance when no row exists or the available
// balance is smaller than amount. Returns the new available balance.
func (l *Ledger) Debit(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int, amount decimal.Decimal) (decimal.Decimal, error) {
	b, err := l.store.BalanceByKey(ctx, ownerID, leaveTypeID, year)
	if err != nil || b.Available().LessThan(amount) {
		return decimal.Zero, l.shortage(b, ownerID, leaveTypeID, year, amount, err)
	}

	b.Taken = b.Taken.Add(amount)
	if err := l.store.SaveBalance(ctx, b); err != nil {
		return decimal.Zero, err
	}
	return b.Available(), nil
}

// Credit reverses a prior debit: it returns amount days to the row.
// Fails with ErrInsufficientBalance when no row exists or fewer than amount
// days have been taken. Returns the new available balance.
func (l *Ledger) Credit(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int, amount decimal.Decimal) (decimal.Decimal, error) {
	b, err := l.store.BalanceByKey(ctx, ownerID, leaveTypeID, year)
	if err != nil || b.Taken.LessThan(amount) {
		return decimal.Zero, l.shortage(b, ownerID, leaveTypeID, year, amount, err)
	}

	b.Taken = b.Taken.Sub(amount)
	if err := l.store.SaveBalance(ctx, b); err != nil {
		return decimal.Zero, err
	}
	return b.Available(), nil
}

// EnsureInitialized lazily creates a zero-consumption row per active leave
// type for (owner, year), seeded with that type's entitlement. Idempotent:
// pre-existing rows are left untouched.
func (l *Ledger) EnsureInitialized(ctx context.Context, ownerID uuid.UUID, year int) error {
	types, err := l.store.ActiveLeaveTypes(ctx)
	if err != nil {
		return err
	}

	for _, lt := range types {
		_, err := l.store.BalanceByKey(ctx, ownerID, lt.ID, year)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return err
		}
		b := &Balance{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			LeaveTypeID: lt.ID,
			Year:        year,
			Granted:     lt.Entitlement,
			Taken:       decimal.Zero,
		}
		if err := l.store.SaveBalance(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// Available returns the remaining entitlement for the key, or zero when no
// row exists yet.
func (l *Ledger) Available(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int) (decimal.Decimal, error) {
	b, err := l.store.BalanceByKey(ctx, ownerID, leaveTypeID, year)
	if err != nil {
		if isNotFound(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return b.Available(), nil
}

// HasAvailable reports whether the owner can cover the requested days.
// A missing row counts as zero availability.
func (l *Ledger) HasAvailable(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int, requested decimal.Decimal) (bool, error) {
	avail, err := l.Available(ctx, ownerID, leaveTypeID, year)
	if err != nil {
		return false, err
	}
	return avail.GreaterThanOrEqual(requested), nil
}

func (l *Ledger) shortage(b *Balance, ownerID, leaveTypeID uuid.UUID, year int, amount decimal.Decimal, loadErr error) error {
	if loadErr != nil && !isNotFound(loadErr) {
		return loadErr
	}
	avail := decimal.Zero
	if b != nil {
		avail = b.Available()
	}
	return &InsufficientBalanceError{
		OwnerID:     ownerID.String(),
		LeaveTypeID: leaveTypeID.String(),
		Year:        year,
		Available:   avail,
		Requested:   amount,
	}
}

// =============================================================================
// LEDGER SERVICE - Standalone operations, each its own transaction
// =============================================================================

// LedgerService exposes the ledger to callers that are not already inside a
// transaction (the API layer). Every call is one atomic unit.
type LedgerService struct {
	Store TxStore
}

func (s *LedgerService) Debit(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int, amount decimal.Decimal) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		out, err = NewLedger(tx).Debit(ctx, ownerID, leaveTypeID, year, amount)
		return err
	})
	return out, err
}

func (s *LedgerService) Credit(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int, amount decimal.Decimal) (decimal.Decimal, error) {
	var out decimal.Decimal
	err := s.Store.WithTx(ctx, func(tx Store) error {
		var err error
		out, err = NewLedger(tx).Credit(ctx, ownerID, leaveTypeID, year, amount)
		return err
	})
	return out, err
}

func (s *LedgerService) EnsureInitialized(ctx context.Context, ownerID uuid.UUID, year int) error {
	return s.Store.WithTx(ctx, func(tx Store) error {
		return NewLedger(tx).EnsureInitialized(ctx, ownerID, year)
	})
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
