/*
workflow.go - The approval state machine

PURPOSE:
  One state machine shared by single-date requests and multi-date plans:

      draft → pending → approved
                      → rejected

  draft is the only initial state and the only mutable/deletable one;
  approved and rejected are terminal.

GUARDS:
  - create/update/delete: caller must be the owner (ErrForbidden) and the
    row must still be draft (ErrInvalidState)
  - submit: owner + draft + a resolvable line approver (team owner); single
    requests additionally re-validate availability and debit the ledger
  - approve/reject: caller must be the recorded approver, row pending

LEDGER COUPLING:
  Single-date requests debit at submit and credit back at reject, both
  inside the same transaction as the status write: a failed ledger call
  aborts the whole transition. Partial application is a correctness bug.
  Plan requests never touch the ledger; their dates are intentions, not
  commitments (see DESIGN.md).

APPROVER RESOLUTION:
  The line approver is the owning team's designated owner, resolved once at
  submit time through a single TeamDirectory lookup. Kept as one small
  method so a multi-level chain can replace it without touching the state
  machine.
*/
package leave

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// WORKFLOW
// =============================================================================

type Workflow struct {
	store TxStore
	teams TeamDirectory

	// now is swappable for deterministic tests.
	now func() time.Time
}

func NewWorkflow(store TxStore, teams TeamDirectory) *Workflow {
	return &Workflow{store: store, teams: teams, now: time.Now}
}

// lineApprover resolves the owner's line approver: the owning team's owner.
func (w *Workflow) lineApprover(ctx context.Context, teamID uuid.UUID) (uuid.UUID, error) {
	owner, ok, err := w.teams.TeamOwner(ctx, teamID)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, ErrNoApproverFound
	}
	return owner, nil
}

// =============================================================================
// SINGLE-DATE REQUESTS
// =============================================================================

// RequestInput is the caller-editable portion of a request.
type RequestInput struct {
	LeaveTypeID uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	Description string
}

// CreateRequest creates a draft request owned by the actor. The amount is
// the inclusive day count of [start, end]; a zero count is an invalid range.
// Availability is checked up front so obviously unfulfillable drafts are
// rejected early, but the ledger is not debited until submit.
func (w *Workflow) CreateRequest(ctx context.Context, actor Actor, in RequestInput) (*Request, error) {
	amount, err := w.requestAmount(in)
	if err != nil {
		return nil, err
	}

	r := &Request{
		ID:          uuid.New(),
		OwnerID:     actor.ID,
		TeamID:      actor.TeamID,
		LeaveTypeID: in.LeaveTypeID,
		Year:        DateOnly(in.StartDate).Year(),
		StartDate:   DateOnly(in.StartDate),
		EndDate:     DateOnly(in.EndDate),
		Amount:      amount,
		Status:      StatusDraft,
		Description: in.Description,
		RequestedAt: w.now(),
	}

	err = w.store.WithTx(ctx, func(tx Store) error {
		ok, err := NewLedger(tx).HasAvailable(ctx, r.OwnerID, r.LeaveTypeID, r.Year, amount)
		if err != nil {
			return err
		}
		if !ok {
			return &InsufficientBalanceError{
				OwnerID: r.OwnerID.String(), LeaveTypeID: r.LeaveTypeID.String(),
				Year: r.Year, Requested: amount,
			}
		}
		return tx.SaveRequest(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateRequest edits a draft. Only the owner may edit, and only while the
// row is draft; the amount is recomputed from the new dates.
func (w *Workflow) UpdateRequest(ctx context.Context, actor Actor, id uuid.UUID, in RequestInput) (*Request, error) {
	amount, err := w.requestAmount(in)
	if err != nil {
		return nil, err
	}

	var out *Request
	err = w.store.WithTx(ctx, func(tx Store) error {
		r, err := tx.RequestByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guardDraftMutation("update request", actor, r.OwnerID, r.Status); err != nil {
			return err
		}

		ok, err := NewLedger(tx).HasAvailable(ctx, r.OwnerID, in.LeaveTypeID, DateOnly(in.StartDate).Year(), amount)
		if err != nil {
			return err
		}
		if !ok {
			return &InsufficientBalanceError{
				OwnerID: r.OwnerID.String(), LeaveTypeID: in.LeaveTypeID.String(),
				Year: DateOnly(in.StartDate).Year(), Requested: amount,
			}
		}

		r.LeaveTypeID = in.LeaveTypeID
		r.StartDate = DateOnly(in.StartDate)
		r.EndDate = DateOnly(in.EndDate)
		r.Year = r.StartDate.Year()
		r.Amount = amount
		r.Description = in.Description
		out = r
		return tx.SaveRequest(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRequest removes a draft. Same guard as update.
func (w *Workflow) DeleteRequest(ctx context.Context, actor Actor, id uuid.UUID) error {
	return w.store.WithTx(ctx, func(tx Store) error {
		r, err := tx.RequestByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guardDraftMutation("delete request", actor, r.OwnerID, r.Status); err != nil {
			return err
		}
		return tx.DeleteRequest(ctx, id)
	})
}

// SubmitRequest moves a draft to pending. The approver is resolved once,
// here; availability is re-validated and the ledger debited for the full
// amount inside the same transaction as the status write. A failed debit
// aborts the submit entirely.
func (w *Workflow) SubmitRequest(ctx context.Context, actor Actor, id uuid.UUID) (*Request, error) {
	approver, err := w.lineApprover(ctx, actor.TeamID)
	if err != nil {
		return nil, err
	}

	var out *Request
	err = w.store.WithTx(ctx, func(tx Store) error {
		r, err := tx.RequestByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guardDraftMutation("submit request", actor, r.OwnerID, r.Status); err != nil {
			return err
		}

		if _, err := NewLedger(tx).Debit(ctx, r.OwnerID, r.LeaveTypeID, r.Year, r.Amount); err != nil {
			return err
		}

		now := w.now()
		r.Status = StatusPending
		r.ApproverID = &approver
		r.SubmittedAt = &now
		out = r
		return tx.SaveRequest(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApproveRequest finalizes a pending request. The debit already happened at
// submit, so this only records the decision.
func (w *Workflow) ApproveRequest(ctx context.Context, actor Actor, id uuid.UUID) (*Request, error) {
	return w.decideRequest(ctx, actor, id, StatusApproved)
}

// RejectRequest rejects a pending request and credits the original debit
// back, atomically with the status write.
func (w *Workflow) RejectRequest(ctx context.Context, actor Actor, id uuid.UUID) (*Request, error) {
	return w.decideRequest(ctx, actor, id, StatusRejected)
}

func (w *Workflow) decideRequest(ctx context.Context, actor Actor, id uuid.UUID, decision Status) (*Request, error) {
	var out *Request
	err := w.store.WithTx(ctx, func(tx Store) error {
		r, err := tx.RequestByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guardDecision(string(decision)+" request", actor, r.ApproverID, r.Status); err != nil {
			return err
		}

		if decision == StatusRejected {
			if _, err := NewLedger(tx).Credit(ctx, r.OwnerID, r.LeaveTypeID, r.Year, r.Amount); err != nil {
				return err
			}
		}

		now := w.now()
		r.Status = decision
		r.ApprovalAt = &now
		out = r
		return tx.SaveRequest(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (w *Workflow) requestAmount(in RequestInput) (decimal.Decimal, error) {
	days := InclusiveDays(in.StartDate, in.EndDate)
	if days == 0 {
		return decimal.Zero, ErrInvalidDateRange
	}
	return decimal.NewFromInt(int64(days)), nil
}

// =============================================================================
// MULTI-DATE PLANS
// =============================================================================

// PlanInput is the caller-editable portion of a plan request.
type PlanInput struct {
	LeaveTypeID uuid.UUID
	Dates       []time.Time
	Description string
}

// CreatePlan creates a draft plan. Duplicate dates in the detail list are
// rejected before any persistence; the amount is the distinct-date count.
func (w *Workflow) CreatePlan(ctx context.Context, actor Actor, in PlanInput) (*PlanRequest, error) {
	set, err := NewPlanDetailSet(in.Dates)
	if err != nil {
		return nil, err
	}

	p := &PlanRequest{
		ID:          uuid.New(),
		OwnerID:     actor.ID,
		TeamID:      actor.TeamID,
		LeaveTypeID: in.LeaveTypeID,
		Year:        set.Year(w.now().Year()),
		Amount:      set.Amount(),
		Status:      StatusDraft,
		Description: in.Description,
		RequestedAt: w.now(),
	}
	p.Details = set.Details(p.ID)

	err = w.store.WithTx(ctx, func(tx Store) error {
		return tx.SavePlan(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePlan edits a draft plan. The detail set is replaced wholesale: old
// rows are destroyed, the new set re-validated and inserted, and the amount
// recomputed, all within one transaction.
func (w *Workflow) UpdatePlan(ctx context.Context, actor Actor, id uuid.UUID, in PlanInput) (*PlanRequest, error) {
	set, err := NewPlanDetailSet(in.Dates)
	if err != nil {
		return nil, err
	}

	var out *PlanRequest
	err = w.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.PlanByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guardDraftMutation("update plan", actor, p.OwnerID, p.Status); err != nil {
			return err
		}

		p.LeaveTypeID = in.LeaveTypeID
		p.Year = set.Year(p.Year)
		p.Amount = set.Amount()
		p.Description = in.Description
		p.Details = set.Details(p.ID)
		out = p
		return tx.SavePlan(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePlan removes a draft plan together with all its detail rows.
func (w *Workflow) DeletePlan(ctx context.Context, actor Actor, id uuid.UUID) error {
	return w.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.PlanByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guardDraftMutation("delete plan", actor, p.OwnerID, p.Status); err != nil {
			return err
		}
		return tx.DeletePlan(ctx, id)
	})
}

// SubmitPlan moves a draft plan to pending. Plans submit without a ledger
// debit; only the approver resolution and status write happen here.
func (w *Workflow) SubmitPlan(ctx context.Context, actor Actor, id uuid.UUID) (*PlanRequest, error) {
	approver, err := w.lineApprover(ctx, actor.TeamID)
	if err != nil {
		return nil, err
	}

	var out *PlanRequest
	err = w.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.PlanByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guardDraftMutation("submit plan", actor, p.OwnerID, p.Status); err != nil {
			return err
		}

		now := w.now()
		p.Status = StatusPending
		p.ApproverID = &approver
		p.SubmittedAt = &now
		out = p
		return tx.SavePlan(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApprovePlan finalizes a pending plan.
func (w *Workflow) ApprovePlan(ctx context.Context, actor Actor, id uuid.UUID) (*PlanRequest, error) {
	return w.decidePlan(ctx, actor, id, StatusApproved)
}

// RejectPlan rejects a pending plan. No ledger effect: plans never debited.
func (w *Workflow) RejectPlan(ctx context.Context, actor Actor, id uuid.UUID) (*PlanRequest, error) {
	return w.decidePlan(ctx, actor, id, StatusRejected)
}

func (w *Workflow) decidePlan(ctx context.Context, actor Actor, id uuid.UUID, decision Status) (*PlanRequest, error) {
	var out *PlanRequest
	err := w.store.WithTx(ctx, func(tx Store) error {
		p, err := tx.PlanByID(ctx, id)
		if err != nil {
			return err
		}
		if err := guardDecision(string(decision)+" plan", actor, p.ApproverID, p.Status); err != nil {
			return err
		}

		now := w.now()
		p.Status = decision
		p.ApprovalAt = &now
		out = p
		return tx.SavePlan(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// GUARDS
// =============================================================================

// guardDraftMutation enforces the owner-and-draft rule shared by update,
// delete and submit. Ownership is checked first: a non-owner gets Forbidden
// regardless of status.
func guardDraftMutation(op string, actor Actor, ownerID uuid.UUID, status Status) error {
	if actor.ID != ownerID {
		return ErrForbidden
	}
	if status != StatusDraft {
		return &InvalidStateError{Op: op, Status: status}
	}
	return nil
}

// guardDecision enforces the approver-and-pending rule for approve/reject.
func guardDecision(op string, actor Actor, approverID *uuid.UUID, status Status) error {
	if approverID == nil || actor.ID != *approverID {
		return ErrForbidden
	}
	if status != StatusPending {
		return &InvalidStateError{Op: op, Status: status}
	}
	return nil
}
