/*
Package memory provides an in-memory store for tests and development.

It implements the full persistence surface of the core (leave.TxStore), the
collaborator lookups (holiday calendar, policy catalog, team directory,
committed leave) and the reference-data CRUD the API layer exposes.

WithTx is simulated with a snapshot of the mutable row maps: if the
function fails, the snapshot is restored, so a failed ledger debit inside a
submit leaves every row untouched — the same all-or-nothing behavior the
SQLite store gets from real transactions.
*/
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/meridian/leave-engine/leave"
)

// =============================================================================
// STORE
// =============================================================================

type Store struct {
	mu sync.RWMutex

	// Mutable rows (covered by WithTx snapshots).
	balances map[uuid.UUID]leave.Balance
	requests map[uuid.UUID]leave.Request
	plans    map[uuid.UUID]leave.PlanRequest

	// Reference data (ordered where catalog order matters).
	leaveTypes []leave.LeaveType
	holidays   []leave.Holiday
	policies   []leave.Policy
	teams      map[uuid.UUID]leave.Team
	members    map[uuid.UUID]uuid.UUID // user -> team
}

func New() *Store {
	return &Store{
		balances: make(map[uuid.UUID]leave.Balance),
		requests: make(map[uuid.UUID]leave.Request),
		plans:    make(map[uuid.UUID]leave.PlanRequest),
		teams:    make(map[uuid.UUID]leave.Team),
		members:  make(map[uuid.UUID]uuid.UUID),
	}
}

var _ leave.TxStore = (*Store)(nil)
var _ leave.HolidayCalendar = (*Store)(nil)
var _ leave.PolicyCatalog = (*Store)(nil)
var _ leave.TeamDirectory = (*Store)(nil)
var _ leave.CommittedLeave = (*Store)(nil)

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) BalanceByKey(_ context.Context, ownerID, leaveTypeID uuid.UUID, year int) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balanceByKeyLocked(ownerID, leaveTypeID, year)
}

func (s *Store) balanceByKeyLocked(ownerID, leaveTypeID uuid.UUID, year int) (*leave.Balance, error) {
	for _, b := range s.balances {
		if b.OwnerID == ownerID && b.LeaveTypeID == leaveTypeID && b.Year == year {
			out := b
			return &out, nil
		}
	}
	return nil, leave.ErrNotFound
}

func (s *Store) BalancesByOwner(_ context.Context, ownerID uuid.UUID, year int) ([]leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []leave.Balance
	for _, b := range s.balances {
		if b.OwnerID == ownerID && b.Year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveTypeID.String() < out[j].LeaveTypeID.String() })
	return out, nil
}

func (s *Store) SaveBalance(_ context.Context, b *leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[b.ID] = *b
	return nil
}

// =============================================================================
// REQUESTS
// =============================================================================

func (s *Store) RequestByID(_ context.Context, id uuid.UUID) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, leave.ErrNotFound
	}
	out := r
	return &out, nil
}

func (s *Store) RequestsByOwner(_ context.Context, ownerID uuid.UUID) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []leave.Request
	for _, r := range s.requests {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

func (s *Store) SaveRequest(_ context.Context, r *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = *r
	return nil
}

func (s *Store) DeleteRequest(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[id]; !ok {
		return leave.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

// =============================================================================
// PLANS
// =============================================================================

func (s *Store) PlanByID(_ context.Context, id uuid.UUID) (*leave.PlanRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[id]
	if !ok {
		return nil, leave.ErrNotFound
	}
	out := p
	out.Details = append([]leave.PlanDetail(nil), p.Details...)
	return &out, nil
}

func (s *Store) PlansByOwner(_ context.Context, ownerID uuid.UUID) ([]leave.PlanRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []leave.PlanRequest
	for _, p := range s.plans {
		if p.OwnerID == ownerID {
			cp := p
			cp.Details = append([]leave.PlanDetail(nil), p.Details...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestedAt.Before(out[j].RequestedAt) })
	return out, nil
}

// SavePlan stores the plan with its details replaced wholesale.
func (s *Store) SavePlan(_ context.Context, p *leave.PlanRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	cp.Details = append([]leave.PlanDetail(nil), p.Details...)
	s.plans[p.ID] = cp
	return nil
}

func (s *Store) DeletePlan(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.plans[id]; !ok {
		return leave.ErrNotFound
	}
	delete(s.plans, id)
	return nil
}

// =============================================================================
// LEAVE TYPE CATALOG
// =============================================================================

func (s *Store) ActiveLeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []leave.LeaveType
	for _, lt := range s.leaveTypes {
		if lt.Active {
			out = append(out, lt)
		}
	}
	return out, nil
}

func (s *Store) LeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]leave.LeaveType(nil), s.leaveTypes...), nil
}

func (s *Store) PutLeaveType(_ context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.leaveTypes {
		if s.leaveTypes[i].ID == lt.ID {
			s.leaveTypes[i] = lt
			return nil
		}
	}
	s.leaveTypes = append(s.leaveTypes, lt)
	return nil
}

func (s *Store) DeleteLeaveType(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.leaveTypes {
		if s.leaveTypes[i].ID == id {
			s.leaveTypes = append(s.leaveTypes[:i], s.leaveTypes[i+1:]...)
			return nil
		}
	}
	return leave.ErrNotFound
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) HolidaysInYear(_ context.Context, year int) (map[time.Time]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[time.Time]bool)
	for _, h := range s.holidays {
		if h.Date.Year() == year {
			out[leave.DateOnly(h.Date)] = true
		}
	}
	return out, nil
}

func (s *Store) Holidays(_ context.Context) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]leave.Holiday(nil), s.holidays...), nil
}

func (s *Store) PutHoliday(_ context.Context, h leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h.Date = leave.DateOnly(h.Date)
	for i := range s.holidays {
		if s.holidays[i].ID == h.ID {
			s.holidays[i] = h
			return nil
		}
	}
	s.holidays = append(s.holidays, h)
	return nil
}

func (s *Store) DeleteHoliday(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.holidays {
		if s.holidays[i].ID == id {
			s.holidays = append(s.holidays[:i], s.holidays[i+1:]...)
			return nil
		}
	}
	return leave.ErrNotFound
}

// =============================================================================
// POLICIES
// =============================================================================

func (s *Store) ActivePolicies(_ context.Context) ([]leave.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []leave.Policy
	for _, p := range s.policies {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) Policies(_ context.Context) ([]leave.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]leave.Policy(nil), s.policies...), nil
}

func (s *Store) PutPolicy(_ context.Context, p leave.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.policies {
		if s.policies[i].ID == p.ID {
			s.policies[i] = p
			return nil
		}
	}
	s.policies = append(s.policies, p)
	return nil
}

func (s *Store) DeletePolicy(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.policies {
		if s.policies[i].ID == id {
			s.policies = append(s.policies[:i], s.policies[i+1:]...)
			return nil
		}
	}
	return leave.ErrNotFound
}

// =============================================================================
// TEAMS
// =============================================================================

func (s *Store) TeamSize(_ context.Context, teamID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, t := range s.members {
		if t == teamID {
			n++
		}
	}
	return n, nil
}

func (s *Store) TeamOwner(_ context.Context, teamID uuid.UUID) (uuid.UUID, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[teamID]
	if !ok || t.OwnerID == uuid.Nil {
		return uuid.Nil, false, nil
	}
	return t.OwnerID, true, nil
}

func (s *Store) Teams(_ context.Context) ([]leave.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []leave.Team
	for _, t := range s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) PutTeam(_ context.Context, t leave.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[t.ID] = t
	return nil
}

func (s *Store) DeleteTeam(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[id]; !ok {
		return leave.ErrNotFound
	}
	delete(s.teams, id)
	return nil
}

// SetMember assigns a user to a team (the team roster).
func (s *Store) SetMember(_ context.Context, userID, teamID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[userID] = teamID
	return nil
}

// =============================================================================
// COMMITTED LEAVE
// =============================================================================

// TeamLeaveDates counts committed leave per date: every plan detail of the
// team's plans for the year, plus each day of approved/pending single
// requests.
func (s *Store) TeamLeaveDates(_ context.Context, teamID uuid.UUID, year int) (map[time.Time]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[time.Time]int)
	for _, p := range s.plans {
		if p.TeamID != teamID || p.Year != year {
			continue
		}
		for _, d := range p.Details {
			out[leave.DateOnly(d.LeaveDate)]++
		}
	}
	for _, r := range s.requests {
		if r.TeamID != teamID || r.Year != year {
			continue
		}
		if r.Status != leave.StatusApproved && r.Status != leave.StatusPending {
			continue
		}
		for d := leave.DateOnly(r.StartDate); !d.After(leave.DateOnly(r.EndDate)); d = d.AddDate(0, 0, 1) {
			out[d]++
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONS - Snapshot and restore of the mutable row maps
// =============================================================================

func (s *Store) WithTx(_ context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := fn(&txView{parent: s}); err != nil {
		s.mu.Lock()
		s.restoreLocked(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type rowSnapshot struct {
	balances map[uuid.UUID]leave.Balance
	requests map[uuid.UUID]leave.Request
	plans    map[uuid.UUID]leave.PlanRequest
}

func (s *Store) snapshotLocked() rowSnapshot {
	snap := rowSnapshot{
		balances: make(map[uuid.UUID]leave.Balance, len(s.balances)),
		requests: make(map[uuid.UUID]leave.Request, len(s.requests)),
		plans:    make(map[uuid.UUID]leave.PlanRequest, len(s.plans)),
	}
	for k, v := range s.balances {
		snap.balances[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	for k, v := range s.plans {
		cp := v
		cp.Details = append([]leave.PlanDetail(nil), v.Details...)
		snap.plans[k] = cp
	}
	return snap
}

func (s *Store) restoreLocked(snap rowSnapshot) {
	s.balances = snap.balances
	s.requests = snap.requests
	s.plans = snap.plans
}

// txView forwards to the parent store. Writes inside the transaction are
// visible immediately; the snapshot taken by WithTx rolls them back on
// error.
type txView struct {
	parent *Store
}

func (v *txView) BalanceByKey(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int) (*leave.Balance, error) {
	return v.parent.BalanceByKey(ctx, ownerID, leaveTypeID, year)
}
func (v *txView) BalancesByOwner(ctx context.Context, ownerID uuid.UUID, year int) ([]leave.Balance, error) {
	return v.parent.BalancesByOwner(ctx, ownerID, year)
}
func (v *txView) SaveBalance(ctx context.Context, b *leave.Balance) error {
	return v.parent.SaveBalance(ctx, b)
}
func (v *txView) RequestByID(ctx context.Context, id uuid.UUID) (*leave.Request, error) {
	return v.parent.RequestByID(ctx, id)
}
func (v *txView) RequestsByOwner(ctx context.Context, ownerID uuid.UUID) ([]leave.Request, error) {
	return v.parent.RequestsByOwner(ctx, ownerID)
}
func (v *txView) SaveRequest(ctx context.Context, r *leave.Request) error {
	return v.parent.SaveRequest(ctx, r)
}
func (v *txView) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return v.parent.DeleteRequest(ctx, id)
}
func (v *txView) PlanByID(ctx context.Context, id uuid.UUID) (*leave.PlanRequest, error) {
	return v.parent.PlanByID(ctx, id)
}
func (v *txView) PlansByOwner(ctx context.Context, ownerID uuid.UUID) ([]leave.PlanRequest, error) {
	return v.parent.PlansByOwner(ctx, ownerID)
}
func (v *txView) SavePlan(ctx context.Context, p *leave.PlanRequest) error {
	return v.parent.SavePlan(ctx, p)
}
func (v *txView) DeletePlan(ctx context.Context, id uuid.UUID) error {
	return v.parent.DeletePlan(ctx, id)
}
func (v *txView) ActiveLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	return v.parent.ActiveLeaveTypes(ctx)
}
