/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements leave.TxStore, the collaborator lookups and the reference-data
  CRUD over a single SQLite database via sqlx. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

ATOMIC BOUNDARIES:
  WithTx opens a real database transaction; every ledger debit/credit and
  every workflow state transition runs inside one, so a failed submit
  leaves both the balance row and the request row untouched.

KEY TABLES:
  leave_balances:      one row per (owner, leave type, year), UNIQUE key
  leave_requests:      single date-range requests
  leave_plan_requests: multi-date plans (header)
  leave_plan_details:  plan dates, owned by the plan, replaced wholesale
  leave_types, teams, team_members, public_holidays, policies: reference

WAL MODE:
  The database is opened with WAL and foreign keys enabled. Use ":memory:"
  for tests.

MIGRATION:
  Schema is auto-migrated on Open(). The schema is embedded; a versioned
  migration tool is unnecessary at this size.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/meridian/leave-engine/leave"
)

// =============================================================================
// STORE
// =============================================================================

// Store implements leave.TxStore plus the collaborator and reference
// surfaces over SQLite.
type Store struct {
	queries
	db *sqlx.DB
}

// Open connects to the database at path and migrates the schema.
// Use ":memory:" for an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent transactions.
	db.SetMaxOpenConns(1)

	s := &Store{queries: queries{ext: db}, db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

var _ leave.TxStore = (*Store)(nil)
var _ leave.HolidayCalendar = (*Store)(nil)
var _ leave.PolicyCatalog = (*Store)(nil)
var _ leave.TeamDirectory = (*Store)(nil)
var _ leave.CommittedLeave = (*Store)(nil)

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		entitlement TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner_id TEXT
	);

	CREATE TABLE IF NOT EXISTS team_members (
		user_id TEXT PRIMARY KEY,
		team_id TEXT NOT NULL REFERENCES teams(id)
	);
	CREATE INDEX IF NOT EXISTS idx_team_members_team ON team_members(team_id);

	CREATE TABLE IF NOT EXISTS public_holidays (
		id TEXT PRIMARY KEY,
		holiday_date TEXT NOT NULL,
		name TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_holidays_date ON public_holidays(holiday_date);

	CREATE TABLE IF NOT EXISTS policies (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		name TEXT NOT NULL,
		operation TEXT NOT NULL,
		value TEXT NOT NULL,
		score REAL NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS leave_balances (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		granted TEXT NOT NULL,
		taken TEXT NOT NULL,
		UNIQUE(owner_id, leave_type_id, year)
	);
	CREATE INDEX IF NOT EXISTS idx_balances_owner_year
		ON leave_balances(owner_id, year);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		team_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		requested_at TEXT NOT NULL,
		submitted_at TEXT,
		approver_id TEXT,
		approval_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_requests_owner ON leave_requests(owner_id);
	CREATE INDEX IF NOT EXISTS idx_requests_team_year
		ON leave_requests(team_id, year, status);

	CREATE TABLE IF NOT EXISTS leave_plan_requests (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		team_id TEXT NOT NULL,
		leave_type_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		amount TEXT NOT NULL,
		status TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		requested_at TEXT NOT NULL,
		submitted_at TEXT,
		approver_id TEXT,
		approval_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_plans_owner ON leave_plan_requests(owner_id);
	CREATE INDEX IF NOT EXISTS idx_plans_team_year
		ON leave_plan_requests(team_id, year);

	CREATE TABLE IF NOT EXISTS leave_plan_details (
		id TEXT PRIMARY KEY,
		plan_id TEXT NOT NULL REFERENCES leave_plan_requests(id) ON DELETE CASCADE,
		leave_date TEXT NOT NULL,
		UNIQUE(plan_id, leave_date)
	);
	CREATE INDEX IF NOT EXISTS idx_plan_details_plan ON leave_plan_details(plan_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// WithTx runs fn against a transactional view of the store.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(queries{ext: tx}); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// =============================================================================
// ROW TYPES - database shapes, converted at the boundary
// =============================================================================

const (
	dateFormat = "2006-01-02"
	timeFormat = time.RFC3339Nano
)

type balanceRow struct {
	ID          string `db:"id"`
	OwnerID     string `db:"owner_id"`
	LeaveTypeID string `db:"leave_type_id"`
	Year        int    `db:"year"`
	Granted     string `db:"granted"`
	Taken       string `db:"taken"`
}

func (r balanceRow) domain() (leave.Balance, error) {
	granted, err := decimal.NewFromString(r.Granted)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("balance %s: bad granted %q: %w", r.ID, r.Granted, err)
	}
	taken, err := decimal.NewFromString(r.Taken)
	if err != nil {
		return leave.Balance{}, fmt.Errorf("balance %s: bad taken %q: %w", r.ID, r.Taken, err)
	}
	return leave.Balance{
		ID:          uuid.MustParse(r.ID),
		OwnerID:     uuid.MustParse(r.OwnerID),
		LeaveTypeID: uuid.MustParse(r.LeaveTypeID),
		Year:        r.Year,
		Granted:     granted,
		Taken:       taken,
	}, nil
}

type requestRow struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	TeamID      string         `db:"team_id"`
	LeaveTypeID string         `db:"leave_type_id"`
	Year        int            `db:"year"`
	StartDate   string         `db:"start_date"`
	EndDate     string         `db:"end_date"`
	Amount      string         `db:"amount"`
	Status      string         `db:"status"`
	Description string         `db:"description"`
	RequestedAt string         `db:"requested_at"`
	SubmittedAt sql.NullString `db:"submitted_at"`
	ApproverID  sql.NullString `db:"approver_id"`
	ApprovalAt  sql.NullString `db:"approval_at"`
}

func (r requestRow) domain() (leave.Request, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s: bad amount %q: %w", r.ID, r.Amount, err)
	}
	start, err := time.Parse(dateFormat, r.StartDate)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s: bad start date: %w", r.ID, err)
	}
	end, err := time.Parse(dateFormat, r.EndDate)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s: bad end date: %w", r.ID, err)
	}
	requestedAt, err := time.Parse(timeFormat, r.RequestedAt)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s: bad requested_at: %w", r.ID, err)
	}
	out := leave.Request{
		ID:          uuid.MustParse(r.ID),
		OwnerID:     uuid.MustParse(r.OwnerID),
		TeamID:      uuid.MustParse(r.TeamID),
		LeaveTypeID: uuid.MustParse(r.LeaveTypeID),
		Year:        r.Year,
		StartDate:   start,
		EndDate:     end,
		Amount:      amount,
		Status:      leave.Status(r.Status),
		Description: r.Description,
		RequestedAt: requestedAt,
	}
	out.SubmittedAt, err = nullTime(r.SubmittedAt)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s: bad submitted_at: %w", r.ID, err)
	}
	out.ApprovalAt, err = nullTime(r.ApprovalAt)
	if err != nil {
		return leave.Request{}, fmt.Errorf("request %s: bad approval_at: %w", r.ID, err)
	}
	out.ApproverID = nullUUID(r.ApproverID)
	return out, nil
}

type planRow struct {
	ID          string         `db:"id"`
	OwnerID     string         `db:"owner_id"`
	TeamID      string         `db:"team_id"`
	LeaveTypeID string         `db:"leave_type_id"`
	Year        int            `db:"year"`
	Amount      string         `db:"amount"`
	Status      string         `db:"status"`
	Description string         `db:"description"`
	RequestedAt string         `db:"requested_at"`
	SubmittedAt sql.NullString `db:"submitted_at"`
	ApproverID  sql.NullString `db:"approver_id"`
	ApprovalAt  sql.NullString `db:"approval_at"`
}

func (r planRow) domain() (leave.PlanRequest, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return leave.PlanRequest{}, fmt.Errorf("plan %s: bad amount %q: %w", r.ID, r.Amount, err)
	}
	requestedAt, err := time.Parse(timeFormat, r.RequestedAt)
	if err != nil {
		return leave.PlanRequest{}, fmt.Errorf("plan %s: bad requested_at: %w", r.ID, err)
	}
	out := leave.PlanRequest{
		ID:          uuid.MustParse(r.ID),
		OwnerID:     uuid.MustParse(r.OwnerID),
		TeamID:      uuid.MustParse(r.TeamID),
		LeaveTypeID: uuid.MustParse(r.LeaveTypeID),
		Year:        r.Year,
		Amount:      amount,
		Status:      leave.Status(r.Status),
		Description: r.Description,
		RequestedAt: requestedAt,
	}
	out.SubmittedAt, err = nullTime(r.SubmittedAt)
	if err != nil {
		return leave.PlanRequest{}, fmt.Errorf("plan %s: bad submitted_at: %w", r.ID, err)
	}
	out.ApprovalAt, err = nullTime(r.ApprovalAt)
	if err != nil {
		return leave.PlanRequest{}, fmt.Errorf("plan %s: bad approval_at: %w", r.ID, err)
	}
	out.ApproverID = nullUUID(r.ApproverID)
	return out, nil
}

type detailRow struct {
	ID        string `db:"id"`
	PlanID    string `db:"plan_id"`
	LeaveDate string `db:"leave_date"`
}

type leaveTypeRow struct {
	ID          string `db:"id"`
	Code        string `db:"code"`
	Name        string `db:"name"`
	Entitlement string `db:"entitlement"`
	Active      bool   `db:"active"`
	Position    int    `db:"position"`
}

func (r leaveTypeRow) domain() (leave.LeaveType, error) {
	ent, err := decimal.NewFromString(r.Entitlement)
	if err != nil {
		return leave.LeaveType{}, fmt.Errorf("leave type %s: bad entitlement %q: %w", r.ID, r.Entitlement, err)
	}
	return leave.LeaveType{
		ID:          uuid.MustParse(r.ID),
		Code:        r.Code,
		Name:        r.Name,
		Entitlement: ent,
		Active:      r.Active,
	}, nil
}

type policyRow struct {
	ID        string  `db:"id"`
	Code      string  `db:"code"`
	Name      string  `db:"name"`
	Operation string  `db:"operation"`
	Value     string  `db:"value"`
	Score     float64 `db:"score"`
	Active    bool    `db:"active"`
}

func (r policyRow) domain() leave.Policy {
	return leave.Policy{
		ID:        uuid.MustParse(r.ID),
		Code:      r.Code,
		Name:      r.Name,
		Operation: r.Operation,
		Value:     r.Value,
		Score:     r.Score,
		Active:    r.Active,
	}
}

func nullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(timeFormat, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullUUID(s sql.NullString) *uuid.UUID {
	if !s.Valid || s.String == "" {
		return nil
	}
	id := uuid.MustParse(s.String)
	return &id
}

func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeFormat)
}

func optUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

// =============================================================================
// QUERIES - shared by the store and its transactional views
// =============================================================================

type queries struct {
	ext sqlx.ExtContext
}

var _ leave.Store = queries{}

// ----- balances -----

func (q queries) BalanceByKey(ctx context.Context, ownerID, leaveTypeID uuid.UUID, year int) (*leave.Balance, error) {
	var row balanceRow
	err := sqlx.GetContext(ctx, q.ext, &row, `
		SELECT id, owner_id, leave_type_id, year, granted, taken
		FROM leave_balances
		WHERE owner_id = ? AND leave_type_id = ? AND year = ?`,
		ownerID.String(), leaveTypeID.String(), year)
	if err == sql.ErrNoRows {
		return nil, leave.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b, err := row.domain()
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (q queries) BalancesByOwner(ctx context.Context, ownerID uuid.UUID, year int) ([]leave.Balance, error) {
	var rows []balanceRow
	err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT id, owner_id, leave_type_id, year, granted, taken
		FROM leave_balances
		WHERE owner_id = ? AND year = ?
		ORDER BY leave_type_id`,
		ownerID.String(), year)
	if err != nil {
		return nil, err
	}
	out := make([]leave.Balance, 0, len(rows))
	for _, r := range rows {
		b, err := r.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (q queries) SaveBalance(ctx context.Context, b *leave.Balance) error {
	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO leave_balances (id, owner_id, leave_type_id, year, granted, taken)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET granted = excluded.granted, taken = excluded.taken`,
		b.ID.String(), b.OwnerID.String(), b.LeaveTypeID.String(), b.Year,
		b.Granted.String(), b.Taken.String())
	return err
}

// ----- requests -----

const requestColumns = `id, owner_id, team_id, leave_type_id, year, start_date,
	end_date, amount, status, description, requested_at, submitted_at,
	approver_id, approval_at`

func (q queries) RequestByID(ctx context.Context, id uuid.UUID) (*leave.Request, error) {
	var row requestRow
	err := sqlx.GetContext(ctx, q.ext, &row,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, id.String())
	if err == sql.ErrNoRows {
		return nil, leave.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	r, err := row.domain()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (q queries) RequestsByOwner(ctx context.Context, ownerID uuid.UUID) ([]leave.Request, error) {
	var rows []requestRow
	err := sqlx.SelectContext(ctx, q.ext, &rows,
		`SELECT `+requestColumns+` FROM leave_requests WHERE owner_id = ? ORDER BY requested_at`,
		ownerID.String())
	if err != nil {
		return nil, err
	}
	out := make([]leave.Request, 0, len(rows))
	for _, row := range rows {
		r, err := row.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func (q queries) SaveRequest(ctx context.Context, r *leave.Request) error {
	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO leave_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			amount = excluded.amount,
			status = excluded.status,
			description = excluded.description,
			submitted_at = excluded.submitted_at,
			approver_id = excluded.approver_id,
			approval_at = excluded.approval_at,
			year = excluded.year`,
		r.ID.String(), r.OwnerID.String(), r.TeamID.String(), r.LeaveTypeID.String(),
		r.Year, r.StartDate.Format(dateFormat), r.EndDate.Format(dateFormat),
		r.Amount.String(), string(r.Status), r.Description,
		r.RequestedAt.UTC().Format(timeFormat),
		optTime(r.SubmittedAt), optUUID(r.ApproverID), optTime(r.ApprovalAt))
	return err
}

func (q queries) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	res, err := q.ext.ExecContext(ctx, `DELETE FROM leave_requests WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrNotFound
	}
	return nil
}

// ----- plans -----

const planColumns = `id, owner_id, team_id, leave_type_id, year, amount,
	status, description, requested_at, submitted_at, approver_id, approval_at`

func (q queries) PlanByID(ctx context.Context, id uuid.UUID) (*leave.PlanRequest, error) {
	var row planRow
	err := sqlx.GetContext(ctx, q.ext, &row,
		`SELECT `+planColumns+` FROM leave_plan_requests WHERE id = ?`, id.String())
	if err == sql.ErrNoRows {
		return nil, leave.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p, err := row.domain()
	if err != nil {
		return nil, err
	}
	if p.Details, err = q.planDetails(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (q queries) PlansByOwner(ctx context.Context, ownerID uuid.UUID) ([]leave.PlanRequest, error) {
	var rows []planRow
	err := sqlx.SelectContext(ctx, q.ext, &rows,
		`SELECT `+planColumns+` FROM leave_plan_requests WHERE owner_id = ? ORDER BY requested_at`,
		ownerID.String())
	if err != nil {
		return nil, err
	}
	out := make([]leave.PlanRequest, 0, len(rows))
	for _, row := range rows {
		p, err := row.domain()
		if err != nil {
			return nil, err
		}
		if p.Details, err = q.planDetails(ctx, p.ID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (q queries) planDetails(ctx context.Context, planID uuid.UUID) ([]leave.PlanDetail, error) {
	var rows []detailRow
	err := sqlx.SelectContext(ctx, q.ext, &rows,
		`SELECT id, plan_id, leave_date FROM leave_plan_details
		 WHERE plan_id = ? ORDER BY leave_date`, planID.String())
	if err != nil {
		return nil, err
	}
	out := make([]leave.PlanDetail, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(dateFormat, r.LeaveDate)
		if err != nil {
			return nil, fmt.Errorf("plan detail %s: bad leave_date: %w", r.ID, err)
		}
		out = append(out, leave.PlanDetail{
			ID:        uuid.MustParse(r.ID),
			PlanID:    uuid.MustParse(r.PlanID),
			LeaveDate: date,
		})
	}
	return out, nil
}

// SavePlan upserts the header and replaces the detail rows wholesale.
func (q queries) SavePlan(ctx context.Context, p *leave.PlanRequest) error {
	_, err := q.ext.ExecContext(ctx, `
		INSERT INTO leave_plan_requests (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			status = excluded.status,
			description = excluded.description,
			submitted_at = excluded.submitted_at,
			approver_id = excluded.approver_id,
			approval_at = excluded.approval_at,
			year = excluded.year`,
		p.ID.String(), p.OwnerID.String(), p.TeamID.String(), p.LeaveTypeID.String(),
		p.Year, p.Amount.String(), string(p.Status), p.Description,
		p.RequestedAt.UTC().Format(timeFormat),
		optTime(p.SubmittedAt), optUUID(p.ApproverID), optTime(p.ApprovalAt))
	if err != nil {
		return err
	}

	if _, err := q.ext.ExecContext(ctx,
		`DELETE FROM leave_plan_details WHERE plan_id = ?`, p.ID.String()); err != nil {
		return err
	}
	for _, d := range p.Details {
		if _, err := q.ext.ExecContext(ctx, `
			INSERT INTO leave_plan_details (id, plan_id, leave_date)
			VALUES (?, ?, ?)`,
			d.ID.String(), p.ID.String(), d.LeaveDate.Format(dateFormat)); err != nil {
			return err
		}
	}
	return nil
}

func (q queries) DeletePlan(ctx context.Context, id uuid.UUID) error {
	res, err := q.ext.ExecContext(ctx, `DELETE FROM leave_plan_requests WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrNotFound
	}
	return nil
}

// ----- leave type catalog -----

func (q queries) ActiveLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	var rows []leaveTypeRow
	err := sqlx.SelectContext(ctx, q.ext, &rows, `
		SELECT id, code, name, entitlement, active, position
		FROM leave_types WHERE active ORDER BY position, code`)
	if err != nil {
		return nil, err
	}
	out := make([]leave.LeaveType, 0, len(rows))
	for _, r := range rows {
		lt, err := r.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, nil
}

// =============================================================================
// COLLABORATORS
// =============================================================================

func (s *Store) HolidaysInYear(ctx context.Context, year int) (map[time.Time]bool, error) {
	var dates []string
	err := sqlx.SelectContext(ctx, s.db, &dates, `
		SELECT holiday_date FROM public_holidays
		WHERE holiday_date BETWEEN ? AND ?`,
		fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		t, err := time.Parse(dateFormat, d)
		if err != nil {
			return nil, fmt.Errorf("holiday: bad date %q: %w", d, err)
		}
		out[t] = true
	}
	return out, nil
}

func (s *Store) ActivePolicies(ctx context.Context) ([]leave.Policy, error) {
	var rows []policyRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT id, code, name, operation, value, score, active
		FROM policies WHERE active ORDER BY position, code`)
	if err != nil {
		return nil, err
	}
	out := make([]leave.Policy, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) TeamSize(ctx context.Context, teamID uuid.UUID) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, s.db, &n,
		`SELECT COUNT(*) FROM team_members WHERE team_id = ?`, teamID.String())
	return n, err
}

func (s *Store) TeamOwner(ctx context.Context, teamID uuid.UUID) (uuid.UUID, bool, error) {
	var owner sql.NullString
	err := sqlx.GetContext(ctx, s.db, &owner,
		`SELECT owner_id FROM teams WHERE id = ?`, teamID.String())
	if err == sql.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	if !owner.Valid || owner.String == "" {
		return uuid.Nil, false, nil
	}
	return uuid.MustParse(owner.String), true, nil
}

// TeamLeaveDates counts committed leave per date: the team's plan detail
// dates for the year plus each day of its approved and pending requests.
func (s *Store) TeamLeaveDates(ctx context.Context, teamID uuid.UUID, year int) (map[time.Time]int, error) {
	out := make(map[time.Time]int)

	var detailDates []string
	err := sqlx.SelectContext(ctx, s.db, &detailDates, `
		SELECT d.leave_date
		FROM leave_plan_details d
		JOIN leave_plan_requests p ON p.id = d.plan_id
		WHERE p.team_id = ? AND p.year = ?`, teamID.String(), year)
	if err != nil {
		return nil, err
	}
	for _, d := range detailDates {
		t, err := time.Parse(dateFormat, d)
		if err != nil {
			return nil, fmt.Errorf("plan detail: bad date %q: %w", d, err)
		}
		out[t]++
	}

	type span struct {
		Start string `db:"start_date"`
		End   string `db:"end_date"`
	}
	var spans []span
	err = sqlx.SelectContext(ctx, s.db, &spans, `
		SELECT start_date, end_date FROM leave_requests
		WHERE team_id = ? AND year = ? AND status IN (?, ?)`,
		teamID.String(), year, string(leave.StatusApproved), string(leave.StatusPending))
	if err != nil {
		return nil, err
	}
	for _, sp := range spans {
		start, err := time.Parse(dateFormat, sp.Start)
		if err != nil {
			return nil, fmt.Errorf("request: bad start date %q: %w", sp.Start, err)
		}
		end, err := time.Parse(dateFormat, sp.End)
		if err != nil {
			return nil, fmt.Errorf("request: bad end date %q: %w", sp.End, err)
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			out[d]++
		}
	}
	return out, nil
}

// =============================================================================
// REFERENCE DATA CRUD
// =============================================================================

func (s *Store) LeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	var rows []leaveTypeRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT id, code, name, entitlement, active, position
		FROM leave_types ORDER BY position, code`)
	if err != nil {
		return nil, err
	}
	out := make([]leave.LeaveType, 0, len(rows))
	for _, r := range rows {
		lt, err := r.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, lt)
	}
	return out, nil
}

func (s *Store) PutLeaveType(ctx context.Context, lt leave.LeaveType) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_types (id, code, name, entitlement, active, position)
		VALUES (?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM leave_types))
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			entitlement = excluded.entitlement,
			active = excluded.active`,
		lt.ID.String(), lt.Code, lt.Name, lt.Entitlement.String(), lt.Active)
	return err
}

func (s *Store) DeleteLeaveType(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leave_types WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrNotFound
	}
	return nil
}

func (s *Store) Holidays(ctx context.Context) ([]leave.Holiday, error) {
	type holidayRow struct {
		ID   string `db:"id"`
		Date string `db:"holiday_date"`
		Name string `db:"name"`
	}
	var rows []holidayRow
	err := sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT id, holiday_date, name FROM public_holidays ORDER BY holiday_date`)
	if err != nil {
		return nil, err
	}
	out := make([]leave.Holiday, 0, len(rows))
	for _, r := range rows {
		t, err := time.Parse(dateFormat, r.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %s: bad date: %w", r.ID, err)
		}
		out = append(out, leave.Holiday{ID: uuid.MustParse(r.ID), Date: t, Name: r.Name})
	}
	return out, nil
}

func (s *Store) PutHoliday(ctx context.Context, h leave.Holiday) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public_holidays (id, holiday_date, name)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			holiday_date = excluded.holiday_date,
			name = excluded.name`,
		h.ID.String(), leave.DateOnly(h.Date).Format(dateFormat), h.Name)
	return err
}

func (s *Store) DeleteHoliday(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM public_holidays WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrNotFound
	}
	return nil
}

func (s *Store) Policies(ctx context.Context) ([]leave.Policy, error) {
	var rows []policyRow
	err := sqlx.SelectContext(ctx, s.db, &rows, `
		SELECT id, code, name, operation, value, score, active
		FROM policies ORDER BY position, code`)
	if err != nil {
		return nil, err
	}
	out := make([]leave.Policy, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

func (s *Store) PutPolicy(ctx context.Context, p leave.Policy) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO policies (id, code, name, operation, value, score, active, position)
		VALUES (?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), 0) + 1 FROM policies))
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			operation = excluded.operation,
			value = excluded.value,
			score = excluded.score,
			active = excluded.active`,
		p.ID.String(), p.Code, p.Name, p.Operation, p.Value, p.Score, p.Active)
	return err
}

func (s *Store) DeletePolicy(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrNotFound
	}
	return nil
}

func (s *Store) Teams(ctx context.Context) ([]leave.Team, error) {
	type teamRow struct {
		ID      string         `db:"id"`
		Name    string         `db:"name"`
		OwnerID sql.NullString `db:"owner_id"`
	}
	var rows []teamRow
	err := sqlx.SelectContext(ctx, s.db, &rows,
		`SELECT id, name, owner_id FROM teams ORDER BY name`)
	if err != nil {
		return nil, err
	}
	out := make([]leave.Team, 0, len(rows))
	for _, r := range rows {
		t := leave.Team{ID: uuid.MustParse(r.ID), Name: r.Name}
		if r.OwnerID.Valid && r.OwnerID.String != "" {
			t.OwnerID = uuid.MustParse(r.OwnerID.String)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) PutTeam(ctx context.Context, t leave.Team) error {
	var owner any
	if t.OwnerID != uuid.Nil {
		owner = t.OwnerID.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teams (id, name, owner_id)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			owner_id = excluded.owner_id`,
		t.ID.String(), t.Name, owner)
	return err
}

func (s *Store) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return leave.ErrNotFound
	}
	return nil
}

// SetMember assigns a user to a team, moving them if already assigned.
func (s *Store) SetMember(ctx context.Context, userID, teamID uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_members (user_id, team_id)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET team_id = excluded.team_id`,
		userID.String(), teamID.String())
	return err
}
