/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the ledger, the approval workflow and the recommendation engine
  via REST. Handles HTTP request/response, JSON serialization, input
  validation, and delegates to domain logic.

REQUEST FLOW:
  1. Resolve the actor from X-User-ID / X-Team-ID
  2. Decode and validate the body (go-playground/validator)
  3. Call domain logic (workflow, ledger, engine)
  4. Serialize response
  5. Map domain errors to HTTP status

ERROR HANDLING:
  - 400: validation errors, invalid ranges, insufficient balance,
         no approver, no plannable balance
  - 403: ownership/approver violations
  - 404: row not found
  - 409: wrong lifecycle state, duplicate plan dates
  - 500: everything else

SEE ALSO:
  - dto.go: request/response data structures
  - export.go: xlsx rendering of recommendations
  - server.go: router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meridian/leave-engine/leave"
	"github.com/meridian/leave-engine/recommend"
)

// =============================================================================
// STORE SURFACE
// =============================================================================

// Store is everything the API layer needs from persistence: the workflow's
// transactional store, the engine's collaborator lookups, and reference-data
// CRUD. Implemented by store/sqlite and store/memory.
type Store interface {
	leave.TxStore
	leave.HolidayCalendar
	leave.PolicyCatalog
	leave.TeamDirectory
	leave.CommittedLeave

	LeaveTypes(ctx context.Context) ([]leave.LeaveType, error)
	PutLeaveType(ctx context.Context, lt leave.LeaveType) error
	DeleteLeaveType(ctx context.Context, id uuid.UUID) error

	Holidays(ctx context.Context) ([]leave.Holiday, error)
	PutHoliday(ctx context.Context, h leave.Holiday) error
	DeleteHoliday(ctx context.Context, id uuid.UUID) error

	Policies(ctx context.Context) ([]leave.Policy, error)
	PutPolicy(ctx context.Context, p leave.Policy) error
	DeletePolicy(ctx context.Context, id uuid.UUID) error

	Teams(ctx context.Context) ([]leave.Team, error)
	PutTeam(ctx context.Context, t leave.Team) error
	DeleteTeam(ctx context.Context, id uuid.UUID) error
	SetMember(ctx context.Context, userID, teamID uuid.UUID) error
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    Store
	Workflow *leave.Workflow
	Ledger   *leave.LedgerService
	Engine   *recommend.Engine
	Log      zerolog.Logger

	validate *validator.Validate
}

// NewHandler wires the domain services over the given store.
func NewHandler(store Store, log zerolog.Logger) *Handler {
	return &Handler{
		Store:    store,
		Workflow: leave.NewWorkflow(store, store),
		Ledger:   &leave.LedgerService{Store: store},
		Engine:   recommend.NewEngine(store, store, store, store, store),
		Log:      log,
		validate: validator.New(),
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// ACTOR RESOLUTION
// =============================================================================

// actorFrom resolves the caller identity from the gateway headers.
func actorFrom(r *http.Request) (leave.Actor, error) {
	userID, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return leave.Actor{}, errors.New("missing or invalid X-User-ID header")
	}
	actor := leave.Actor{ID: userID}
	if raw := r.Header.Get("X-Team-ID"); raw != "" {
		teamID, err := uuid.Parse(raw)
		if err != nil {
			return leave.Actor{}, errors.New("invalid X-Team-ID header")
		}
		actor.TeamID = teamID
	}
	return actor, nil
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (leave.Actor, bool) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthenticated", err)
		return leave.Actor{}, false
	}
	return actor, true
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return uuid.Nil, false
	}
	return id, true
}

// decodeValid decodes the JSON body into dst and runs validator tags.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// =============================================================================
// SINGLE-DATE REQUEST HANDLERS
// =============================================================================

// ListRequests returns the actor's requests.
// GET /api/leave-requests
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	rows, err := h.Store.RequestsByOwner(r.Context(), actor.ID)
	if err != nil {
		h.internalError(w, "list requests", err)
		return
	}
	dtos := make([]RequestDTO, len(rows))
	for i := range rows {
		dtos[i] = toRequestDTO(&rows[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRequest returns one request. Only the owner or the approver may read it.
// GET /api/leave-requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := h.Store.RequestByID(r.Context(), id)
	if err != nil {
		h.domainError(w, "get request", err)
		return
	}
	if row.OwnerID != actor.ID && (row.ApproverID == nil || *row.ApproverID != actor.ID) {
		h.domainError(w, "get request", leave.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(row))
}

// CreateRequest creates a draft request for the actor.
// POST /api/leave-requests
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body LeaveRequestBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	in, err := requestInput(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	row, err := h.Workflow.CreateRequest(r.Context(), actor, in)
	if err != nil {
		h.domainError(w, "create request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(row))
}

// UpdateRequest edits a draft request.
// PUT /api/leave-requests/{id}
func (h *Handler) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body LeaveRequestBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	in, err := requestInput(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err)
		return
	}
	row, err := h.Workflow.UpdateRequest(r.Context(), actor, id, in)
	if err != nil {
		h.domainError(w, "update request", err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(row))
}

// DeleteRequest removes a draft request.
// DELETE /api/leave-requests/{id}
func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Workflow.DeleteRequest(r.Context(), actor, id); err != nil {
		h.domainError(w, "delete request", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitRequest moves a draft to pending and debits the ledger.
// POST /api/leave-requests/{id}/submit
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "submit request", h.Workflow.SubmitRequest)
}

// ApproveRequest finalizes a pending request.
// POST /api/leave-requests/{id}/approve
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve request", h.Workflow.ApproveRequest)
}

// RejectRequest rejects a pending request and refunds the debit.
// POST /api/leave-requests/{id}/reject
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "reject request", h.Workflow.RejectRequest)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, leave.Actor, uuid.UUID) (*leave.Request, error)) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := fn(r.Context(), actor, id)
	if err != nil {
		h.domainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequestDTO(row))
}

func requestInput(body LeaveRequestBody) (leave.RequestInput, error) {
	leaveTypeID, err := uuid.Parse(body.LeaveTypeID)
	if err != nil {
		return leave.RequestInput{}, err
	}
	start, err := leave.ParseDate(body.StartDate)
	if err != nil {
		return leave.RequestInput{}, err
	}
	end, err := leave.ParseDate(body.EndDate)
	if err != nil {
		return leave.RequestInput{}, err
	}
	return leave.RequestInput{
		LeaveTypeID: leaveTypeID,
		StartDate:   start,
		EndDate:     end,
		Description: body.Description,
	}, nil
}

// =============================================================================
// PLAN HANDLERS
// =============================================================================

// ListPlans returns the actor's plans.
// GET /api/leave-plan-requests
func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	rows, err := h.Store.PlansByOwner(r.Context(), actor.ID)
	if err != nil {
		h.internalError(w, "list plans", err)
		return
	}
	dtos := make([]PlanDTO, len(rows))
	for i := range rows {
		dtos[i] = toPlanDTO(&rows[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetPlan returns one plan with its details.
// GET /api/leave-plan-requests/{id}
func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := h.Store.PlanByID(r.Context(), id)
	if err != nil {
		h.domainError(w, "get plan", err)
		return
	}
	if row.OwnerID != actor.ID && (row.ApproverID == nil || *row.ApproverID != actor.ID) {
		h.domainError(w, "get plan", leave.ErrForbidden)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(row))
}

// CreatePlan creates a draft plan for the actor.
// POST /api/leave-plan-requests
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body LeavePlanBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	in, err := planInput(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}
	row, err := h.Workflow.CreatePlan(r.Context(), actor, in)
	if err != nil {
		h.domainError(w, "create plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanDTO(row))
}

// UpdatePlan replaces a draft plan's editable fields and its full date set.
// PUT /api/leave-plan-requests/{id}
func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body LeavePlanBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	in, err := planInput(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan", err)
		return
	}
	row, err := h.Workflow.UpdatePlan(r.Context(), actor, id, in)
	if err != nil {
		h.domainError(w, "update plan", err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(row))
}

// DeletePlan removes a draft plan and its details.
// DELETE /api/leave-plan-requests/{id}
func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Workflow.DeletePlan(r.Context(), actor, id); err != nil {
		h.domainError(w, "delete plan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitPlan moves a draft plan to pending.
// POST /api/leave-plan-requests/{id}/submit
func (h *Handler) SubmitPlan(w http.ResponseWriter, r *http.Request) {
	h.planTransition(w, r, "submit plan", h.Workflow.SubmitPlan)
}

// ApprovePlan finalizes a pending plan.
// POST /api/leave-plan-requests/{id}/approve
func (h *Handler) ApprovePlan(w http.ResponseWriter, r *http.Request) {
	h.planTransition(w, r, "approve plan", h.Workflow.ApprovePlan)
}

// RejectPlan rejects a pending plan.
// POST /api/leave-plan-requests/{id}/reject
func (h *Handler) RejectPlan(w http.ResponseWriter, r *http.Request) {
	h.planTransition(w, r, "reject plan", h.Workflow.RejectPlan)
}

func (h *Handler) planTransition(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, leave.Actor, uuid.UUID) (*leave.PlanRequest, error)) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	row, err := fn(r.Context(), actor, id)
	if err != nil {
		h.domainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanDTO(row))
}

func planInput(body LeavePlanBody) (leave.PlanInput, error) {
	leaveTypeID, err := uuid.Parse(body.LeaveTypeID)
	if err != nil {
		return leave.PlanInput{}, err
	}
	dates := make([]time.Time, len(body.Dates))
	for i, raw := range body.Dates {
		if dates[i], err = leave.ParseDate(raw); err != nil {
			return leave.PlanInput{}, err
		}
	}
	return leave.PlanInput{
		LeaveTypeID: leaveTypeID,
		Dates:       dates,
		Description: body.Description,
	}, nil
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// ListBalances returns the actor's ledger rows for a year (default: current).
// GET /api/leave-balances?year=2026
func (h *Handler) ListBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	year, ok := yearParam(w, r, time.Now().Year())
	if !ok {
		return
	}
	rows, err := h.Store.BalancesByOwner(r.Context(), actor.ID, year)
	if err != nil {
		h.internalError(w, "list balances", err)
		return
	}
	dtos := make([]BalanceDTO, len(rows))
	for i, b := range rows {
		dtos[i] = toBalanceDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GenerateBalances initializes the actor's balance rows for the requested
// year, one per active leave type. Idempotent.
// POST /api/leave-balances/generate
func (h *Handler) GenerateBalances(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	var body GenerateBalancesBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	if err := h.Ledger.EnsureInitialized(r.Context(), actor.ID, body.Year); err != nil {
		h.domainError(w, "generate balances", err)
		return
	}
	rows, err := h.Store.BalancesByOwner(r.Context(), actor.ID, body.Year)
	if err != nil {
		h.internalError(w, "generate balances", err)
		return
	}
	dtos := make([]BalanceDTO, len(rows))
	for i, b := range rows {
		dtos[i] = toBalanceDTO(b)
	}
	writeJSON(w, http.StatusCreated, dtos)
}

// =============================================================================
// RECOMMENDATION HANDLERS
// =============================================================================

// RecommendPlan returns the actor's recommended leave days for a year.
// GET /api/recommends/leave-plan?year=2026
func (h *Handler) RecommendPlan(w http.ResponseWriter, r *http.Request) {
	days, ok := h.recommendDays(w, r)
	if !ok {
		return
	}
	dtos := make([]RecommendDayDTO, len(days))
	for i, d := range days {
		dtos[i] = toRecommendDayDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) recommendDays(w http.ResponseWriter, r *http.Request) ([]recommend.Day, bool) {
	actor, ok := h.actor(w, r)
	if !ok {
		return nil, false
	}
	year, ok := yearParam(w, r, time.Now().Year())
	if !ok {
		return nil, false
	}
	days, err := h.Engine.Recommend(r.Context(), actor.ID, actor.TeamID, year)
	if err != nil {
		h.domainError(w, "recommend plan", err)
		return nil, false
	}
	return days, true
}

func yearParam(w http.ResponseWriter, r *http.Request, fallback int) (int, bool) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return fallback, true
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < 2000 || year > 2200 {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return 0, false
	}
	return year, true
}

// =============================================================================
// REFERENCE DATA HANDLERS
// =============================================================================

// ListLeaveTypes returns the full catalog including inactive types.
// GET /api/leave-types
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.LeaveTypes(r.Context())
	if err != nil {
		h.internalError(w, "list leave types", err)
		return
	}
	dtos := make([]LeaveTypeDTO, len(rows))
	for i, lt := range rows {
		dtos[i] = toLeaveTypeDTO(lt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateLeaveType adds a catalog entry.
// POST /api/leave-types
func (h *Handler) CreateLeaveType(w http.ResponseWriter, r *http.Request) {
	h.saveLeaveType(w, r, uuid.New(), http.StatusCreated)
}

// UpdateLeaveType replaces a catalog entry.
// PUT /api/leave-types/{id}
func (h *Handler) UpdateLeaveType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.saveLeaveType(w, r, id, http.StatusOK)
}

func (h *Handler) saveLeaveType(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var body LeaveTypeBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	ent, err := parseDecimal(body.Entitlement)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid entitlement", err)
		return
	}
	lt := leave.LeaveType{
		ID:          id,
		Code:        body.Code,
		Name:        body.Name,
		Entitlement: ent,
		Active:      body.Active == nil || *body.Active,
	}
	if err := h.Store.PutLeaveType(r.Context(), lt); err != nil {
		h.internalError(w, "save leave type", err)
		return
	}
	writeJSON(w, status, toLeaveTypeDTO(lt))
}

// DeleteLeaveType removes a catalog entry.
// DELETE /api/leave-types/{id}
func (h *Handler) DeleteLeaveType(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete leave type", h.Store.DeleteLeaveType)
}

// ListHolidays returns every configured holiday.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.Holidays(r.Context())
	if err != nil {
		h.internalError(w, "list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toHolidayDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var body HolidayBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	date, err := leave.ParseDate(body.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	holiday := leave.Holiday{ID: uuid.New(), Date: date, Name: body.Name}
	if err := h.Store.PutHoliday(r.Context(), holiday); err != nil {
		h.internalError(w, "save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// DeleteHoliday removes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete holiday", h.Store.DeleteHoliday)
}

// ListPolicies returns every policy including inactive ones.
// GET /api/policies
func (h *Handler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.Policies(r.Context())
	if err != nil {
		h.internalError(w, "list policies", err)
		return
	}
	dtos := make([]PolicyDTO, len(rows))
	for i, p := range rows {
		dtos[i] = toPolicyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePolicy adds a scoring policy. The rule is compiled against the
// feature schema up front so malformed policies never reach the catalog.
// POST /api/policies
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	h.savePolicy(w, r, uuid.New(), http.StatusCreated)
}

// UpdatePolicy replaces a scoring policy, re-validating the rule.
// PUT /api/policies/{id}
func (h *Handler) UpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.savePolicy(w, r, id, http.StatusOK)
}

func (h *Handler) savePolicy(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var body PolicyBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	p := leave.Policy{
		ID:        id,
		Code:      body.Code,
		Name:      body.Name,
		Operation: body.Operation,
		Value:     body.Value,
		Score:     body.Score,
		Active:    body.Active == nil || *body.Active,
	}
	// Compile with a nominal team size; percentage literals only need a
	// positive denominator to validate.
	if _, err := recommend.CompileRules([]leave.Policy{p}, 1); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid policy rule", err)
		return
	}
	if err := h.Store.PutPolicy(r.Context(), p); err != nil {
		h.internalError(w, "save policy", err)
		return
	}
	writeJSON(w, status, toPolicyDTO(p))
}

// DeletePolicy removes a policy.
// DELETE /api/policies/{id}
func (h *Handler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete policy", h.Store.DeletePolicy)
}

// ListTeams returns every team.
// GET /api/teams
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.Teams(r.Context())
	if err != nil {
		h.internalError(w, "list teams", err)
		return
	}
	dtos := make([]TeamDTO, len(rows))
	for i, t := range rows {
		dtos[i] = toTeamDTO(t)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateTeam adds a team.
// POST /api/teams
func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	h.saveTeam(w, r, uuid.New(), http.StatusCreated)
}

// UpdateTeam replaces a team's name and owner.
// PUT /api/teams/{id}
func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.saveTeam(w, r, id, http.StatusOK)
}

func (h *Handler) saveTeam(w http.ResponseWriter, r *http.Request, id uuid.UUID, status int) {
	var body TeamBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	t := leave.Team{ID: id, Name: body.Name}
	if body.OwnerID != "" {
		owner, err := uuid.Parse(body.OwnerID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid owner_id", err)
			return
		}
		t.OwnerID = owner
	}
	if err := h.Store.PutTeam(r.Context(), t); err != nil {
		h.internalError(w, "save team", err)
		return
	}
	writeJSON(w, status, toTeamDTO(t))
}

// DeleteTeam removes a team.
// DELETE /api/teams/{id}
func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "delete team", h.Store.DeleteTeam)
}

// AddTeamMember assigns a user to the team.
// POST /api/teams/{id}/members
func (h *Handler) AddTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r)
	if !ok {
		return
	}
	var body TeamMemberBody
	if !h.decodeValid(w, r, &body) {
		return
	}
	userID, err := uuid.Parse(body.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user_id", err)
		return
	}
	if err := h.Store.SetMember(r.Context(), userID, teamID); err != nil {
		h.internalError(w, "add team member", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteByID(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, uuid.UUID) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.domainError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// domainError maps core errors onto HTTP statuses.
func (h *Handler) domainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, leave.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", nil)
	case errors.Is(err, leave.ErrForbidden):
		writeError(w, http.StatusForbidden, "Forbidden", nil)
	case errors.Is(err, leave.ErrInvalidState):
		writeError(w, http.StatusConflict, "Invalid state", err)
	case errors.Is(err, leave.ErrDuplicateDate):
		writeError(w, http.StatusConflict, "Duplicate date", err)
	case errors.Is(err, leave.ErrInsufficientBalance):
		writeError(w, http.StatusBadRequest, "Insufficient balance", err)
	case errors.Is(err, leave.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, "Invalid date range", err)
	case errors.Is(err, leave.ErrNoApproverFound):
		writeError(w, http.StatusBadRequest, "No approver found", err)
	case errors.Is(err, leave.ErrNoBalanceAvailable):
		writeError(w, http.StatusBadRequest, "No balance available to plan", err)
	default:
		h.internalError(w, op, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.Log.Error().Err(err).Str("op", op).Msg("internal error")
	writeError(w, http.StatusInternalServerError, "Internal error", nil)
}
