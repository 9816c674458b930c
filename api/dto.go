/*
dto.go - Request/response data structures

PURPOSE:
  Wire shapes for the REST API. Incoming bodies are validated with
  go-playground/validator before any domain call; outgoing DTOs format
  dates as YYYY-MM-DD and timestamps as RFC 3339.

CONVENTIONS:
  - UUIDs travel as strings and are parsed at the boundary
  - Amounts are decimal strings, never floats
  - Nullable workflow fields (submitted_at, approver_id, approval_at) are
    omitted until the workflow sets them
*/
package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian/leave-engine/leave"
	"github.com/meridian/leave-engine/recommend"
)

// =============================================================================
// REQUEST BODIES
// =============================================================================

// LeaveRequestBody creates or updates a single date-range request.
type LeaveRequestBody struct {
	LeaveTypeID string `json:"leave_type_id" validate:"required,uuid"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Description string `json:"description" validate:"max=500"`
}

// LeavePlanBody creates or updates a multi-date plan.
type LeavePlanBody struct {
	LeaveTypeID string   `json:"leave_type_id" validate:"required,uuid"`
	Dates       []string `json:"dates" validate:"required,min=1,dive,datetime=2006-01-02"`
	Description string   `json:"description" validate:"max=500"`
}

// GenerateBalancesBody initializes the actor's balance rows for a year.
type GenerateBalancesBody struct {
	Year int `json:"year" validate:"required,min=2000,max=2200"`
}

// LeaveTypeBody creates or updates a leave type.
type LeaveTypeBody struct {
	Code        string `json:"code" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=100"`
	Entitlement string `json:"entitlement" validate:"required"`
	Active      *bool  `json:"active"`
}

// HolidayBody creates or updates a public holiday.
type HolidayBody struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Name string `json:"name" validate:"required,max=100"`
}

// PolicyBody creates or updates a recommendation policy.
type PolicyBody struct {
	Code      string  `json:"code" validate:"required,max=50"`
	Name      string  `json:"name" validate:"required,max=100"`
	Operation string  `json:"operation" validate:"required,oneof=in > < >= <= =="`
	Value     string  `json:"value" validate:"required,max=100"`
	Score     float64 `json:"score" validate:"required"`
	Active    *bool   `json:"active"`
}

// TeamBody creates or updates a team.
type TeamBody struct {
	Name    string `json:"name" validate:"required,max=100"`
	OwnerID string `json:"owner_id" validate:"omitempty,uuid"`
}

// TeamMemberBody assigns a user to a team.
type TeamMemberBody struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// =============================================================================
// RESPONSE SHAPES
// =============================================================================

type RequestDTO struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"owner_id"`
	TeamID      string  `json:"team_id"`
	LeaveTypeID string  `json:"leave_type_id"`
	Year        int     `json:"year"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Amount      string  `json:"amount"`
	Status      string  `json:"status"`
	Description string  `json:"description,omitempty"`
	RequestedAt string  `json:"requested_at"`
	SubmittedAt *string `json:"submitted_at,omitempty"`
	ApproverID  *string `json:"approver_id,omitempty"`
	ApprovalAt  *string `json:"approval_at,omitempty"`
}

func toRequestDTO(r *leave.Request) RequestDTO {
	return RequestDTO{
		ID:          r.ID.String(),
		OwnerID:     r.OwnerID.String(),
		TeamID:      r.TeamID.String(),
		LeaveTypeID: r.LeaveTypeID.String(),
		Year:        r.Year,
		StartDate:   r.StartDate.Format(leave.DateLayout),
		EndDate:     r.EndDate.Format(leave.DateLayout),
		Amount:      r.Amount.String(),
		Status:      string(r.Status),
		Description: r.Description,
		RequestedAt: r.RequestedAt.UTC().Format(time.RFC3339),
		SubmittedAt: fmtTimePtr(r.SubmittedAt),
		ApproverID:  fmtUUIDPtr(r.ApproverID),
		ApprovalAt:  fmtTimePtr(r.ApprovalAt),
	}
}

type PlanDetailDTO struct {
	ID        string `json:"id"`
	LeaveDate string `json:"leave_date"`
}

type PlanDTO struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	TeamID      string          `json:"team_id"`
	LeaveTypeID string          `json:"leave_type_id"`
	Year        int             `json:"year"`
	Amount      string          `json:"amount"`
	Status      string          `json:"status"`
	Description string          `json:"description,omitempty"`
	RequestedAt string          `json:"requested_at"`
	SubmittedAt *string         `json:"submitted_at,omitempty"`
	ApproverID  *string         `json:"approver_id,omitempty"`
	ApprovalAt  *string         `json:"approval_at,omitempty"`
	Details     []PlanDetailDTO `json:"details"`
}

func toPlanDTO(p *leave.PlanRequest) PlanDTO {
	details := make([]PlanDetailDTO, len(p.Details))
	for i, d := range p.Details {
		details[i] = PlanDetailDTO{
			ID:        d.ID.String(),
			LeaveDate: d.LeaveDate.Format(leave.DateLayout),
		}
	}
	return PlanDTO{
		ID:          p.ID.String(),
		OwnerID:     p.OwnerID.String(),
		TeamID:      p.TeamID.String(),
		LeaveTypeID: p.LeaveTypeID.String(),
		Year:        p.Year,
		Amount:      p.Amount.String(),
		Status:      string(p.Status),
		Description: p.Description,
		RequestedAt: p.RequestedAt.UTC().Format(time.RFC3339),
		SubmittedAt: fmtTimePtr(p.SubmittedAt),
		ApproverID:  fmtUUIDPtr(p.ApproverID),
		ApprovalAt:  fmtTimePtr(p.ApprovalAt),
		Details:     details,
	}
}

type BalanceDTO struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	LeaveTypeID string `json:"leave_type_id"`
	Year        int    `json:"year"`
	Granted     string `json:"granted"`
	Taken       string `json:"taken"`
	Available   string `json:"available"`
}

func toBalanceDTO(b leave.Balance) BalanceDTO {
	return BalanceDTO{
		ID:          b.ID.String(),
		OwnerID:     b.OwnerID.String(),
		LeaveTypeID: b.LeaveTypeID.String(),
		Year:        b.Year,
		Granted:     b.Granted.String(),
		Taken:       b.Taken.String(),
		Available:   b.Available().String(),
	}
}

type LeaveTypeDTO struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Entitlement string `json:"entitlement"`
	Active      bool   `json:"active"`
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		ID:          lt.ID.String(),
		Code:        lt.Code,
		Name:        lt.Name,
		Entitlement: lt.Entitlement.String(),
		Active:      lt.Active,
	}
}

type HolidayDTO struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

func toHolidayDTO(h leave.Holiday) HolidayDTO {
	return HolidayDTO{ID: h.ID.String(), Date: h.Date.Format(leave.DateLayout), Name: h.Name}
}

type PolicyDTO struct {
	ID        string  `json:"id"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Operation string  `json:"operation"`
	Value     string  `json:"value"`
	Score     float64 `json:"score"`
	Active    bool    `json:"active"`
}

func toPolicyDTO(p leave.Policy) PolicyDTO {
	return PolicyDTO{
		ID:        p.ID.String(),
		Code:      p.Code,
		Name:      p.Name,
		Operation: p.Operation,
		Value:     p.Value,
		Score:     p.Score,
		Active:    p.Active,
	}
}

type TeamDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id,omitempty"`
}

func toTeamDTO(t leave.Team) TeamDTO {
	dto := TeamDTO{ID: t.ID.String(), Name: t.Name}
	if t.OwnerID != uuid.Nil {
		dto.OwnerID = t.OwnerID.String()
	}
	return dto
}

// RecommendDayDTO is one recommended leave day.
type RecommendDayDTO struct {
	LeaveTypeID    string  `json:"leave_type_id"`
	LeaveDate      string  `json:"leave_date"`
	DayOfYear      int     `json:"day_of_year"`
	Weekday        int     `json:"weekday"`
	IsHoliday      bool    `json:"is_holiday"`
	IsBridge       bool    `json:"is_bridge"`
	TeamWorkload   int     `json:"team_workload"`
	PredictedScore float64 `json:"predicted_score"`
}

func toRecommendDayDTO(d recommend.Day) RecommendDayDTO {
	return RecommendDayDTO{
		LeaveTypeID:    d.LeaveTypeID.String(),
		LeaveDate:      d.Date.Format(leave.DateLayout),
		DayOfYear:      d.DayOfYear,
		Weekday:        d.Weekday,
		IsHoliday:      d.IsHoliday,
		IsBridge:       d.IsBridge,
		TeamWorkload:   d.TeamWorkload,
		PredictedScore: d.PredictedScore,
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func fmtUUIDPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}
