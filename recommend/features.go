/*
features.go - The full-year feature table

PURPOSE:
  Builds one row per calendar day of the target year and derives the
  features the policies and the ranking model read: weekday, holiday flag,
  bridge flag, team workload, and the cumulative preference score.

STAGES (strictly ordered, each reads the previous stage's output):
  1. calendar      every date of the year, day_of_year, weekday (0=Monday)
  2. holidays      is_holiday = in calendar OR Saturday/Sunday
  3. bridge days   a non-holiday squeezed between two holidays
  4. workload      committed team leave days per date, default 0
  5. scoring       sum of matching rule scores, starting at 0

All inputs come in through the snapshot, an immutable per-invocation view of
the collaborator data. Stages are pure functions over it; the engine never
accumulates state across calls.
*/
package recommend

import (
	"time"

	"github.com/google/uuid"
	"github.com/meridian/leave-engine/leave"
)

// =============================================================================
// DAY - One feature-table row
// =============================================================================

type Day struct {
	LeaveTypeID     uuid.UUID `json:"leave_type_id"`
	Date            time.Time `json:"leave_date"`
	DayOfYear       int       `json:"day_of_year"`
	Weekday         int       `json:"weekday"` // 0=Monday ... 6=Sunday
	IsHoliday       bool      `json:"is_holiday"`
	IsBridge        bool      `json:"is_bridge"`
	TeamWorkload    int       `json:"team_workload"`
	PreferenceScore float64   `json:"preference_score"`
	PredictedScore  float64   `json:"predicted_score"`
}

// columnValue exposes a feature as a number for rule evaluation.
// Flags read as 1/0.
func (d Day) columnValue(col Column) float64 {
	switch col {
	case ColDayOfYear:
		return float64(d.DayOfYear)
	case ColWeekday:
		return float64(d.Weekday)
	case ColWorkload:
		return float64(d.TeamWorkload)
	case ColHoliday:
		return boolToFloat(d.IsHoliday)
	case ColBridge:
		return boolToFloat(d.IsBridge)
	}
	return 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// SNAPSHOT - Immutable per-invocation context
// =============================================================================

// snapshot is everything one Recommend invocation reads: collaborator data
// captured once, up front. Later stages take it explicitly instead of
// reaching into the engine.
type snapshot struct {
	year     int
	teamSize int
	holidays map[time.Time]bool
	workload map[time.Time]int
	rules    []Rule
}

// =============================================================================
// PIPELINE STAGES
// =============================================================================

// buildCalendar generates a row for every date of the year, in order.
func buildCalendar(year int) []Day {
	n := leave.DaysInYear(year)
	start := leave.StartOfYear(year)

	days := make([]Day, n)
	for i := 0; i < n; i++ {
		date := start.AddDate(0, 0, i)
		days[i] = Day{
			Date:      date,
			DayOfYear: i + 1,
			Weekday:   leave.WeekdayIndex(date),
		}
	}
	return days
}

// markHolidays sets is_holiday for calendar holidays and weekends.
func markHolidays(days []Day, snap snapshot) {
	for i := range days {
		days[i].IsHoliday = snap.holidays[days[i].Date] || leave.IsWeekend(days[i].Date)
	}
}

// markBridgeDays flags single working days isolated between two holiday
// days. Edge days of the range can never be bridges: they lack a neighbor.
func markBridgeDays(days []Day) {
	for i := range days {
		if days[i].IsHoliday {
			continue
		}
		if i > 0 && i < len(days)-1 && days[i-1].IsHoliday && days[i+1].IsHoliday {
			days[i].IsBridge = true
		}
	}
}

// applyWorkload copies the team's committed leave counts onto the table.
// Days with no committed leave stay at 0.
func applyWorkload(days []Day, snap snapshot) {
	for i := range days {
		if n, ok := snap.workload[days[i].Date]; ok {
			days[i].TeamWorkload = n
		}
	}
}

// applyRules accumulates every matching rule's score, in catalog order.
func applyRules(days []Day, snap snapshot) {
	for i := range days {
		score := 0.0
		for _, r := range snap.rules {
			if r.Matches(days[i]) {
				score += r.Score
			}
		}
		days[i].PreferenceScore = score
	}
}
