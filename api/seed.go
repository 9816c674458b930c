/*
seed.go - Demo data loader

PURPOSE:
  Populates an empty store with a small, self-consistent data set for local
  development: one team with an owner and members, a leave type catalog, a
  public holiday calendar and the default scoring policies. Idempotent by
  way of a cheap emptiness check; a store with any leave type is left alone.
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian/leave-engine/leave"
)

// SeedDemo loads the demo data set into an empty store. Returns the demo
// team so callers can print usable identities.
func SeedDemo(ctx context.Context, store Store, year int) (*leave.Team, error) {
	existing, err := store.LeaveTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, nil
	}

	team := leave.Team{ID: uuid.New(), Name: "Platform", OwnerID: uuid.New()}
	if err := store.PutTeam(ctx, team); err != nil {
		return nil, err
	}
	if err := store.SetMember(ctx, team.OwnerID, team.ID); err != nil {
		return nil, err
	}
	for i := 0; i < 7; i++ {
		if err := store.SetMember(ctx, uuid.New(), team.ID); err != nil {
			return nil, err
		}
	}

	types := []leave.LeaveType{
		{ID: uuid.New(), Code: "annual", Name: "Annual Leave", Entitlement: decimal.NewFromInt(18), Active: true},
		{ID: uuid.New(), Code: "sick", Name: "Sick Leave", Entitlement: decimal.NewFromInt(10), Active: true},
	}
	for _, lt := range types {
		if err := store.PutLeaveType(ctx, lt); err != nil {
			return nil, err
		}
	}

	for _, h := range demoHolidays(year) {
		if err := store.PutHoliday(ctx, h); err != nil {
			return nil, err
		}
	}

	for _, p := range demoPolicies() {
		if err := store.PutPolicy(ctx, p); err != nil {
			return nil, err
		}
	}
	return &team, nil
}

func demoHolidays(year int) []leave.Holiday {
	dates := []struct {
		month time.Month
		day   int
		name  string
	}{
		{time.January, 1, "New Year's Day"},
		{time.May, 1, "Labour Day"},
		{time.December, 25, "Christmas Day"},
		{time.December, 26, "Boxing Day"},
	}
	out := make([]leave.Holiday, len(dates))
	for i, d := range dates {
		out[i] = leave.Holiday{
			ID:   uuid.New(),
			Date: time.Date(year, d.month, d.day, 0, 0, 0, 0, time.UTC),
			Name: d.name,
		}
	}
	return out
}

func demoPolicies() []leave.Policy {
	return []leave.Policy{
		{ID: uuid.New(), Code: "is_holiday", Name: "Never plan on holidays",
			Operation: "==", Value: "true", Score: -100, Active: true},
		{ID: uuid.New(), Code: "bridge_holiday", Name: "Prefer bridge days",
			Operation: "==", Value: "true", Score: 30, Active: true},
		{ID: uuid.New(), Code: "weekday", Name: "Prefer Mondays and Fridays",
			Operation: "in", Value: "[0,4]", Score: 10, Active: true},
		{ID: uuid.New(), Code: "team_workload", Name: "Avoid crowded days",
			Operation: ">=", Value: "50%", Score: -40, Active: true},
	}
}

// DescribeSeed renders a short banner for the server log.
func DescribeSeed(team *leave.Team) string {
	if team == nil {
		return "store already populated, demo seed skipped"
	}
	return fmt.Sprintf("seeded demo team %q (id=%s owner=%s)", team.Name, team.ID, team.OwnerID)
}
