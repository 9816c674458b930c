package recommend

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/leave-engine/leave"
)

func policy(code, op, value string, score float64) leave.Policy {
	return leave.Policy{ID: uuid.New(), Code: code, Name: code, Operation: op, Value: value, Score: score, Active: true}
}

// =============================================================================
// COMPILATION
// =============================================================================

func TestCompileRules_RejectsUnknownColumn(t *testing.T) {
	_, err := CompileRules([]leave.Policy{policy("moon_phase", "==", "1", 5)}, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown column")
}

func TestCompileRules_RejectsUnknownOperation(t *testing.T) {
	_, err := CompileRules([]leave.Policy{policy("weekday", "!=", "3", 5)}, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}

func TestCompileRules_RejectsUnparsableValue(t *testing.T) {
	_, err := CompileRules([]leave.Policy{policy("weekday", "==", "friday", 5)}, 8)
	assert.Error(t, err)
}

func TestCompileRules_ListRequiresInOperation(t *testing.T) {
	// GIVEN: A list literal paired with an ordering comparator
	// THEN: Compile-time rejection, not a silently false rule

	_, err := CompileRules([]leave.Policy{policy("weekday", ">", "[0,4]", 5)}, 8)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list value")
}

func TestCompileRules_PercentOnlyOnWorkload(t *testing.T) {
	_, err := CompileRules([]leave.Policy{policy("weekday", ">=", "50%", 5)}, 8)
	assert.Error(t, err)
}

func TestCompileRules_BridgeHolidayAlias(t *testing.T) {
	// GIVEN: The legacy catalog spelling for the bridge flag
	// THEN: It compiles onto the is_bridge column

	rules, err := CompileRules([]leave.Policy{policy("bridge_holiday", "==", "true", 30)}, 8)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, ColBridge, rules[0].Column)
	assert.True(t, rules[0].Matches(Day{IsBridge: true}))
	assert.False(t, rules[0].Matches(Day{IsBridge: false}))
}

func TestCompileRules_PercentResolvesAgainstTeamSize(t *testing.T) {
	// GIVEN: "50%" on team_workload with a team of 10
	// THEN: The threshold is 5 committed teammates

	rules, err := CompileRules([]leave.Policy{policy("team_workload", ">=", "50%", -40)}, 10)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Matches(Day{TeamWorkload: 5}))
	assert.True(t, rules[0].Matches(Day{TeamWorkload: 6}))
	assert.False(t, rules[0].Matches(Day{TeamWorkload: 4}))
}

// =============================================================================
// EVALUATION
// =============================================================================

func TestRule_BoolLiteralComparesAsFlag(t *testing.T) {
	rules, err := CompileRules([]leave.Policy{policy("is_holiday", "==", "True", -100)}, 8)
	require.NoError(t, err)
	assert.True(t, rules[0].Matches(Day{IsHoliday: true}))
	assert.False(t, rules[0].Matches(Day{IsHoliday: false}))
}

func TestRule_InListMembership(t *testing.T) {
	// GIVEN: weekday in [0,4] (Monday or Friday)
	rules, err := CompileRules([]leave.Policy{policy("weekday", "in", "[0,4]", 10)}, 8)
	require.NoError(t, err)

	assert.True(t, rules[0].Matches(Day{Weekday: 0}))
	assert.True(t, rules[0].Matches(Day{Weekday: 4}))
	assert.False(t, rules[0].Matches(Day{Weekday: 2}))
}

func TestRule_OrderingComparators(t *testing.T) {
	cases := []struct {
		op       string
		workload int
		want     bool
	}{
		{">", 4, true},
		{">", 3, false},
		{"<", 2, true},
		{"<", 3, false},
		{">=", 3, true},
		{"<=", 3, true},
	}
	for _, tc := range cases {
		rules, err := CompileRules([]leave.Policy{policy("team_workload", tc.op, "3", 1)}, 8)
		require.NoError(t, err)
		assert.Equal(t, tc.want, rules[0].Matches(Day{TeamWorkload: tc.workload}),
			"workload %d %s 3", tc.workload, tc.op)
	}
}
