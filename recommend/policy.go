/*
policy.go - Compiled scoring rules

PURPOSE:
  Policies arrive from the catalog as string-typed rows (code, operation,
  value, score). Here they are compiled into a small tagged-variant rule
  (column, comparator, typed literal, score) that is validated ONCE at load
  time. Evaluation is then a straight switch with no runtime parsing and no
  "skip unknown operation" escape hatch: a policy that cannot be compiled is
  a caller-visible error, not a silent no-op.

LITERALS:
  - "[0,4]"      → number list (membership for the in comparator)
  - "true"/"True" → bool (booleans compare as 0/1 against flag columns)
  - "42" / "2.5" → number
  - "50%"        → percentage of team size; only meaningful on team_workload
  anything else is rejected at compile time.
*/
package recommend

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meridian/leave-engine/leave"
)

// =============================================================================
// COLUMNS AND COMPARATORS
// =============================================================================

// Column identifies a feature-table column a rule targets.
type Column string

const (
	ColDayOfYear Column = "day_of_year"
	ColWeekday   Column = "weekday"
	ColWorkload  Column = "team_workload"
	ColHoliday   Column = "is_holiday"
	ColBridge    Column = "is_bridge"
)

// columnAliases maps catalog codes to columns. "bridge_holiday" is the
// legacy catalog spelling for the bridge flag.
var columnAliases = map[string]Column{
	"day_of_year":    ColDayOfYear,
	"weekday":        ColWeekday,
	"team_workload":  ColWorkload,
	"is_holiday":     ColHoliday,
	"is_bridge":      ColBridge,
	"bridge_holiday": ColBridge,
}

// Comparator is a rule's operation.
type Comparator int

const (
	CmpEqual Comparator = iota
	CmpIn
	CmpGreater
	CmpLess
	CmpGreaterOrEqual
	CmpLessOrEqual
)

var comparators = map[string]Comparator{
	"==": CmpEqual,
	"in": CmpIn,
	">":  CmpGreater,
	"<":  CmpLess,
	">=": CmpGreaterOrEqual,
	"<=": CmpLessOrEqual,
}

// =============================================================================
// LITERALS
// =============================================================================

type literalKind int

const (
	litNumber literalKind = iota
	litList
)

// Literal is a typed policy value. Booleans and percentages are folded into
// numbers at compile time (true → 1, "50%" → 0.5 * team size), so evaluation
// only ever compares numbers.
type Literal struct {
	kind literalKind
	num  float64
	list []float64
}

func parseLiteral(col Column, raw string, teamSize int) (Literal, error) {
	s := strings.TrimSpace(raw)

	// Percentage of team size, only for the workload column.
	if strings.HasSuffix(s, "%") {
		if col != ColWorkload {
			return Literal{}, fmt.Errorf("percentage value %q only valid for %s", raw, ColWorkload)
		}
		pct, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return Literal{}, fmt.Errorf("bad percentage %q: %w", raw, err)
		}
		return Literal{kind: litNumber, num: float64(teamSize) * pct / 100}, nil
	}

	// Number list: "[0,4]".
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		body := strings.TrimSpace(s[1 : len(s)-1])
		var list []float64
		if body != "" {
			for _, part := range strings.Split(body, ",") {
				n, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
				if err != nil {
					return Literal{}, fmt.Errorf("bad list element %q in %q: %w", part, raw, err)
				}
				list = append(list, n)
			}
		}
		return Literal{kind: litList, list: list}, nil
	}

	// Bool.
	switch strings.ToLower(s) {
	case "true":
		return Literal{kind: litNumber, num: 1}, nil
	case "false":
		return Literal{kind: litNumber, num: 0}, nil
	}

	// Number.
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Literal{}, fmt.Errorf("unparsable policy value %q", raw)
	}
	return Literal{kind: litNumber, num: n}, nil
}

// =============================================================================
// RULES
// =============================================================================

// Rule is one compiled, validated policy.
type Rule struct {
	Column Column
	Cmp    Comparator
	Value  Literal
	Score  float64
}

// CompileRules validates the active policies against the feature table
// schema. The team size resolves percentage literals. Rules keep catalog
// order; scoring is cumulative, so a day may match several.
func CompileRules(policies []leave.Policy, teamSize int) ([]Rule, error) {
	rules := make([]Rule, 0, len(policies))
	for _, p := range policies {
		col, ok := columnAliases[strings.TrimSpace(p.Code)]
		if !ok {
			return nil, fmt.Errorf("policy %s: unknown column code %q", p.ID, p.Code)
		}
		cmp, ok := comparators[strings.TrimSpace(p.Operation)]
		if !ok {
			return nil, fmt.Errorf("policy %s: unknown operation %q", p.ID, p.Operation)
		}
		lit, err := parseLiteral(col, p.Value, teamSize)
		if err != nil {
			return nil, fmt.Errorf("policy %s: %w", p.ID, err)
		}
		if cmp != CmpIn && cmp != CmpEqual && lit.kind == litList {
			return nil, fmt.Errorf("policy %s: list value requires the in operation", p.ID)
		}
		rules = append(rules, Rule{Column: col, Cmp: cmp, Value: lit, Score: p.Score})
	}
	return rules, nil
}

// Matches evaluates the rule against one day's feature values.
func (r Rule) Matches(d Day) bool {
	v := d.columnValue(r.Column)
	switch r.Cmp {
	case CmpIn:
		if r.Value.kind == litList {
			for _, n := range r.Value.list {
				if v == n {
					return true
				}
			}
			return false
		}
		return v == r.Value.num
	case CmpEqual:
		if r.Value.kind == litList {
			return false
		}
		return v == r.Value.num
	case CmpGreater:
		return v > r.Value.num
	case CmpLess:
		return v < r.Value.num
	case CmpGreaterOrEqual:
		return v >= r.Value.num
	case CmpLessOrEqual:
		return v <= r.Value.num
	}
	return false
}
