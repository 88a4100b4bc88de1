// Package conditions evaluates declarative trigger predicates against a
// (current, previous) record pair.
package conditions

import (
	"log/slog"
	"strings"

	"github.com/fieldkit/cascade/pkg/fieldpath"
)

// Combinator joins the rules of a tree.
type Combinator string

const (
	CombinatorAnd Combinator = "AND"
	CombinatorOr  Combinator = "OR"
)

// Rule is a single predicate over one record field.
type Rule struct {
	Field    string `json:"field"    validate:"required"`
	Operator string `json:"operator" validate:"required"`
	Value    any    `json:"value,omitempty"`
}

// Tree is a flat combinator over rules. Trees do not nest.
type Tree struct {
	Operator Combinator `json:"operator" validate:"omitempty,oneof=AND OR"`
	Rules    []Rule     `json:"rules"`
}

// Supported rule operators.
const (
	OpEquals         = "equals"
	OpNotEquals      = "not_equals"
	OpContains       = "contains"
	OpStartsWith     = "starts_with"
	OpEndsWith       = "ends_with"
	OpGreaterThan    = "greater_than"
	OpLessThan       = "less_than"
	OpGreaterOrEqual = "greater_or_equal"
	OpLessOrEqual    = "less_or_equal"
	OpIsNull         = "is_null"
	OpIsNotNull      = "is_not_null"
	OpChanged        = "changed"
	OpChangedTo      = "changed_to"
	OpChangedFrom    = "changed_from"
	OpIn             = "in"
	OpNotIn          = "not_in"
)

// Evaluate returns true when the tree matches the record pair. A nil or empty
// tree always matches. Rules with an unknown operator evaluate to false and
// log a warning: a malformed rule must never fire an action.
func Evaluate(tree *Tree, record, previous map[string]any) bool {
	if tree == nil || len(tree.Rules) == 0 {
		return true
	}

	if tree.Operator == CombinatorOr {
		for _, rule := range tree.Rules {
			if evaluateRule(rule, record, previous) {
				return true
			}
		}

		return false
	}

	// AND is the default combinator.
	for _, rule := range tree.Rules {
		if !evaluateRule(rule, record, previous) {
			return false
		}
	}

	return true
}

func evaluateRule(rule Rule, record, previous map[string]any) bool {
	current, _ := fieldpath.Resolve(record, rule.Field)

	switch rule.Operator {
	case OpEquals:
		return scalarEquals(current, rule.Value)
	case OpNotEquals:
		return !scalarEquals(current, rule.Value)
	case OpContains:
		return strings.Contains(fieldpath.Stringify(current), fieldpath.Stringify(rule.Value))
	case OpStartsWith:
		return strings.HasPrefix(fieldpath.Stringify(current), fieldpath.Stringify(rule.Value))
	case OpEndsWith:
		return strings.HasSuffix(fieldpath.Stringify(current), fieldpath.Stringify(rule.Value))
	case OpGreaterThan:
		return compareNumeric(current, rule.Value, func(a, b float64) bool { return a > b })
	case OpLessThan:
		return compareNumeric(current, rule.Value, func(a, b float64) bool { return a < b })
	case OpGreaterOrEqual:
		return compareNumeric(current, rule.Value, func(a, b float64) bool { return a >= b })
	case OpLessOrEqual:
		return compareNumeric(current, rule.Value, func(a, b float64) bool { return a <= b })
	case OpIsNull:
		return current == nil
	case OpIsNotNull:
		return current != nil
	case OpChanged, OpChangedTo, OpChangedFrom:
		return evaluateChange(rule, current, previous)
	case OpIn:
		return isMember(current, rule.Value)
	case OpNotIn:
		return !isMember(current, rule.Value)
	default:
		slog.Warn("Unknown condition operator, rule evaluates to false",
			"operator", rule.Operator,
			"field", rule.Field)

		return false
	}
}

// evaluateChange handles the operators that need the previous-record
// snapshot. A missing previous record behaves as "no previous value", so a
// freshly created field counts as changed.
func evaluateChange(rule Rule, current any, previous map[string]any) bool {
	prev, _ := fieldpath.Resolve(previous, rule.Field)

	switch rule.Operator {
	case OpChanged:
		return !scalarEquals(current, prev)
	case OpChangedTo:
		return scalarEquals(current, rule.Value) && !scalarEquals(prev, rule.Value)
	case OpChangedFrom:
		return scalarEquals(prev, rule.Value) && !scalarEquals(current, rule.Value)
	default:
		return false
	}
}

// scalarEquals compares two loosely-typed scalars. Numbers are compared
// numerically regardless of their Go representation (JSON decodes everything
// to float64, hand-written configs may carry ints); everything else is
// compared by its canonical string form.
func scalarEquals(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	aNum, aOK := fieldpath.Number(a)

	bNum, bOK := fieldpath.Number(b)
	if aOK && bOK {
		return aNum == bNum
	}

	return fieldpath.Stringify(a) == fieldpath.Stringify(b)
}

func compareNumeric(current, value any, cmp func(a, b float64) bool) bool {
	a, aOK := fieldpath.Number(current)

	b, bOK := fieldpath.Number(value)
	if !aOK || !bOK {
		return false
	}

	return cmp(a, b)
}

func isMember(current, value any) bool {
	candidates, ok := value.([]any)
	if !ok {
		return false
	}

	for _, candidate := range candidates {
		if scalarEquals(current, candidate) {
			return true
		}
	}

	return false
}
