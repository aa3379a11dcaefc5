// Package visibility evaluates declarative show/hide rules against the
// current set of form values. Rules compare a controlling field's value to a
// literal using a small closed operator set; groups combine rules with
// all/any semantics.
package visibility

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is the closed set of comparisons a rule may use.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// Valid reports whether the operator is one of the supported comparisons.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpGreaterThan, OpLessThan:
		return true
	default:
		return false
	}
}

// Rule is a single condition: show the field when the value of Field compares
// to Value under Operator.
type Rule struct {
	Field    string   `json:"field" yaml:"field"`
	Operator Operator `json:"operator" yaml:"operator"`
	Value    any      `json:"value" yaml:"value"`
}

// Combinator selects how a group's rules compose.
type Combinator string

const (
	CombineAll Combinator = "all"
	CombineAny Combinator = "any"
)

// RuleGroup combines one or more rules. A group with a single rule behaves
// exactly like that rule. An empty group is always visible.
type RuleGroup struct {
	Combinator Combinator `json:"combinator,omitempty" yaml:"combinator,omitempty"`
	Rules      []Rule     `json:"rules" yaml:"rules"`
}

// Visible evaluates the group against a flat map of field-name to value.
// Fields are evaluated independently: a rule that references a hidden
// controlling field still reads that field's current value.
func (g *RuleGroup) Visible(values map[string]any) (bool, error) {
	if g == nil || len(g.Rules) == 0 {
		return true, nil
	}

	combinator := g.Combinator
	if combinator == "" {
		combinator = CombineAll
	}

	for _, rule := range g.Rules {
		ok, err := Evaluate(values[rule.Field], rule.Operator, rule.Value)
		if err != nil {
			return false, err
		}
		switch combinator {
		case CombineAll:
			if !ok {
				return false, nil
			}
		case CombineAny:
			if ok {
				return true, nil
			}
		default:
			return false, fmt.Errorf("visibility: unknown combinator %q", combinator)
		}
	}

	return combinator == CombineAll, nil
}

// Evaluate applies a single operator to a field value and a rule literal.
// equals/not_equals normalise numeric types before comparing, contains
// stringifies both sides and checks for a substring, and
// greater_than/less_than coerce both sides to numbers so string inputs such
// as "10" compare numerically.
func Evaluate(left any, op Operator, right any) (bool, error) {
	switch op {
	case OpEquals:
		return looseEqual(left, right), nil
	case OpNotEquals:
		return !looseEqual(left, right), nil
	case OpContains:
		return strings.Contains(coerceString(left), coerceString(right)), nil
	case OpGreaterThan:
		l, lok := coerceNumber(left)
		r, rok := coerceNumber(right)
		return lok && rok && l > r, nil
	case OpLessThan:
		l, lok := coerceNumber(left)
		r, rok := coerceNumber(right)
		return lok && rok && l < r, nil
	default:
		return false, fmt.Errorf("visibility: unsupported operator %q", op)
	}
}

func looseEqual(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if l, lok := coerceNumber(left); lok {
		if r, rok := coerceNumber(right); rok {
			return l == r
		}
	}
	if lb, lok := left.(bool); lok {
		if rb, rok := right.(bool); rok {
			return lb == rb
		}
	}
	return coerceString(left) == coerceString(right)
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(value)
	}
}
