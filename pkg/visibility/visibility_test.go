package visibility

import "testing"

func TestEvaluate_Operators(t *testing.T) {
	cases := []struct {
		name  string
		left  any
		op    Operator
		right any
		want  bool
	}{
		{name: "equals numbers", left: 5, op: OpEquals, right: 5, want: true},
		{name: "equals mixed numeric types", left: 5, op: OpEquals, right: float64(5), want: true},
		{name: "equals strings mismatch", left: "a", op: OpEquals, right: "b", want: false},
		{name: "equals bools", left: true, op: OpEquals, right: true, want: true},
		{name: "not equals", left: "yes", op: OpNotEquals, right: "no", want: true},
		{name: "not equals same", left: 3, op: OpNotEquals, right: 3, want: false},
		{name: "contains substring", left: "hello world", op: OpContains, right: "world", want: true},
		{name: "contains missing", left: "hello", op: OpContains, right: "world", want: false},
		{name: "contains stringifies numbers", left: 12345, op: OpContains, right: 234, want: true},
		{name: "greater than coerces strings", left: "10", op: OpGreaterThan, right: "5", want: true},
		{name: "greater than false", left: 2, op: OpGreaterThan, right: 10, want: false},
		{name: "greater than non numeric", left: "abc", op: OpGreaterThan, right: 1, want: false},
		{name: "less than", left: 2, op: OpLessThan, right: "10", want: true},
		{name: "equals nil vs nil", left: nil, op: OpEquals, right: nil, want: true},
		{name: "equals nil vs value", left: nil, op: OpEquals, right: "x", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Evaluate(tc.left, tc.op, tc.right)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if got != tc.want {
				t.Fatalf("evaluate(%v, %s, %v): want %v, got %v", tc.left, tc.op, tc.right, tc.want, got)
			}
		})
	}
}

func TestEvaluate_UnknownOperator(t *testing.T) {
	if _, err := Evaluate(1, Operator("matches"), 1); err == nil {
		t.Fatal("expected error for unsupported operator")
	}
}

func TestRuleGroup_Visible(t *testing.T) {
	values := map[string]any{
		"plan":  "pro",
		"seats": 12,
	}

	cases := []struct {
		name  string
		group *RuleGroup
		want  bool
	}{
		{name: "nil group always visible", group: nil, want: true},
		{name: "empty group always visible", group: &RuleGroup{}, want: true},
		{
			name: "single rule group",
			group: &RuleGroup{Rules: []Rule{
				{Field: "plan", Operator: OpEquals, Value: "pro"},
			}},
			want: true,
		},
		{
			name: "all requires every rule",
			group: &RuleGroup{Combinator: CombineAll, Rules: []Rule{
				{Field: "plan", Operator: OpEquals, Value: "pro"},
				{Field: "seats", Operator: OpGreaterThan, Value: 100},
			}},
			want: false,
		},
		{
			name: "any passes on first match",
			group: &RuleGroup{Combinator: CombineAny, Rules: []Rule{
				{Field: "seats", Operator: OpGreaterThan, Value: 100},
				{Field: "plan", Operator: OpContains, Value: "pr"},
			}},
			want: true,
		},
		{
			name: "missing controlling field reads nil",
			group: &RuleGroup{Rules: []Rule{
				{Field: "missing", Operator: OpEquals, Value: "anything"},
			}},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.group.Visible(values)
			if err != nil {
				t.Fatalf("visible: %v", err)
			}
			if got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}
