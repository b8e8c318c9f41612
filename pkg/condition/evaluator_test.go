package condition

import "testing"

func TestEvaluateEmptyConditionSet(t *testing.T) {
	payloads := []map[string]interface{}{
		nil,
		{},
		{"source": "Facebook", "value": 100},
	}

	for _, payload := range payloads {
		if !Evaluate(nil, payload) {
			t.Errorf("empty condition set must match payload %v", payload)
		}
		if !Evaluate([]Condition{}, payload) {
			t.Errorf("empty condition slice must match payload %v", payload)
		}
	}
}

func TestEvaluateOperators(t *testing.T) {
	payload := map[string]interface{}{
		"source":  "Facebook",
		"status":  "new",
		"budget":  2500.0,
		"count":   int64(3),
		"tags":    []interface{}{"vip", "inbound"},
		"notes":   "",
		"contact": map[string]interface{}{"email": "jo@acme.test", "city": "Vilnius"},
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals match", Condition{Field: "source", Operator: OperatorEquals, Value: "Facebook"}, true},
		{"equals mismatch", Condition{Field: "source", Operator: OperatorEquals, Value: "Referral"}, false},
		{"equals numeric string", Condition{Field: "budget", Operator: OperatorEquals, Value: "2500"}, true},
		{"not_equals", Condition{Field: "status", Operator: OperatorNotEquals, Value: "won"}, true},
		{"contains", Condition{Field: "source", Operator: OperatorContains, Value: "book"}, true},
		{"not_contains", Condition{Field: "source", Operator: OperatorNotContains, Value: "Referral"}, true},
		{"starts_with", Condition{Field: "source", Operator: OperatorStartsWith, Value: "Face"}, true},
		{"ends_with", Condition{Field: "contact.email", Operator: OperatorEndsWith, Value: "acme.test"}, true},
		{"gt true", Condition{Field: "budget", Operator: OperatorGreaterThan, Value: 1000}, true},
		{"gt false", Condition{Field: "budget", Operator: OperatorGreaterThan, Value: 5000}, false},
		{"gt string operand", Condition{Field: "budget", Operator: OperatorGreaterThan, Value: "1000"}, true},
		{"gte boundary", Condition{Field: "count", Operator: OperatorGreaterEq, Value: 3}, true},
		{"lt", Condition{Field: "count", Operator: OperatorLessThan, Value: 10}, true},
		{"lte boundary", Condition{Field: "count", Operator: OperatorLessEq, Value: 3}, true},
		{"numeric coercion failure is false", Condition{Field: "source", Operator: OperatorGreaterThan, Value: 5}, false},
		{"in", Condition{Field: "status", Operator: OperatorIn, Value: []interface{}{"new", "contacted"}}, true},
		{"in miss", Condition{Field: "status", Operator: OperatorIn, Value: []interface{}{"won", "lost"}}, false},
		{"not_in", Condition{Field: "status", Operator: OperatorNotIn, Value: []interface{}{"won"}}, true},
		{"in with non-list value", Condition{Field: "status", Operator: OperatorIn, Value: "new"}, false},
		{"is_empty on blank string", Condition{Field: "notes", Operator: OperatorIsEmpty}, true},
		{"is_not_empty", Condition{Field: "source", Operator: OperatorIsNotEmpty}, true},
		{"nested path equals", Condition{Field: "contact.city", Operator: OperatorEquals, Value: "Vilnius"}, true},
		{"unknown operator", Condition{Field: "source", Operator: "regex", Value: ".*"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluateOne(tt.cond, payload); got != tt.want {
				t.Errorf("evaluateOne(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluateMissingField(t *testing.T) {
	payload := map[string]interface{}{"source": "Facebook"}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"equals on missing", Condition{Field: "owner", Operator: OperatorEquals, Value: "x"}, false},
		{"not_equals on missing", Condition{Field: "owner", Operator: OperatorNotEquals, Value: "x"}, false},
		{"contains on missing", Condition{Field: "owner", Operator: OperatorContains, Value: "x"}, false},
		{"gt on missing", Condition{Field: "owner", Operator: OperatorGreaterThan, Value: 1}, false},
		{"in on missing", Condition{Field: "owner", Operator: OperatorIn, Value: []interface{}{"x"}}, false},
		{"is_empty on missing", Condition{Field: "owner", Operator: OperatorIsEmpty}, true},
		{"is_not_empty on missing", Condition{Field: "owner", Operator: OperatorIsNotEmpty}, false},
		{"missing nested branch", Condition{Field: "contact.email", Operator: OperatorEquals, Value: "x"}, false},
		{"path through scalar", Condition{Field: "source.deep", Operator: OperatorEquals, Value: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := evaluateOne(tt.cond, payload); got != tt.want {
				t.Errorf("evaluateOne(%+v) = %v, want %v", tt.cond, got, tt.want)
			}
		})
	}
}

func TestEvaluateAndSemantics(t *testing.T) {
	payload := map[string]interface{}{"source": "Facebook", "budget": 2000.0}

	conds := []Condition{
		{Field: "source", Operator: OperatorEquals, Value: "Facebook"},
		{Field: "budget", Operator: OperatorGreaterThan, Value: 1000},
	}
	if !Evaluate(conds, payload) {
		t.Fatal("expected both conditions to hold")
	}

	conds = append(conds, Condition{Field: "source", Operator: OperatorEquals, Value: "Referral"})
	if Evaluate(conds, payload) {
		t.Fatal("one failing condition must fail the whole set")
	}
}

func TestLookup(t *testing.T) {
	payload := map[string]interface{}{
		"a": map[string]interface{}{"b": map[string]interface{}{"c": 42}},
	}

	if v, ok := Lookup(payload, "a.b.c"); !ok || v != 42 {
		t.Errorf("Lookup(a.b.c) = %v, %v", v, ok)
	}
	if _, ok := Lookup(payload, "a.x.c"); ok {
		t.Error("Lookup through missing branch must report not found")
	}
	if _, ok := Lookup(payload, ""); ok {
		t.Error("empty path must report not found")
	}
}
