// Package condition implements the predicate language used by
// automation rules: a flat list of {field, operator, value} checks
// combined with AND semantics over an event payload.
//
// Evaluation is pure and total. A missing field, a type mismatch, or
// an unknown operator makes the individual condition false (is_empty
// is the one operator that holds for a missing field); nothing in
// this package returns an error or panics.
package condition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorStartsWith  Operator = "starts_with"
	OperatorEndsWith    Operator = "ends_with"
	OperatorGreaterThan Operator = "gt"
	OperatorGreaterEq   Operator = "gte"
	OperatorLessThan    Operator = "lt"
	OperatorLessEq      Operator = "lte"
	OperatorIn          Operator = "in"
	OperatorNotIn       Operator = "not_in"
	OperatorIsEmpty     Operator = "is_empty"
	OperatorIsNotEmpty  Operator = "is_not_empty"
)

// Condition is one predicate over a dot-path into the event payload.
type Condition struct {
	Field    string      `json:"field" bson:"field"`
	Operator Operator    `json:"operator" bson:"operator"`
	Value    interface{} `json:"value" bson:"value"`
}

// Evaluate reports whether every condition holds against the payload.
// An empty condition set matches unconditionally.
func Evaluate(conditions []Condition, payload map[string]interface{}) bool {
	for _, cond := range conditions {
		if !evaluateOne(cond, payload) {
			return false
		}
	}
	return true
}

func evaluateOne(cond Condition, payload map[string]interface{}) bool {
	val, exists := Lookup(payload, cond.Field)

	switch cond.Operator {
	case OperatorIsEmpty:
		return !exists || isEmpty(val)
	case OperatorIsNotEmpty:
		return exists && !isEmpty(val)
	}

	// Every remaining operator needs a present value to compare.
	if !exists {
		return false
	}

	switch cond.Operator {
	case OperatorEquals:
		return equal(val, cond.Value)
	case OperatorNotEquals:
		return !equal(val, cond.Value)
	case OperatorContains:
		return strings.Contains(str(val), str(cond.Value))
	case OperatorNotContains:
		return !strings.Contains(str(val), str(cond.Value))
	case OperatorStartsWith:
		return strings.HasPrefix(str(val), str(cond.Value))
	case OperatorEndsWith:
		return strings.HasSuffix(str(val), str(cond.Value))
	case OperatorGreaterThan, OperatorGreaterEq, OperatorLessThan, OperatorLessEq:
		return numericCompare(cond.Operator, val, cond.Value)
	case OperatorIn:
		return inList(val, cond.Value)
	case OperatorNotIn:
		return !inList(val, cond.Value)
	default:
		return false
	}
}

// Lookup resolves a dot-path ("lead.source") through nested maps.
func Lookup(payload map[string]interface{}, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	parts := strings.Split(path, ".")
	var current interface{} = payload
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// equal compares numerically when both sides coerce, falling back to
// string comparison so "5" equals 5 the way stored rule values expect.
func equal(left, right interface{}) bool {
	lf, lok := toFloat64(left)
	rf, rok := toFloat64(right)
	if lok && rok {
		return math.Abs(lf-rf) < 1e-9
	}
	if lb, ok := left.(bool); ok {
		if rb, ok := right.(bool); ok {
			return lb == rb
		}
	}
	return str(left) == str(right)
}

func numericCompare(op Operator, left, right interface{}) bool {
	lf, lok := toFloat64(left)
	rf, rok := toFloat64(right)
	if !lok || !rok {
		return false
	}
	switch op {
	case OperatorGreaterThan:
		return lf > rf
	case OperatorGreaterEq:
		return lf >= rf
	case OperatorLessThan:
		return lf < rf
	case OperatorLessEq:
		return lf <= rf
	}
	return false
}

func inList(val, list interface{}) bool {
	items, ok := list.([]interface{})
	if !ok {
		return false
	}
	for _, item := range items {
		if equal(val, item) {
			return true
		}
	}
	return false
}

func isEmpty(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

// toFloat64 coerces numbers and numeric strings.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
