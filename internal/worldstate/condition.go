package worldstate

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Operator names a structured comparison.
type Operator string

const (
	OpEqual       Operator = "=="
	OpGreater     Operator = ">"
	OpLess        Operator = "<"
	OpGreaterEq   Operator = ">="
	OpLessEq      Operator = "<="
	OpNotEqual    Operator = "!="
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpExists      Operator = "exists"
	OpNotExists   Operator = "not_exists"
)

// Known reports whether the operator is supported.
func (op Operator) Known() bool {
	switch op {
	case OpEqual, OpGreater, OpLess, OpGreaterEq, OpLessEq, OpNotEqual,
		OpContains, OpNotContains, OpExists, OpNotExists:
		return true
	}
	return false
}

// Condition is the expectation placed on one state key. A plain value is an
// equality condition; anything else carries an operator.
type Condition struct {
	Op    Operator
	Value Value
}

// Conditions maps state keys to the condition each must meet.
type Conditions map[string]Condition

// Eq expects the key to hold v. Eq(Null()) expects the key to be absent.
func Eq(v Value) Condition { return Condition{Op: OpEqual, Value: v} }

// Compare expects the key to satisfy op against v.
func Compare(op Operator, v Value) Condition { return Condition{Op: op, Value: v} }

// Exists expects the key to be present.
func Exists() Condition { return Condition{Op: OpExists} }

// NotExists expects the key to be absent.
func NotExists() Condition { return Condition{Op: OpNotExists} }

// ConditionsFromMap converts decoded data into Conditions. Map values with an
// "operator" key are structured comparisons; everything else is equality.
func ConditionsFromMap(m map[string]any) (Conditions, error) {
	conds := make(Conditions, len(m))
	for k, raw := range m {
		c, err := ParseCondition(raw)
		if err != nil {
			return nil, fmt.Errorf("condition %s: %w", k, err)
		}
		conds[k] = c
	}
	return conds, nil
}

// MustConditions is ConditionsFromMap for literals known to be valid. It panics on error.
func MustConditions(m map[string]any) Conditions {
	c, err := ConditionsFromMap(m)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCondition converts one decoded condition entry.
func ParseCondition(raw any) (Condition, error) {
	if fields, ok := asFields(raw); ok {
		if opRaw, ok := fields["operator"]; ok {
			op, ok := opRaw.(string)
			if !ok {
				return Condition{}, fmt.Errorf("operator must be a string, got %T", opRaw)
			}
			v, err := FromAny(fields["value"])
			if err != nil {
				return Condition{}, err
			}
			return Condition{Op: Operator(op), Value: v}, nil
		}
	}
	v, err := FromAny(raw)
	if err != nil {
		return Condition{}, err
	}
	return Eq(v), nil
}

func asFields(raw any) (map[string]any, bool) {
	switch x := raw.(type) {
	case map[string]any:
		return x, true
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			key, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[key] = v
		}
		return out, true
	}
	return nil, false
}

// Interface returns the serialized form: the bare value for equality, an
// {operator, value} map otherwise.
func (c Condition) Interface() any {
	if c.Op == OpEqual || c.Op == "" {
		return c.Value.Interface()
	}
	out := map[string]any{"operator": string(c.Op)}
	if c.Op != OpExists && c.Op != OpNotExists {
		out["value"] = c.Value.Interface()
	}
	return out
}

func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Interface())
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseCondition(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c Condition) MarshalYAML() (any, error) {
	return c.Interface(), nil
}

func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseCondition(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*c = parsed
	return nil
}

// Keys returns the condition keys in sorted order.
func (cs Conditions) Keys() []string {
	return sortedKeys(cs)
}

// Validate reports the first condition with an unsupported operator.
func (cs Conditions) Validate() error {
	for _, k := range cs.Keys() {
		if op := cs[k].Op; op != "" && !op.Known() {
			return fmt.Errorf("%s: %w %q", k, ErrUnknownOperator, op)
		}
	}
	return nil
}

// Evaluate reports whether state meets every condition. Keys are checked in
// sorted order; an unsupported operator yields an error naming the key.
func Evaluate(state State, conds Conditions) (bool, error) {
	for _, key := range conds.Keys() {
		ok, err := conds[key].Matches(state, key)
		if err != nil {
			return false, fmt.Errorf("%s: %w", key, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// Satisfies is Evaluate with errors treated as non-matching.
func Satisfies(state State, conds Conditions) bool {
	ok, err := Evaluate(state, conds)
	return err == nil && ok
}

// Matches evaluates the condition against state[key].
func (c Condition) Matches(state State, key string) (bool, error) {
	actual, present := state.Get(key)
	switch c.Op {
	case OpEqual, "":
		if c.Value.IsNull() {
			return !present, nil
		}
		return present && actual.Equal(c.Value), nil
	case OpExists:
		return present, nil
	case OpNotExists:
		return !present, nil
	case OpNotEqual:
		return present && !actual.Equal(c.Value), nil
	case OpGreater, OpLess, OpGreaterEq, OpLessEq:
		if !present {
			return false, nil
		}
		a, ok := actual.AsNumber()
		if !ok {
			return false, nil
		}
		b, ok := c.Value.AsNumber()
		if !ok {
			return false, nil
		}
		return compareNumbers(c.Op, a, b), nil
	case OpContains, OpNotContains:
		if !present {
			return false, nil
		}
		items, ok := actual.AsList()
		if !ok {
			return false, nil
		}
		found := containsValue(items, c.Value)
		if c.Op == OpContains {
			return found, nil
		}
		return !found, nil
	}
	return false, fmt.Errorf("%w %q", ErrUnknownOperator, c.Op)
}

func compareNumbers(op Operator, a, b float64) bool {
	switch op {
	case OpGreater:
		return a > b
	case OpLess:
		return a < b
	case OpGreaterEq:
		return a >= b
	case OpLessEq:
		return a <= b
	}
	return false
}

func containsValue(items []Value, v Value) bool {
	for _, item := range items {
		if item.Equal(v) {
			return true
		}
	}
	return false
}
