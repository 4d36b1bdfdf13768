package worldstate

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Operation names a structured effect.
type Operation string

const (
	OpSet       Operation = "set"
	OpIncrement Operation = "increment"
	OpDecrement Operation = "decrement"
	OpPush      Operation = "push"
	OpRemove    Operation = "remove"
	OpToggle    Operation = "toggle"
	OpMerge     Operation = "merge"
)

// Known reports whether the operation is supported.
func (op Operation) Known() bool {
	switch op {
	case OpSet, OpIncrement, OpDecrement, OpPush, OpRemove, OpToggle, OpMerge:
		return true
	}
	return false
}

// Effect is the change an action makes to one state key.
type Effect struct {
	Op       Operation
	Value    Value
	HasValue bool
}

// Effects maps state keys to the effect applied to each. Effects of one
// action are simultaneous: each reads only the prior value of its own key.
type Effects map[string]Effect

// Set assigns v.
func Set(v Value) Effect { return Effect{Op: OpSet, Value: v, HasValue: true} }

// Increment adds step to a number; a missing key counts as 0.
func Increment(step float64) Effect {
	return Effect{Op: OpIncrement, Value: Number(step), HasValue: true}
}

// Decrement subtracts step from a number; a missing key counts as 0.
func Decrement(step float64) Effect {
	return Effect{Op: OpDecrement, Value: Number(step), HasValue: true}
}

// Push appends v to a list, creating it when absent.
func Push(v Value) Effect { return Effect{Op: OpPush, Value: v, HasValue: true} }

// Remove filters v out of a list.
func Remove(v Value) Effect { return Effect{Op: OpRemove, Value: v, HasValue: true} }

// Toggle negates a boolean; a missing key counts as false.
func Toggle() Effect { return Effect{Op: OpToggle} }

// Merge unions entries into a map, entries winning on conflict.
func Merge(entries map[string]Value) Effect {
	return Effect{Op: OpMerge, Value: Map(entries), HasValue: true}
}

// EffectsFromMap converts decoded data into Effects. Map values with an
// "operation" key are structured operations; everything else is assignment.
func EffectsFromMap(m map[string]any) (Effects, error) {
	effects := make(Effects, len(m))
	for k, raw := range m {
		e, err := ParseEffect(raw)
		if err != nil {
			return nil, fmt.Errorf("effect %s: %w", k, err)
		}
		effects[k] = e
	}
	return effects, nil
}

// MustEffects is EffectsFromMap for literals known to be valid. It panics on error.
func MustEffects(m map[string]any) Effects {
	e, err := EffectsFromMap(m)
	if err != nil {
		panic(err)
	}
	return e
}

// ParseEffect converts one decoded effect entry.
func ParseEffect(raw any) (Effect, error) {
	if fields, ok := asFields(raw); ok {
		if opRaw, ok := fields["operation"]; ok {
			op, ok := opRaw.(string)
			if !ok {
				return Effect{}, fmt.Errorf("operation must be a string, got %T", opRaw)
			}
			valueRaw, has := fields["value"]
			v, err := FromAny(valueRaw)
			if err != nil {
				return Effect{}, err
			}
			return Effect{Op: Operation(op), Value: v, HasValue: has}, nil
		}
	}
	v, err := FromAny(raw)
	if err != nil {
		return Effect{}, err
	}
	return Set(v), nil
}

// Interface returns the serialized form: the bare value for assignment, an
// {operation, value} map otherwise.
func (e Effect) Interface() any {
	if e.Op == OpSet || e.Op == "" {
		return e.Value.Interface()
	}
	out := map[string]any{"operation": string(e.Op)}
	if e.HasValue {
		out["value"] = e.Value.Interface()
	}
	return out
}

func (e Effect) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Interface())
}

func (e *Effect) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseEffect(raw)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e Effect) MarshalYAML() (any, error) {
	return e.Interface(), nil
}

func (e *Effect) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseEffect(raw)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*e = parsed
	return nil
}

// Keys returns the effect keys in sorted order.
func (es Effects) Keys() []string {
	return sortedKeys(es)
}

// Validate reports the first effect with an unsupported operation or a missing value.
func (es Effects) Validate() error {
	for _, k := range es.Keys() {
		e := es[k]
		if e.Op != "" && !e.Op.Known() {
			return fmt.Errorf("%s: %w %q", k, ErrUnknownOperation, e.Op)
		}
		switch e.Op {
		case OpPush, OpRemove, OpMerge:
			if !e.HasValue {
				return fmt.Errorf("%s: %s requires a value", k, e.Op)
			}
		}
	}
	return nil
}

// Apply returns a deep copy of state with effects applied. state is never
// modified. An effect that leaves a key null removes the key.
func Apply(state State, effects Effects) (State, error) {
	next := state.Clone()
	for _, key := range effects.Keys() {
		current, present := state.Get(key)
		v, keep, err := effects[key].apply(current, present)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		switch {
		case !keep:
		case v.IsNull():
			delete(next, key)
		default:
			next[key] = v
		}
	}
	return next, nil
}

// apply computes the new value for one key. keep is false when the key must be left untouched.
func (e Effect) apply(current Value, present bool) (Value, bool, error) {
	switch e.Op {
	case OpSet, "":
		return e.Value.Clone(), true, nil
	case OpIncrement, OpDecrement:
		step := 1.0
		if e.HasValue && !e.Value.IsNull() {
			n, ok := e.Value.AsNumber()
			if !ok {
				return Value{}, false, fmt.Errorf("%s step is %s: %w", e.Op, e.Value.Kind(), ErrTypeMismatch)
			}
			step = n
		}
		base := 0.0
		if present {
			n, ok := current.AsNumber()
			if !ok {
				return Value{}, false, fmt.Errorf("%s on %s: %w", e.Op, current.Kind(), ErrTypeMismatch)
			}
			base = n
		}
		if e.Op == OpDecrement {
			step = -step
		}
		return Number(base + step), true, nil
	case OpPush:
		if !e.HasValue {
			return Value{}, false, fmt.Errorf("push requires a value")
		}
		if !present {
			return List(e.Value), true, nil
		}
		items, ok := current.AsList()
		if !ok {
			return Value{}, false, fmt.Errorf("push on %s: %w", current.Kind(), ErrTypeMismatch)
		}
		return List(append(append([]Value(nil), items...), e.Value)...), true, nil
	case OpRemove:
		if !e.HasValue {
			return Value{}, false, fmt.Errorf("remove requires a value")
		}
		items, ok := current.AsList()
		if !present || !ok {
			return Value{}, false, nil
		}
		kept := make([]Value, 0, len(items))
		for _, item := range items {
			if !item.Equal(e.Value) {
				kept = append(kept, item)
			}
		}
		return List(kept...), true, nil
	case OpToggle:
		if !present {
			return Bool(true), true, nil
		}
		b, ok := current.AsBool()
		if !ok {
			return Value{}, false, fmt.Errorf("toggle on %s: %w", current.Kind(), ErrTypeMismatch)
		}
		return Bool(!b), true, nil
	case OpMerge:
		if !e.HasValue {
			return Value{}, false, fmt.Errorf("merge requires a value")
		}
		base, baseIsMap := current.AsMap()
		patch, patchIsMap := e.Value.AsMap()
		if !present || !baseIsMap || !patchIsMap {
			return e.Value.Clone(), true, nil
		}
		merged := make(map[string]Value, len(base)+len(patch))
		for k, v := range base {
			merged[k] = v
		}
		for k, v := range patch {
			merged[k] = v
		}
		return Map(merged), true, nil
	}
	return Value{}, false, fmt.Errorf("%w %q", ErrUnknownOperation, e.Op)
}
