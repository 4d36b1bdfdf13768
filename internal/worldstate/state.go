// Package worldstate models the planning domain: schema-less world states,
// condition evaluation, effect application, heuristic distance and canonical
// state signatures.
//
// Every function in this package is pure with respect to its inputs. Apply
// returns a new State and never mutates the one it was given, so a search
// tree can hold many divergent states at once.
package worldstate

import (
	"fmt"
)

// State is a snapshot of modeled facts keyed by name.
type State map[string]Value

// New returns an empty State.
func New() State {
	return make(State)
}

// FromMap converts plain Go data into a State.
func FromMap(m map[string]any) (State, error) {
	s := make(State, len(m))
	for k, raw := range m {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("state key %s: %w", k, err)
		}
		s[k] = v
	}
	return s, nil
}

// MustFromMap is FromMap for literals known to be valid. It panics on error.
func MustFromMap(m map[string]any) State {
	s, err := FromMap(m)
	if err != nil {
		panic(err)
	}
	return s
}

// Clone returns a full deep copy.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v.Clone()
	}
	return out
}

// Get returns the value at key and whether it is present. A stored null counts as absent.
func (s State) Get(key string) (Value, bool) {
	v, ok := s[key]
	if !ok || v.IsNull() {
		return Value{}, false
	}
	return v, true
}

// Has reports whether key holds a non-null value.
func (s State) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Set stores v at key. It mutates the receiver and is meant for building
// states before they are handed to a planner.
func (s State) Set(key string, v Value) {
	s[key] = v
}

// Keys returns the keys in sorted order.
func (s State) Keys() []string {
	return sortedKeys(s)
}

// Equal reports whether both states hold the same keys with deep-equal
// values. Stored nulls are treated as absent keys.
func (s State) Equal(o State) bool {
	a, b := s.compact(), o.compact()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		ov, ok := b[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// compact returns s without null entries. It returns s itself when there is nothing to drop.
func (s State) compact() State {
	nulls := 0
	for _, v := range s {
		if v.IsNull() {
			nulls++
		}
	}
	if nulls == 0 {
		return s
	}
	out := make(State, len(s)-nulls)
	for k, v := range s {
		if !v.IsNull() {
			out[k] = v
		}
	}
	return out
}

// Interface converts the state into a map of plain Go values.
func (s State) Interface() map[string]any {
	out := make(map[string]any, len(s))
	for k, v := range s {
		out[k] = v.Interface()
	}
	return out
}
