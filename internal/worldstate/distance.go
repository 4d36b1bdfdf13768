package worldstate

import "math"

// MissingKeyPenalty is the distance charged for a target key absent from the current state.
const MissingKeyPenalty = 10.0

// Distance scores how far current is from target over the keys of target.
// It is a similarity measure for search guidance, not a lower bound on cost.
func Distance(current, target State) float64 {
	total := 0.0
	for _, key := range target.Keys() {
		want := target[key]
		have, ok := current.Get(key)
		if want.IsNull() {
			if ok {
				total++
			}
			continue
		}
		if !ok {
			total += MissingKeyPenalty
			continue
		}
		total += valueDistance(have, want)
	}
	return total
}

// GoalDistance scores how far current is from meeting conds. Equality
// conditions use the same per-value rules as Distance; other operators
// contribute 0 when met and 1 otherwise.
func GoalDistance(current State, conds Conditions) float64 {
	total := 0.0
	for _, key := range conds.Keys() {
		c := conds[key]
		if c.Op == OpEqual || c.Op == "" {
			if c.Value.IsNull() {
				if current.Has(key) {
					total++
				}
				continue
			}
			have, ok := current.Get(key)
			if !ok {
				total += MissingKeyPenalty
				continue
			}
			total += valueDistance(have, c.Value)
			continue
		}
		ok, err := c.Matches(current, key)
		switch {
		case err == nil && ok:
		case !current.Has(key) && c.Op != OpNotExists:
			total += MissingKeyPenalty
		default:
			total++
		}
	}
	return total
}

func valueDistance(a, b Value) float64 {
	switch {
	case a.Kind() == KindNumber && b.Kind() == KindNumber:
		x, _ := a.AsNumber()
		y, _ := b.AsNumber()
		return math.Abs(x - y)
	case a.Kind() == KindBool && b.Kind() == KindBool:
		if a.Equal(b) {
			return 0
		}
		return 1
	case a.Kind() == KindList && b.Kind() == KindList:
		x, _ := a.AsList()
		y, _ := b.AsList()
		longest := max(len(x), len(y))
		d := math.Abs(float64(len(x) - len(y)))
		for i := 0; i < longest; i++ {
			if i >= len(x) || i >= len(y) || !x[i].Equal(y[i]) {
				d++
			}
		}
		return d
	case a.Kind() == KindMap && b.Kind() == KindMap:
		x, _ := a.AsMap()
		y, _ := b.AsMap()
		d := 0.0
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !xv.Equal(yv) {
				d++
			}
		}
		for k := range y {
			if _, ok := x[k]; !ok {
				d++
			}
		}
		return d
	}
	if a.String() == b.String() {
		return 0
	}
	return 1
}
