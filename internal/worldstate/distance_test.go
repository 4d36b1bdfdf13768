package worldstate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name    string
		current map[string]any
		target  map[string]any
		want    float64
	}{
		{"identical", map[string]any{"a": 1, "b": "x"}, map[string]any{"a": 1, "b": "x"}, 0},
		{"empty target", map[string]any{"a": 1}, map[string]any{}, 0},
		{"missing key penalty", map[string]any{}, map[string]any{"a": true}, MissingKeyPenalty},
		{"stored null is missing", map[string]any{"a": nil}, map[string]any{"a": true}, MissingKeyPenalty},
		{"null target met by absent key", map[string]any{"b": 1}, map[string]any{"a": nil}, 0},
		{"null target with present key", map[string]any{"a": 1}, map[string]any{"a": nil}, 1},
		{"numeric gap", map[string]any{"staff": 2}, map[string]any{"staff": 5}, 3},
		{"bool mismatch", map[string]any{"dock": false}, map[string]any{"dock": true}, 1},
		{"string mismatch", map[string]any{"zone": "A"}, map[string]any{"zone": "B"}, 1},
		{"lists differ by length and index", map[string]any{"q": []any{1, 2}}, map[string]any{"q": []any{1, 3, 4}}, 3},
		{"list equal", map[string]any{"q": []any{1, 2}}, map[string]any{"q": []any{1, 2}}, 0},
		{"map key diff", map[string]any{"m": map[string]any{"a": 1, "b": 2}}, map[string]any{"m": map[string]any{"a": 1, "c": 2}}, 2},
		{"mixed kinds compare as text", map[string]any{"n": "3"}, map[string]any{"n": 3}, 0},
		{"extra current keys ignored", map[string]any{"a": 1, "z": 9}, map[string]any{"a": 1}, 0},
		{"sum across keys", map[string]any{"a": 1, "dock": false}, map[string]any{"a": 4, "dock": true, "c": "x"}, 3 + 1 + MissingKeyPenalty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(MustFromMap(tt.current), MustFromMap(tt.target))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestGoalDistance(t *testing.T) {
	state := MustFromMap(map[string]any{
		"staff":  2,
		"orders": []any{"o-1"},
		"zone":   "A",
	})

	tests := []struct {
		name  string
		conds map[string]any
		want  float64
	}{
		{"met equality", map[string]any{"zone": "A"}, 0},
		{"numeric equality gap", map[string]any{"staff": 5}, 3},
		{"missing equality", map[string]any{"dock": true}, MissingKeyPenalty},
		{"null expects absent and is", map[string]any{"dock": nil}, 0},
		{"null expects absent but present", map[string]any{"zone": nil}, 1},
		{"operator met", map[string]any{"staff": map[string]any{"operator": ">=", "value": 2}}, 0},
		{"operator unmet", map[string]any{"staff": map[string]any{"operator": ">", "value": 4}}, 1},
		{"operator on missing key", map[string]any{"dock": map[string]any{"operator": "exists"}}, MissingKeyPenalty},
		{"not exists unmet", map[string]any{"zone": map[string]any{"operator": "not_exists"}}, 1},
		{"not exists met", map[string]any{"dock": map[string]any{"operator": "not_exists"}}, 0},
		{"contains unmet", map[string]any{"orders": map[string]any{"operator": "contains", "value": "o-2"}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GoalDistance(state, MustConditions(tt.conds))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestGoalDistanceZeroWhenSatisfied(t *testing.T) {
	state := MustFromMap(map[string]any{"dock": true, "staff": 4, "orders": []any{"o-1"}})
	conds := MustConditions(map[string]any{
		"dock":   true,
		"staff":  map[string]any{"operator": ">=", "value": 3},
		"orders": map[string]any{"operator": "contains", "value": "o-1"},
	})
	assert.True(t, Satisfies(state, conds))
	assert.Zero(t, GoalDistance(state, conds))
}

func TestGoalDistanceStoredNull(t *testing.T) {
	state := State{"dock": Null(), "staff": Int(2)}
	assert.InDelta(t, MissingKeyPenalty, GoalDistance(state, Conditions{"dock": Eq(Bool(true))}), 1e-9)
	assert.Zero(t, GoalDistance(state, Conditions{"dock": Eq(Null())}))
}
