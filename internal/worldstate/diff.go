package worldstate

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"
)

// Diff returns the sorted keys whose values differ between a and b,
// including keys present on only one side.
func Diff(a, b State) []string {
	changed := make(map[string]struct{})
	for k, av := range a {
		if bv, ok := b[k]; !ok || !av.Equal(bv) {
			changed[k] = struct{}{}
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			changed[k] = struct{}{}
		}
	}
	return sortedKeys(changed)
}

// UnifiedDiff renders a unified diff between the YAML forms of two states.
// It returns an empty string when the states are equal.
func UnifiedDiff(a, b State, fromName, toName string) (string, error) {
	before, err := Render(a)
	if err != nil {
		return "", err
	}
	after, err := Render(b)
	if err != nil {
		return "", err
	}
	if before == after {
		return "", nil
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("render diff: %w", err)
	}
	return text, nil
}

// Render returns the YAML form of state with keys sorted.
func Render(state State) (string, error) {
	if len(state) == 0 {
		return "{}\n", nil
	}
	data, err := yaml.Marshal(state.Interface())
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}
