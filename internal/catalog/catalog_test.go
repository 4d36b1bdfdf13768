package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

func TestParseAndValidateDocumentValid(t *testing.T) {
	yml := `
actions:
  - id: coordinate_resources
    name: Coordinate resources
    preconditions:
      staffAvailable: true
    effects:
      dockAvailable: true
    cost: 2
    duration_ms: 500
    capabilities: [coordination, coordination]
    guard: state.staffAvailable == true
goals:
  - id: dock_ready
    target:
      dockAvailable: true
agents:
  - id: dock-agent
    capabilities: [coordination]
`
	doc, err := ParseAndValidateDocument([]byte(yml), "test.yml")
	require.NoError(t, err)
	require.Len(t, doc.Actions, 1)
	require.Len(t, doc.Goals, 1)
	require.Len(t, doc.Agents, 1)

	action := doc.Actions[0]
	assert.Equal(t, "coordinate_resources", action.ID)
	assert.Equal(t, 2.0, action.Cost)
	assert.Equal(t, 500*time.Millisecond, action.Duration)
	assert.Equal(t, []string{"coordination"}, action.Capabilities)
	assert.Equal(t, worldstate.Set(worldstate.Bool(true)), action.Effects["dockAvailable"])
	assert.Equal(t, "test.yml", action.Source)

	goal := doc.Goals[0]
	assert.Equal(t, "dock_ready", goal.Name, "name defaults to id")
	assert.Equal(t, 1.0, goal.Priority, "priority defaults to 1")
}

func TestParseAndValidateDocumentMissingFields(t *testing.T) {
	yml := `
actions:
  - id: ""
    effects: {}
    cost: -1
    duration_ms: -5
    capabilities: [""]
    guard: "state.x >"
  - id: bad_ops
    preconditions:
      staff:
        operator: between
        value: 1
    effects:
      queue:
        operation: push
    cost: 1
goals:
  - id: g
    target: {}
    priority: -1
agents:
  - capabilities: [ok]
`
	_, err := ParseAndValidateDocument([]byte(yml), "bad.yml")
	require.Error(t, err)
	var ves ValidationErrors
	require.True(t, errors.As(err, &ves), "expected ValidationErrors, got %T", err)

	fields := make(map[string]bool)
	for _, ve := range ves {
		assert.Equal(t, "bad.yml", ve.File)
		fields[ve.Field] = true
	}
	for _, want := range []string{
		"actions[0].id",
		"actions[0].effects",
		"actions[0].cost",
		"actions[0].duration_ms",
		"actions[0].capabilities",
		"actions[0].guard",
		"actions[1].preconditions",
		"actions[1].effects",
		"goals[0].target",
		"goals[0].priority",
		"agents[0].id",
	} {
		assert.True(t, fields[want], "missing validation error for %s in:\n%v", want, err)
	}
}

func TestParseAndValidateDocumentRejectsEmptyAndInvalidYAML(t *testing.T) {
	_, err := ParseAndValidateDocument([]byte("{}\n"), "empty.yml")
	assert.Error(t, err)

	_, err = ParseAndValidateDocument([]byte("actions: [\n"), "broken.yml")
	var ves ValidationErrors
	require.True(t, errors.As(err, &ves))
	assert.Equal(t, "yaml", ves[0].Field)
}

func TestParseAndValidateDocumentDuplicateWithinDocument(t *testing.T) {
	yml := `
actions:
  - id: a
    effects: {x: 1}
    cost: 1
  - id: a
    effects: {x: 2}
    cost: 1
`
	_, err := ParseAndValidateDocument([]byte(yml), "dup.yml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate action id "a"`)
}

func TestLoadFromDirAndLookup(t *testing.T) {
	dir := t.TempDir()

	actions := `
actions:
  - id: assign_staff
    effects: {staffAvailable: true}
    cost: 1
    priority: 2
    capabilities: [staffing]
  - id: coordinate_resources
    preconditions: {staffAvailable: true}
    effects: {dockAvailable: true}
    cost: 2
    priority: 2
  - id: request_forklift
    effects: {forkliftAvailable: true}
    cost: 1
`
	goals := `
goals:
  - id: dock_ready
    target: {dockAvailable: true}
    priority: 1
  - id: all_ready
    target: {dockAvailable: true, forkliftAvailable: true}
    priority: 5
agents:
  - id: coordinator
    capabilities: [staffing]
`
	writeFile(t, filepath.Join(dir, "actions.yml"), actions)
	writeFile(t, filepath.Join(dir, "goals.yaml"), goals)
	writeFile(t, filepath.Join(dir, "README.md"), "ignored")

	store, err := LoadFromDir(dir)
	require.NoError(t, err)

	if _, ok := store.Action("coordinate_resources"); !ok {
		t.Fatalf("expected coordinate_resources in lookup")
	}
	if _, ok := store.Goal("missing"); ok {
		t.Fatalf("unexpected goal lookup hit")
	}

	var ids []string
	for _, a := range store.Actions() {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"assign_staff", "coordinate_resources", "request_forklift"}, ids)

	top, ok := store.TopGoal()
	require.True(t, ok)
	assert.Equal(t, "all_ready", top.ID)

	agentActions, err := store.ActionsForAgent("coordinator")
	require.NoError(t, err)
	ids = ids[:0]
	for _, a := range agentActions {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"assign_staff", "coordinate_resources", "request_forklift"}, ids)

	_, err = store.ActionsForAgent("ghost")
	assert.Error(t, err)
}

func TestLoadFromDirDuplicateAcrossDocuments(t *testing.T) {
	dir := t.TempDir()
	doc := `
actions:
  - id: assign_staff
    effects: {staffAvailable: true}
    cost: 1
`
	writeFile(t, filepath.Join(dir, "one.yml"), doc)
	writeFile(t, filepath.Join(dir, "two.yml"), doc)

	_, err := LoadFromDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already defined in")
}

func TestLoadFromDirEmpty(t *testing.T) {
	_, err := LoadFromDir(t.TempDir())
	assert.Error(t, err)
}

func TestFilterByCapabilities(t *testing.T) {
	actions := []ActionSpec{
		{ID: "open", Capabilities: nil},
		{ID: "dock", Capabilities: []string{"coordination"}},
		{ID: "ship", Capabilities: []string{"shipping", "coordination"}},
	}

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{"no tags keeps unrestricted", nil, []string{"open"}},
		{"partial coverage", []string{"coordination"}, []string{"open", "dock"}},
		{"full coverage", []string{"shipping", "coordination"}, []string{"open", "dock", "ship"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, a := range FilterByCapabilities(actions, tt.tags) {
				got = append(got, a.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWarehouseCatalog(t *testing.T) {
	store, err := Warehouse()
	require.NoError(t, err)

	for _, id := range []string{"receive_inventory", "put_away", "pick_order", "pack_order", "schedule_shipment", "coordinate_resources", "assign_staff"} {
		_, ok := store.Action(id)
		assert.True(t, ok, "missing action %s", id)
	}
	top, ok := store.TopGoal()
	require.True(t, ok)
	assert.Equal(t, "orders_shipped", top.ID)

	dockOnly, err := store.ActionsForAgent("dock-coordinator")
	require.NoError(t, err)
	for _, a := range dockOnly {
		assert.True(t, HasCapabilities(a.Capabilities, []string{"staffing", "coordination"}), a.ID)
	}

	var state worldstate.State
	path := filepath.Join(t.TempDir(), "state.yml")
	writeFile(t, path, WarehouseStateTemplate)
	state, err = worldstate.LoadFile(path)
	require.NoError(t, err)
	assert.True(t, state.Has("pendingOrders"))
}

func writeFile(t *testing.T, path string, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write file %s: %v", path, err)
	}
}
