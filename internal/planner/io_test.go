package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "plan.json")
	plan := dockPlan()

	require.NoError(t, SavePlan(path, plan))
	loaded, err := LoadPlan(path)
	require.NoError(t, err)
	assert.Equal(t, plan.ActionIDs(), loaded.ActionIDs())
	assert.Equal(t, plan.EstimatedCost, loaded.EstimatedCost)

	resolved, err := ResolvePlanPath(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	resolved, err = ResolvePlanPath(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
}

func TestResolvePlanPathErrors(t *testing.T) {
	_, err := ResolvePlanPath("")
	require.Error(t, err)
	_, err = ResolvePlanPath(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestLoadPlanRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	mismatched := dockPlan()
	mismatched.EstimatedCost = 10
	path := filepath.Join(dir, "cost.json")
	require.NoError(t, SavePlan(path, mismatched))
	_, err := LoadPlan(path)
	require.ErrorIs(t, err, ErrInvalidPlan)

	badStatus := dockPlan()
	badStatus.Status = "paused"
	path = filepath.Join(dir, "status.json")
	require.NoError(t, SavePlan(path, badStatus))
	_, err = LoadPlan(path)
	require.ErrorIs(t, err, ErrInvalidPlan)

	path = filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = LoadPlan(path)
	require.Error(t, err)
}

func TestValidateAction(t *testing.T) {
	a := action("a", 1, nil, nil)
	require.NoError(t, ValidateAction(a))

	a.Cost = -1
	require.Error(t, ValidateAction(a))

	require.Error(t, ValidateAction(action(" ", 1, nil, nil)))
}
