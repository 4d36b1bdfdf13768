package planner

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adebold/warehouse-network-sub010/internal/audit"
	ws "github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

// applyExecutor applies effects and fails the action named failOn.
type applyExecutor struct {
	failOn string
	calls  []string
}

func (e *applyExecutor) Execute(_ context.Context, a Action, state ws.State, _ map[string]any) ActionResult {
	e.calls = append(e.calls, a.ID)
	if a.ID == e.failOn {
		return ActionResult{Error: "dock door jammed", ExitCode: 2}
	}
	next, err := ws.Apply(state, a.Effects)
	if err != nil {
		return ActionResult{Error: err.Error()}
	}
	return ActionResult{Success: true, NewState: next}
}

func dockPlan() Plan {
	assign := action("assign_staff", 1, nil, map[string]any{"staffAvailable": true})
	coordinate := action("coordinate_resources", 2, map[string]any{"staffAvailable": true}, map[string]any{"dockAvailable": true})
	return Plan{
		ID:            "plan-1",
		Goal:          goal("dock_ready", map[string]any{"dockAvailable": true}),
		Actions:       []Action{assign, coordinate},
		EstimatedCost: 3,
		Status:        StatusPending,
	}
}

func TestRunPlanCompletes(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plans", "plan-1", "plan.json")
	require.NoError(t, SavePlan(planPath, dockPlan()))
	auditLog := audit.NewLogger(filepath.Join(dir, "audit.db"))

	exec := &applyExecutor{}
	res, err := RunPlan(context.Background(), RunOptions{
		Plan:     dockPlan(),
		PlanPath: planPath,
		State:    ws.MustFromMap(map[string]any{"staffAvailable": false, "dockAvailable": false}),
		Executor: exec,
		RunsDir:  filepath.Join(dir, "runs"),
		Audit:    auditLog,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, res.Status)
	assert.Equal(t, []string{"assign_staff", "coordinate_resources"}, exec.calls)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, []string{"staffAvailable"}, res.Steps[0].ChangedKeys)
	assert.Equal(t, []string{"dockAvailable"}, res.Steps[1].ChangedKeys)
	assert.Equal(t, ws.Bool(true), res.FinalState["dockAvailable"])

	saved, err := LoadPlan(planPath)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, saved.Status)

	final, err := ws.LoadFile(filepath.Join(res.RunDir, "state.yml"))
	require.NoError(t, err)
	assert.True(t, final.Equal(res.FinalState))

	data, err := os.ReadFile(filepath.Join(res.RunDir, "steps.json"))
	require.NoError(t, err)
	var steps []map[string]any
	require.NoError(t, json.Unmarshal(data, &steps))
	assert.Len(t, steps, 2)
	assert.FileExists(t, filepath.Join(res.RunDir, "run.json"))

	events, err := auditLog.Events(0)
	require.NoError(t, err)
	var types []string
	for _, ev := range events {
		types = append(types, ev.Type)
		assert.Equal(t, "executor", ev.Actor)
	}
	assert.Equal(t, []string{"plan_step_started", "plan_step_finished", "plan_step_started", "plan_step_finished"}, types)
}

func TestRunPlanStopsAtFirstFailure(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.json")
	require.NoError(t, SavePlan(planPath, dockPlan()))

	exec := &applyExecutor{failOn: "assign_staff"}
	res, err := RunPlan(context.Background(), RunOptions{
		Plan:     dockPlan(),
		PlanPath: planPath,
		State:    ws.MustFromMap(map[string]any{"staffAvailable": false}),
		Executor: exec,
		RunsDir:  filepath.Join(dir, "runs"),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStepFailed))
	assert.Contains(t, err.Error(), "dock door jammed")

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, []string{"assign_staff"}, exec.calls)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, 2, res.Steps[0].Result.ExitCode)
	assert.Equal(t, ws.Bool(false), res.FinalState["staffAvailable"])

	saved, err := LoadPlan(planPath)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, saved.Status)
}

func TestRunPlanCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &applyExecutor{}
	res, err := RunPlan(ctx, RunOptions{
		Plan:     dockPlan(),
		State:    ws.New(),
		Executor: exec,
		RunsDir:  t.TempDir(),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Empty(t, exec.calls)
}

// cancellingExecutor cancels the run and then blocks until the action observes it.
type cancellingExecutor struct {
	cancel context.CancelFunc
	calls  []string
}

func (e *cancellingExecutor) Execute(ctx context.Context, a Action, _ ws.State, _ map[string]any) ActionResult {
	e.calls = append(e.calls, a.ID)
	e.cancel()
	<-ctx.Done()
	return ActionResult{Error: ctx.Err().Error(), ExitCode: -1}
}

func TestRunPlanCancelledDuringStep(t *testing.T) {
	dir := t.TempDir()
	planPath := filepath.Join(dir, "plan.json")
	require.NoError(t, SavePlan(planPath, dockPlan()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	exec := &cancellingExecutor{cancel: cancel}
	res, err := RunPlan(ctx, RunOptions{
		Plan:     dockPlan(),
		PlanPath: planPath,
		State:    ws.New(),
		Executor: exec,
		RunsDir:  filepath.Join(dir, "runs"),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrStepFailed))
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Equal(t, []string{"assign_staff"}, exec.calls)
	require.Len(t, res.Steps, 1)

	saved, err := LoadPlan(planPath)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, saved.Status)
}

func TestRunPlanRequiresExecutor(t *testing.T) {
	_, err := RunPlan(context.Background(), RunOptions{Plan: dockPlan(), RunsDir: t.TempDir()})
	require.Error(t, err)
}
