package audit

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogAndReadEvents(t *testing.T) {
	logger := NewLogger(filepath.Join(t.TempDir(), "audit", "events.db"))

	require.NoError(t, logger.LogEvent("cli", "plan_generate_started", map[string]any{"goal_id": "dock_ready"}))
	require.NoError(t, logger.LogEvent("executor", "plan_step_finished", map[string]any{"action_id": "assign_staff", "success": true}))
	require.NoError(t, logger.LogEvent("cli", "plan_generate_finished", map[string]any{"success": true}))

	events, err := logger.Events(0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "plan_generate_started", events[0].Type)
	assert.Equal(t, "dock_ready", events[0].Payload["goal_id"])
	assert.Equal(t, "executor", events[1].Actor)
	assert.Equal(t, true, events[1].Payload["success"])
	assert.False(t, events[0].TS.IsZero())

	latest, err := logger.Events(2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "plan_step_finished", latest[0].Type)
	assert.Equal(t, "plan_generate_finished", latest[1].Type)
}

func TestLoggerUsesEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.db")
	t.Setenv(EnvDBPath, path)

	var logger *Logger
	require.NoError(t, logger.LogEvent("cli", "init_started", map[string]any{}))

	events, err := NewLogger(path).Events(0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "init_started", events[0].Type)
}

func TestQueryFiltersByTypeAndActor(t *testing.T) {
	logger := NewLogger(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, logger.LogEvent("cli", "plan_run_started", map[string]any{"run_id": "r-1"}))
	require.NoError(t, logger.LogEvent("executor", "plan_step_finished", map[string]any{"step": 1}))
	require.NoError(t, logger.LogEvent("executor", "plan_step_finished", map[string]any{"step": 2}))
	require.NoError(t, logger.LogEvent("cli", "plan_step_finished", map[string]any{"step": 3}))

	steps, err := logger.Query(Filter{Type: "plan_step_finished", Actor: "executor"})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, float64(1), steps[0].Payload["step"])
	assert.Equal(t, float64(2), steps[1].Payload["step"])
	assert.True(t, !steps[1].TS.Before(steps[0].TS))

	last, err := logger.Query(Filter{Type: "plan_step_finished", Limit: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "cli", last[0].Actor)

	none, err := logger.Query(Filter{Type: "plan_run_finished"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
