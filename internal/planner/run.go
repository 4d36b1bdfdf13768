package planner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adebold/warehouse-network-sub010/internal/audit"
	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

// ErrStepFailed is returned by RunPlan when an action's execution fails.
var ErrStepFailed = errors.New("plan step failed")

type RunOptions struct {
	Plan Plan
	// PlanPath, when set, is rewritten with the plan's status as the run progresses.
	PlanPath string
	State    worldstate.State
	Executor Executor
	RunsDir  string
	Audit    *audit.Logger
	// Timeout bounds each step. Zero or less leaves steps unbounded.
	Timeout time.Duration
	Params  map[string]any
	Logger  *zap.Logger
}

type RunResult struct {
	RunID      string           `json:"runId"`
	RunDir     string           `json:"runDir"`
	PlanID     string           `json:"planId"`
	Status     PlanStatus       `json:"status"`
	Steps      []StepResult     `json:"steps"`
	FinalState worldstate.State `json:"finalState"`
	StartedAt  time.Time        `json:"startedAt"`
	EndedAt    time.Time        `json:"endedAt"`
}

type StepResult struct {
	Index       int          `json:"index"`
	ActionID    string       `json:"actionId"`
	Result      ActionResult `json:"result"`
	ChangedKeys []string     `json:"changedKeys,omitempty"`
	StartedAt   time.Time    `json:"startedAt"`
}

// RunPlan executes plan actions in order through the executor, threading the
// state each step returns into the next. It stops at the first failed step
// and does not replan.
func RunPlan(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if opts.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if opts.RunsDir == "" {
		opts.RunsDir = filepath.Join("artifacts", "runs")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	plan := opts.Plan

	runID := uuid.NewString()
	runDir := filepath.Join(opts.RunsDir, runID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure run dir: %w", err)
	}

	state := opts.State.Clone()
	result := &RunResult{
		RunID:      runID,
		RunDir:     runDir,
		PlanID:     plan.ID,
		Status:     StatusExecuting,
		Steps:      []StepResult{},
		FinalState: state,
		StartedAt:  time.Now().UTC(),
	}
	setStatus := func(status PlanStatus) {
		result.Status = status
		plan.Status = status
		if opts.PlanPath == "" {
			return
		}
		if err := SavePlan(opts.PlanPath, plan); err != nil {
			logger.Warn("update plan status", zap.String("plan_id", plan.ID), zap.Error(err))
		}
	}
	logEvent := func(eventType string, payload map[string]any) {
		if opts.Audit == nil {
			return
		}
		if err := opts.Audit.LogEvent("executor", eventType, payload); err != nil {
			logger.Warn("audit log failed", zap.String("event", eventType), zap.Error(err))
		}
	}

	setStatus(StatusExecuting)

	var runErr error
	for idx, action := range plan.Actions {
		if err := ctx.Err(); err != nil {
			setStatus(StatusCancelled)
			runErr = err
			break
		}

		logEvent("plan_step_started", map[string]any{
			"run_id":    runID,
			"plan_id":   plan.ID,
			"step":      idx + 1,
			"action_id": action.ID,
		})

		stepCtx := ctx
		cancel := context.CancelFunc(func() {})
		if opts.Timeout > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		}
		step := StepResult{Index: idx + 1, ActionID: action.ID, StartedAt: time.Now().UTC()}
		step.Result = opts.Executor.Execute(stepCtx, action, state, opts.Params)
		cancel()

		finishPayload := map[string]any{
			"run_id":      runID,
			"plan_id":     plan.ID,
			"step":        idx + 1,
			"action_id":   action.ID,
			"success":     step.Result.Success,
			"duration_ms": step.Result.Duration.Milliseconds(),
		}
		if step.Result.Error != "" {
			finishPayload["error"] = step.Result.Error
		}

		if step.Result.Success {
			if step.Result.NewState != nil {
				step.ChangedKeys = worldstate.Diff(state, step.Result.NewState)
				state = step.Result.NewState.Clone()
			}
			finishPayload["changed_keys"] = step.ChangedKeys
		}
		logEvent("plan_step_finished", finishPayload)
		result.Steps = append(result.Steps, step)

		logger.Info("plan step finished",
			zap.String("run_id", runID),
			zap.Int("step", idx+1),
			zap.String("action", action.ID),
			zap.Bool("success", step.Result.Success),
			zap.Duration("duration", step.Result.Duration),
		)

		if !step.Result.Success {
			if ctxErr := ctx.Err(); ctxErr != nil {
				setStatus(StatusCancelled)
				runErr = fmt.Errorf("step %d (%s): %w", idx+1, action.ID, ctxErr)
				break
			}
			setStatus(StatusFailed)
			msg := step.Result.Error
			if msg == "" {
				msg = step.Result.Message
			}
			runErr = fmt.Errorf("step %d (%s): %s: %w", idx+1, action.ID, msg, ErrStepFailed)
			break
		}
	}
	if runErr == nil {
		setStatus(StatusCompleted)
	}

	result.FinalState = state
	result.EndedAt = time.Now().UTC()

	if err := writeJSON(filepath.Join(runDir, "steps.json"), result.Steps); err != nil {
		return result, err
	}
	if err := worldstate.WriteFile(filepath.Join(runDir, "state.yml"), state); err != nil {
		return result, err
	}
	if err := writeJSON(filepath.Join(runDir, "run.json"), result); err != nil {
		return result, err
	}
	return result, runErr
}
