// Package executor carries out plan actions against the world after planning.
// Nothing here is reachable from the planner's search loop.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/adebold/warehouse-network-sub010/internal/planner"
	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

var (
	_ planner.Executor = (*Simulator)(nil)
	_ planner.Executor = (*CommandExecutor)(nil)
	_ planner.Executor = (*Router)(nil)
)

// Router sends actions that declare a command to Command and everything
// else to Simulate.
type Router struct {
	Command  planner.Executor
	Simulate planner.Executor
}

func (r *Router) Execute(ctx context.Context, action planner.Action, state worldstate.State, params map[string]any) planner.ActionResult {
	target := r.Simulate
	if len(action.Command) > 0 {
		target = r.Command
	}
	if target == nil {
		return failure(fmt.Errorf("no executor configured for action %s", action.ID), 0)
	}
	return target.Execute(ctx, action, state, params)
}

func failure(err error, elapsed time.Duration) planner.ActionResult {
	return planner.ActionResult{
		Success:  false,
		Error:    err.Error(),
		Duration: elapsed,
	}
}

func exitCodeFromError(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return 124
	}
	return 1
}
