package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/adebold/warehouse-network-sub010/internal/planner"
	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

var defaultChecker = planner.New()

// Simulator executes actions by applying their declared effects. It is the
// deterministic, offline executor used for dry runs and tests.
type Simulator struct {
	// Planner checks preconditions and guards. A default planner is used when nil.
	Planner *planner.Planner
	// Sleep makes each action take its declared duration.
	Sleep bool
}

func (s *Simulator) Execute(ctx context.Context, action planner.Action, state worldstate.State, _ map[string]any) planner.ActionResult {
	started := time.Now()
	if err := ctx.Err(); err != nil {
		return failure(err, 0)
	}

	checker := s.Planner
	if checker == nil {
		checker = defaultChecker
	}
	if !checker.CanExecuteAction(action, state) {
		return failure(fmt.Errorf("preconditions of %s do not hold", action.ID), time.Since(started))
	}

	next, err := worldstate.Apply(state, action.Effects)
	if err != nil {
		return failure(fmt.Errorf("apply effects of %s: %w", action.ID, err), time.Since(started))
	}

	if s.Sleep && action.Duration > 0 {
		timer := time.NewTimer(action.Duration)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return failure(ctx.Err(), time.Since(started))
		case <-timer.C:
		}
	}

	return planner.ActionResult{
		Success:  true,
		NewState: next,
		Message:  fmt.Sprintf("simulated %s", action.ID),
		Duration: time.Since(started),
	}
}
