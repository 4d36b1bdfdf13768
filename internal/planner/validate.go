package planner

import (
	"fmt"
	"strings"
)

func ValidateGoal(goal Goal) error {
	if strings.TrimSpace(goal.ID) == "" {
		return fmt.Errorf("goal id is required")
	}
	if len(goal.Target) == 0 {
		return fmt.Errorf("goal %s: target is required", goal.ID)
	}
	if err := goal.Target.Validate(); err != nil {
		return fmt.Errorf("goal %s: target: %w", goal.ID, err)
	}
	return nil
}

func ValidateAction(action Action) error {
	if strings.TrimSpace(action.ID) == "" {
		return fmt.Errorf("action id is required")
	}
	if action.Cost < 0 {
		return fmt.Errorf("action %s: cost must be non-negative", action.ID)
	}
	if action.Duration < 0 {
		return fmt.Errorf("action %s: duration must be non-negative", action.ID)
	}
	if err := action.Preconditions.Validate(); err != nil {
		return fmt.Errorf("action %s: preconditions: %w", action.ID, err)
	}
	if err := action.Effects.Validate(); err != nil {
		return fmt.Errorf("action %s: effects: %w", action.ID, err)
	}
	return nil
}

// ValidatePlan checks a plan loaded from disk. An empty action list is valid:
// it is the plan for an already-satisfied goal.
func ValidatePlan(plan Plan) error {
	if strings.TrimSpace(plan.ID) == "" {
		return fmt.Errorf("%w: plan id is required", ErrInvalidPlan)
	}
	if err := ValidateGoal(plan.Goal); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPlan, err)
	}
	if plan.Status != "" && !plan.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidPlan, plan.Status)
	}
	total := 0.0
	for idx, action := range plan.Actions {
		if err := ValidateAction(action); err != nil {
			return fmt.Errorf("%w: action %d: %w", ErrInvalidPlan, idx, err)
		}
		total += action.Cost
	}
	if diff := total - plan.EstimatedCost; diff > 1e-9 || diff < -1e-9 {
		return fmt.Errorf("%w: estimatedCost %g does not match action costs %g", ErrInvalidPlan, plan.EstimatedCost, total)
	}
	return nil
}
