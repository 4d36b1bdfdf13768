package planner

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/adebold/warehouse-network-sub010/internal/catalog"
	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

type GenerateOptions struct {
	CatalogDir    string
	StatePath     string
	GoalID        string
	AgentID       string
	OutputBaseDir string
	Config        *Config
	Logger        *zap.Logger
	Now           func() time.Time
}

type GenerateResult struct {
	Result         Result
	Goal           Goal
	PlanPath       string
	ResultPath     string
	InitialState   worldstate.State
	PredictedState worldstate.State
}

// Generate loads a workspace catalog and state, plans toward the selected
// goal and writes plan.json and result.json under OutputBaseDir/<plan-id>.
// Nothing is written when no plan, partial or complete, was found.
func Generate(opts GenerateOptions) (GenerateResult, error) {
	if opts.CatalogDir == "" {
		opts.CatalogDir = "catalog"
	}
	if opts.StatePath == "" {
		opts.StatePath = filepath.Join("states", "current.yml")
	}
	if opts.OutputBaseDir == "" {
		opts.OutputBaseDir = filepath.Join("artifacts", "plans")
	}
	cfg := DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	store, err := catalog.LoadFromDir(opts.CatalogDir)
	if err != nil {
		return GenerateResult{}, err
	}
	goalSpec, err := selectGoal(store, opts.GoalID)
	if err != nil {
		return GenerateResult{}, err
	}
	specs, err := store.ActionsForAgent(opts.AgentID)
	if err != nil {
		return GenerateResult{}, err
	}
	state, err := worldstate.LoadFile(opts.StatePath)
	if err != nil {
		return GenerateResult{}, err
	}

	p := New(WithConfig(cfg), WithLogger(opts.Logger), WithClock(opts.Now))
	goal := GoalFromSpec(goalSpec)
	res := p.Plan(goal, state, ActionsFromSpecs(specs))

	out := GenerateResult{
		Result:       res,
		Goal:         goal,
		InitialState: state,
	}
	if res.Plan == nil {
		return out, nil
	}

	predicted, err := Predict(state, res.Plan.Actions)
	if err != nil {
		return out, fmt.Errorf("predict plan outcome: %w", err)
	}
	out.PredictedState = predicted

	planDir := filepath.Join(opts.OutputBaseDir, res.Plan.ID)
	out.PlanPath = filepath.Join(planDir, "plan.json")
	out.ResultPath = filepath.Join(planDir, "result.json")
	if err := SavePlan(out.PlanPath, *res.Plan); err != nil {
		return out, err
	}
	if err := writeJSON(out.ResultPath, res); err != nil {
		return out, err
	}
	return out, nil
}

func selectGoal(store *catalog.Store, goalID string) (catalog.GoalSpec, error) {
	if goalID != "" {
		g, ok := store.Goal(goalID)
		if !ok {
			return catalog.GoalSpec{}, fmt.Errorf("unknown goal_id: %s", goalID)
		}
		return g, nil
	}
	g, ok := store.TopGoal()
	if !ok {
		return catalog.GoalSpec{}, fmt.Errorf("catalog defines no goals")
	}
	return g, nil
}

// Predict applies the effects of actions to state in order.
func Predict(state worldstate.State, actions []Action) (worldstate.State, error) {
	current := state
	for _, a := range actions {
		next, err := worldstate.Apply(current, a.Effects)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", a.ID, err)
		}
		current = next
	}
	return current.Clone(), nil
}

func GoalFromSpec(spec catalog.GoalSpec) Goal {
	return Goal{
		ID:       spec.ID,
		Name:     spec.Name,
		Target:   spec.Target,
		Priority: spec.Priority,
	}
}

func ActionFromSpec(spec catalog.ActionSpec) Action {
	return Action{
		ID:            spec.ID,
		Name:          spec.Name,
		Description:   spec.Description,
		Preconditions: spec.Preconditions,
		Effects:       spec.Effects,
		Cost:          spec.Cost,
		Priority:      spec.Priority,
		Duration:      spec.Duration,
		Capabilities:  spec.Capabilities,
		Guard:         spec.Guard,
		Command:       spec.Command,
	}
}

func ActionsFromSpecs(specs []catalog.ActionSpec) []Action {
	out := make([]Action, len(specs))
	for i, s := range specs {
		out[i] = ActionFromSpec(s)
	}
	return out
}
