package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

// ErrInvalidPlan is returned when a plan document fails validation.
var ErrInvalidPlan = errors.New("invalid plan")

// Goal is a partial world state the planner searches for.
type Goal struct {
	ID       string                `json:"id"`
	Name     string                `json:"name,omitempty"`
	Target   worldstate.Conditions `json:"target"`
	Priority float64               `json:"priority"`
}

// Action is a uniform planning operator. It is pure data: executing an action
// against the real world is the job of an Executor, never of the planner.
type Action struct {
	ID            string                `json:"id"`
	Name          string                `json:"name,omitempty"`
	Description   string                `json:"description,omitempty"`
	Preconditions worldstate.Conditions `json:"preconditions,omitempty"`
	Effects       worldstate.Effects    `json:"effects"`
	Cost          float64               `json:"cost"`
	Priority      float64               `json:"priority,omitempty"`
	Duration      time.Duration         `json:"-"`
	Capabilities  []string              `json:"capabilities,omitempty"`
	Guard         string                `json:"guard,omitempty"`
	Command       []string              `json:"command,omitempty"`
}

func (a Action) MarshalJSON() ([]byte, error) {
	type alias Action
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"durationMs,omitempty"`
	}{alias(a), a.Duration.Milliseconds()})
}

func (a *Action) UnmarshalJSON(data []byte) error {
	type alias Action
	aux := struct {
		*alias
		DurationMs int64 `json:"durationMs"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Duration = time.Duration(aux.DurationMs) * time.Millisecond
	return nil
}

// PlanStatus tracks a plan through execution.
type PlanStatus string

const (
	StatusPending   PlanStatus = "pending"
	StatusExecuting PlanStatus = "executing"
	StatusCompleted PlanStatus = "completed"
	StatusFailed    PlanStatus = "failed"
	StatusCancelled PlanStatus = "cancelled"
)

func (s PlanStatus) Valid() bool {
	switch s {
	case StatusPending, StatusExecuting, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Plan is an ordered action sequence for a goal.
type Plan struct {
	ID                string        `json:"id"`
	Goal              Goal          `json:"goal"`
	Actions           []Action      `json:"actions"`
	EstimatedCost     float64       `json:"estimatedCost"`
	EstimatedDuration time.Duration `json:"-"`
	CreatedAt         time.Time     `json:"createdAt"`
	Status            PlanStatus    `json:"status"`
}

func (p Plan) MarshalJSON() ([]byte, error) {
	type alias Plan
	if p.Actions == nil {
		p.Actions = []Action{}
	}
	return json.Marshal(struct {
		alias
		EstimatedDurationMs int64 `json:"estimatedDurationMs"`
	}{alias(p), p.EstimatedDuration.Milliseconds()})
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	type alias Plan
	aux := struct {
		*alias
		EstimatedDurationMs int64 `json:"estimatedDurationMs"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.EstimatedDuration = time.Duration(aux.EstimatedDurationMs) * time.Millisecond
	return nil
}

// ActionIDs returns the ids of the plan's actions in order.
func (p Plan) ActionIDs() []string {
	ids := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		ids[i] = a.ID
	}
	return ids
}

// Result is the outcome of one planning call. A missing plan is a normal
// result, not an error.
type Result struct {
	Plan          *Plan         `json:"plan,omitempty"`
	Success       bool          `json:"success"`
	Partial       bool          `json:"partial"`
	Message       string        `json:"message"`
	ExploredNodes int           `json:"exploredNodes"`
	PlanningTime  time.Duration `json:"-"`
	Diagnostics   []string      `json:"diagnostics,omitempty"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	type alias Result
	return json.Marshal(struct {
		alias
		PlanningTimeMs int64 `json:"planningTimeMs"`
	}{alias(r), r.PlanningTime.Milliseconds()})
}

func (r *Result) UnmarshalJSON(data []byte) error {
	type alias Result
	aux := struct {
		*alias
		PlanningTimeMs int64 `json:"planningTimeMs"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.PlanningTime = time.Duration(aux.PlanningTimeMs) * time.Millisecond
	return nil
}

// Config tunes the search.
type Config struct {
	// MaxDepth bounds the number of actions on any explored path. Zero or less disables the bound.
	MaxDepth int
	// Timeout bounds wall-clock planning time. Zero or less disables the deadline.
	Timeout           time.Duration
	AllowPartialPlans bool
	CostWeight        float64
	PriorityWeight    float64
}

func DefaultConfig() Config {
	return Config{
		MaxDepth:          10,
		Timeout:           30 * time.Second,
		AllowPartialPlans: true,
		CostWeight:        1.0,
		PriorityWeight:    0.5,
	}
}

// Validate checks the bounds a loaded configuration must respect.
func (c Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.CostWeight < 0 {
		return fmt.Errorf("cost_weight must be non-negative")
	}
	if c.PriorityWeight < 0 {
		return fmt.Errorf("priority_weight must be non-negative")
	}
	return nil
}

// ActionResult reports one real-world execution of an action.
type ActionResult struct {
	Success  bool             `json:"success"`
	NewState worldstate.State `json:"newState,omitempty"`
	Message  string           `json:"message,omitempty"`
	Error    string           `json:"error,omitempty"`
	ExitCode int              `json:"exitCode,omitempty"`
	Duration time.Duration    `json:"-"`
}

func (r ActionResult) MarshalJSON() ([]byte, error) {
	type alias ActionResult
	return json.Marshal(struct {
		alias
		DurationMs int64 `json:"durationMs"`
	}{alias(r), r.Duration.Milliseconds()})
}

// Executor carries out plan actions after planning. Implementations report
// failure through ActionResult rather than by returning an error.
type Executor interface {
	Execute(ctx context.Context, action Action, state worldstate.State, params map[string]any) ActionResult
}
