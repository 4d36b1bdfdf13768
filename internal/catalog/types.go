// Package catalog loads the declarative planning domain: the actions an agent
// may take, the goals it may pursue and the agents with their capability tags.
// Catalog documents are YAML files; the planner only ever sees the flat
// action list this package produces.
package catalog

import (
	"sort"
	"time"

	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

// Document is a normalized catalog document loaded from YAML.
type Document struct {
	Actions []ActionSpec
	Goals   []GoalSpec
	Agents  []AgentSpec
	Source  string
}

// ActionSpec describes one domain action.
type ActionSpec struct {
	ID            string
	Name          string
	Description   string
	Preconditions worldstate.Conditions
	Effects       worldstate.Effects
	Cost          float64
	Priority      float64
	Duration      time.Duration
	Capabilities  []string
	Guard         string
	Command       []string
	Source        string
}

// GoalSpec describes one goal an agent may pursue.
type GoalSpec struct {
	ID       string
	Name     string
	Target   worldstate.Conditions
	Priority float64
	Source   string
}

// AgentSpec declares the capability tags of an agent.
type AgentSpec struct {
	ID           string
	Name         string
	Capabilities []string
	Source       string
}

// Store is the in-memory representation of a loaded catalog.
type Store struct {
	Documents []Document

	actions map[string]ActionSpec
	goals   map[string]GoalSpec
	agents  map[string]AgentSpec
}

// Action returns the action with the given id, if present.
func (s *Store) Action(id string) (ActionSpec, bool) {
	if s == nil {
		return ActionSpec{}, false
	}
	a, ok := s.actions[id]
	return a, ok
}

// Goal returns the goal with the given id, if present.
func (s *Store) Goal(id string) (GoalSpec, bool) {
	if s == nil {
		return GoalSpec{}, false
	}
	g, ok := s.goals[id]
	return g, ok
}

// Agent returns the agent with the given id, if present.
func (s *Store) Agent(id string) (AgentSpec, bool) {
	if s == nil {
		return AgentSpec{}, false
	}
	a, ok := s.agents[id]
	return a, ok
}

// Actions returns every action, highest priority first and then by id. The
// planner breaks score ties by this order.
func (s *Store) Actions() []ActionSpec {
	if s == nil {
		return nil
	}
	out := make([]ActionSpec, 0, len(s.actions))
	for _, a := range s.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Goals returns every goal sorted by id.
func (s *Store) Goals() []GoalSpec {
	if s == nil {
		return nil
	}
	out := make([]GoalSpec, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Agents returns every agent sorted by id.
func (s *Store) Agents() []AgentSpec {
	if s == nil {
		return nil
	}
	out := make([]AgentSpec, 0, len(s.agents))
	for _, a := range s.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TopGoal returns the highest-priority goal, the lowest id winning ties.
func (s *Store) TopGoal() (GoalSpec, bool) {
	goals := s.Goals()
	if len(goals) == 0 {
		return GoalSpec{}, false
	}
	best := goals[0]
	for _, g := range goals[1:] {
		if g.Priority > best.Priority {
			best = g
		}
	}
	return best, true
}
