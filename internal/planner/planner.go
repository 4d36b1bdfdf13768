// Package planner searches for action sequences that move a world state to a
// goal. The search is a best-first A* variant over worldstate values: it is
// pure, synchronous and in-memory, and each call owns its own search tree.
package planner

import (
	"container/heap"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

// Planner runs goal-directed searches. A Planner is safe for concurrent use.
type Planner struct {
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	guards *guardCache
}

type Option func(*Planner)

func WithConfig(cfg Config) Option {
	return func(p *Planner) { p.cfg = cfg }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock replaces the wall clock used for timeouts and plan timestamps.
// The function may be called from concurrent Plan calls.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) {
		if now != nil {
			p.now = now
		}
	}
}

func WithGuardCacheSize(size int) Option {
	return func(p *Planner) { p.guards = newGuardCache(size) }
}

func New(opts ...Option) *Planner {
	p := &Planner{
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
		guards: newGuardCache(DefaultGuardCacheSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Config returns the configuration the planner searches with.
func (p *Planner) Config() Config {
	return p.cfg
}

// IsGoalSatisfied reports whether state meets every target condition of goal.
func (p *Planner) IsGoalSatisfied(state worldstate.State, goal Goal) bool {
	return worldstate.Satisfies(state, goal.Target)
}

// CanExecuteAction reports whether the action's preconditions and guard hold in state.
func (p *Planner) CanExecuteAction(action Action, state worldstate.State) bool {
	ok, err := p.applicable(action, state)
	return err == nil && ok
}

func (p *Planner) applicable(action Action, state worldstate.State) (bool, error) {
	ok, err := worldstate.Evaluate(state, action.Preconditions)
	if err != nil {
		return false, fmt.Errorf("action %s: preconditions: %w", action.ID, err)
	}
	if !ok {
		return false, nil
	}
	if action.Guard == "" {
		return true, nil
	}
	ok, err = p.guards.eval(action.Guard, state)
	if err != nil {
		return false, fmt.Errorf("action %s: %w", action.ID, err)
	}
	return ok, nil
}

// search holds the state of one Plan call.
type search struct {
	p        *Planner
	goal     Goal
	open     nodeQueue
	closed   map[string]struct{}
	capped   []*node
	seq      int
	bonus    float64
	diag     []string
	diagSeen map[string]struct{}
}

func (s *search) note(err error) {
	msg := err.Error()
	if _, ok := s.diagSeen[msg]; ok {
		return
	}
	s.diagSeen[msg] = struct{}{}
	s.diag = append(s.diag, msg)
	s.p.logger.Debug("action not applicable", zap.String("goal", s.goal.ID), zap.Error(err))
}

func (s *search) newNode(state worldstate.State, signature string, parent *node, action *Action) *node {
	n := &node{
		state:     state,
		signature: signature,
		parent:    parent,
		action:    action,
		distance:  worldstate.GoalDistance(state, s.goal.Target),
		seq:       s.seq,
	}
	s.seq++
	if parent != nil {
		n.cost = parent.cost + action.Cost
		n.depth = parent.depth + 1
	}
	n.score = n.cost*s.p.cfg.CostWeight + n.distance - s.bonus
	return n
}

// Plan searches for a sequence of actions that takes state to a state
// satisfying goal. It never returns an error: unreachable goals, exhausted
// budgets and malformed actions are all reported through the Result.
// Actions are tried in descending Priority, then in the order given, so
// among equally scored successors the higher-priority action wins.
func (p *Planner) Plan(goal Goal, state worldstate.State, actions []Action) Result {
	started := p.now()
	s := &search{
		p:        p,
		goal:     goal,
		closed:   make(map[string]struct{}),
		diagSeen: make(map[string]struct{}),
	}
	if goal.Priority > 0 {
		s.bonus = p.cfg.PriorityWeight / goal.Priority
	}

	res := p.plan(s, state.Clone(), byPriority(actions), started)
	res.PlanningTime = p.now().Sub(started)
	res.ExploredNodes = len(s.closed)
	res.Diagnostics = s.diag
	if len(s.diag) > 0 {
		res.Message = fmt.Sprintf("%s (%d diagnostics)", res.Message, len(s.diag))
	}

	fields := []zap.Field{
		zap.String("goal", goal.ID),
		zap.Bool("success", res.Success),
		zap.Bool("partial", res.Partial),
		zap.Int("explored", res.ExploredNodes),
		zap.Duration("elapsed", res.PlanningTime),
	}
	if res.Plan != nil {
		fields = append(fields, zap.String("plan_id", res.Plan.ID), zap.Int("actions", len(res.Plan.Actions)))
	}
	p.logger.Info("planning finished", fields...)
	return res
}

func (p *Planner) plan(s *search, initial worldstate.State, actions []Action, started time.Time) Result {
	if err := s.goal.Target.Validate(); err != nil {
		s.note(fmt.Errorf("goal %s: %w", s.goal.ID, err))
		return Result{Message: "invalid goal target"}
	}
	if p.IsGoalSatisfied(initial, s.goal) {
		return Result{
			Plan:    p.buildPlan(s.goal, nil),
			Success: true,
			Message: "goal already satisfied",
		}
	}

	rootSig, err := worldstate.Signature(initial)
	if err != nil {
		s.note(err)
		return Result{Message: "cannot fingerprint initial state"}
	}
	heap.Push(&s.open, s.newNode(initial, rootSig, nil, nil))

	timedOut := false
	for s.open.Len() > 0 {
		if p.cfg.Timeout > 0 && p.now().Sub(started) >= p.cfg.Timeout {
			timedOut = true
			break
		}

		current := heap.Pop(&s.open).(*node)
		if _, seen := s.closed[current.signature]; seen {
			continue
		}
		s.closed[current.signature] = struct{}{}

		if p.IsGoalSatisfied(current.state, s.goal) {
			plan := p.buildPlan(s.goal, current)
			return Result{
				Plan:    plan,
				Success: true,
				Message: fmt.Sprintf("plan found with %d actions", len(plan.Actions)),
			}
		}

		if p.cfg.MaxDepth > 0 && current.depth >= p.cfg.MaxDepth {
			s.capped = append(s.capped, current)
			continue
		}

		p.expand(s, current, actions)
	}

	reason := "search space exhausted"
	if timedOut {
		reason = fmt.Sprintf("planning timed out after %s", p.cfg.Timeout)
	} else if len(s.capped) > 0 {
		reason = fmt.Sprintf("depth limit %d reached", p.cfg.MaxDepth)
	}

	if p.cfg.AllowPartialPlans {
		candidates := append([]*node(nil), s.open...)
		candidates = append(candidates, s.capped...)
		if best := closest(candidates); best != nil {
			plan := p.buildPlan(s.goal, best)
			return Result{
				Plan:    plan,
				Partial: true,
				Message: fmt.Sprintf("partial plan with %d actions: %s", len(plan.Actions), reason),
			}
		}
	}
	return Result{Message: "no plan found: " + reason}
}

// byPriority returns a copy of actions stably sorted by descending Priority.
func byPriority(actions []Action) []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}

func (p *Planner) expand(s *search, current *node, actions []Action) {
	children := 0
	for i := range actions {
		action := &actions[i]
		if action.Cost < 0 {
			s.note(fmt.Errorf("action %s: negative cost %g", action.ID, action.Cost))
			continue
		}
		ok, err := p.applicable(*action, current.state)
		if err != nil {
			s.note(err)
			continue
		}
		if !ok {
			continue
		}
		next, err := worldstate.Apply(current.state, action.Effects)
		if err != nil {
			s.note(fmt.Errorf("action %s: effects: %w", action.ID, err))
			continue
		}
		sig, err := worldstate.Signature(next)
		if err != nil {
			s.note(fmt.Errorf("action %s: %w", action.ID, err))
			continue
		}
		if _, seen := s.closed[sig]; seen {
			continue
		}
		heap.Push(&s.open, s.newNode(next, sig, current, action))
		children++
	}
	p.logger.Debug("expanded node",
		zap.String("goal", s.goal.ID),
		zap.Int("depth", current.depth),
		zap.Float64("cost", current.cost),
		zap.Float64("distance", current.distance),
		zap.Int("children", children),
		zap.Int("open", s.open.Len()),
	)
}

func (p *Planner) buildPlan(goal Goal, leaf *node) *Plan {
	var actions []Action
	if leaf != nil {
		actions = leaf.path()
	}
	plan := &Plan{
		ID:        p.newID(),
		Goal:      goal,
		Actions:   make([]Action, 0, len(actions)),
		CreatedAt: p.now().UTC(),
		Status:    StatusPending,
	}
	for _, a := range actions {
		plan.Actions = append(plan.Actions, a)
		plan.EstimatedCost += a.Cost
		plan.EstimatedDuration += a.Duration
	}
	return plan
}
