package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"

	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

type rawDocument struct {
	Actions []rawAction `yaml:"actions"`
	Goals   []rawGoal   `yaml:"goals"`
	Agents  []rawAgent  `yaml:"agents"`
}

type rawAction struct {
	ID            string                `yaml:"id"`
	Name          string                `yaml:"name"`
	Description   string                `yaml:"description"`
	Preconditions worldstate.Conditions `yaml:"preconditions"`
	Effects       worldstate.Effects    `yaml:"effects"`
	Cost          *float64              `yaml:"cost"`
	Priority      float64               `yaml:"priority"`
	DurationMs    *int64                `yaml:"duration_ms"`
	Capabilities  []string              `yaml:"capabilities"`
	Guard         string                `yaml:"guard"`
	Command       []string              `yaml:"command"`
}

type rawGoal struct {
	ID       string                `yaml:"id"`
	Name     string                `yaml:"name"`
	Target   worldstate.Conditions `yaml:"target"`
	Priority *float64              `yaml:"priority"`
}

type rawAgent struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Capabilities []string `yaml:"capabilities"`
}

// ValidationError captures a single field-specific validation issue.
type ValidationError struct {
	File    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// ParseAndValidateDocument unmarshals and validates a YAML catalog document.
func ParseAndValidateDocument(data []byte, source string) (Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Document{}, ValidationErrors{{
			File:    source,
			Field:   "yaml",
			Message: err.Error(),
		}}
	}
	return validateRawDocument(raw, source)
}

func validateRawDocument(raw rawDocument, source string) (Document, error) {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{File: source, Field: field, Message: msg})
	}

	if len(raw.Actions) == 0 && len(raw.Goals) == 0 && len(raw.Agents) == 0 {
		add("", "document must define at least one action, goal or agent")
	}

	doc := Document{Source: source}

	seen := make(map[string]struct{})
	for idx, ra := range raw.Actions {
		path := fmt.Sprintf("actions[%d]", idx)
		action, actionErrs := validateAction(ra, path, source)
		errs = append(errs, actionErrs...)
		if action.ID != "" {
			if _, dup := seen[action.ID]; dup {
				add(path+".id", fmt.Sprintf("duplicate action id %q", action.ID))
			}
			seen[action.ID] = struct{}{}
		}
		doc.Actions = append(doc.Actions, action)
	}

	seen = make(map[string]struct{})
	for idx, rg := range raw.Goals {
		path := fmt.Sprintf("goals[%d]", idx)
		goal, goalErrs := validateGoal(rg, path, source)
		errs = append(errs, goalErrs...)
		if goal.ID != "" {
			if _, dup := seen[goal.ID]; dup {
				add(path+".id", fmt.Sprintf("duplicate goal id %q", goal.ID))
			}
			seen[goal.ID] = struct{}{}
		}
		doc.Goals = append(doc.Goals, goal)
	}

	seen = make(map[string]struct{})
	for idx, rg := range raw.Agents {
		path := fmt.Sprintf("agents[%d]", idx)
		agent, agentErrs := validateAgent(rg, path, source)
		errs = append(errs, agentErrs...)
		if agent.ID != "" {
			if _, dup := seen[agent.ID]; dup {
				add(path+".id", fmt.Sprintf("duplicate agent id %q", agent.ID))
			}
			seen[agent.ID] = struct{}{}
		}
		doc.Agents = append(doc.Agents, agent)
	}

	if len(errs) > 0 {
		return Document{}, errs
	}
	return doc, nil
}

func validateAction(raw rawAction, fieldPath, source string) (ActionSpec, ValidationErrors) {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{File: source, Field: fieldPath + "." + field, Message: msg})
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		add("id", "id is required")
	}
	if len(raw.Effects) == 0 {
		add("effects", "at least one effect is required")
	} else if err := raw.Effects.Validate(); err != nil {
		add("effects", err.Error())
	}
	if err := raw.Preconditions.Validate(); err != nil {
		add("preconditions", err.Error())
	}

	cost := 0.0
	if raw.Cost == nil {
		add("cost", "cost is required")
	} else if *raw.Cost < 0 {
		add("cost", "cost must be non-negative")
	} else {
		cost = *raw.Cost
	}

	var duration time.Duration
	if raw.DurationMs != nil {
		if *raw.DurationMs < 0 {
			add("duration_ms", "duration_ms must be non-negative")
		} else {
			duration = time.Duration(*raw.DurationMs) * time.Millisecond
		}
	}

	caps, capErrs := normalizeCapabilities(raw.Capabilities)
	for _, msg := range capErrs {
		add("capabilities", msg)
	}

	guard := strings.TrimSpace(raw.Guard)
	if guard != "" {
		if _, err := expr.Compile(guard, expr.AsBool(), expr.AllowUndefinedVariables()); err != nil {
			add("guard", fmt.Sprintf("guard does not compile: %v", err))
		}
	}

	if len(raw.Command) > 0 && strings.TrimSpace(raw.Command[0]) == "" {
		add("command", "command program must not be empty")
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = id
	}
	return ActionSpec{
		ID:            id,
		Name:          name,
		Description:   strings.TrimSpace(raw.Description),
		Preconditions: raw.Preconditions,
		Effects:       raw.Effects,
		Cost:          cost,
		Priority:      raw.Priority,
		Duration:      duration,
		Capabilities:  caps,
		Guard:         guard,
		Command:       raw.Command,
		Source:        source,
	}, errs
}

func validateGoal(raw rawGoal, fieldPath, source string) (GoalSpec, ValidationErrors) {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{File: source, Field: fieldPath + "." + field, Message: msg})
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		add("id", "id is required")
	}
	if len(raw.Target) == 0 {
		add("target", "target must contain at least one condition")
	} else if err := raw.Target.Validate(); err != nil {
		add("target", err.Error())
	}

	priority := 1.0
	if raw.Priority != nil {
		if *raw.Priority < 0 {
			add("priority", "priority must be non-negative")
		}
		priority = *raw.Priority
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = id
	}
	return GoalSpec{
		ID:       id,
		Name:     name,
		Target:   raw.Target,
		Priority: priority,
		Source:   source,
	}, errs
}

func validateAgent(raw rawAgent, fieldPath, source string) (AgentSpec, ValidationErrors) {
	var errs ValidationErrors

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		errs = append(errs, ValidationError{File: source, Field: fieldPath + ".id", Message: "id is required"})
	}
	caps, capErrs := normalizeCapabilities(raw.Capabilities)
	for _, msg := range capErrs {
		errs = append(errs, ValidationError{File: source, Field: fieldPath + ".capabilities", Message: msg})
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = id
	}
	return AgentSpec{ID: id, Name: name, Capabilities: caps, Source: source}, errs
}

func normalizeCapabilities(raw []string) ([]string, []string) {
	var out, problems []string
	seen := make(map[string]struct{}, len(raw))
	for idx, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			problems = append(problems, fmt.Sprintf("capability %d is empty", idx))
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, problems
}
