package catalog

import (
	"fmt"
	"strings"
)

// HasCapabilities reports whether the declared tags cover every required tag.
// An action with no required capabilities is available to every agent.
func HasCapabilities(required, declared []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(declared))
	for _, tag := range declared {
		have[strings.TrimSpace(tag)] = struct{}{}
	}
	for _, tag := range required {
		if _, ok := have[strings.TrimSpace(tag)]; !ok {
			return false
		}
	}
	return true
}

// FilterByCapabilities keeps the actions an agent declaring tags may perform,
// preserving their order.
func FilterByCapabilities(actions []ActionSpec, tags []string) []ActionSpec {
	out := make([]ActionSpec, 0, len(actions))
	for _, a := range actions {
		if HasCapabilities(a.Capabilities, tags) {
			out = append(out, a)
		}
	}
	return out
}

// ActionsForAgent returns the catalog actions available to agentID. An empty
// agentID selects every action.
func (s *Store) ActionsForAgent(agentID string) ([]ActionSpec, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return s.Actions(), nil
	}
	agent, ok := s.Agent(agentID)
	if !ok {
		return nil, fmt.Errorf("unknown agent_id: %s", agentID)
	}
	return FilterByCapabilities(s.Actions(), agent.Capabilities), nil
}
