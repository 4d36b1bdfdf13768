package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// LoadFromDir loads and validates every catalog YAML file in dir.
func LoadFromDir(dir string) (*Store, error) {
	if dir == "" {
		dir = "catalog"
	}

	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("scan catalog dir: %w", err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog YAML files found in %s", dir)
	}
	sort.Strings(files)

	var docs []Document
	var vErrs ValidationErrors

	for _, path := range files {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", path, readErr)
		}
		doc, parseErr := ParseAndValidateDocument(data, path)
		if parseErr != nil {
			if ve, ok := parseErr.(ValidationErrors); ok {
				vErrs = append(vErrs, ve...)
				continue
			}
			return nil, parseErr
		}
		docs = append(docs, doc)
	}

	if len(vErrs) > 0 {
		return nil, vErrs
	}
	return NewStore(docs...)
}

// NewStore builds a Store from already-validated documents. Ids must be
// unique across documents.
func NewStore(docs ...Document) (*Store, error) {
	if errs := validateCrossDocumentUniqueness(docs); len(errs) > 0 {
		return nil, errs
	}

	store := &Store{
		Documents: docs,
		actions:   make(map[string]ActionSpec),
		goals:     make(map[string]GoalSpec),
		agents:    make(map[string]AgentSpec),
	}
	for _, doc := range docs {
		for _, a := range doc.Actions {
			store.actions[a.ID] = a
		}
		for _, g := range doc.Goals {
			store.goals[g.ID] = g
		}
		for _, a := range doc.Agents {
			store.agents[a.ID] = a
		}
	}
	return store, nil
}

func validateCrossDocumentUniqueness(docs []Document) ValidationErrors {
	var errs ValidationErrors

	actionSeen := make(map[string]string)
	goalSeen := make(map[string]string)
	agentSeen := make(map[string]string)

	check := func(seen map[string]string, kind, id, source, field string) {
		if origin, exists := seen[id]; exists {
			errs = append(errs, ValidationError{
				File:    source,
				Field:   field,
				Message: fmt.Sprintf("%s id %q already defined in %s", kind, id, origin),
			})
			return
		}
		seen[id] = source
	}

	for _, doc := range docs {
		for idx, a := range doc.Actions {
			check(actionSeen, "action", a.ID, doc.Source, fmt.Sprintf("actions[%d].id", idx))
		}
		for idx, g := range doc.Goals {
			check(goalSeen, "goal", g.ID, doc.Source, fmt.Sprintf("goals[%d].id", idx))
		}
		for idx, a := range doc.Agents {
			check(agentSeen, "agent", a.ID, doc.Source, fmt.Sprintf("agents[%d].id", idx))
		}
	}
	return errs
}
