package planner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan: %w", err)
	}
	var plan Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return Plan{}, fmt.Errorf("parse plan json: %w", err)
	}
	if err := ValidatePlan(plan); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func SavePlan(path string, plan Plan) error {
	return writeJSON(path, plan)
}

// ResolvePlanPath accepts either a plan.json path or the directory holding one.
func ResolvePlanPath(inputPath string) (string, error) {
	if inputPath == "" {
		return "", fmt.Errorf("plan path is required")
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return "", fmt.Errorf("stat plan path: %w", err)
	}
	if info.IsDir() {
		return filepath.Join(inputPath, "plan.json"), nil
	}
	return inputPath, nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure dir for %s: %w", filepath.Base(path), err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
