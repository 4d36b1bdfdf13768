// Package workspace resolves the directory layout a goap workspace uses.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigFileName is the planner configuration file kept at the workspace root.
const ConfigFileName = "planner.yaml"

// Workspace defines workspace-relative paths for planning and execution.
type Workspace struct {
	Root         string
	CatalogDir   string
	StatesDir    string
	StatePath    string
	ArtifactsDir string
	PlansDir     string
	RunsDir      string
	AuditDir     string
	AuditDBPath  string
	PlanDBPath   string
	ConfigPath   string
}

// Resolve expands and validates the workspace root, ensuring it exists.
func Resolve(root string) (*Workspace, error) {
	abs, err := resolveRoot(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root is not a directory: %s", abs)
	}
	return newWorkspace(abs), nil
}

// ResolveRoot resolves the workspace root without requiring it to exist.
func ResolveRoot(root string) (string, error) {
	return resolveRoot(root)
}

// EnsureDirs creates the catalog, state, artifact and audit directories.
func (w *Workspace) EnsureDirs() error {
	if w == nil {
		return fmt.Errorf("workspace is nil")
	}
	for _, dir := range []string{w.CatalogDir, w.StatesDir, w.PlansDir, w.RunsDir, w.AuditDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure %s: %w", dir, err)
		}
	}
	return nil
}

// ResolvePath returns an absolute path, resolving relative paths from the workspace root.
func (w *Workspace) ResolvePath(path string) (string, error) {
	if w == nil {
		return "", fmt.Errorf("workspace is nil")
	}
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(expanded) {
		return filepath.Clean(expanded), nil
	}
	return filepath.Abs(filepath.Join(w.Root, expanded))
}

func newWorkspace(root string) *Workspace {
	artifacts := filepath.Join(root, "artifacts")
	return &Workspace{
		Root:         root,
		CatalogDir:   filepath.Join(root, "catalog"),
		StatesDir:    filepath.Join(root, "states"),
		StatePath:    filepath.Join(root, "states", "current.yml"),
		ArtifactsDir: artifacts,
		PlansDir:     filepath.Join(artifacts, "plans"),
		RunsDir:      filepath.Join(artifacts, "runs"),
		AuditDir:     filepath.Join(root, "audit"),
		AuditDBPath:  filepath.Join(root, "audit", "audit.sqlite"),
		PlanDBPath:   filepath.Join(root, "audit", "plans.sqlite"),
		ConfigPath:   filepath.Join(root, ConfigFileName),
	}
}

func resolveRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("workspace root is required")
	}
	expanded, err := expandHome(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolve workspace: %w", err)
	}
	return abs, nil
}

func expandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:]), nil
	}
	return "", fmt.Errorf("unsupported home expansion: %s", path)
}
