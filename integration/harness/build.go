package harness

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// EnvBinary points the smoke tests at a prebuilt goap binary instead of
// compiling one.
const EnvBinary = "GOAP_TEST_BIN"

var (
	moduleRoot = sync.OnceValues(findModuleRoot)
	goapBinary = sync.OnceValues(buildGoap)
)

// RepoRoot returns the directory holding go.mod for the module under test.
func RepoRoot(t *testing.T) string {
	t.Helper()
	root, err := moduleRoot()
	if err != nil {
		t.Fatalf("resolve module root: %v", err)
	}
	return root
}

// BuildBinary returns the goap binary used by every smoke test in the run.
// It honors $GOAP_TEST_BIN and otherwise compiles ./cmd/goap once.
func BuildBinary(t *testing.T) string {
	t.Helper()
	bin, err := goapBinary()
	if err != nil {
		t.Fatalf("goap binary: %v", err)
	}
	return bin
}

// findModuleRoot walks up from the test's working directory to the nearest go.mod.
func findModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no go.mod above working directory")
		}
		dir = parent
	}
}

func buildGoap() (string, error) {
	if bin := os.Getenv(EnvBinary); bin != "" {
		abs, err := filepath.Abs(bin)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(abs); err != nil {
			return "", fmt.Errorf("%s: %w", EnvBinary, err)
		}
		return abs, nil
	}

	root, err := moduleRoot()
	if err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp("", "goap-bin-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	out := filepath.Join(dir, "goap")

	cmd := exec.Command("go", "build", "-trimpath", "-o", out, "./cmd/goap")
	cmd.Dir = root
	if combined, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("go build ./cmd/goap: %w\n%s", err, combined)
	}
	return out, nil
}
