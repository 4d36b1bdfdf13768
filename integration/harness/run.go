package harness

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
	"testing"
)

// Result is the captured outcome of one CLI invocation.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Run executes the CLI in workDir.
func Run(t *testing.T, binPath, workDir string, args ...string) Result {
	t.Helper()
	return run(t, binPath, workDir, args, nil)
}

// RunWithEnv executes the CLI with environment overrides.
func RunWithEnv(t *testing.T, binPath, workDir string, env map[string]string, args ...string) Result {
	t.Helper()
	return run(t, binPath, workDir, args, env)
}

// MustRun executes the CLI and fails the test on a non-zero exit code.
func MustRun(t *testing.T, binPath, workDir string, args ...string) Result {
	t.Helper()
	res := run(t, binPath, workDir, args, nil)
	if res.Code != 0 {
		t.Fatalf("goap %s exit code %d\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), res.Code, res.Stdout, res.Stderr)
	}
	return res
}

func run(t *testing.T, binPath, workDir string, args []string, env map[string]string) Result {
	t.Helper()

	cmd := exec.Command(binPath, args...)
	cmd.Dir = workDir
	if len(env) > 0 {
		cmd.Env = withEnv(os.Environ(), env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("run %s: %v", binPath, err)
		}
		res.Code = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

func withEnv(base []string, overrides map[string]string) []string {
	env := make(map[string]string, len(base)+len(overrides))
	for _, entry := range base {
		key, val, _ := strings.Cut(entry, "=")
		env[key] = val
	}
	for k, v := range overrides {
		env[k] = v
	}
	merged := make([]string, 0, len(env))
	for k, v := range env {
		merged = append(merged, k+"="+v)
	}
	sort.Strings(merged)
	return merged
}
