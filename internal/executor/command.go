package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/adebold/warehouse-network-sub010/internal/planner"
	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

// Environment handed to action commands.
const (
	EnvActionID  = "GOAP_ACTION_ID"
	EnvStateJSON = "GOAP_STATE_JSON"
	EnvParams    = "GOAP_PARAMS_JSON"
	EnvStateOut  = "GOAP_STATE_OUT"
)

// CommandExecutor runs an action's command. The command receives the current
// state as JSON on stdin and in GOAP_STATE_JSON. On exit status zero the
// action's effects are applied; a JSON object the command writes to the file
// named by GOAP_STATE_OUT is then merged over the result, key by key.
type CommandExecutor struct {
	// TranscriptDir receives <action>.log with the command's combined output.
	TranscriptDir string
	WorkDir       string
	Env           map[string]string
}

func (c *CommandExecutor) Execute(ctx context.Context, action planner.Action, state worldstate.State, params map[string]any) planner.ActionResult {
	started := time.Now()
	if len(action.Command) == 0 {
		return failure(fmt.Errorf("action %s has no command", action.ID), 0)
	}
	if c.TranscriptDir == "" {
		return failure(errors.New("transcript dir is required"), 0)
	}

	transcriptDir, err := filepath.Abs(c.TranscriptDir)
	if err != nil {
		return failure(fmt.Errorf("resolve transcript dir: %w", err), 0)
	}
	if err := os.MkdirAll(transcriptDir, 0o755); err != nil {
		return failure(fmt.Errorf("create transcript dir: %w", err), 0)
	}

	stateJSON, err := json.Marshal(state)
	if err != nil {
		return failure(fmt.Errorf("marshal state: %w", err), 0)
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return failure(fmt.Errorf("marshal params: %w", err), 0)
	}

	transcriptPath := filepath.Join(transcriptDir, action.ID+".log")
	transcript, err := os.OpenFile(transcriptPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return failure(fmt.Errorf("open transcript: %w", err), 0)
	}
	defer func() {
		_ = transcript.Close()
	}()

	stateOut := filepath.Join(transcriptDir, action.ID+".state.json")
	_ = os.Remove(stateOut)

	env := map[string]string{
		EnvActionID:  action.ID,
		EnvStateJSON: string(stateJSON),
		EnvParams:    string(paramsJSON),
		EnvStateOut:  stateOut,
	}
	for k, v := range c.Env {
		env[k] = v
	}

	cmd := exec.CommandContext(ctx, action.Command[0], action.Command[1:]...)
	if c.WorkDir != "" {
		cmd.Dir = c.WorkDir
	}
	cmd.Stdin = bytes.NewReader(stateJSON)
	cmd.Stdout = transcript
	cmd.Stderr = transcript
	cmd.Env = mergeEnv(os.Environ(), env)

	if err := cmd.Run(); err != nil {
		res := failure(fmt.Errorf("command for %s failed (see %s): %w", action.ID, transcriptPath, err), time.Since(started))
		res.ExitCode = exitCodeFromError(err)
		return res
	}

	next, err := worldstate.Apply(state, action.Effects)
	if err != nil {
		return failure(fmt.Errorf("apply effects of %s: %w", action.ID, err), time.Since(started))
	}
	if err := mergeStateOut(stateOut, next); err != nil {
		return failure(fmt.Errorf("action %s: %w", action.ID, err), time.Since(started))
	}

	return planner.ActionResult{
		Success:  true,
		NewState: next,
		Message:  fmt.Sprintf("ran %s (transcript %s)", action.ID, transcriptPath),
		Duration: time.Since(started),
	}
}

func mergeStateOut(path string, into worldstate.State) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read state output: %w", err)
	}
	var patch worldstate.State
	if err := json.Unmarshal(data, &patch); err != nil {
		return fmt.Errorf("parse state output: %w", err)
	}
	for k, v := range patch {
		into[k] = v
	}
	return nil
}

func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}
	merged := make([]string, 0, len(base)+len(overrides))
	for _, entry := range base {
		key, _, _ := strings.Cut(entry, "=")
		if _, ok := overrides[key]; ok {
			continue
		}
		merged = append(merged, entry)
	}
	for key, value := range overrides {
		merged = append(merged, key+"="+value)
	}
	return merged
}
