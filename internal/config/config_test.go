package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adebold/warehouse-network-sub010/internal/planner"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(NewViper(), filepath.Join(t.TempDir(), "planner.yaml"))
	require.NoError(t, err)
	assert.Equal(t, planner.DefaultConfig(), cfg.Planner)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`planner:
  max_depth: 4
  timeout: 2s
  allow_partial_plans: false
  cost_weight: 2
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Planner.MaxDepth)
	assert.Equal(t, 2*time.Second, cfg.Planner.Timeout)
	assert.False(t, cfg.Planner.AllowPartialPlans)
	assert.Equal(t, 2.0, cfg.Planner.CostWeight)
	assert.Equal(t, 0.5, cfg.Planner.PriorityWeight)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, []byte("planner:\n  max_depth: 4\n"), 0o644))
	t.Setenv("GOAP_PLANNER_MAX_DEPTH", "7")
	t.Setenv("GOAP_PLANNER_TIMEOUT", "1500")

	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Planner.MaxDepth)
	assert.Equal(t, 1500*time.Millisecond, cfg.Planner.Timeout)
}

func TestFlagOverride(t *testing.T) {
	v := NewViper()
	v.Set(KeyLogLevel, "warn")
	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"depth":   "planner:\n  max_depth: 0\n",
		"timeout": "planner:\n  timeout: 0s\n",
		"weight":  "planner:\n  cost_weight: -1\n",
		"level":   "log:\n  level: loud\n",
		"format":  "log:\n  format: xml\n",
		"syntax":  "planner: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "planner.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(NewViper(), path)
			require.Error(t, err)
		})
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	data, err := Template(Default())
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 30s")

	path := filepath.Join(t.TempDir(), "planner.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	cfg, err := Load(NewViper(), path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
