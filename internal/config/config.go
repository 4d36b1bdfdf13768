// Package config loads planner and logging settings from planner.yaml,
// GOAP_* environment variables and command-line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/adebold/warehouse-network-sub010/internal/logging"
	"github.com/adebold/warehouse-network-sub010/internal/planner"
)

// EnvPrefix prefixes every environment override, e.g. GOAP_PLANNER_MAX_DEPTH.
const EnvPrefix = "GOAP"

const (
	KeyMaxDepth          = "planner.max_depth"
	KeyTimeout           = "planner.timeout"
	KeyAllowPartialPlans = "planner.allow_partial_plans"
	KeyCostWeight        = "planner.cost_weight"
	KeyPriorityWeight    = "planner.priority_weight"
	KeyLogLevel          = "log.level"
	KeyLogFormat         = "log.format"
)

type Config struct {
	Planner planner.Config
	Log     LogConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// NewViper returns a viper instance with defaults and environment binding set up.
func NewViper() *viper.Viper {
	v := viper.New()
	def := planner.DefaultConfig()
	v.SetDefault(KeyMaxDepth, def.MaxDepth)
	v.SetDefault(KeyTimeout, def.Timeout)
	v.SetDefault(KeyAllowPartialPlans, def.AllowPartialPlans)
	v.SetDefault(KeyCostWeight, def.CostWeight)
	v.SetDefault(KeyPriorityWeight, def.PriorityWeight)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, logging.FormatConsole)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads path into v when it exists and returns the validated settings.
// A missing file leaves defaults, environment and flags in effect.
func Load(v *viper.Viper, path string) (Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("stat config: %w", err)
		}
	}

	timeout, err := parseDuration(v.Get(KeyTimeout))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", KeyTimeout, err)
	}
	cfg := Config{
		Planner: planner.Config{
			MaxDepth:          v.GetInt(KeyMaxDepth),
			Timeout:           timeout,
			AllowPartialPlans: v.GetBool(KeyAllowPartialPlans),
			CostWeight:        v.GetFloat64(KeyCostWeight),
			PriorityWeight:    v.GetFloat64(KeyPriorityWeight),
		},
		Log: LogConfig{
			Level:  v.GetString(KeyLogLevel),
			Format: v.GetString(KeyLogFormat),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Planner.Validate(); err != nil {
		return fmt.Errorf("planner config: %w", err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("log config: invalid format %q", c.Log.Format)
	}
	return nil
}

// parseDuration accepts Go duration strings and bare numbers of milliseconds.
func parseDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	case string:
		s := strings.TrimSpace(v)
		if d, err := time.ParseDuration(s); err == nil {
			return d, nil
		}
		var ms float64
		if _, err := fmt.Sscanf(s, "%g", &ms); err == nil {
			return time.Duration(ms * float64(time.Millisecond)), nil
		}
		return 0, fmt.Errorf("invalid duration %q", v)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("invalid duration %v", raw)
	}
}

type fileLayout struct {
	Planner struct {
		MaxDepth          int     `yaml:"max_depth"`
		Timeout           string  `yaml:"timeout"`
		AllowPartialPlans bool    `yaml:"allow_partial_plans"`
		CostWeight        float64 `yaml:"cost_weight"`
		PriorityWeight    float64 `yaml:"priority_weight"`
	} `yaml:"planner"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Template renders cfg as planner.yaml content.
func Template(cfg Config) ([]byte, error) {
	var out fileLayout
	out.Planner.MaxDepth = cfg.Planner.MaxDepth
	out.Planner.Timeout = cfg.Planner.Timeout.String()
	out.Planner.AllowPartialPlans = cfg.Planner.AllowPartialPlans
	out.Planner.CostWeight = cfg.Planner.CostWeight
	out.Planner.PriorityWeight = cfg.Planner.PriorityWeight
	out.Log.Level = cfg.Log.Level
	out.Log.Format = cfg.Log.Format
	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal config template: %w", err)
	}
	return data, nil
}

// Default returns the settings used when nothing overrides them.
func Default() Config {
	return Config{
		Planner: planner.DefaultConfig(),
		Log:     LogConfig{Level: "info", Format: logging.FormatConsole},
	}
}
