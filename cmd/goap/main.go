package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/adebold/warehouse-network-sub010/internal/audit"
	"github.com/adebold/warehouse-network-sub010/internal/config"
	"github.com/adebold/warehouse-network-sub010/internal/logging"
	"github.com/adebold/warehouse-network-sub010/internal/workspace"
)

const appName = "goap"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand.
type app struct {
	workspacePath string
	configPath    string
	logLevel      string

	v      *viper.Viper
	cfg    config.Config
	logger *zap.Logger
	ws     *workspace.Workspace
	audit  *audit.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   appName,
		Short: "Goal-oriented action planning for warehouse operations",
		Long: `goap plans sequences of warehouse actions that move the current world
state to a goal, and runs those plans through simulated or command-backed
executors. Catalogs, states, plans and run artifacts live in a workspace.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.workspacePath, "workspace", ".", "Path to workspace root")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Planner config file (default: <workspace>/planner.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	_ = a.v.BindPFlag(config.KeyLogLevel, root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(
		newInitCmd(a),
		newPlanCmd(a),
		newCatalogCmd(a),
		newStateCmd(a),
		newAuditCmd(a),
	)
	return root
}

// open resolves the workspace, loads configuration and builds the logger.
func (a *app) open() error {
	if strings.TrimSpace(a.workspacePath) == "" {
		return fmt.Errorf("--workspace is required")
	}
	ws, err := workspace.Resolve(a.workspacePath)
	if err != nil {
		return err
	}
	a.ws = ws

	configPath := ws.ConfigPath
	if a.configPath != "" {
		configPath, err = ws.ResolvePath(a.configPath)
		if err != nil {
			return fmt.Errorf("resolve --config: %w", err)
		}
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}
	cfg, err := config.Load(a.v, configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.logger = logger
	a.audit = audit.NewLogger(ws.AuditDBPath)
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// track records <event>_started now and returns a func recording
// <event>_finished. Audit failures are reported and never fail the command.
func (a *app) track(event string, payload map[string]any) func(finish map[string]any, err error) {
	if err := a.audit.LogEvent("cli", event+"_started", payload); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}
	return func(finish map[string]any, err error) {
		if finish == nil {
			finish = map[string]any{}
		}
		if err != nil {
			finish["error"] = err.Error()
		}
		if err := a.audit.LogEvent("cli", event+"_finished", finish); err != nil {
			fmt.Fprintln(os.Stderr, "audit log failed:", err)
		}
	}
}
