package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adebold/warehouse-network-sub010/internal/config"
	"github.com/adebold/warehouse-network-sub010/internal/executor"
	"github.com/adebold/warehouse-network-sub010/internal/notify"
	"github.com/adebold/warehouse-network-sub010/internal/planner"
	"github.com/adebold/warehouse-network-sub010/internal/planstore"
	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

func newPlanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate, run and inspect plans",
	}
	cmd.AddCommand(
		newPlanGenerateCmd(a),
		newPlanRunCmd(a),
		newPlanListCmd(a),
		newPlanShowCmd(a),
	)
	return cmd
}

func newPlanGenerateCmd(a *app) *cobra.Command {
	var (
		goalID     string
		agentID    string
		statePath  string
		catalogDir string
		outDir     string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Plan toward a goal from the current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			var err error
			if statePath, err = a.pathOr(statePath, a.ws.StatePath); err != nil {
				return fmt.Errorf("resolve --state: %w", err)
			}
			if catalogDir, err = a.pathOr(catalogDir, a.ws.CatalogDir); err != nil {
				return fmt.Errorf("resolve --catalog-dir: %w", err)
			}
			if outDir, err = a.pathOr(outDir, a.ws.PlansDir); err != nil {
				return fmt.Errorf("resolve --out-dir: %w", err)
			}

			finish := a.track("plan_generate", map[string]any{
				"workspace":   a.ws.Root,
				"catalog_dir": catalogDir,
				"state":       statePath,
				"out_dir":     outDir,
				"goal_id":     goalID,
				"agent_id":    agentID,
			})
			plannerCfg := a.cfg.Planner
			out, err := planner.Generate(planner.GenerateOptions{
				CatalogDir:    catalogDir,
				StatePath:     statePath,
				GoalID:        goalID,
				AgentID:       agentID,
				OutputBaseDir: outDir,
				Config:        &plannerCfg,
				Logger:        a.logger,
			})
			finishPayload := map[string]any{"goal_id": out.Goal.ID}
			if err != nil {
				finish(finishPayload, err)
				return err
			}
			res := out.Result
			finishPayload["success"] = res.Success
			finishPayload["partial"] = res.Partial
			finishPayload["explored_nodes"] = res.ExploredNodes
			if res.Plan != nil {
				finishPayload["plan_id"] = res.Plan.ID
				finishPayload["plan_path"] = out.PlanPath
			}
			finish(finishPayload, nil)

			if err := a.recordResult(out.Goal.ID, res); err != nil {
				a.logger.Warn("record planning result", zap.Error(err))
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			}
			if res.Plan == nil {
				return fmt.Errorf("goal %s: %s", out.Goal.ID, res.Message)
			}
			if asJSON {
				return nil
			}
			printGenerated(w, out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&goalID, "goal", "", "Goal id to plan for (default: highest-priority goal)")
	f.StringVar(&agentID, "agent", "", "Restrict actions to an agent's capabilities")
	f.StringVar(&statePath, "state", "", "State file (default: <workspace>/states/current.yml)")
	f.StringVar(&catalogDir, "catalog-dir", "", "Catalog directory (default: <workspace>/catalog)")
	f.StringVar(&outDir, "out-dir", "", "Base directory to write plans (default: <workspace>/artifacts/plans)")
	f.BoolVar(&asJSON, "json", false, "Print the planning result as JSON")
	f.Int("max-depth", 0, "Maximum plan length")
	f.Duration("timeout", 0, "Planning time budget (e.g. 5s)")
	f.Bool("allow-partial", true, "Return the closest partial plan when the goal is unreachable")
	f.Float64("cost-weight", 0, "Weight of accumulated cost in node scores")
	f.Float64("priority-weight", 0, "Weight of goal priority in node scores")
	bindFlag(a, config.KeyMaxDepth, cmd, "max-depth")
	bindFlag(a, config.KeyTimeout, cmd, "timeout")
	bindFlag(a, config.KeyAllowPartialPlans, cmd, "allow-partial")
	bindFlag(a, config.KeyCostWeight, cmd, "cost-weight")
	bindFlag(a, config.KeyPriorityWeight, cmd, "priority-weight")
	return cmd
}

func bindFlag(a *app, key string, cmd *cobra.Command, name string) {
	_ = a.v.BindPFlag(key, cmd.Flags().Lookup(name))
}

func printGenerated(w io.Writer, out planner.GenerateResult) {
	res := out.Result
	plan := res.Plan
	fmt.Fprintf(w, "%s\n", res.Message)
	fmt.Fprintf(w, "Goal: %s\n", out.Goal.ID)
	for idx, action := range plan.Actions {
		fmt.Fprintf(w, "  %d. %s (cost %g)\n", idx+1, action.ID, action.Cost)
	}
	fmt.Fprintf(w, "Estimated cost: %g, duration: %s, explored: %d\n",
		plan.EstimatedCost, plan.EstimatedDuration, res.ExploredNodes)
	if diff, err := worldstate.UnifiedDiff(out.InitialState, out.PredictedState, "initial", "predicted"); err == nil && diff != "" {
		fmt.Fprint(w, diff)
	}
	fmt.Fprintf(w, "Wrote plan: %s\n", out.PlanPath)
}

func newPlanRunCmd(a *app) *cobra.Command {
	var (
		executorName string
		statePath    string
		transcripts  string
		timeout      time.Duration
		updateState  bool
		sendNotify   bool
		sleep        bool
	)
	cmd := &cobra.Command{
		Use:   "run <plan>",
		Short: "Execute a plan's actions in order",
		Long: `Execute a plan's actions in order. <plan> is a plan.json path, the directory
holding one, or a plan id under <workspace>/artifacts/plans.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			planPath, err := a.locatePlan(args[0])
			if err != nil {
				return err
			}
			plan, err := planner.LoadPlan(planPath)
			if err != nil {
				return err
			}
			if statePath, err = a.pathOr(statePath, a.ws.StatePath); err != nil {
				return fmt.Errorf("resolve --state: %w", err)
			}
			state, err := worldstate.LoadFile(statePath)
			if err != nil {
				return err
			}
			if transcripts == "" {
				transcripts = filepath.Join(filepath.Dir(planPath), "transcripts")
			} else if transcripts, err = a.ws.ResolvePath(transcripts); err != nil {
				return fmt.Errorf("resolve --transcripts: %w", err)
			}

			exec, err := newExecutor(executorName, transcripts, a.ws.Root, sleep)
			if err != nil {
				return err
			}

			finish := a.track("plan_run", map[string]any{
				"workspace": a.ws.Root,
				"plan":      planPath,
				"executor":  executorName,
				"timeout":   timeout.String(),
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			res, runErr := planner.RunPlan(ctx, planner.RunOptions{
				Plan:     plan,
				PlanPath: planPath,
				State:    state,
				Executor: exec,
				RunsDir:  a.ws.RunsDir,
				Audit:    a.audit,
				Timeout:  timeout,
				Logger:   a.logger,
			})

			finishPayload := map[string]any{"plan": planPath, "plan_id": plan.ID}
			if res != nil {
				finishPayload["run_id"] = res.RunID
				finishPayload["run_dir"] = res.RunDir
				finishPayload["status"] = string(res.Status)
				finishPayload["steps_run"] = len(res.Steps)
			}
			finish(finishPayload, runErr)

			if res != nil {
				if err := a.updateStoredStatus(plan, res.Status); err != nil {
					a.logger.Warn("update stored plan status", zap.Error(err))
				}
				title, message := notify.FormatRunComplete(plan.Goal.ID, string(res.Status), len(res.Steps), len(plan.Actions))
				if err := (&notify.Notifier{Enabled: sendNotify}).Send(title, message); err != nil {
					a.logger.Warn("notify", zap.Error(err))
				}
			}
			if runErr != nil {
				return runErr
			}
			if updateState {
				if err := worldstate.WriteFile(statePath, res.FinalState); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated state: %s\n", statePath)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Plan run complete: %s\n", res.RunDir)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&executorName, "executor", "auto", "Executor: auto, simulate or command")
	f.StringVar(&statePath, "state", "", "Starting state file (default: <workspace>/states/current.yml)")
	f.StringVar(&transcripts, "transcripts", "", "Directory for command transcripts (default: next to plan.json)")
	f.DurationVar(&timeout, "timeout", 0, "Optional per-step timeout (e.g. 10m)")
	f.BoolVar(&updateState, "update-state", false, "Write the final state back to the state file after a successful run")
	f.BoolVar(&sendNotify, "notify", false, "Send a desktop notification when the run ends")
	f.BoolVar(&sleep, "simulate-duration", false, "Simulated actions take their declared duration")
	return cmd
}

func newExecutor(name, transcriptDir, workDir string, sleep bool) (planner.Executor, error) {
	sim := &executor.Simulator{Sleep: sleep}
	command := &executor.CommandExecutor{TranscriptDir: transcriptDir, WorkDir: workDir}
	switch name {
	case "auto":
		return &executor.Router{Command: command, Simulate: sim}, nil
	case "simulate":
		return sim, nil
	case "command":
		return &executor.Router{Command: command}, nil
	default:
		return nil, fmt.Errorf("unknown executor: %s", name)
	}
}

func newPlanListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			store, err := planstore.Open(a.ws.PlanDBPath)
			if err != nil {
				return err
			}
			defer store.Close()
			records, err := store.ListPlans(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tGOAL\tSTATUS\tACTIONS\tCOST\tCREATED")
			for _, rec := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%g\t%s\n",
					rec.ID, rec.GoalID, rec.Status, rec.ActionCount, rec.EstimatedCost,
					rec.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of plans (0 = all)")
	return cmd
}

func newPlanShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <plan>",
		Short: "Print a plan as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			plan, err := a.findPlan(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
}

// pathOr resolves path against the workspace, falling back to def when empty.
func (a *app) pathOr(path, def string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return def, nil
	}
	return a.ws.ResolvePath(path)
}

// locatePlan turns a plan argument into a plan.json path.
func (a *app) locatePlan(arg string) (string, error) {
	candidate, err := a.ws.ResolvePath(arg)
	if err != nil {
		return "", err
	}
	if _, statErr := os.Stat(candidate); statErr != nil && !strings.ContainsRune(arg, filepath.Separator) {
		candidate = filepath.Join(a.ws.PlansDir, arg)
	}
	return planner.ResolvePlanPath(candidate)
}

// findPlan loads a plan from disk, or from the plan store by id.
func (a *app) findPlan(arg string) (planner.Plan, error) {
	path, pathErr := a.locatePlan(arg)
	if pathErr == nil {
		return planner.LoadPlan(path)
	}
	store, err := planstore.Open(a.ws.PlanDBPath)
	if err != nil {
		return planner.Plan{}, err
	}
	defer store.Close()
	plan, err := store.GetPlan(arg)
	if errors.Is(err, planstore.ErrNotFound) {
		return planner.Plan{}, pathErr
	}
	return plan, err
}

func (a *app) recordResult(goalID string, res planner.Result) error {
	store, err := planstore.Open(a.ws.PlanDBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.RecordResult(goalID, res)
	return err
}

func (a *app) updateStoredStatus(plan planner.Plan, status planner.PlanStatus) error {
	store, err := planstore.Open(a.ws.PlanDBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	err = store.UpdateStatus(plan.ID, status)
	if errors.Is(err, planstore.ErrNotFound) {
		plan.Status = status
		return store.SavePlan(plan)
	}
	return err
}
