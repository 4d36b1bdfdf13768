package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adebold/warehouse-network-sub010/internal/planner"
	"github.com/adebold/warehouse-network-sub010/internal/worldstate"
)

func newStateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect world state files",
	}
	cmd.AddCommand(newStateShowCmd(a), newStateDiffCmd(a))
	return cmd
}

func newStateShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [state]",
		Short: "Print a state file in canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			path, err := a.pathOr(arg, a.ws.StatePath)
			if err != nil {
				return err
			}
			state, err := worldstate.LoadFile(path)
			if err != nil {
				return err
			}
			rendered, err := worldstate.Render(state)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		},
	}
}

func newStateDiffCmd(a *app) *cobra.Command {
	var planArg string
	cmd := &cobra.Command{
		Use:   "diff [from] [to]",
		Short: "Show a unified diff between two states",
		Long: `Show a unified diff between two state files. With --plan, the diff is
between the starting state (default: <workspace>/states/current.yml) and
the state the plan predicts.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			if planArg == "" && len(args) != 2 {
				return fmt.Errorf("diff needs two state files or --plan")
			}
			if planArg != "" && len(args) > 1 {
				return fmt.Errorf("--plan takes at most one state file")
			}

			fromArg := ""
			if len(args) > 0 {
				fromArg = args[0]
			}
			fromPath, err := a.pathOr(fromArg, a.ws.StatePath)
			if err != nil {
				return err
			}
			from, err := worldstate.LoadFile(fromPath)
			if err != nil {
				return err
			}

			var to worldstate.State
			toName := ""
			if planArg != "" {
				plan, err := a.findPlan(planArg)
				if err != nil {
					return err
				}
				if to, err = planner.Predict(from, plan.Actions); err != nil {
					return err
				}
				toName = "plan " + plan.ID
			} else {
				toPath, err := a.ws.ResolvePath(args[1])
				if err != nil {
					return err
				}
				if to, err = worldstate.LoadFile(toPath); err != nil {
					return err
				}
				toName = args[1]
			}

			diff, err := worldstate.UnifiedDiff(from, to, fromArgName(fromArg), toName)
			if err != nil {
				return err
			}
			if diff == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), diff)
			return nil
		},
	}
	cmd.Flags().StringVar(&planArg, "plan", "", "Diff against the state predicted by this plan")
	return cmd
}

func fromArgName(arg string) string {
	if arg == "" {
		return "current"
	}
	return arg
}
