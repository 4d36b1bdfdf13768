package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/adebold/warehouse-network-sub010/internal/catalog"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the action catalog",
	}
	cmd.AddCommand(newCatalogListCmd(a), newCatalogValidateCmd(a))
	return cmd
}

func (a *app) loadCatalog(dir string) (*catalog.Store, error) {
	dir, err := a.pathOr(dir, a.ws.CatalogDir)
	if err != nil {
		return nil, fmt.Errorf("resolve --catalog-dir: %w", err)
	}
	return catalog.LoadFromDir(dir)
}

func newCatalogListCmd(a *app) *cobra.Command {
	var catalogDir, agentID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List actions, goals and agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			store, err := a.loadCatalog(catalogDir)
			if err != nil {
				return err
			}
			actions, err := store.ActionsForAgent(agentID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ACTION\tCOST\tPRIORITY\tCAPABILITIES\tPRECONDITIONS\tEFFECTS")
			for _, action := range actions {
				fmt.Fprintf(w, "%s\t%g\t%g\t%s\t%s\t%s\n",
					action.ID, action.Cost, action.Priority,
					dash(strings.Join(action.Capabilities, ",")),
					dash(strings.Join(action.Preconditions.Keys(), ",")),
					dash(strings.Join(action.Effects.Keys(), ",")))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "GOAL\tPRIORITY\tTARGET")
			for _, goal := range store.Goals() {
				fmt.Fprintf(w, "%s\t%g\t%s\n", goal.ID, goal.Priority, strings.Join(goal.Target.Keys(), ","))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "AGENT\tCAPABILITIES")
			for _, agent := range store.Agents() {
				fmt.Fprintf(w, "%s\t%s\n", agent.ID, dash(strings.Join(agent.Capabilities, ",")))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&catalogDir, "catalog-dir", "", "Catalog directory (default: <workspace>/catalog)")
	cmd.Flags().StringVar(&agentID, "agent", "", "Only list actions the agent can perform")
	return cmd
}

func newCatalogValidateCmd(a *app) *cobra.Command {
	var catalogDir string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every catalog file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			store, err := a.loadCatalog(catalogDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Catalog OK: %d actions, %d goals, %d agents\n",
				len(store.Actions()), len(store.Goals()), len(store.Agents()))
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogDir, "catalog-dir", "", "Catalog directory (default: <workspace>/catalog)")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
