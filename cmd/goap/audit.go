package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/adebold/warehouse-network-sub010/internal/audit"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the workspace audit log",
	}
	cmd.AddCommand(newAuditListCmd(a))
	return cmd
}

func newAuditListCmd(a *app) *cobra.Command {
	var (
		limit     int
		eventType string
		actor     string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent audit events, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			events, err := a.audit.Query(audit.Filter{Type: eventType, Actor: actor, Limit: limit})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTIME\tACTOR\tTYPE\tPAYLOAD")
			for _, ev := range events {
				payload, err := json.Marshal(ev.Payload)
				if err != nil {
					return fmt.Errorf("encode payload %d: %w", ev.ID, err)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", ev.ID, ev.TS.Format(time.RFC3339), ev.Actor, ev.Type, payload)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of events (0 = all)")
	cmd.Flags().StringVar(&eventType, "type", "", "Only show events of this type")
	cmd.Flags().StringVar(&actor, "actor", "", "Only show events from this actor")
	return cmd
}
