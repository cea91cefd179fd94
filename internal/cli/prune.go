package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/imedwei/gfs-backup/internal/pipeline"
	"github.com/spf13/cobra"
)

// newPruneCmd creates the prune command.
func newPruneCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete objects that have outlived their retention tier",
		Long: `Evaluate every retention tier and delete expired objects. With --dry-run
the decisions are printed as a table and nothing is deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			orchestrator := pipeline.NewOrchestrator(app.cfg, app.gateway, false, app.logger)
			if !dryRun {
				return orchestrator.Prune(cmd.Context())
			}

			plans, err := orchestrator.PrunePlan(cmd.Context())
			if err != nil {
				return err
			}
			return printPlans(cmd.OutOrStdout(), plans)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print retention decisions without deleting anything")

	return cmd
}

// printPlans renders one row per object, grouped by tier, followed by
// per-tier totals.
func printPlans(out io.Writer, plans []pipeline.TierPlan) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "TIER\tACTION\tKEY\tREASON"); err != nil {
		return err
	}
	for _, tp := range plans {
		for _, d := range tp.Plan.Decisions {
			if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", tp.Tier, d.Action, d.Key, d.Reason); err != nil {
				return err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, tp := range plans {
		kept, deleted, skipped := tp.Plan.Counts()
		if _, err := fmt.Fprintf(out, "%s: %d kept, %d to delete, %d skipped\n", tp.Tier, kept, deleted, skipped); err != nil {
			return err
		}
	}
	return nil
}
