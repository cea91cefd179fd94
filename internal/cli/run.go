package cli

import (
	"github.com/imedwei/gfs-backup/internal/pipeline"
	"github.com/spf13/cobra"
)

// newRunCmd creates the run command.
func newRunCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one backup and prune cycle",
		Long: `Archive every configured source, upload each archive to the active
retention tiers and delete objects that have outlived their tier.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := setup(cmd.Context())
			if err != nil {
				return err
			}

			orchestrator := pipeline.NewOrchestrator(app.cfg, app.gateway, force, app.logger)
			return orchestrator.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "run even when the newest backup is younger than the minimum interval")

	return cmd
}
