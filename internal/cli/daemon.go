package cli

import (
	"context"
	"sync"
	"time"

	"github.com/imedwei/gfs-backup/internal/health"
	"github.com/imedwei/gfs-backup/internal/pipeline"
	"github.com/imedwei/gfs-backup/internal/schedule"
	"github.com/imedwei/gfs-backup/internal/server"
	"github.com/spf13/cobra"
)

// newDaemonCmd creates the daemon command.
func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run backup cycles on the configured cron schedule",
		Long: `Start a long-lived process that runs a full backup and prune cycle on
the schedule.cron expression. When server.addr is set the process also
serves Prometheus metrics and health checks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			app, err := setup(ctx)
			if err != nil {
				return err
			}

			orchestrator := pipeline.NewOrchestrator(app.cfg, app.gateway, false, app.logger)

			var wg sync.WaitGroup
			var httpServer *server.Server

			if app.cfg.Server.Addr != "" {
				serverConfig := server.DefaultConfig()
				serverConfig.Addr = app.cfg.Server.Addr
				httpServer = server.New(serverConfig, app.logger)
				httpServer.RegisterHealthCheck("storage", health.GatewayCheck(app.gateway))

				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := httpServer.Start(); err != nil {
						app.logger.Error("HTTP server failed", "error", err)
					}
				}()
			}

			daemon := schedule.NewDaemon(app.logger)
			err = daemon.Schedule(app.cfg.Schedule.Cron, func() {
				if err := orchestrator.Run(ctx); err != nil {
					app.logger.Error("Scheduled run failed", "error", err)
				}
			})
			if err != nil {
				return err
			}

			app.logger.Info("Daemon started", "cron", app.cfg.Schedule.Cron, "addr", app.cfg.Server.Addr)
			daemon.Run(ctx)

			if httpServer != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					app.logger.Error("HTTP server shutdown failed", "error", err)
				}
			}
			wg.Wait()

			return nil
		},
	}
}
