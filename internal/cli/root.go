// Package cli implements the gfs-backup command tree. Commands delegate to
// the pipeline layer; this package only loads configuration, builds the
// shared logger and storage gateway, and parses flags.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/imedwei/gfs-backup/internal/config"
	"github.com/imedwei/gfs-backup/internal/metrics"
	"github.com/imedwei/gfs-backup/internal/storage"
	"github.com/spf13/cobra"

	_ "github.com/joho/godotenv/autoload"
)

// Version information (set at build time).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(version, commit, date string) {
	Version = version
	Commit = commit
	BuildDate = date
}

var cfgFile string

// Execute runs the command tree. SIGINT and SIGTERM cancel the shared
// context so in-flight uploads and deletes stop cleanly.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		cancel()
	}()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd creates the root command for the gfs-backup CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gfs-backup",
		Short: "Grandfather-father-son backups for directories and databases",
		Long: `gfs-backup archives the configured sources, uploads each archive to
object storage under the active retention tiers and prunes objects that
have outlived their tier. One invocation is one complete cycle; daemon
mode repeats the cycle on a cron schedule.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "gfs-backup.yml", "path to the configuration file")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPruneCmd())
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("gfs-backup %s\n", Version)
			cmd.Printf("Commit: %s\n", Commit)
			cmd.Printf("Build Date: %s\n", BuildDate)
		},
	}
}

// app bundles what every command needs once configuration is loaded.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	gateway storage.Gateway
}

// setup loads the configuration file, builds the process logger and
// connects the storage gateway. Configuration problems are fatal before
// any processing starts.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	gateway, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating storage gateway: %w", err)
	}

	metrics.Info.WithLabelValues(Version, cfg.Storage.Provider, cfg.Retention.Layout).Set(1)

	logger.Info("Configuration loaded",
		"storage_provider", cfg.Storage.Provider,
		"layout", cfg.Retention.Layout,
		"sources", len(cfg.Sources),
	)

	return &app{cfg: cfg, logger: logger, gateway: gateway}, nil
}

// newLogger builds the process logger from the logging section. Validation
// has already rejected unknown levels and formats.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
