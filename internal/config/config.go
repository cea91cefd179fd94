// Package config loads and validates the pipeline configuration from a YAML
// file with environment expansion.
package config

import (
	"fmt"
	"os"
	"time"
)

// Storage layouts. Tiered fans each backup out into per-tier prefixes at
// upload time; flat accumulates everything in one prefix and collapses it
// at prune time.
const (
	LayoutTiered = "tiered"
	LayoutFlat   = "flat"
)

// Source kinds.
const (
	SourceDirectory = "directory"
	SourcePostgres  = "postgres"
	SourceMySQL     = "mysql"
)

// Config holds all application configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Sources   []SourceConfig  `yaml:"sources"`
	Retention RetentionConfig `yaml:"retention"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`

	// WorkDir holds in-progress archives until they are uploaded.
	WorkDir string `yaml:"work_dir"`
}

// StorageConfig selects and parameterizes the storage provider.
type StorageConfig struct {
	Provider string `yaml:"provider"` // "s3", "gcs" or "local"
	// Prefix is prepended to every object key, before any tier prefix.
	Prefix string      `yaml:"prefix"`
	S3     S3Config    `yaml:"s3"`
	GCS    GCSConfig   `yaml:"gcs"`
	Local  LocalConfig `yaml:"local"`
}

// S3Config covers AWS S3 and S3-compatible endpoints. Static credentials
// are optional; when absent the SDK's default chain applies.
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// GCSConfig covers Google Cloud Storage. ServiceAccountJSON is optional;
// when absent, application default credentials apply.
type GCSConfig struct {
	Bucket             string `yaml:"bucket"`
	ProjectID          string `yaml:"project_id"`
	ServiceAccountJSON string `yaml:"service_account_json"`
}

// LocalConfig stores backups under a filesystem directory.
type LocalConfig struct {
	Path string `yaml:"path"`
}

// SourceConfig describes one thing to back up.
type SourceConfig struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "directory", "postgres" or "mysql"
	// Path is the tree to archive for directory sources.
	Path string `yaml:"path"`
	// URL is the connection string for database sources.
	URL string `yaml:"url"`
	// DumpOptions is appended verbatim to the dump command line.
	DumpOptions string `yaml:"dump_options"`
}

// RetentionConfig sets the layout and the per-tier age thresholds.
type RetentionConfig struct {
	Layout string `yaml:"layout"` // "tiered" or "flat"

	// Tiered layout thresholds.
	DailyDays     int `yaml:"daily_days"`
	WeeklyDays    int `yaml:"weekly_days"`
	MonthlyMonths int `yaml:"monthly_months"`

	// Flat layout windows.
	Collapse CollapseConfig `yaml:"collapse"`
}

// CollapseConfig bounds the flat layout's keep-all, one-per-week and
// one-per-month windows, all in days.
type CollapseConfig struct {
	KeepAllDays int `yaml:"keep_all_days"`
	WeeklyDays  int `yaml:"weekly_days"`
	MonthlyDays int `yaml:"monthly_days"`
}

// ScheduleConfig controls tier fan-out days and daemon-mode timing.
type ScheduleConfig struct {
	// Cron is the daemon-mode run schedule, five-field syntax.
	Cron string `yaml:"cron"`
	// WeeklyDay is the weekday for weekly uploads, 0 = Sunday.
	WeeklyDay int `yaml:"weekly_day"`
	// MonthlyDay is the day of month for monthly uploads, 1 through 28 so
	// every month qualifies.
	MonthlyDay int `yaml:"monthly_day"`
	// MinIntervalHours skips a run when the newest backup is younger than
	// this. Zero disables the guard.
	MinIntervalHours int `yaml:"min_interval_hours"`
}

// ServerConfig controls the health and metrics listener. An empty address
// disables it.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig mirrors slog's levels and handler formats.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

// applyDefaults fills unset fields so a minimal file works out of the box.
func (c *Config) applyDefaults() {
	if c.Retention.Layout == "" {
		c.Retention.Layout = LayoutTiered
	}
	if c.Retention.DailyDays == 0 {
		c.Retention.DailyDays = 7
	}
	if c.Retention.WeeklyDays == 0 {
		c.Retention.WeeklyDays = 35
	}
	if c.Retention.MonthlyMonths == 0 {
		c.Retention.MonthlyMonths = 6
	}
	if c.Retention.Collapse.KeepAllDays == 0 {
		c.Retention.Collapse.KeepAllDays = 7
	}
	if c.Retention.Collapse.WeeklyDays == 0 {
		c.Retention.Collapse.WeeklyDays = 28
	}
	if c.Retention.Collapse.MonthlyDays == 0 {
		c.Retention.Collapse.MonthlyDays = 180
	}
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = "30 3 * * *"
	}
	if c.Schedule.MonthlyDay == 0 {
		c.Schedule.MonthlyDay = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.WorkDir == "" {
		c.WorkDir = os.TempDir()
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := c.Storage.validate(); err != nil {
		return err
	}

	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	seen := make(map[string]bool)
	for i, s := range c.Sources {
		if err := s.validate(); err != nil {
			return fmt.Errorf("source %d: %w", i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate source name: %s", s.Name)
		}
		seen[s.Name] = true
	}

	if err := c.Retention.validate(); err != nil {
		return err
	}

	if c.Schedule.WeeklyDay < 0 || c.Schedule.WeeklyDay > 6 {
		return fmt.Errorf("schedule.weekly_day must be 0-6 (Sunday-Saturday), got %d", c.Schedule.WeeklyDay)
	}
	if c.Schedule.MonthlyDay < 1 || c.Schedule.MonthlyDay > 28 {
		return fmt.Errorf("schedule.monthly_day must be 1-28, got %d", c.Schedule.MonthlyDay)
	}
	if c.Schedule.MinIntervalHours < 0 {
		return fmt.Errorf("schedule.min_interval_hours must be non-negative")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging.format: %s", c.Logging.Format)
	}

	return nil
}

func (s StorageConfig) validate() error {
	switch s.Provider {
	case "s3":
		if s.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for s3 storage")
		}
		if s.S3.Region == "" && s.S3.Endpoint == "" {
			return fmt.Errorf("storage.s3.region is required for s3 storage (unless storage.s3.endpoint is set)")
		}
	case "gcs":
		if s.GCS.Bucket == "" {
			return fmt.Errorf("storage.gcs.bucket is required for gcs storage")
		}
	case "local":
		if s.Local.Path == "" {
			return fmt.Errorf("storage.local.path is required for local storage")
		}
	case "":
		return fmt.Errorf("storage.provider is required")
	default:
		return fmt.Errorf("invalid storage.provider: %s (must be 's3', 'gcs' or 'local')", s.Provider)
	}
	return nil
}

func (s SourceConfig) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	switch s.Kind {
	case SourceDirectory:
		if s.Path == "" {
			return fmt.Errorf("path is required for directory sources")
		}
	case SourcePostgres, SourceMySQL:
		if s.URL == "" {
			return fmt.Errorf("url is required for %s sources", s.Kind)
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("invalid kind: %s (must be 'directory', 'postgres' or 'mysql')", s.Kind)
	}
	return nil
}

func (r RetentionConfig) validate() error {
	switch r.Layout {
	case LayoutTiered:
		if r.DailyDays < 1 {
			return fmt.Errorf("retention.daily_days must be positive")
		}
		if r.WeeklyDays < 1 {
			return fmt.Errorf("retention.weekly_days must be positive")
		}
		if r.MonthlyMonths < 1 {
			return fmt.Errorf("retention.monthly_months must be positive")
		}
	case LayoutFlat:
		cw := r.Collapse
		if cw.KeepAllDays < 1 {
			return fmt.Errorf("retention.collapse.keep_all_days must be positive")
		}
		if cw.WeeklyDays <= cw.KeepAllDays {
			return fmt.Errorf("retention.collapse.weekly_days must exceed keep_all_days")
		}
		if cw.MonthlyDays <= cw.WeeklyDays {
			return fmt.Errorf("retention.collapse.monthly_days must exceed weekly_days")
		}
	default:
		return fmt.Errorf("invalid retention.layout: %s (must be 'tiered' or 'flat')", r.Layout)
	}
	return nil
}

// MinInterval returns the run guard threshold as a Duration.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.Schedule.MinIntervalHours) * time.Hour
}

// WeeklyWeekday converts the configured weekly day to a time.Weekday.
func (c *Config) WeeklyWeekday() time.Weekday {
	return time.Weekday(c.Schedule.WeeklyDay)
}
