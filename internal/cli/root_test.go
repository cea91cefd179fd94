package cli

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imedwei/gfs-backup/internal/config"
)

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()

	names := make(map[string]bool)
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "prune", "daemon", "version"} {
		if !names[want] {
			t.Errorf("missing %s command", want)
		}
	}

	flag := root.PersistentFlags().Lookup("config")
	if flag == nil {
		t.Fatal("config flag not registered")
	}
	if flag.DefValue != "gfs-backup.yml" {
		t.Errorf("config default = %s, want gfs-backup.yml", flag.DefValue)
	}
}

func TestVersionCmd(t *testing.T) {
	root := NewRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "gfs-backup") {
		t.Errorf("version output missing binary name:\n%s", out.String())
	}
}

func TestRunCmd_MissingConfig(t *testing.T) {
	root := NewRootCmd()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"run", "--config", filepath.Join(t.TempDir(), "missing.yml")})

	err := root.Execute()
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "loading configuration") {
		t.Errorf("error = %v, want loading configuration", err)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		wantDebug bool
		wantInfo  bool
	}{
		{
			name:      "debug level",
			cfg:       config.LoggingConfig{Level: "debug", Format: "text"},
			wantDebug: true,
			wantInfo:  true,
		},
		{
			name:      "info level",
			cfg:       config.LoggingConfig{Level: "info", Format: "text"},
			wantDebug: false,
			wantInfo:  true,
		},
		{
			name:      "error level",
			cfg:       config.LoggingConfig{Level: "error", Format: "text"},
			wantDebug: false,
			wantInfo:  false,
		},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newLogger(tt.cfg)
			if got := logger.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := logger.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
		})
	}
}

func TestNewLogger_JSONFormat(t *testing.T) {
	logger := newLogger(config.LoggingConfig{Level: "info", Format: "json"})
	if _, ok := logger.Handler().(*slog.JSONHandler); !ok {
		t.Errorf("handler = %T, want *slog.JSONHandler", logger.Handler())
	}
}
