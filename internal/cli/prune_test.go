package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/imedwei/gfs-backup/internal/pipeline"
	"github.com/imedwei/gfs-backup/internal/retention"
)

func TestPrintPlans(t *testing.T) {
	plans := []pipeline.TierPlan{
		{
			Tier: "daily",
			Plan: retention.Plan{Decisions: []retention.Decision{
				{Key: "app-2024-06-14-03-30-00.tar.gz", Action: retention.ActionKeep, Age: 1, Reason: "younger than 7 days"},
				{Key: "app-2024-06-01-03-30-00.tar.gz", Action: retention.ActionDelete, Age: 14, Reason: "at least 7 days old"},
				{Key: "app-manual.tar.gz", Action: retention.ActionSkip, Reason: "no date in name"},
			}},
		},
		{
			Tier: "weekly",
			Plan: retention.Plan{},
		},
	}

	var buf bytes.Buffer
	if err := printPlans(&buf, plans); err != nil {
		t.Fatalf("printPlans() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"TIER",
		"app-2024-06-01-03-30-00.tar.gz",
		"delete",
		"no date in name",
		"daily: 1 kept, 1 to delete, 1 skipped",
		"weekly: 0 kept, 0 to delete, 0 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPruneCmd_DryRun(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "store")
	if err := os.MkdirAll(store, 0o755); err != nil {
		t.Fatal(err)
	}

	// Ages are relative to the wall clock here, so the seeds sit far from
	// the 7-day daily boundary.
	now := time.Now().UTC()
	freshKey := fmt.Sprintf("app-%s.tar.gz", now.AddDate(0, 0, -1).Format("2006-01-02-15-04-05"))
	oldKey := fmt.Sprintf("app-%s.tar.gz", now.AddDate(0, 0, -40).Format("2006-01-02-15-04-05"))
	for _, key := range []string{freshKey, oldKey} {
		if err := os.WriteFile(filepath.Join(store, key), []byte("archive"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cfgPath := filepath.Join(dir, "config.yml")
	cfgData := fmt.Sprintf(`storage:
  provider: local
  local:
    path: %s
sources:
  - name: app
    kind: directory
    path: %s
logging:
  level: error
`, store, dir)
	if err := os.WriteFile(cfgPath, []byte(cfgData), 0o644); err != nil {
		t.Fatal(err)
	}

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"prune", "--dry-run", "--config", cfgPath})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	if !strings.Contains(got, oldKey) || !strings.Contains(got, "delete") {
		t.Errorf("output should mark %s for deletion:\n%s", oldKey, got)
	}
	if !strings.Contains(got, "daily: 1 kept, 1 to delete, 0 skipped") {
		t.Errorf("output missing daily summary:\n%s", got)
	}

	// Dry run must not touch the store.
	if _, err := os.Stat(filepath.Join(store, oldKey)); err != nil {
		t.Errorf("expired object was removed during dry run: %v", err)
	}
}
