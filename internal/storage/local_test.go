package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLocal(t *testing.T) *LocalStorage {
	t.Helper()
	l, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	return l
}

func TestLocalStorage_UploadAndList(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	uploads := []string{
		"www-2024-03-15.tar.gz",
		"weekly/www-2024-03-10.tar.gz",
		"monthly/www-2024-03-01.tar.gz",
	}
	for _, key := range uploads {
		if err := l.Upload(ctx, key, strings.NewReader("archive "+key), nil); err != nil {
			t.Fatalf("Upload(%q) error = %v", key, err)
		}
	}

	tests := []struct {
		name   string
		prefix string
		want   int
	}{
		{"all objects", "", 3},
		{"weekly only", "weekly/", 1},
		{"monthly only", "monthly/", 1},
		{"no matches", "yearly/", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			objects, err := l.List(ctx, tt.prefix)
			if err != nil {
				t.Fatalf("List(%q) error = %v", tt.prefix, err)
			}
			if len(objects) != tt.want {
				t.Errorf("List(%q) returned %d objects, want %d", tt.prefix, len(objects), tt.want)
			}
		})
	}

	objects, err := l.List(ctx, "weekly/")
	if err != nil {
		t.Fatal(err)
	}
	if objects[0].Key != "weekly/www-2024-03-10.tar.gz" {
		t.Errorf("listed key = %q, want slash-separated path", objects[0].Key)
	}
	if objects[0].Size != int64(len("archive weekly/www-2024-03-10.tar.gz")) {
		t.Errorf("listed size = %d, want payload length", objects[0].Size)
	}
}

func TestLocalStorage_Delete(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	if err := l.Upload(ctx, "www-2024-03-15.tar.gz", strings.NewReader("data"), nil); err != nil {
		t.Fatal(err)
	}
	if err := l.Delete(ctx, "www-2024-03-15.tar.gz"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	objects, err := l.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 0 {
		t.Errorf("List() after delete returned %d objects, want 0", len(objects))
	}

	if err := l.Delete(ctx, "www-2024-03-15.tar.gz"); err == nil {
		t.Error("Delete() of missing object: error = nil, want error")
	}
}

// failingReader errors partway through to simulate an interrupted archive
// stream.
type failingReader struct {
	data io.Reader
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	n, err := f.data.Read(p)
	if err == io.EOF {
		return n, f.err
	}
	return n, err
}

func TestLocalStorage_FailedUploadLeavesNothing(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	reader := &failingReader{
		data: strings.NewReader("partial"),
		err:  errors.New("stream interrupted"),
	}
	if err := l.Upload(ctx, "www-2024-03-15.tar.gz", reader, nil); err == nil {
		t.Fatal("Upload() error = nil, want stream error")
	}

	objects, err := l.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(objects) != 0 {
		t.Errorf("failed upload left %d objects behind: %v", len(objects), objects)
	}

	entries, err := os.ReadDir(l.root)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			t.Errorf("failed upload left file %q in root", e.Name())
		}
	}
}

func TestLocalStorage_LastBackupTime(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	// Empty prefix reports the zero time, not an error.
	got, err := l.LastBackupTime(ctx, "")
	if err != nil {
		t.Fatalf("LastBackupTime() error = %v", err)
	}
	if !got.IsZero() {
		t.Errorf("LastBackupTime() on empty store = %v, want zero", got)
	}

	if err := l.Upload(ctx, "www-2024-03-14.tar.gz", strings.NewReader("old"), nil); err != nil {
		t.Fatal(err)
	}
	if err := l.Upload(ctx, "www-2024-03-15.tar.gz", strings.NewReader("new"), nil); err != nil {
		t.Fatal(err)
	}

	// Age the first object so mtime ordering is unambiguous.
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(l.root, "www-2024-03-14.tar.gz"), past, past); err != nil {
		t.Fatal(err)
	}

	got, err = l.LastBackupTime(ctx, "")
	if err != nil {
		t.Fatalf("LastBackupTime() error = %v", err)
	}
	if time.Since(got) > time.Minute {
		t.Errorf("LastBackupTime() = %v, want the newer object's mtime", got)
	}
}
