package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage implements Gateway on a filesystem directory. Object keys map
// to slash-separated paths under the root. It exists for on-host backup
// targets (NFS mounts, attached volumes) and for exercising the pipeline
// without cloud credentials.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the root directory if needed.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Upload implements Gateway.Upload. The archive is written to a temporary
// file and renamed into place, so a failed upload leaves no partial object.
// Metadata is not persisted; LastBackupTime falls back to file mtimes.
func (l *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader, metadata map[string]string) error {
	dest := l.fullPath(key)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp object: %w", err)
	}

	if _, err := io.Copy(tmp, reader); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to close object: %w", err)
	}

	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Delete implements Gateway.Delete.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.fullPath(key)); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// List implements Gateway.List.
func (l *LocalStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var objects []ObjectInfo
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".upload-") {
			return nil
		}

		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		objects = append(objects, ObjectInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
			Metadata:     make(map[string]string),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list local objects: %w", err)
	}
	return objects, nil
}

// LastBackupTime implements Gateway.LastBackupTime using file mtimes.
func (l *LocalStorage) LastBackupTime(ctx context.Context, prefix string) (time.Time, error) {
	objects, err := l.List(ctx, prefix)
	if err != nil {
		return time.Time{}, err
	}

	var newest time.Time
	for _, obj := range objects {
		if obj.LastModified.After(newest) {
			newest = obj.LastModified
		}
	}
	return newest, nil
}

func (l *LocalStorage) fullPath(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}
