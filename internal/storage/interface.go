// Package storage provides the object storage gateway for backup archives.
package storage

import (
	"context"
	"io"
	"time"
)

// Gateway is the storage surface the pipeline depends on: put archives in,
// enumerate what is there, take old ones out.
type Gateway interface {
	// Upload stores an archive under the given key.
	Upload(ctx context.Context, key string, reader io.Reader, metadata map[string]string) error

	// Delete removes the object with the given key.
	Delete(ctx context.Context, key string) error

	// List returns the objects whose keys start with prefix. An empty
	// listing is a valid result, not an error.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// LastBackupTime reports when the newest object under prefix was
	// written, or the zero time when there are none.
	LastBackupTime(ctx context.Context, prefix string) (time.Time, error)
}

// ObjectInfo describes a stored archive.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	Metadata     map[string]string
}

// Keys projects a listing onto its object keys, preserving order.
func Keys(objects []ObjectInfo) []string {
	keys := make([]string, len(objects))
	for i, obj := range objects {
		keys[i] = obj.Key
	}
	return keys
}
