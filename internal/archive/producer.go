// Package archive turns configured sources into compressed archive files on
// local disk, ready for upload.
package archive

import (
	"context"
	"fmt"

	"github.com/imedwei/gfs-backup/internal/config"
)

// Producer writes a point-in-time archive of one source to a local file.
type Producer interface {
	// Produce writes a complete archive to dest. On failure nothing is
	// left at dest.
	Produce(ctx context.Context, dest string) error

	// Suffix is the archive file extension, including the leading dot.
	Suffix() string
}

// Describer is implemented by producers that can report details about their
// source, attached to uploaded objects as metadata.
type Describer interface {
	Describe(ctx context.Context) (map[string]string, error)
}

// ForSource builds the producer matching the source kind.
func ForSource(src config.SourceConfig) (Producer, error) {
	switch src.Kind {
	case config.SourceDirectory:
		return NewDirProducer(src.Path), nil
	case config.SourcePostgres:
		return NewPostgresProducer(src.URL, src.DumpOptions), nil
	case config.SourceMySQL:
		return NewMySQLProducer(src.URL, src.DumpOptions), nil
	default:
		return nil, fmt.Errorf("unsupported source kind: %s", src.Kind)
	}
}
