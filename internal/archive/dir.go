package archive

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/imedwei/gfs-backup/internal/utils"
)

// DirProducer archives a directory tree as gzip-compressed tar. Entries are
// stored relative to the archived root; symlinks are recorded as links, not
// followed.
type DirProducer struct {
	root string
}

// NewDirProducer creates a producer for the given directory.
func NewDirProducer(root string) *DirProducer {
	return &DirProducer{root: root}
}

// Suffix implements Producer.Suffix.
func (d *DirProducer) Suffix() string {
	return ".tar.gz"
}

// Produce implements Producer.Produce.
func (d *DirProducer) Produce(ctx context.Context, dest string) error {
	info, err := os.Stat(d.root)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source %s is not a directory", d.root)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	gw := gzip.NewWriter(out)
	tw := tar.NewWriter(gw)

	err = filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return d.addEntry(tw, path, entry)
	})

	// Close in reverse order; the tar and gzip trailers only land on a
	// clean close.
	if cerr := tw.Close(); err == nil {
		err = cerr
	}
	if cerr := gw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}

	if err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to archive %s: %w", d.root, err)
	}
	return nil
}

func (d *DirProducer) addEntry(tw *tar.Writer, path string, entry fs.DirEntry) error {
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}

	info, err := entry.Info()
	if err != nil {
		return err
	}

	var link string
	if info.Mode()&fs.ModeSymlink != 0 {
		if link, err = os.Readlink(path); err != nil {
			return err
		}
	}

	hdr, err := tar.FileInfoHeader(info, link)
	if err != nil {
		return err
	}
	hdr.Name = filepath.ToSlash(rel)
	if entry.IsDir() {
		hdr.Name += "/"
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	buf := utils.DefaultBufferPool.Get()
	_, err = io.CopyBuffer(tw, f, buf)
	utils.DefaultBufferPool.Put(buf)
	_ = f.Close()
	return err
}

// Verify checks that a produced archive opens cleanly. Tar archives must
// hold at least one entry; plain gzip files must decompress to at least one
// byte.
func Verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("invalid gzip format: %w", err)
	}
	defer func() {
		_ = gr.Close()
	}()

	if strings.HasSuffix(path, ".tar.gz") {
		tr := tar.NewReader(gr)
		if _, err := tr.Next(); err != nil {
			if err == io.EOF {
				return fmt.Errorf("archive is empty")
			}
			return fmt.Errorf("invalid tar format: %w", err)
		}
		return nil
	}

	buf := make([]byte, 1)
	if _, err := gr.Read(buf); err != nil {
		if err == io.EOF {
			return fmt.Errorf("archive is empty")
		}
		return fmt.Errorf("failed to read archive: %w", err)
	}
	return nil
}
