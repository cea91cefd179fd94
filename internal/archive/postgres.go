package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/imedwei/gfs-backup/internal/utils"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresProducer dumps a PostgreSQL database with pg_dump and compresses
// the stream to disk.
type PostgresProducer struct {
	connectionURL string
	dumpOptions   []string
	dumpBin       string
	logger        *slog.Logger
}

// NewPostgresProducer creates a producer for the given connection URL. It
// probes the server version to pick a matching pg_dump binary; when the
// probe fails the plain pg_dump on PATH is used.
func NewPostgresProducer(connectionURL string, dumpOptions string) *PostgresProducer {
	logger := slog.Default().With("component", "postgres-archive")

	p := &PostgresProducer{
		connectionURL: connectionURL,
		dumpOptions:   strings.Fields(dumpOptions),
		logger:        logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if version, err := ServerVersion(ctx, connectionURL); err == nil {
		logger.Info("Detected PostgreSQL version", "version", version.Full, "major", version.Major)
		if dumpBin, err := FindBestPGDump(version); err == nil {
			p.dumpBin = dumpBin
			logger.Info("Selected pg_dump binary", "binary", dumpBin)
		}
	} else {
		logger.Warn("Could not detect PostgreSQL version, using default binary", "error", err)
	}

	if p.dumpBin == "" {
		p.dumpBin = "pg_dump"
	}

	return p
}

// Suffix implements Producer.Suffix. Dumps use pg_dump's tar format under
// gzip, so restores work with plain pg_restore.
func (p *PostgresProducer) Suffix() string {
	return ".tar.gz"
}

// Produce implements Producer.Produce.
func (p *PostgresProducer) Produce(ctx context.Context, dest string) error {
	args := []string{
		"--format=tar",
		"--no-password",
	}
	args = append(args, p.dumpOptions...)
	args = append(args, p.connectionURL)

	cmd := exec.CommandContext(ctx, p.dumpBin, args...)
	cmd.Env = append(os.Environ(), "PGPASSWORD=")

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	if err := cmd.Start(); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to start pg_dump: %w", err)
	}

	gw := gzip.NewWriter(out)
	progress := utils.NewProgressWriter(gw, func(bytesWritten int64, elapsed time.Duration) {
		p.logger.Debug("Dump in progress", "dumped", utils.FormatBytes(bytesWritten), "elapsed", elapsed)
	})
	buf := utils.DefaultBufferPool.Get()
	written, copyErr := io.CopyBuffer(progress, stdout, buf)
	utils.DefaultBufferPool.Put(buf)
	closeErr := gw.Close()
	waitErr := cmd.Wait()
	outErr := out.Close()

	var failure error
	switch {
	case waitErr != nil:
		failure = fmt.Errorf("pg_dump failed: %w, stderr: %s", waitErr, stderr.String())
	case copyErr != nil:
		failure = fmt.Errorf("failed to compress dump: %w", copyErr)
	case closeErr != nil:
		failure = fmt.Errorf("failed to finalize archive: %w", closeErr)
	case outErr != nil:
		failure = fmt.Errorf("failed to close archive: %w", outErr)
	case written == 0:
		failure = fmt.Errorf("pg_dump produced no output")
	}

	if failure != nil {
		_ = os.Remove(dest)
		return failure
	}

	p.logger.Info("Dump complete", "dumped", utils.FormatBytes(written))
	return nil
}

// Describe implements Describer with the database's name, size and server
// version.
func (p *PostgresProducer) Describe(ctx context.Context) (map[string]string, error) {
	db, err := openPostgres(p.connectionURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	var name, version string
	var size int64
	err = db.QueryRowContext(ctx, `
		SELECT current_database(), pg_database_size(current_database()), version()
	`).Scan(&name, &size, &version)
	if err != nil {
		return nil, fmt.Errorf("failed to get database info: %w", err)
	}

	return map[string]string{
		"database":         name,
		"database-size":    strconv.FormatInt(size, 10),
		"database-version": version,
	}, nil
}

// openPostgres opens a connection through the lib/pq driver, defaulting
// sslmode and connect_timeout when the URL leaves them unset.
func openPostgres(connectionURL string) (*sql.DB, error) {
	u, err := url.Parse(connectionURL)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}

	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "require")
	}
	if q.Get("connect_timeout") == "" {
		q.Set("connect_timeout", "10")
	}
	u.RawQuery = q.Encode()

	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
