package archive

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

// PGVersion represents a PostgreSQL server version.
type PGVersion struct {
	Major int
	Minor int
	Full  string
}

var pgVersionPattern = regexp.MustCompile(`PostgreSQL (\d+)\.(\d+)`)

// ParsePGVersion parses a version() string like "PostgreSQL 16.2 on ...".
func ParsePGVersion(versionStr string) (*PGVersion, error) {
	matches := pgVersionPattern.FindStringSubmatch(versionStr)
	if len(matches) < 3 {
		return nil, fmt.Errorf("could not parse PostgreSQL version from: %s", versionStr)
	}

	major, err := strconv.Atoi(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid major version: %s", matches[1])
	}

	minor, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid minor version: %s", matches[2])
	}

	return &PGVersion{
		Major: major,
		Minor: minor,
		Full:  versionStr,
	}, nil
}

// ServerVersion queries the server's version through the driver.
func ServerVersion(ctx context.Context, connectionURL string) (*PGVersion, error) {
	db, err := openPostgres(connectionURL)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = db.Close()
	}()

	var raw string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to get server version: %w", err)
	}
	return ParsePGVersion(raw)
}

// FindBestPGDump finds the best pg_dump binary for the given server version.
// Versioned binaries (pg_dump16 and so on) win over the bare name; a dump
// client older than the server risks failing on newer catalog objects.
func FindBestPGDump(serverVersion *PGVersion) (string, error) {
	// Versioned client packages currently ship 15 through 17.
	availableVersions := []int{17, 16, 15}

	targetVersion := serverVersion.Major
	if targetVersion < 15 {
		targetVersion = 15
	}

	pgDumpBin := fmt.Sprintf("pg_dump%d", targetVersion)
	if _, err := exec.LookPath(pgDumpBin); err == nil {
		return pgDumpBin, nil
	}

	for _, v := range availableVersions {
		if v >= targetVersion {
			pgDumpBin = fmt.Sprintf("pg_dump%d", v)
			if _, err := exec.LookPath(pgDumpBin); err == nil {
				return pgDumpBin, nil
			}
		}
	}

	if _, err := exec.LookPath("pg_dump"); err == nil {
		return "pg_dump", nil
	}

	for _, v := range availableVersions {
		pgDumpBin = fmt.Sprintf("pg_dump%d", v)
		if _, err := exec.LookPath(pgDumpBin); err == nil {
			return pgDumpBin, nil
		}
	}

	return "", fmt.Errorf("no suitable pg_dump found for PostgreSQL %d", serverVersion.Major)
}
