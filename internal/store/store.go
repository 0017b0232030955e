// Package store provides the optional sqlite-backed batch run cache: every
// tile's resolved params + resulting summary JSON is keyed by tile stem and
// a content hash of its inputs, so a re-run of an unchanged tile under
// unchanged params can skip recomputation. Adapted from the teacher's
// internal/db migration-driven schema plus internal/lidardb's simpler
// embed-schema pattern.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"hash/fnv"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/rgdonohue/penguin-detection-pipeline/internal/monitoring"
	"github.com/rgdonohue/penguin-detection-pipeline/internal/perrors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a sqlite connection holding the batch run cache.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// migrates it to the latest schema version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, perrors.Wrap(perrors.Resource, err, "failed to open store at %q", path)
	}
	s := &Store{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	monitoring.Logf("store: opened %q and migrated to latest schema", path)
	return s, nil
}

func (s *Store) migrateUp() error {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return perrors.Wrap(perrors.Consistency, err, "failed to sub migrations FS")
	}
	sourceDriver, err := iofs.New(sub, ".")
	if err != nil {
		return perrors.Wrap(perrors.Consistency, err, "failed to create migration source driver")
	}
	dbDriver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return perrors.Wrap(perrors.Resource, err, "failed to create sqlite migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return perrors.Wrap(perrors.Consistency, err, "failed to build migrate instance")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return perrors.Wrap(perrors.Resource, err, "migration up failed")
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID mints a fresh run identifier and records the run's start time
// and resolved params JSON.
func (s *Store) NewRunID(paramsJSON string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, started_at, params_json) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), paramsJSON,
	)
	if err != nil {
		return "", perrors.Wrap(perrors.Resource, err, "failed to record new run")
	}
	return id, nil
}

// Lookup returns the cached summary JSON for (tileStem, contentHash), if
// present.
func (s *Store) Lookup(tileStem, contentHash string) (summaryJSON string, found bool, err error) {
	row := s.db.QueryRow(
		`SELECT summary_json FROM tile_results WHERE tile_stem = ? AND content_hash = ?`,
		tileStem, contentHash,
	)
	if scanErr := row.Scan(&summaryJSON); scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, perrors.Wrap(perrors.Resource, scanErr, "lookup failed for tile %q", tileStem)
	}
	return summaryJSON, true, nil
}

// Put records a tile's result under the given run, tile stem, and content
// hash, overwriting any prior result for the same (tileStem, contentHash).
func (s *Store) Put(runID, tileStem, contentHash string, candidateCount int, summaryJSON string) error {
	_, err := s.db.Exec(
		`INSERT INTO tile_results (run_id, tile_stem, content_hash, candidate_count, summary_json, computed_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(tile_stem, content_hash) DO UPDATE SET
		   run_id=excluded.run_id, candidate_count=excluded.candidate_count,
		   summary_json=excluded.summary_json, computed_at=excluded.computed_at`,
		runID, tileStem, contentHash, candidateCount, summaryJSON, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return perrors.Wrap(perrors.Resource, err, "failed to store result for tile %q", tileStem)
	}
	return nil
}

// ContentHash computes a stable cache key from a tile's path, the sizeBytes
// value the caller passes, and an FNV-32a hash of the resolved params JSON.
// It does not read the file itself, so Store stays storage-only and
// testable without real point files.
func ContentHash(tilePath string, paramsJSON string, sizeBytes int64) string {
	h := fnv.New32a()
	h.Write([]byte(paramsJSON))
	return fmt.Sprintf("%s:%d:%x", tilePath, sizeBytes, h.Sum32())
}
