// Package history persists generation runs in DuckDB.
package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/synthgen/backend/internal/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a run ID is unknown.
var ErrNotFound = errors.New("run not found")

// Store is the run history used by the API.
type Store interface {
	Save(ctx context.Context, run *models.Run) error
	Get(ctx context.Context, id string) (*models.Run, error)
	List(ctx context.Context, limit int) ([]*models.Run, error)
	Delete(ctx context.Context, id string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// Options tunes the DuckDB connection.
type Options struct {
	Threads     int
	MemoryLimit string
}

// DuckStore stores runs in a DuckDB database file.
type DuckStore struct {
	db     *sql.DB
	dbPath string
	logger *zap.Logger
}

// Open opens (or creates) the database at dbPath. An empty path keeps the
// database in memory.
func Open(dbPath string, opts Options, logger *zap.Logger) (*DuckStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("history")

	pragmas := []string{"PRAGMA enable_progress_bar=false"}
	if opts.Threads > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
	}
	if opts.MemoryLimit != "" {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	// an in-memory database only lives as long as its single connection
	if dbPath == "" {
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id                  VARCHAR PRIMARY KEY,
			kind                VARCHAR NOT NULL,
			profile             VARCHAR,
			source_file_id      VARCHAR,
			source_name         VARCHAR,
			records             INTEGER NOT NULL,
			generation_time     DOUBLE NOT NULL,
			avg_time_per_record DOUBLE NOT NULL,
			results_times       VARCHAR,
			created_at          TIMESTAMP NOT NULL,
			data                VARCHAR
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("history database ready", zap.String("path", displayPath(dbPath)))
	return &DuckStore{db: db, dbPath: dbPath, logger: logger}, nil
}

// Save inserts or replaces a run.
func (s *DuckStore) Save(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		return errors.New("run ID is required")
	}
	times, err := json.Marshal(run.ResultsTimes)
	if err != nil {
		return fmt.Errorf("encoding results times: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs
			(id, kind, profile, source_file_id, source_name, records,
			 generation_time, avg_time_per_record, results_times, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, string(run.Kind), run.Profile, run.SourceFileID, run.SourceName, run.Records,
		run.GenerationTime, run.AvgTimePerRecord, string(times), run.CreatedAt.UTC(), string(run.Data),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	s.logger.Debug("run saved", zap.String("id", run.ID), zap.String("kind", string(run.Kind)), zap.Int("records", run.Records))
	return nil
}

// Get returns a run including its data.
func (s *DuckStore) Get(ctx context.Context, id string) (*models.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, profile, source_file_id, source_name, records,
		       generation_time, avg_time_per_record, results_times, created_at, data
		FROM runs WHERE id = ?`, id)

	var (
		run   models.Run
		kind  string
		times sql.NullString
		data  sql.NullString
		prof  sql.NullString
		srcID sql.NullString
		srcNm sql.NullString
	)
	err := row.Scan(&run.ID, &kind, &prof, &srcID, &srcNm, &run.Records,
		&run.GenerationTime, &run.AvgTimePerRecord, &times, &run.CreatedAt, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("loading run %s: %w", id, err)
	}

	run.Kind = models.RunKind(kind)
	run.Profile = prof.String
	run.SourceFileID = srcID.String
	run.SourceName = srcNm.String
	run.CreatedAt = run.CreatedAt.UTC()
	if times.Valid && times.String != "" {
		if err := json.Unmarshal([]byte(times.String), &run.ResultsTimes); err != nil {
			return nil, fmt.Errorf("decoding results times of %s: %w", id, err)
		}
	}
	if data.Valid && data.String != "" {
		run.Data = json.RawMessage(data.String)
	}
	return &run, nil
}

// List returns the newest runs first, without their data.
func (s *DuckStore) List(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, profile, source_file_id, source_name, records,
		       generation_time, avg_time_per_record, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*models.Run, 0)
	for rows.Next() {
		var (
			run   models.Run
			kind  string
			prof  sql.NullString
			srcID sql.NullString
			srcNm sql.NullString
		)
		if err := rows.Scan(&run.ID, &kind, &prof, &srcID, &srcNm, &run.Records,
			&run.GenerationTime, &run.AvgTimePerRecord, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.Kind = models.RunKind(kind)
		run.Profile = prof.String
		run.SourceFileID = srcID.String
		run.SourceName = srcNm.String
		run.CreatedAt = run.CreatedAt.UTC()
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// Delete removes a run.
func (s *DuckStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// DeleteOlderThan removes runs created before cutoff and returns how many were removed.
func (s *DuckStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting old runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	if n > 0 {
		s.logger.Info("expired runs removed", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return int(n), nil
}

// Close closes the database.
func (s *DuckStore) Close() error {
	return s.db.Close()
}

func displayPath(p string) string {
	if p == "" {
		return ":memory:"
	}
	return p
}

var _ Store = (*DuckStore)(nil)
