package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"campus_energy/internal/aggregate"
	"campus_energy/internal/dataset"
)

// Store wraps SQLite access for pipeline runs and their outputs. Each
// run replaces the cleaned readings and the building summary wholesale;
// the runs table keeps the history.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TIMESTAMP,
			finished_at TIMESTAMP,
			status TEXT,
			sources_loaded INTEGER,
			sources_failed INTEGER,
			records INTEGER,
			dropped INTEGER,
			error TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS readings (
			run_id INTEGER,
			ts TIMESTAMP,
			building TEXT,
			kwh REAL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_readings_run_ts ON readings(run_id, ts);`,
		`CREATE TABLE IF NOT EXISTS building_summary (
			run_id INTEGER,
			building TEXT,
			mean REAL,
			min REAL,
			max REAL,
			sum REAL,
			count INTEGER,
			PRIMARY KEY (run_id, building)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Run is one pipeline execution's bookkeeping row.
type Run struct {
	ID            int64
	StartedAt     time.Time
	FinishedAt    *time.Time
	Status        string
	SourcesLoaded int
	SourcesFailed int
	Records       int
	Dropped       int
	Error         string
}

// BeginRun records a started run and returns its id.
func (s *Store) BeginRun(ctx context.Context, ts time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO runs(started_at, status) VALUES(?, ?)`, ts, "running")
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FinishRun closes a run with its final status and ingest counters.
func (s *Store) FinishRun(ctx context.Context, id int64, status string, loaded, failed, records, dropped int, errMsg string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE runs SET finished_at=?, status=?, sources_loaded=?, sources_failed=?, records=?, dropped=?, error=? WHERE id=?`,
		ts, status, loaded, failed, records, dropped, nullableString(errMsg), id)
	return err
}

// ReplaceReadings stores the cleaned dataset for a run.
func (s *Store) ReplaceReadings(ctx context.Context, runID int64, ds *dataset.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM readings WHERE run_id=?`, runID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO readings(run_id, ts, building, kwh) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range ds.Records() {
		if _, err := stmt.ExecContext(ctx, runID, r.Timestamp, r.Building, r.KWH); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ReplaceSummary stores the per-building summary table for a run.
func (s *Store) ReplaceSummary(ctx context.Context, runID int64, table *aggregate.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM building_summary WHERE run_id=?`, runID); err != nil {
		return err
	}
	for _, name := range table.Names() {
		row, _ := table.Row(name)
		if _, err := tx.ExecContext(ctx, `INSERT INTO building_summary(run_id, building, mean, min, max, sum, count) VALUES(?,?,?,?,?,?,?)`,
			runID, name, row.Mean, row.Min, row.Max, row.Sum, row.Count); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LatestRun returns the most recently started run, or nil if none.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, started_at, finished_at, status, COALESCE(sources_loaded,0), COALESCE(sources_failed,0), COALESCE(records,0), COALESCE(dropped,0), COALESCE(error,'') FROM runs ORDER BY id DESC LIMIT 1`)
	var r Run
	var finished sql.NullTime
	switch err := row.Scan(&r.ID, &r.StartedAt, &finished, &r.Status, &r.SourcesLoaded, &r.SourcesFailed, &r.Records, &r.Dropped, &r.Error); err {
	case nil:
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		return &r, nil
	case sql.ErrNoRows:
		return nil, nil
	default:
		return nil, err
	}
}

// ReadingCount returns how many cleaned readings are stored for a run.
func (s *Store) ReadingCount(ctx context.Context, runID int64) (int, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings WHERE run_id=?`, runID)
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// SummaryRows returns the stored summary for a run keyed by building.
func (s *Store) SummaryRows(ctx context.Context, runID int64) (map[string]aggregate.Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT building, mean, min, max, sum, count FROM building_summary WHERE run_id=?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]aggregate.Stats)
	for rows.Next() {
		var name string
		var st aggregate.Stats
		if err := rows.Scan(&name, &st.Mean, &st.Min, &st.Max, &st.Sum, &st.Count); err != nil {
			return nil, err
		}
		out[name] = st
	}
	return out, rows.Err()
}

// Health returns err if the DB is not reachable.
func (s *Store) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}

func nullableString(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
