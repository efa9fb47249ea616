package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// HistoryDB records evolution runs and their per-iteration samples in
// SQLite.
type HistoryDB struct {
	sql *sql.DB
}

// RunRecord is one row of the runs table. Finished is zero while the run is
// in progress.
type RunRecord struct {
	ID                 string
	Started            time.Time
	Finished           time.Time
	Preset             string
	Performance        string
	Mutation           string
	Seed               int64
	InitialPerformance float64
	FinalPerformance   float64
	BestPerformance    float64
	Iterations         int
}

func logger() *slog.Logger {
	return slog.Default().With(slog.String("component", "storage"))
}

// OpenHistoryDB opens or creates the database at path and migrates it.
func OpenHistoryDB(path string) (*HistoryDB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &HistoryDB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger().Debug("opened history db", slog.String("path", path))
	return d, nil
}

func (d *HistoryDB) Close() error {
	return d.sql.Close()
}

func (d *HistoryDB) migrate() error {
	version := 0
	// a fresh database has no schema_version table yet
	_ = d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS runs (
				id                  TEXT PRIMARY KEY,
				started             TEXT NOT NULL,
				finished            TEXT NOT NULL DEFAULT '',
				preset              TEXT NOT NULL DEFAULT '',
				performance         TEXT NOT NULL,
				mutation            TEXT NOT NULL,
				seed                INTEGER NOT NULL,
				initial_performance REAL NOT NULL DEFAULT 0,
				final_performance   REAL NOT NULL DEFAULT 0,
				best_performance    REAL NOT NULL DEFAULT 0,
				iterations          INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS samples (
				run_id      TEXT NOT NULL REFERENCES runs(id),
				iteration   INTEGER NOT NULL,
				performance REAL NOT NULL,
				PRIMARY KEY (run_id, iteration)
			);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger().Info("applied migration", slog.Int("version", 1))
	}

	if version < 2 {
		_, err := d.sql.Exec(`
			ALTER TABLE samples ADD COLUMN nodes INTEGER NOT NULL DEFAULT 0;
			ALTER TABLE samples ADD COLUMN arcs  INTEGER NOT NULL DEFAULT 0;
			CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);

			INSERT OR IGNORE INTO schema_version (version) VALUES (2);
		`)
		if err != nil {
			return fmt.Errorf("migration v2: %w", err)
		}
		logger().Info("applied migration", slog.Int("version", 2))
	}
	return nil
}

// CreateRun inserts rec with a fresh ID and start time and returns the ID.
func (d *HistoryDB) CreateRun(ctx context.Context, rec RunRecord) (string, error) {
	rec.ID = uuid.NewString()
	rec.Started = time.Now().UTC()
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO runs (id, started, preset, performance, mutation, seed, initial_performance)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Started.Format(time.RFC3339Nano), rec.Preset, rec.Performance, rec.Mutation, rec.Seed, rec.InitialPerformance)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return rec.ID, nil
}

// AppendSamples stores samples in one transaction. Re-sending an iteration
// overwrites it.
func (d *HistoryDB) AppendSamples(ctx context.Context, runID string, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO samples (run_id, iteration, performance, nodes, arcs) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.ExecContext(ctx, runID, s.Iteration, s.Performance, s.Nodes, s.Arcs); err != nil {
			return fmt.Errorf("append sample %d: %w", s.Iteration, err)
		}
	}
	return tx.Commit()
}

// FinishRun records the outcome of a run.
func (d *HistoryDB) FinishRun(ctx context.Context, runID string, final, best float64, iterations int) error {
	res, err := d.sql.ExecContext(ctx,
		`UPDATE runs SET finished = ?, final_performance = ?, best_performance = ?, iterations = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), final, best, iterations, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", runID)
	}
	return nil
}

// Runs lists all runs, newest first.
func (d *HistoryDB) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT id, started, finished, preset, performance, mutation, seed,
		        initial_performance, final_performance, best_performance, iterations
		 FROM runs ORDER BY started DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Preset, &r.Performance, &r.Mutation, &r.Seed,
			&r.InitialPerformance, &r.FinalPerformance, &r.BestPerformance, &r.Iterations); err != nil {
			return nil, err
		}
		r.Started, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Samples returns the history of a run in iteration order.
func (d *HistoryDB) Samples(ctx context.Context, runID string) ([]Sample, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT iteration, performance, nodes, arcs FROM samples WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.Iteration, &s.Performance, &s.Nodes, &s.Arcs); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
