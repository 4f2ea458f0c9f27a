package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/presence-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	target          TEXT NOT NULL,
	results         TEXT NOT NULL,
	metrics         TEXT,
	composite_score REAL,
	started_at      DATETIME NOT NULL,
	finished_at     DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_target_url ON runs(json_extract(target, '$.url'));
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.AssessmentRun) error {
	targetJSON, resultsJSON, metricsJSON, err := encodeRun(run)
	if err != nil {
		return err
	}

	var finishedAt *time.Time
	if !run.FinishedAt.IsZero() {
		finishedAt = &run.FinishedAt
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, target, results, metrics, composite_score, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		 results = excluded.results, metrics = excluded.metrics,
		 composite_score = excluded.composite_score, finished_at = excluded.finished_at`,
		run.ID, targetJSON, resultsJSON, metricsJSON, run.CompositeScore, run.StartedAt, finishedAt,
	)
	return eris.Wrapf(err, "sqlite: save run %s", run.ID)
}

func (s *SQLiteStore) SaveRuns(ctx context.Context, runs []*model.AssessmentRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	for _, run := range runs {
		targetJSON, resultsJSON, metricsJSON, err := encodeRun(run)
		if err != nil {
			return err
		}
		var finishedAt *time.Time
		if !run.FinishedAt.IsZero() {
			finishedAt = &run.FinishedAt
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO runs (id, target, results, metrics, composite_score, started_at, finished_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			 results = excluded.results, metrics = excluded.metrics,
			 composite_score = excluded.composite_score, finished_at = excluded.finished_at`,
			run.ID, targetJSON, resultsJSON, metricsJSON, run.CompositeScore, run.StartedAt, finishedAt,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: save run %s", run.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.AssessmentRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, target, results, metrics, composite_score, started_at, finished_at FROM runs WHERE id = ?`,
		id,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AssessmentRun, error) {
	query := `SELECT id, target, results, metrics, composite_score, started_at, finished_at FROM runs WHERE 1=1`
	var args []any

	if filter.TargetURL != "" {
		query += ` AND json_extract(target, '$.url') = ?`
		args = append(args, filter.TargetURL)
	}
	if filter.ScoredOnly {
		query += ` AND composite_score IS NOT NULL`
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.AssessmentRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func encodeRun(run *model.AssessmentRun) (target, results string, metrics *string, err error) {
	targetJSON, err := json.Marshal(run.Target)
	if err != nil {
		return "", "", nil, eris.Wrap(err, "store: marshal target")
	}
	resultsJSON, err := json.Marshal(run.Results)
	if err != nil {
		return "", "", nil, eris.Wrap(err, "store: marshal results")
	}
	if run.CanonicalMetrics != nil {
		metricsJSON, err := json.Marshal(run.CanonicalMetrics)
		if err != nil {
			return "", "", nil, eris.Wrap(err, "store: marshal metrics")
		}
		m := string(metricsJSON)
		metrics = &m
	}
	return string(targetJSON), string(resultsJSON), metrics, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.AssessmentRun, error) {
	var r model.AssessmentRun
	var targetJSON, resultsJSON string
	var metricsJSON sql.NullString
	var score sql.NullFloat64
	var finishedAt sql.NullTime

	err := row.Scan(&r.ID, &targetJSON, &resultsJSON, &metricsJSON, &score, &r.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "store: scan run")
	}

	if err := json.Unmarshal([]byte(targetJSON), &r.Target); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal target")
	}
	if err := json.Unmarshal([]byte(resultsJSON), &r.Results); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal results")
	}
	if metricsJSON.Valid {
		if err := json.Unmarshal([]byte(metricsJSON.String), &r.CanonicalMetrics); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal metrics")
		}
	}
	if score.Valid {
		r.CompositeScore = &score.Float64
	}
	if finishedAt.Valid {
		r.FinishedAt = finishedAt.Time
	}
	return &r, nil
}
