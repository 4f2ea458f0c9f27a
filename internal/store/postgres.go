package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/db"
	"github.com/sells-group/presence-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hottest store operations.
var preparedStatements = map[string]string{
	"save_run": `INSERT INTO runs (id, target, results, metrics, composite_score, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
		results = EXCLUDED.results, metrics = EXCLUDED.metrics,
		composite_score = EXCLUDED.composite_score, finished_at = EXCLUDED.finished_at`,
	"get_run": `SELECT id, target, results, metrics, composite_score, started_at, finished_at FROM runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Tests inject pgxmock here.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	target          JSONB NOT NULL,
	results         JSONB NOT NULL,
	metrics         JSONB,
	composite_score DOUBLE PRECISION,
	started_at      TIMESTAMPTZ NOT NULL,
	finished_at     TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_runs_target_url ON runs((target->>'url'));
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);

CREATE TABLE IF NOT EXISTS run_metrics (
	run_id TEXT NOT NULL REFERENCES runs(id),
	key    TEXT NOT NULL,
	value  DOUBLE PRECISION,
	PRIMARY KEY (run_id, key)
);

CREATE INDEX IF NOT EXISTS idx_run_metrics_key ON run_metrics(key);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.AssessmentRun) error {
	targetJSON, resultsJSON, metricsJSON, err := encodeRun(run)
	if err != nil {
		return err
	}

	var finishedAt *time.Time
	if !run.FinishedAt.IsZero() {
		finishedAt = &run.FinishedAt
	}

	_, err = s.pool.Exec(ctx,
		preparedStatements["save_run"],
		run.ID, targetJSON, resultsJSON, metricsJSON, run.CompositeScore, run.StartedAt, finishedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save run %s", run.ID)
	}

	if rows := metricRows(run); len(rows) > 0 {
		if _, err := db.CopyFrom(ctx, s.pool, "run_metrics", metricColumns, rows); err != nil {
			return eris.Wrapf(err, "postgres: save run metrics %s", run.ID)
		}
	}
	return nil
}

var runColumns = []string{"id", "target", "results", "metrics", "composite_score", "started_at", "finished_at"}
var metricColumns = []string{"run_id", "key", "value"}

func (s *PostgresStore) SaveRuns(ctx context.Context, runs []*model.AssessmentRun) error {
	rows := make([][]any, 0, len(runs))
	var metrics [][]any
	for _, run := range runs {
		targetJSON, resultsJSON, metricsJSON, err := encodeRun(run)
		if err != nil {
			return err
		}
		var finishedAt *time.Time
		if !run.FinishedAt.IsZero() {
			finishedAt = &run.FinishedAt
		}
		rows = append(rows, []any{run.ID, targetJSON, resultsJSON, metricsJSON, run.CompositeScore, run.StartedAt, finishedAt})
		metrics = append(metrics, metricRows(run)...)
	}

	if _, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "runs",
		Columns:      runColumns,
		ConflictKeys: []string{"id"},
	}, rows); err != nil {
		return eris.Wrap(err, "postgres: save runs")
	}

	if len(metrics) > 0 {
		if _, err := db.CopyFrom(ctx, s.pool, "run_metrics", metricColumns, metrics); err != nil {
			return eris.Wrap(err, "postgres: save run metrics")
		}
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.AssessmentRun, error) {
	row := s.pool.QueryRow(ctx, preparedStatements["get_run"], id)
	run, err := scanPgRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.AssessmentRun, error) {
	query := `SELECT id, target, results, metrics, composite_score, started_at, finished_at FROM runs WHERE true`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.TargetURL != "" {
		query += ` AND target->>'url' = ` + arg(filter.TargetURL)
	}
	if filter.ScoredOnly {
		query += ` AND composite_score IS NOT NULL`
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.AssessmentRun
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// metricRows flattens the numeric canonical metrics into run_metrics rows,
// sorted by key so batch writes stay deterministic.
func metricRows(run *model.AssessmentRun) [][]any {
	if run.CanonicalMetrics == nil {
		return nil
	}
	keys := make([]string, 0, len(run.CanonicalMetrics))
	for k := range run.CanonicalMetrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows [][]any
	for _, k := range keys {
		switch v := run.CanonicalMetrics[k].(type) {
		case float64:
			rows = append(rows, []any{run.ID, k, v})
		case bool:
			f := 0.0
			if v {
				f = 1.0
			}
			rows = append(rows, []any{run.ID, k, f})
		case nil:
			rows = append(rows, []any{run.ID, k, nil})
		}
	}
	return rows
}

func scanPgRun(row pgx.Row) (*model.AssessmentRun, error) {
	var r model.AssessmentRun
	var targetJSON, resultsJSON []byte
	var metricsJSON []byte
	var score *float64
	var finishedAt *time.Time

	err := row.Scan(&r.ID, &targetJSON, &resultsJSON, &metricsJSON, &score, &r.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(targetJSON, &r.Target); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal target")
	}
	if err := json.Unmarshal(resultsJSON, &r.Results); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal results")
	}
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &r.CanonicalMetrics); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal metrics")
		}
	}
	r.CompositeScore = score
	if finishedAt != nil {
		r.FinishedAt = *finishedAt
	}
	return &r, nil
}

