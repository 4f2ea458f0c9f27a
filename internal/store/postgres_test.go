package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, target, results, metrics, composite_score, started_at, finished_at FROM runs WHERE id = \$1`).
		WithArgs("nonexistent-run").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "nonexistent-run")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run := testRun("https://acme.example.com")

	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(run.ID, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRun_WritesMetricRows(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run := testRun("https://acme.example.com")
	run.CanonicalMetrics = map[string]any{
		"performance_score": 80.0,
		"https_enabled":     true,
	}

	mock.ExpectExec(`ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(run.ID, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCopyFrom(pgx.Identifier{"run_metrics"}, metricColumns).WillReturnResult(2)

	require.NoError(t, s.SaveRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricRows_FlattensAndSorts(t *testing.T) {
	run := testRun("https://acme.example.com")
	run.CanonicalMetrics = map[string]any{
		"security_score":    nil,
		"performance_score": 80.0,
		"https_enabled":     true,
		"listing_name":      "Acme Plumbing", // strings are not flattened
	}

	rows := metricRows(run)
	require.Len(t, rows, 3)
	assert.Equal(t, []any{run.ID, "https_enabled", 1.0}, rows[0])
	assert.Equal(t, []any{run.ID, "performance_score", 80.0}, rows[1])
	assert.Equal(t, []any{run.ID, "security_score", nil}, rows[2])
}

func TestPostgresStore_ListRuns_ScoredOnly(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	run := testRun("https://acme.example.com")
	targetJSON, resultsJSON, _, err := encodeRun(run)
	require.NoError(t, err)
	score := 70.0

	rows := pgxmock.NewRows([]string{"id", "target", "results", "metrics", "composite_score", "started_at", "finished_at"}).
		AddRow(run.ID, []byte(targetJSON), []byte(resultsJSON), []byte(nil), &score, run.StartedAt, &run.FinishedAt)

	mock.ExpectQuery(`composite_score IS NOT NULL`).
		WithArgs(100).
		WillReturnRows(rows)

	runs, err := s.ListRuns(context.Background(), RunFilter{ScoredOnly: true})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	require.NotNil(t, runs[0].CompositeScore)
	assert.Equal(t, 70.0, *runs[0].CompositeScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
