package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/presence-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	st, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func testRun(url string) *model.AssessmentRun {
	run := model.NewAssessmentRun(
		model.Target{URL: url, Name: "Acme Plumbing"},
		[]string{"performance", "security"},
	)
	run.Results["performance"] = model.ProbeResult{
		Name: "performance", Status: model.ProbeStatusSucceeded,
		Payload: map[string]any{"metrics": map[string]any{"performance_score": 80.0}},
	}
	run.Results["security"] = model.ProbeResult{
		Name: "security", Status: model.ProbeStatusFailed, Error: "connection refused",
	}
	run.FinishedAt = run.StartedAt.Add(3 * time.Second)
	return run
}

func TestSQLiteSaveAndGetRun(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := testRun("https://acme.example.com")
	score := 80.0
	run.CompositeScore = &score
	run.CanonicalMetrics = map[string]any{
		"performance_score": 80.0,
		"security_score":    nil,
		"https_enabled":     true,
	}

	require.NoError(t, st.SaveRun(ctx, run))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "https://acme.example.com", got.Target.URL)
	assert.Equal(t, model.ProbeStatusSucceeded, got.Results["performance"].Status)
	assert.Equal(t, "connection refused", got.Results["security"].Error)
	require.NotNil(t, got.CompositeScore)
	assert.Equal(t, 80.0, *got.CompositeScore)
	assert.Equal(t, 80.0, got.CanonicalMetrics["performance_score"])
	assert.Nil(t, got.CanonicalMetrics["security_score"])
	assert.Equal(t, true, got.CanonicalMetrics["https_enabled"])
	assert.False(t, got.FinishedAt.IsZero())
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetRun(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteSaveRunUpsert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run := testRun("https://acme.example.com")
	require.NoError(t, st.SaveRun(ctx, run))

	// An unscored run persists a NULL score.
	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CompositeScore)

	score := 72.5
	run.CompositeScore = &score
	require.NoError(t, st.SaveRun(ctx, run))

	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CompositeScore)
	assert.Equal(t, 72.5, *got.CompositeScore)

	runs, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestSQLiteListRunsFilters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := testRun("https://a.example.com")
	b := testRun("https://b.example.com")
	score := 50.0
	b.CompositeScore = &score
	require.NoError(t, st.SaveRuns(ctx, []*model.AssessmentRun{a, b}))

	byURL, err := st.ListRuns(ctx, RunFilter{TargetURL: "https://a.example.com"})
	require.NoError(t, err)
	require.Len(t, byURL, 1)
	assert.Equal(t, a.ID, byURL[0].ID)

	scored, err := st.ListRuns(ctx, RunFilter{ScoredOnly: true})
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, b.ID, scored[0].ID)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn")
	assert.Error(t, err)
}
