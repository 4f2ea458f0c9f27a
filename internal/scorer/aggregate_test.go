package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/presence-cli/internal/model"
)

func testRun(results map[string]model.ProbeResult) *model.AssessmentRun {
	run := model.NewAssessmentRun(model.Target{URL: "https://example.com", Name: "Acme"}, nil)
	run.Results = results
	return run
}

func perfResult(score float64) model.ProbeResult {
	return model.ProbeResult{
		Name:   "performance",
		Status: model.ProbeStatusSucceeded,
		Payload: map[string]any{
			"metrics": map[string]any{"performance_score": score},
		},
	}
}

func TestAggregate_FailedProbesDoNotCountAsZero(t *testing.T) {
	run := testRun(map[string]model.ProbeResult{
		"performance": perfResult(80),
		"security": {Name: "security", Status: model.ProbeStatusFailed, Error: "timeout"},
		"content": {
			Name:    "content",
			Status:  model.ProbeStatusSucceeded,
			Payload: map[string]any{"content_score": 60.0},
		},
	})

	composite := NewAggregator().Aggregate(run)

	require.NotNil(t, composite)
	assert.InDelta(t, 70.0, *composite, 0.001)
}

func TestAggregate_EndToEndScenario(t *testing.T) {
	run := testRun(map[string]model.ProbeResult{
		"performance": perfResult(90),
		"security": {
			Name:   "security",
			Status: model.ProbeStatusSucceeded,
			Payload: map[string]any{
				"posture": map[string]any{"security_score": 100.0},
			},
		},
		"listing": {
			Name:   "listing",
			Status: model.ProbeStatusSucceeded,
			Payload: map[string]any{
				"match": map[string]any{"found": true, "confidence": 0.9},
			},
		},
	})

	composite := NewAggregator().Aggregate(run)

	require.NotNil(t, composite)
	assert.InDelta(t, 96.67, *composite, 0.01)
}

func TestAggregate_NoSucceededProbes(t *testing.T) {
	run := testRun(map[string]model.ProbeResult{
		"performance": {Name: "performance", Status: model.ProbeStatusFailed},
		"security":    {Name: "security", Status: model.ProbeStatusSkipped},
	})

	assert.Nil(t, NewAggregator().Aggregate(run))
}

func TestAggregate_ListingNotFoundScoresZero(t *testing.T) {
	run := testRun(map[string]model.ProbeResult{
		"listing": {
			Name:   "listing",
			Status: model.ProbeStatusSucceeded,
			Payload: map[string]any{
				"match": map[string]any{"found": false, "confidence": 0.3},
			},
		},
	})

	composite := NewAggregator().Aggregate(run)

	require.NotNil(t, composite)
	assert.Zero(t, *composite)
}

func TestAggregate_SucceededWithoutSignalContributesNothing(t *testing.T) {
	run := testRun(map[string]model.ProbeResult{
		"performance": perfResult(80),
		"authority": {
			Name:    "authority",
			Status:  model.ProbeStatusSucceeded,
			Payload: map[string]any{"page_rank": 4.0}, // no domain_authority field
		},
	})

	composite := NewAggregator().Aggregate(run)

	require.NotNil(t, composite)
	assert.InDelta(t, 80.0, *composite, 0.001)
}

func TestAggregate_ScoresClampedTo100(t *testing.T) {
	run := testRun(map[string]model.ProbeResult{
		"performance": perfResult(150),
	})

	composite := NewAggregator().Aggregate(run)

	require.NotNil(t, composite)
	assert.InDelta(t, 100.0, *composite, 0.001)
}

func TestSubScore_ScreenshotCaptured(t *testing.T) {
	agg := NewAggregator()

	captured := agg.SubScore(model.ProbeResult{
		Name:    "screenshot",
		Status:  model.ProbeStatusSucceeded,
		Payload: map[string]any{"captured": true, "size_bytes": 48211.0},
	})
	require.NotNil(t, captured)
	assert.Equal(t, 100.0, *captured)

	skipped := agg.SubScore(model.ProbeResult{
		Name:   "screenshot",
		Status: model.ProbeStatusSkipped,
	})
	assert.Nil(t, skipped)
}
