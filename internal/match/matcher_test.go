package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/presence-cli/internal/model"
)

func TestMatch_ExactNameAndAddress(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Match("Acme Inc", "123 Main St, Springfield", []model.MatchCandidate{
		{DisplayName: "Acme Inc.", Address: "123 Main St, Springfield"},
	})

	require.NotNil(t, result.Candidate)
	assert.True(t, result.Found)
	assert.GreaterOrEqual(t, result.Confidence, 0.95)
}

func TestMatch_UnrelatedName_BelowThreshold(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Match("Totally Different Co", "", []model.MatchCandidate{
		{DisplayName: "Acme Inc.", Address: "123 Main St, Springfield"},
	})

	assert.False(t, result.Found)
	assert.Less(t, result.Confidence, 0.5)
	// Best candidate is still reported for diagnostics.
	assert.NotNil(t, result.Candidate)
}

func TestMatch_SubstringContainmentFloor(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Match("Acme Plumbing and Heating", "", []model.MatchCandidate{
		{DisplayName: "Acme Plumbing"},
	})

	assert.True(t, result.Found)
	assert.GreaterOrEqual(t, result.Confidence, 0.8)
}

func TestMatch_LocationMismatchHalvesConfidence(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	withLocation := m.Match("Acme Inc", "123 Main St, Springfield", []model.MatchCandidate{
		{DisplayName: "Acme Inc", Address: "999 Oak Grove Rd, Shelbyville"},
	})
	withoutLocation := m.Match("Acme Inc", "", []model.MatchCandidate{
		{DisplayName: "Acme Inc", Address: "999 Oak Grove Rd, Shelbyville"},
	})

	assert.InDelta(t, withoutLocation.Confidence*0.5, withLocation.Confidence, 0.001)
}

func TestMatch_ReviewAndRatingBonuses(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	plain := m.Match("Acme Partial", "", []model.MatchCandidate{
		{DisplayName: "Acme Partial Co Extra Words Here"},
	})
	boosted := m.Match("Acme Partial", "", []model.MatchCandidate{
		{DisplayName: "Acme Partial Co Extra Words Here", Rating: 4.7, ReviewCount: 12},
	})

	assert.InDelta(t, plain.Confidence+0.15, boosted.Confidence, 0.001)
}

func TestMatch_ConfidenceClamped(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Match("Acme Inc", "", []model.MatchCandidate{
		{DisplayName: "Acme", Rating: 4.9, ReviewCount: 500},
	})

	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.True(t, result.Found)
}

func TestMatch_HighestConfidenceWins_TiesByOrder(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Match("Acme Inc", "", []model.MatchCandidate{
		{DisplayName: "First Acme Inc Duplicate"},
		{DisplayName: "Acme Inc"},
		{DisplayName: "Acme Inc"}, // identical score to previous; first wins
	})

	require.NotNil(t, result.Candidate)
	assert.Equal(t, "Acme Inc", result.Candidate.DisplayName)

	tie := m.Match("Acme Inc", "", []model.MatchCandidate{
		{DisplayName: "Acme Inc", ReviewCount: 3},
		{DisplayName: "Acme Inc", ReviewCount: 9},
	})
	assert.Equal(t, 3, tie.Candidate.ReviewCount)
}

func TestMatch_EmptyCandidates(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Match("Acme Inc", "", nil)

	assert.False(t, result.Found)
	assert.Zero(t, result.Confidence)
	assert.Nil(t, result.Candidate)
}

func TestMatch_EmptyQueryName(t *testing.T) {
	m := NewMatcher(DefaultConfig())

	result := m.Match("", "", []model.MatchCandidate{
		{DisplayName: "Acme Inc", Rating: 4.8, ReviewCount: 40},
	})

	assert.False(t, result.Found)
	assert.Zero(t, result.Confidence)
	assert.NotNil(t, result.Candidate)
}

func TestNormalizeName_StripsSuffixesAndPunctuation(t *testing.T) {
	assert.Equal(t, "acme", normalizeName("Acme, Inc."))
	assert.Equal(t, "acme", normalizeName("ACME LLC"))
	assert.Equal(t, "acme widgets", normalizeName("  Acme   Widgets  Co  "))
	assert.Equal(t, "", normalizeName("  "))
}

func TestLoadConfig_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig("does-not-exist.yaml")

	assert.Error(t, err)
	assert.InDelta(t, 0.5, cfg.MinConfidence, 0.001)
}
