package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetValidate(t *testing.T) {
	assert.NoError(t, Target{URL: "https://acme.example.com"}.Validate())
	assert.NoError(t, Target{Name: "Acme Plumbing"}.Validate())
	assert.ErrorIs(t, Target{}.Validate(), ErrInvalidTarget)
	assert.ErrorIs(t, Target{URL: "  ", Name: "\t"}.Validate(), ErrInvalidTarget)
}

func TestTargetDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.acme.example.com/path?x=1", "acme.example.com"},
		{"http://Acme.Example.COM", "acme.example.com"},
		{"acme.example.com/about", "acme.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Target{URL: tt.url}.Domain(), tt.url)
	}
}

func TestTargetSearchQuery(t *testing.T) {
	target := Target{Name: "Acme Plumbing", City: "Austin", State: "TX"}
	assert.Equal(t, "Acme Plumbing Austin TX", target.SearchQuery())

	assert.Equal(t, "Acme Plumbing", Target{Name: "Acme Plumbing"}.SearchQuery())
}

func TestProbeStatusTerminal(t *testing.T) {
	assert.False(t, ProbeStatusPending.Terminal())
	assert.False(t, ProbeStatusRunning.Terminal())
	assert.True(t, ProbeStatusSucceeded.Terminal())
	assert.True(t, ProbeStatusFailed.Terminal())
	assert.True(t, ProbeStatusSkipped.Terminal())
}

func TestProbeResultSucceeded(t *testing.T) {
	assert.True(t, ProbeResult{Status: ProbeStatusSucceeded, Payload: map[string]any{}}.Succeeded())
	assert.False(t, ProbeResult{Status: ProbeStatusSucceeded}.Succeeded())
	assert.False(t, ProbeResult{Status: ProbeStatusFailed, Payload: map[string]any{}}.Succeeded())
}

func TestNewAssessmentRunSeedsPending(t *testing.T) {
	run := NewAssessmentRun(Target{URL: "https://acme.example.com"}, []string{"performance", "security"})

	require.NotEmpty(t, run.ID)
	assert.False(t, run.StartedAt.IsZero())
	require.Len(t, run.Results, 2)
	for name, res := range run.Results {
		assert.Equal(t, name, res.Name)
		assert.Equal(t, ProbeStatusPending, res.Status)
	}
	assert.Nil(t, run.CompositeScore)
}

func TestCloneResultsIsIndependent(t *testing.T) {
	run := NewAssessmentRun(Target{URL: "https://acme.example.com"}, []string{"performance"})

	clone := run.CloneResults()
	clone["performance"] = ProbeResult{Name: "performance", Status: ProbeStatusFailed}

	assert.Equal(t, ProbeStatusPending, run.Results["performance"].Status)
}
