// Package scorer combines per-probe sub-scores into the composite score.
package scorer

import (
	"math"

	"go.uber.org/zap"

	"github.com/sells-group/presence-cli/internal/model"
)

// normalizeFn maps a succeeded probe's payload to a 0-100 sub-score, or nil
// when the payload carries no scoreable signal.
type normalizeFn func(payload map[string]any) *float64

// Aggregator computes the composite score from succeeded probes only.
type Aggregator struct {
	rules map[string]normalizeFn
}

// NewAggregator creates an Aggregator with the fixed per-probe normalization
// rules.
func NewAggregator() *Aggregator {
	return &Aggregator{rules: map[string]normalizeFn{
		"performance": scoreField("metrics", "performance_score"),
		"security":    scoreField("posture", "security_score"),
		"listing":     scoreListing,
		"authority":   scoreField("", "domain_authority"),
		"screenshot":  scoreScreenshot,
		"visual":      scoreField("", "visual_score"),
		"content":     scoreField("", "content_score"),
	}}
}

// Aggregate computes the arithmetic mean of the available sub-scores. Probes
// that Failed or were Skipped contribute nothing; they never count as zero.
// An empty contributing set yields nil, which is distinguishable from a
// legitimately low composite.
func (a *Aggregator) Aggregate(run *model.AssessmentRun) *float64 {
	var sum float64
	var count int

	for name, result := range run.Results {
		if !result.Succeeded() {
			continue
		}
		rule, ok := a.rules[name]
		if !ok {
			continue
		}
		sub := rule(payloadMap(result.Payload))
		if sub == nil {
			continue
		}
		sum += clampScore(*sub)
		count++
	}

	if count == 0 {
		zap.L().Debug("scorer: no sub-scores available",
			zap.String("run_id", run.ID),
		)
		return nil
	}

	composite := math.Round(sum/float64(count)*100) / 100
	return &composite
}

// SubScore exposes the normalization rule for a single probe result, mainly
// for reporting. Returns nil for unknown probes or non-succeeded results.
func (a *Aggregator) SubScore(result model.ProbeResult) *float64 {
	if !result.Succeeded() {
		return nil
	}
	rule, ok := a.rules[result.Name]
	if !ok {
		return nil
	}
	return rule(payloadMap(result.Payload))
}

// scoreField returns a rule reading a numeric 0-100 score from the payload,
// optionally nested under a sub-record.
func scoreField(sub, field string) normalizeFn {
	return func(payload map[string]any) *float64 {
		if payload == nil {
			return nil
		}
		if sub == "" {
			return digPayloadFloat(payload, field)
		}
		nested, _ := payload[sub].(map[string]any)
		if nested == nil {
			return nil
		}
		return digPayloadFloat(nested, field)
	}
}

// scoreListing maps "found in directory" to 100, else 0.
func scoreListing(payload map[string]any) *float64 {
	if payload == nil {
		return nil
	}
	match, _ := payload["match"].(map[string]any)
	if match == nil {
		return nil
	}
	found, ok := match["found"].(bool)
	if !ok {
		return nil
	}
	score := 0.0
	if found {
		score = 100.0
	}
	return &score
}

// scoreScreenshot maps a successful capture to 100, else 0.
func scoreScreenshot(payload map[string]any) *float64 {
	if payload == nil {
		return nil
	}
	captured, ok := payload["captured"].(bool)
	if !ok {
		return nil
	}
	score := 0.0
	if captured {
		score = 100.0
	}
	return &score
}

func payloadMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func digPayloadFloat(m map[string]any, field string) *float64 {
	switch v := m[field].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	}
	return nil
}

func clampScore(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
