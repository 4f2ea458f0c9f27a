// Package decompose normalizes heterogeneous probe payloads into one
// canonical flat metric map. Each metric group tries a precedence-ordered
// extractor list: the structured (current) shape first, then the legacy
// shapes the probe emitted historically, else null.
package decompose

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/presence-cli/internal/model"
)

// Source names which extractor supplied a metric group.
const (
	SourceStructured = "structured"
	SourceLegacy     = "legacy"
	SourceNone       = "none"
)

// Decomposer produces canonical metrics from a completed assessment run.
// It holds no state; decomposition is deterministic and idempotent.
type Decomposer struct{}

// NewDecomposer creates a Decomposer.
func NewDecomposer() *Decomposer {
	return &Decomposer{}
}

// Decompose flattens the run's probe payloads into the canonical metric map.
// Every canonical key is present in the output; keys with no data are nil.
// The map additionally carries per-group extractor bookkeeping and the list
// of probes that did not succeed.
func (d *Decomposer) Decompose(run *model.AssessmentRun) map[string]any {
	metrics := make(map[string]any)
	sources := make(map[string]string, len(groups))

	for _, g := range groups {
		// Pre-seed every key so absence is explicit.
		for _, key := range g.keys {
			metrics[key] = nil
		}

		payload := probePayload(run, g.probe)
		extracted, source := extractGroup(g, payload)
		sources[g.name] = source

		for k, v := range extracted {
			metrics[k] = v
		}

		if source == SourceLegacy {
			zap.L().Debug("decompose: legacy payload shape",
				zap.String("group", g.name),
				zap.String("probe", g.probe),
			)
		}
	}

	metrics[model.MetricDecomposerSources] = sources
	metrics[model.MetricErrorComponents] = errorComponents(run)

	return metrics
}

// extractGroup applies the group's extractor precedence to the payload.
func extractGroup(g metricGroup, payload map[string]any) (map[string]any, string) {
	if payload == nil {
		return nil, SourceNone
	}
	if out := g.structured(payload); len(out) > 0 {
		return out, SourceStructured
	}
	if out := g.legacy(payload); len(out) > 0 {
		return out, SourceLegacy
	}
	return nil, SourceNone
}

// probePayload returns the payload map of a succeeded probe, or nil.
func probePayload(run *model.AssessmentRun, probe string) map[string]any {
	result, ok := run.Results[probe]
	if !ok || !result.Succeeded() {
		return nil
	}
	return asMap(result.Payload)
}

// errorComponents lists probes whose result was Failed or Skipped, sorted so
// repeated decomposition yields identical output.
func errorComponents(run *model.AssessmentRun) []string {
	var names []string
	for name, result := range run.Results {
		if result.Status == model.ProbeStatusFailed || result.Status == model.ProbeStatusSkipped {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
