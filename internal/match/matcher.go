// Package match resolves a free-text business query against directory search
// candidates using fuzzy name similarity plus confidence scoring. It performs
// no I/O.
package match

import (
	"strings"

	"github.com/agext/levenshtein"

	"github.com/sells-group/presence-cli/internal/model"
)

// Matcher scores directory candidates against a business query.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a Matcher with the given constants.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// Match finds the best candidate for the query. The highest-confidence
// candidate wins; ties go to the earlier candidate. Found is true only when
// confidence clears the minimum gate, but the best candidate and its
// confidence are returned either way for diagnostics.
func (m *Matcher) Match(queryName, queryAddress string, candidates []model.MatchCandidate) model.MatchResult {
	if len(candidates) == 0 {
		return model.MatchResult{}
	}
	if normalizeName(queryName) == "" {
		// No query name means no candidate can score above zero.
		return model.MatchResult{Candidate: &candidates[0]}
	}

	var best *model.MatchCandidate
	bestConfidence := -1.0

	for i := range candidates {
		c := &candidates[i]
		confidence := m.score(queryName, queryAddress, c)
		if confidence > bestConfidence {
			best = c
			bestConfidence = confidence
		}
	}

	if bestConfidence < 0 {
		bestConfidence = 0
	}

	return model.MatchResult{
		Candidate:  best,
		Confidence: bestConfidence,
		Found:      best != nil && bestConfidence >= m.cfg.MinConfidence,
	}
}

// score computes the confidence for a single candidate.
func (m *Matcher) score(queryName, queryAddress string, c *model.MatchCandidate) float64 {
	confidence := m.nameScore(queryName, c.DisplayName)

	if !m.locationValid(queryAddress, c.Address) {
		confidence *= m.cfg.LocationPenalty
	}

	if c.ReviewCount > 0 {
		confidence += m.cfg.ReviewBonus
	}
	if c.Rating > m.cfg.RatingCutoff {
		confidence += m.cfg.RatingBonus
	}

	return clamp01(confidence)
}

// nameScore computes name similarity in [0,1]. Exact normalized equality is
// 1.0; substring containment in either direction floors the score; otherwise
// edit-distance similarity on the normalized names decides.
func (m *Matcher) nameScore(query, candidate string) float64 {
	q := normalizeName(query)
	c := normalizeName(candidate)

	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 1.0
	}

	sim := levenshtein.Similarity(q, c, levenshtein.NewParams())
	if strings.Contains(q, c) || strings.Contains(c, q) {
		if sim < m.cfg.SubstringFloor {
			sim = m.cfg.SubstringFloor
		}
	}
	return sim
}

// locationValid reports whether the candidate address plausibly matches the
// query address. No query address means no constraint.
func (m *Matcher) locationValid(queryAddress, candidateAddress string) bool {
	if strings.TrimSpace(queryAddress) == "" {
		return true
	}
	if strings.TrimSpace(candidateAddress) == "" {
		return false
	}

	querySig, queryAll := addressTokens(queryAddress)
	candSig, candAll := addressTokens(candidateAddress)

	candSigSet := make(map[string]bool, len(candSig))
	for _, t := range candSig {
		candSigSet[t] = true
	}
	for _, t := range querySig {
		if candSigSet[t] {
			return true
		}
	}

	// Fall back to overall token overlap.
	candSet := make(map[string]bool, len(candAll))
	for _, t := range candAll {
		candSet[t] = true
	}
	overlap := 0
	for _, t := range queryAll {
		if candSet[t] {
			overlap++
		}
	}
	if len(queryAll) == 0 {
		return true
	}
	return float64(overlap)/float64(len(queryAll)) > m.cfg.TokenOverlapRatio
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
