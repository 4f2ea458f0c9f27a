package match

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config holds the matcher's tunable constants. The defaults reflect the
// values the assessment has shipped with; they are heuristics, not
// invariants, so operators can adjust them per deployment.
type Config struct {
	// MinConfidence gates Found: below this, a best candidate is still
	// reported but the match counts as not found.
	MinConfidence float64 `yaml:"min_confidence"`

	// SubstringFloor is the minimum name score when one normalized name
	// contains the other.
	SubstringFloor float64 `yaml:"substring_floor"`

	// LocationPenalty multiplies confidence when the candidate address does
	// not plausibly match the query address.
	LocationPenalty float64 `yaml:"location_penalty"`

	// ReviewBonus is added when the candidate has at least one review.
	ReviewBonus float64 `yaml:"review_bonus"`

	// RatingBonus is added when the candidate rating exceeds RatingCutoff.
	RatingBonus  float64 `yaml:"rating_bonus"`
	RatingCutoff float64 `yaml:"rating_cutoff"`

	// TokenOverlapRatio is the address token-overlap ratio above which a
	// location is considered valid even without a shared significant token.
	TokenOverlapRatio float64 `yaml:"token_overlap_ratio"`
}

// DefaultConfig returns the shipped matcher constants.
func DefaultConfig() Config {
	return Config{
		MinConfidence:     0.5,
		SubstringFloor:    0.8,
		LocationPenalty:   0.5,
		ReviewBonus:       0.1,
		RatingBonus:       0.05,
		RatingCutoff:      4.0,
		TokenOverlapRatio: 0.2,
	}
}

// LoadConfig reads matcher constants from a YAML file. Zero-valued fields
// fall back to the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "match: read config %s", path)
	}

	var wrapper struct {
		Matcher Config `yaml:"matcher"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return cfg, eris.Wrap(err, "match: parse config")
	}

	loaded := wrapper.Matcher
	if loaded.MinConfidence > 0 {
		cfg.MinConfidence = loaded.MinConfidence
	}
	if loaded.SubstringFloor > 0 {
		cfg.SubstringFloor = loaded.SubstringFloor
	}
	if loaded.LocationPenalty > 0 {
		cfg.LocationPenalty = loaded.LocationPenalty
	}
	if loaded.ReviewBonus > 0 {
		cfg.ReviewBonus = loaded.ReviewBonus
	}
	if loaded.RatingBonus > 0 {
		cfg.RatingBonus = loaded.RatingBonus
	}
	if loaded.RatingCutoff > 0 {
		cfg.RatingCutoff = loaded.RatingCutoff
	}
	if loaded.TokenOverlapRatio > 0 {
		cfg.TokenOverlapRatio = loaded.TokenOverlapRatio
	}

	return cfg, nil
}
