package model

// MatchCandidate is a directory search hit, read-only input to the matcher.
type MatchCandidate struct {
	DisplayName string         `json:"display_name"`
	Address     string         `json:"address,omitempty"`
	Rating      float64        `json:"rating"`
	ReviewCount int            `json:"review_count"`
	RawRecord   map[string]any `json:"raw_record,omitempty"`
}

// MatchResult is the matcher's verdict for one query. Candidate and
// Confidence are populated even when Found is false so callers can inspect
// near-misses.
type MatchResult struct {
	Candidate  *MatchCandidate `json:"candidate,omitempty"`
	Confidence float64         `json:"confidence"`
	Found      bool            `json:"found"`
}
