package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidTarget indicates the target descriptor carries no identifying
// information at all. This is the only fatal precondition: an assessment
// aborts before any probe starts.
var ErrInvalidTarget = eris.New("model: target has no url or business name")

// Target describes the business whose web presence is being assessed.
type Target struct {
	URL     string `json:"url"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
}

// Validate checks the fatal precondition: at least one of URL or Name must
// identify the business.
func (t Target) Validate() error {
	if strings.TrimSpace(t.URL) == "" && strings.TrimSpace(t.Name) == "" {
		return ErrInvalidTarget
	}
	return nil
}

// Domain strips protocol and www prefix from the target URL.
func (t Target) Domain() string {
	d := strings.TrimSpace(t.URL)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return strings.ToLower(d)
}

// SearchQuery builds the free-text directory search query for the target.
func (t Target) SearchQuery() string {
	parts := []string{t.Name}
	if t.City != "" {
		parts = append(parts, t.City)
	}
	if t.State != "" {
		parts = append(parts, t.State)
	}
	return strings.Join(parts, " ")
}
