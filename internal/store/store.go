// Package store persists assessment runs. SQLite backs single-machine use;
// Postgres backs shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/presence-cli/internal/model"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	TargetURL  string `json:"target_url,omitempty"`
	ScoredOnly bool   `json:"scored_only,omitempty"`
	Limit      int    `json:"limit,omitempty"`
	Offset     int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for assessment runs.
type Store interface {
	SaveRun(ctx context.Context, run *model.AssessmentRun) error
	SaveRuns(ctx context.Context, runs []*model.AssessmentRun) error
	GetRun(ctx context.Context, id string) (*model.AssessmentRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.AssessmentRun, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
