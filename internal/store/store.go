// Package store persists lookup runs and their phase history. The
// pipeline works the same against SQLite (default), Postgres, or no
// store at all; persistence failures degrade a run's record, never the
// run itself.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/persona-cli/internal/config"
	"github.com/sells-group/persona-cli/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Subject string          `json:"subject,omitempty"`
	Outcome model.Outcome   `json:"outcome,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for lookup runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, subject model.Subject) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, profile *model.Profile) error
	FailRun(ctx context.Context, runID string, cause string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Phases
	CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error)
	CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// New builds the store named by cfg.Driver: "sqlite", "postgres", or
// "none" for a no-op store.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "persona.db"
		}
		return NewSQLite(path)
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres driver requires store.database_url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "none", "":
		return NoopStore{}, nil
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

// NoopStore discards everything. Used when run history is not wanted,
// and as the fallback store in tests.
type NoopStore struct{}

func (NoopStore) CreateRun(_ context.Context, subject model.Subject) (*model.Run, error) {
	return &model.Run{Subject: subject, Status: model.RunStatusQueued}, nil
}

func (NoopStore) UpdateRunStatus(context.Context, string, model.RunStatus) error { return nil }

func (NoopStore) CompleteRun(context.Context, string, *model.Profile) error { return nil }

func (NoopStore) FailRun(context.Context, string, string) error { return nil }

func (NoopStore) GetRun(context.Context, string) (*model.Run, error) {
	return nil, eris.New("store: run history disabled")
}

func (NoopStore) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (NoopStore) CreatePhase(_ context.Context, runID, name string) (*model.RunPhase, error) {
	return &model.RunPhase{RunID: runID, Name: name, Status: model.PhaseStatusRunning}, nil
}

func (NoopStore) CompletePhase(context.Context, string, *model.PhaseResult) error { return nil }

func (NoopStore) Migrate(context.Context) error { return nil }

func (NoopStore) Close() error { return nil }
