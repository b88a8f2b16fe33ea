package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/persona-cli/internal/config"
	"github.com/sells-group/persona-cli/internal/model"
)

func newTestSQLite(t *testing.T) Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func storeTestSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateAndGetRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		subject := model.Subject{
			Name: "Rohan Arora",
			Anchors: model.Anchors{
				Domain: "tmjhelpline.com",
				City:   "New Delhi",
			},
		}

		run, err := s.CreateRun(ctx, subject)
		require.NoError(t, err)
		assert.NotEmpty(t, run.ID)
		assert.Equal(t, model.RunStatusQueued, run.Status)
		assert.Equal(t, subject.Name, run.Subject.Name)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, model.RunStatusQueued, got.Status)
		assert.Equal(t, "Rohan Arora", got.Subject.Name)
		assert.Equal(t, "tmjhelpline.com", got.Subject.Anchors.Domain)
	})

	t.Run("UpdateRunStatus", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.Subject{Name: "Test Person"})
		require.NoError(t, err)

		err = s.UpdateRunStatus(ctx, run.ID, model.RunStatusCollecting)
		require.NoError(t, err)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusCollecting, got.Status)
	})

	t.Run("UpdateRunStatusNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.UpdateRunStatus(ctx, "nonexistent-id", model.RunStatusCollecting)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("CompleteRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.Subject{Name: "Test Person"})
		require.NoError(t, err)

		profile := &model.Profile{
			ResolvedIdentity: model.ResolvedIdentity{
				Name:   "Test Person",
				Domain: "example.com",
			},
			RolePack: model.RolePackGeneric,
			AboutTable: map[string]model.AboutEntry{
				"profession": {
					Value:      "engineer",
					Confidence: model.ConfidenceHigh,
					Sources:    []string{"https://example.com/about"},
				},
			},
			Sources:   []string{"https://example.com/about"},
			FactCount: model.FactCount{TotalCandidates: 5, Confirmed: 1},
			Outcome:   model.OutcomeResolved,
		}

		err = s.CompleteRun(ctx, run.ID, profile)
		require.NoError(t, err)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusComplete, got.Status)
		assert.Equal(t, model.OutcomeResolved, got.Outcome)
		require.NotNil(t, got.Profile)
		assert.Equal(t, "example.com", got.Profile.ResolvedIdentity.Domain)
		assert.Equal(t, "engineer", got.Profile.AboutTable["profession"].Value)
		assert.Equal(t, 1, got.Profile.FactCount.Confirmed)
	})

	t.Run("CompleteRunNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.CompleteRun(ctx, "nonexistent", &model.Profile{Outcome: model.OutcomeResolved})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("FailRun", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.Subject{Name: "Test Person"})
		require.NoError(t, err)

		err = s.FailRun(ctx, run.ID, "search provider unavailable")
		require.NoError(t, err)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, model.RunStatusFailed, got.Status)
		assert.Equal(t, "search provider unavailable", got.Error)
		assert.Nil(t, got.Profile)
	})

	t.Run("ListRuns", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateRun(ctx, model.Subject{Name: "Alice Ahuja"})
		require.NoError(t, err)
		run2, err := s.CreateRun(ctx, model.Subject{Name: "Bob Bannerjee"})
		require.NoError(t, err)
		err = s.UpdateRunStatus(ctx, run2.ID, model.RunStatusCollecting)
		require.NoError(t, err)

		all, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 2)

		queued, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusQueued})
		require.NoError(t, err)
		assert.Len(t, queued, 1)
		assert.Equal(t, "Alice Ahuja", queued[0].Subject.Name)

		collecting, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusCollecting})
		require.NoError(t, err)
		assert.Len(t, collecting, 1)
		assert.Equal(t, "Bob Bannerjee", collecting[0].Subject.Name)

		limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("ListRuns_ByOutcome", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run1, err := s.CreateRun(ctx, model.Subject{Name: "Resolved Person"})
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, model.Subject{Name: "Pending Person"})
		require.NoError(t, err)

		err = s.CompleteRun(ctx, run1.ID, &model.Profile{Outcome: model.OutcomeNotFound})
		require.NoError(t, err)

		notFound, err := s.ListRuns(ctx, RunFilter{Outcome: model.OutcomeNotFound})
		require.NoError(t, err)
		assert.Len(t, notFound, 1)
		assert.Equal(t, "Resolved Person", notFound[0].Subject.Name)
	})

	t.Run("ListRuns_BySubject", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.CreateRun(ctx, model.Subject{Name: "Alice Ahuja"})
		require.NoError(t, err)
		_, err = s.CreateRun(ctx, model.Subject{Name: "Bob Bannerjee"})
		require.NoError(t, err)

		filtered, err := s.ListRuns(ctx, RunFilter{Subject: "Alice Ahuja"})
		require.NoError(t, err)
		assert.Len(t, filtered, 1)
		assert.Equal(t, "Alice Ahuja", filtered[0].Subject.Name)
	})

	t.Run("ListRuns_WithOffset", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"A", "B", "C"} {
			_, err := s.CreateRun(ctx, model.Subject{Name: name})
			require.NoError(t, err)
		}

		paged, err := s.ListRuns(ctx, RunFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Len(t, paged, 1)
	})

	t.Run("ListRuns_Empty", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		runs, err := s.ListRuns(ctx, RunFilter{})
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("GetRun_NotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.GetRun(ctx, "nonexistent")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("CreateAndCompletePhase", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		run, err := s.CreateRun(ctx, model.Subject{Name: "Test Person"})
		require.NoError(t, err)

		phase, err := s.CreatePhase(ctx, run.ID, "resolve")
		require.NoError(t, err)
		assert.NotEmpty(t, phase.ID)
		assert.Equal(t, run.ID, phase.RunID)
		assert.Equal(t, "resolve", phase.Name)
		assert.Equal(t, model.PhaseStatusRunning, phase.Status)

		result := &model.PhaseResult{
			Name:     "resolve",
			Status:   model.PhaseStatusComplete,
			Duration: 320,
			Metadata: map[string]any{"candidates": float64(3)},
		}

		err = s.CompletePhase(ctx, phase.ID, result)
		require.NoError(t, err)
	})

	t.Run("CompletePhaseNotFound", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		result := &model.PhaseResult{
			Name:   "resolve",
			Status: model.PhaseStatusComplete,
		}

		err := s.CompletePhase(ctx, "nonexistent-id", result)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})
}

func TestSQLiteStore(t *testing.T) {
	storeTestSuite(t, newTestSQLite)
}

func TestNew_Sqlite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persona.db")
	s, err := New(context.Background(), config.StoreConfig{Driver: "sqlite", Path: dbPath})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	assert.IsType(t, &SQLiteStore{}, s)
}

func TestNew_None(t *testing.T) {
	s, err := New(context.Background(), config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.IsType(t, NoopStore{}, s)

	// Default driver is also the no-op store.
	s, err = New(context.Background(), config.StoreConfig{})
	require.NoError(t, err)
	assert.IsType(t, NoopStore{}, s)
}

func TestNew_PostgresRequiresURL(t *testing.T) {
	_, err := New(context.Background(), config.StoreConfig{Driver: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database_url")
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}

func TestNoopStore(t *testing.T) {
	s := NoopStore{}
	ctx := context.Background()

	run, err := s.CreateRun(ctx, model.Subject{Name: "Anyone"})
	require.NoError(t, err)
	assert.Equal(t, "Anyone", run.Subject.Name)

	require.NoError(t, s.UpdateRunStatus(ctx, "x", model.RunStatusSearching))
	require.NoError(t, s.CompleteRun(ctx, "x", &model.Profile{}))
	require.NoError(t, s.FailRun(ctx, "x", "boom"))
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Close())

	_, err = s.GetRun(ctx, "x")
	require.Error(t, err)

	runs, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}
