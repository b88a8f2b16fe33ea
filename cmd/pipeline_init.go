package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/classify"
	"github.com/sells-group/persona-cli/internal/fetch"
	"github.com/sells-group/persona-cli/internal/pipeline"
	"github.com/sells-group/persona-cli/internal/store"
	"github.com/sells-group/persona-cli/pkg/websearch"
)

// pipelineEnv holds the initialized store, collaborators, and pipeline
// shared by the run/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Search   websearch.Client
	Fetcher  fetch.Fetcher
	Rules    classify.Rules
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore builds the run-history store named by the config driver:
// sqlite (default), postgres, or none.
func initStore(ctx context.Context) (store.Store, error) {
	return store.New(ctx, cfg.Store)
}

// initPipeline validates config for the given command mode, sets up the
// store and collaborators, and builds the Pipeline. Callers should defer
// env.Close().
func initPipeline(ctx context.Context, mode string) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	rules, err := classify.LoadRules(cfg.Trust.RulesPath)
	if err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "load trust rules")
	}

	if cfg.Search.Key == "" {
		zap.L().Warn("PERSONA_SEARCH_KEY not set, search requests will be unauthenticated")
	}
	searchClient := websearch.NewClient(cfg.Search.Key, websearch.WithBaseURL(cfg.Search.BaseURL))
	fetcher := fetch.NewHTTPFetcher(cfg.Fetch)

	p := pipeline.New(cfg, st, searchClient, fetcher, rules)

	return &pipelineEnv{
		Store:    st,
		Search:   searchClient,
		Fetcher:  fetcher,
		Rules:    rules,
		Pipeline: p,
	}, nil
}
