// Package pipeline orchestrates a lookup run: search, candidate
// resolution, source collection, and aggregation into a profile.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/aggregate"
	"github.com/sells-group/persona-cli/internal/assemble"
	"github.com/sells-group/persona-cli/internal/classify"
	"github.com/sells-group/persona-cli/internal/config"
	"github.com/sells-group/persona-cli/internal/fetch"
	"github.com/sells-group/persona-cli/internal/model"
	"github.com/sells-group/persona-cli/internal/resolve"
	"github.com/sells-group/persona-cli/internal/rolepack"
	"github.com/sells-group/persona-cli/internal/score"
	"github.com/sells-group/persona-cli/internal/store"
	"github.com/sells-group/persona-cli/pkg/websearch"
)

// Request is one lookup: a subject name plus optional anchors. A
// non-empty Allowlist restricts extraction to the listed domains for
// this run only (strict mode).
type Request struct {
	Name      string
	Anchors   model.Anchors
	Allowlist []string
}

// Pipeline orchestrates the lookup phases for a single subject.
type Pipeline struct {
	cfg     *config.Config
	store   store.Store
	search  websearch.Client
	fetcher fetch.Fetcher
	rules   classify.Rules
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, search websearch.Client, fetcher fetch.Fetcher, rules classify.Rules) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		store:   st,
		search:  search,
		fetcher: fetcher,
		rules:   rules,
	}
}

// Run executes the full lookup for one subject. Ambiguous and not-found
// results are normal outcomes carried in the profile; the error return
// is reserved for malformed input and collaborator hard failures.
func (p *Pipeline) Run(ctx context.Context, req Request) (*model.Profile, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, eris.New("pipeline: subject name is required")
	}

	log := zap.L().With(zap.String("subject", req.Name))
	log.Info("pipeline: starting lookup",
		zap.String("domain", req.Anchors.Domain),
		zap.String("organization", req.Anchors.Organization),
	)

	run, err := p.store.CreateRun(ctx, model.Subject{Name: req.Name, Anchors: req.Anchors})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	// Update status helper.
	setStatus := func(status model.RunStatus) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, status); statusErr != nil {
			log.Warn("pipeline: failed to update status", zap.Error(statusErr))
		}
	}

	// Phase tracking helper.
	trackPhase := func(name string, fn func() (*model.PhaseResult, error)) error {
		phase, phaseErr := p.store.CreatePhase(ctx, run.ID, name)
		if phaseErr != nil {
			log.Warn("pipeline: failed to create phase", zap.String("phase", name), zap.Error(phaseErr))
		}

		start := time.Now()
		phaseResult, fnErr := fn()
		duration := time.Since(start).Milliseconds()

		if phaseResult == nil {
			phaseResult = &model.PhaseResult{Name: name}
		}
		phaseResult.Name = name
		phaseResult.Duration = duration

		if fnErr != nil {
			phaseResult.Status = model.PhaseStatusFailed
			phaseResult.Error = fnErr.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
				zap.Error(fnErr),
			)
		} else {
			phaseResult.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", duration),
			)
		}

		if phase != nil {
			_ = p.store.CompletePhase(ctx, phase.ID, phaseResult)
		}
		return fnErr
	}

	fail := func(cause error) (*model.Profile, error) {
		if failErr := p.store.FailRun(ctx, run.ID, cause.Error()); failErr != nil {
			log.Warn("pipeline: failed to record failure", zap.Error(failErr))
		}
		return nil, cause
	}

	finish := func(profile *model.Profile) (*model.Profile, error) {
		if saveErr := p.store.CompleteRun(ctx, run.ID, profile); saveErr != nil {
			log.Warn("pipeline: failed to save profile", zap.Error(saveErr))
		}
		return profile, nil
	}

	// ===== Phase 1: Search =====
	setStatus(model.RunStatusSearching)

	var hits []resolve.Hit
	searchErr := trackPhase("1_search", func() (*model.PhaseResult, error) {
		found, searchErr := SearchPhase(ctx, p.search, req.Name, req.Anchors, p.cfg.Search.MaxResults)
		if searchErr != nil {
			return nil, searchErr
		}
		hits = found
		return &model.PhaseResult{
			Metadata: map[string]any{"hits": len(found)},
		}, nil
	})
	if searchErr != nil {
		return fail(eris.Wrap(searchErr, "pipeline: search"))
	}

	// ===== Phase 2: Resolve =====
	setStatus(model.RunStatusResolving)

	resolver := resolve.New(p.cfg.Resolver.MaxCandidates, p.rules)
	var resolution resolve.Result
	resolveErr := trackPhase("2_resolve", func() (*model.PhaseResult, error) {
		res, resErr := resolver.Resolve(req.Name, req.Anchors, hits)
		if resErr != nil {
			return nil, resErr
		}
		resolution = res
		return &model.PhaseResult{
			Metadata: map[string]any{
				"candidates": len(res.Candidates),
				"selected":   res.Selected != nil,
			},
		}, nil
	})
	if resolveErr != nil {
		return fail(eris.Wrap(resolveErr, "pipeline: resolve"))
	}

	if len(resolution.Candidates) == 0 {
		log.Info("pipeline: no candidates, subject not found")
		profile := assemble.Unresolved(req.Name, model.OutcomeNotFound, nil)
		return finish(&profile)
	}
	if resolution.Selected == nil {
		log.Info("pipeline: ambiguous, caller must pick a candidate",
			zap.Int("candidates", len(resolution.Candidates)),
		)
		profile := assemble.Unresolved(req.Name, model.OutcomeAmbiguous, resolution.Candidates)
		return finish(&profile)
	}
	selected := *resolution.Selected

	// ===== Phase 3: Classify =====
	fp := model.NewFingerprint(selected, req.Anchors, nil, p.cfg.Resolver.RequiredMatches)

	allowlist := req.Allowlist
	if len(allowlist) == 0 {
		allowlist = p.cfg.Trust.Allowlist
	}
	classifier := classify.New(p.rules, fp, allowlist)

	var urls []string
	_ = trackPhase("3_classify", func() (*model.PhaseResult, error) {
		urls = collectURLs(selected, req.Anchors, hits, classifier, p.cfg.Pipeline.MaxSources)
		return &model.PhaseResult{
			Metadata: map[string]any{
				"urls":   len(urls),
				"strict": classifier.Strict(),
			},
		}, nil
	})

	// ===== Phase 4: Collect =====
	setStatus(model.RunStatusCollecting)

	var collected *CollectResult
	_ = trackPhase("4_collect", func() (*model.PhaseResult, error) {
		collected = CollectPhase(ctx, p.fetcher, classifier, &fp, urls, p.cfg.Pipeline)
		return &model.PhaseResult{
			Metadata: map[string]any{
				"sources": len(collected.Sources),
				"facts":   len(collected.Facts),
				"blocked": collected.Blocked,
				"failed":  collected.Failed,
			},
		}, nil
	})

	// ===== Phase 5: Aggregate =====
	// Runs strictly after the collection pool has drained; confirmations
	// must never be computed over a partial source set.
	setStatus(model.RunStatusAggregating)

	var fields map[string]model.ResolvedField
	var scored []model.Fact
	_ = trackPhase("5_aggregate", func() (*model.PhaseResult, error) {
		scored = score.New(p.cfg.Scoring).Apply(collected.Facts)
		fields = aggregate.New(&fp, p.cfg.Scoring.ReviewMargin).Resolve(scored)
		return &model.PhaseResult{
			Metadata: map[string]any{"fields": len(fields)},
		}, nil
	})

	// ===== Phase 6: Assemble =====
	var profile model.Profile
	_ = trackPhase("6_assemble", func() (*model.PhaseResult, error) {
		identity := model.ResolvedIdentity{
			Name:         selected.Name,
			Domain:       selected.Domain,
			Organization: selected.Organization,
		}
		pack := rolepack.Select(collected.Sources, scored)
		profile = assemble.Build(identity, pack, fields, collected.Sources, len(collected.Facts))
		return &model.PhaseResult{
			Metadata: map[string]any{
				"role_pack":    string(pack),
				"about_fields": len(profile.AboutTable),
			},
		}, nil
	})

	log.Info("pipeline: lookup complete",
		zap.String("run_id", run.ID),
		zap.String("outcome", string(profile.Outcome)),
		zap.Int("confirmed", profile.FactCount.Confirmed),
		zap.Int("candidates_seen", profile.FactCount.TotalCandidates),
	)

	return finish(&profile)
}
