// Package aggregate merges scored facts into resolved fields: duplicate
// values collapse across sources, distinct values are ranked, and each
// field gets its confirmed/mention decision, confidence label, and
// near-tie review flag.
package aggregate

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/model"
)

// Aggregator resolves conflicts between facts for the same field. It
// must only run after every in-flight source has completed or been
// cancelled; partial aggregation over an inconsistent source set would
// make confirmations depend on timing.
type Aggregator struct {
	fp           *model.IdentityFingerprint
	reviewMargin int
}

func New(fp *model.IdentityFingerprint, reviewMargin int) *Aggregator {
	if reviewMargin < 0 {
		reviewMargin = 0
	}
	return &Aggregator{fp: fp, reviewMargin: reviewMargin}
}

// Resolve groups facts by field and collapses exact-duplicate values.
// The returned map is keyed by field name; every distinct value stays
// visible in its group list, ranked by aggregate score.
func (a *Aggregator) Resolve(facts []model.Fact) map[string]model.ResolvedField {
	resolved := make(map[string]model.ResolvedField)
	if len(facts) == 0 {
		return resolved
	}

	ordered := append([]model.Fact(nil), facts...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if ordered[i].SourceURL != ordered[j].SourceURL {
			return ordered[i].SourceURL < ordered[j].SourceURL
		}
		return ordered[i].Value < ordered[j].Value
	})

	byField := make(map[string][]model.Fact)
	for _, f := range ordered {
		byField[f.Field] = append(byField[f.Field], f)
	}

	for field, fieldFacts := range byField {
		rf := a.resolveField(field, fieldFacts)
		resolved[field] = rf
	}

	zap.L().Debug("aggregate: resolved fields",
		zap.Int("facts", len(facts)),
		zap.Int("fields", len(resolved)),
	)
	return resolved
}

func (a *Aggregator) resolveField(field string, facts []model.Fact) model.ResolvedField {
	groups := collapse(facts)
	if a.fp != nil {
		for i := range groups {
			groups[i].AnchorMatch = a.fp.MatchesAnchor(groups[i].Value)
		}
	}

	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Score != groups[j].Score {
			return groups[i].Score > groups[j].Score
		}
		if groups[i].Corroboration() != groups[j].Corroboration() {
			return groups[i].Corroboration() > groups[j].Corroboration()
		}
		return groups[i].Value < groups[j].Value
	})

	rf := model.ResolvedField{Field: field, Values: groups}
	top := rf.Top()
	if top == nil {
		rf.Status = model.StatusPublicMention
		rf.Confidence = model.ConfidenceLow
		return rf
	}

	rf.Status = a.status(*top)
	rf.Confidence = confidence(top.Corroboration())
	if len(groups) >= 2 && groups[0].Score-groups[1].Score <= a.reviewMargin {
		rf.NeedsReview = true
	}
	return rf
}

// status decides CONFIRMED for the field's top value: a Tier-A origin,
// a Tier-B origin agreeing with an anchor attribute, or corroboration
// by two or more independent domains. Everything else stays a mention.
func (a *Aggregator) status(top model.ValueGroup) model.FieldStatus {
	switch {
	case top.BestTier == model.TierA:
		return model.StatusConfirmed
	case top.BestTier == model.TierB && top.AnchorMatch:
		return model.StatusConfirmed
	case top.Corroboration() >= 2:
		return model.StatusConfirmed
	default:
		return model.StatusPublicMention
	}
}

func confidence(corroboration int) model.Confidence {
	switch {
	case corroboration >= 3:
		return model.ConfidenceHigh
	case corroboration == 2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// collapse folds facts with the same folded value into one group. Facts
// arrive ordered best-first, so the first fact supplies the display
// variant and the group score is the best per-fact score; corroboration
// already contributed to that score.
func collapse(facts []model.Fact) []model.ValueGroup {
	var groups []model.ValueGroup
	index := make(map[string]int)

	for _, f := range facts {
		key := model.ValueKey(f.Field, f.Value)
		i, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, model.ValueGroup{
				Value:    f.Value,
				Score:    f.Score,
				BestTier: f.Tier,
			})
			i = len(groups) - 1
		}
		g := &groups[i]
		if f.Score > g.Score {
			g.Score = f.Score
		}
		if f.Tier.Rank() > g.BestTier.Rank() {
			g.BestTier = f.Tier
		}
		if f.AnchorDomain {
			g.AnchorDomain = true
		}
		if !containsString(g.Sources, f.SourceURL) {
			g.Sources = append(g.Sources, f.SourceURL)
			g.Evidence = append(g.Evidence, f.Evidence)
		}
		if !containsString(g.Domains, f.SourceDomain) {
			g.Domains = append(g.Domains, f.SourceDomain)
		}
		if !containsOrigin(g.Origins, f.Origin) {
			g.Origins = append(g.Origins, f.Origin)
		}
	}
	return groups
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsOrigin(list []model.StructuralOrigin, v model.StructuralOrigin) bool {
	for _, o := range list {
		if o == v {
			return true
		}
	}
	return false
}
