// Package score assigns trust scores to extracted facts. Contributions
// are additive and unnormalized; scores are comparable only within the
// same field.
package score

import (
	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/config"
	"github.com/sells-group/persona-cli/internal/model"
)

// Scorer applies the configured weights to facts.
type Scorer struct {
	cfg config.ScoringConfig
}

func New(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Apply scores every fact in place. Corroboration is computed first
// across the whole set: a field/value pair seen on two or more distinct
// domains earns the corroboration bonus on each of its facts.
func (s *Scorer) Apply(facts []model.Fact) []model.Fact {
	domains := make(map[string]map[string]bool, len(facts))
	for _, f := range facts {
		k := model.ValueKey(f.Field, f.Value)
		if domains[k] == nil {
			domains[k] = make(map[string]bool)
		}
		domains[k][f.SourceDomain] = true
	}

	for i := range facts {
		facts[i].Score = s.one(facts[i], len(domains[model.ValueKey(facts[i].Field, facts[i].Value)]) >= 2)
	}

	zap.L().Debug("score: applied weights", zap.Int("facts", len(facts)))
	return facts
}

func (s *Scorer) one(f model.Fact, corroborated bool) int {
	total := 0
	if f.AnchorDomain {
		total += s.cfg.AnchorDomain
	}
	if f.Origin == model.OriginStructuredData || f.Origin == model.OriginInfobox {
		total += s.cfg.StructuredOrigin
	}
	if f.Tier == model.TierA && !f.AnchorDomain {
		total += s.cfg.TierANonAnchor
	}
	if f.Tier == model.TierB || f.ContactPage || f.Origin == model.OriginContactPage {
		total += s.cfg.TierBOrContact
	}
	if corroborated {
		total += s.cfg.Corroboration
	}
	if f.Directory {
		total += s.cfg.DirectoryPenalty
	}
	// Facts are validated before they exist; an origin-less fact bypassed
	// that path and gets floored instead of trusted.
	if f.Origin == "" {
		total += s.cfg.ValidatorFloor
	}
	return total
}
