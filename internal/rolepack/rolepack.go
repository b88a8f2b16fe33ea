// Package rolepack chooses the field-group template for a profile.
// The decision reads Tier-A evidence only; aggregator and directory text
// is the dominant cause of misclassification and never gets a vote.
package rolepack

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/model"
)

// packKeywords are matched against Tier-A content. Distinct hits count;
// repeats of the same word do not.
var packKeywords = []struct {
	pack  model.RolePack
	words []string
}{
	{model.RolePackMedical, []string{
		"dentist", "dental", "doctor", "physician", "surgeon", "clinic",
		"patients", "medical", "hospital", "healthcare", "treatment",
		"orthodontist", "dermatologist",
	}},
	{model.RolePackBusiness, []string{
		"ceo", "founder", "company", "startup", "business",
		"entrepreneur", "investor", "revenue", "firm", "industry",
	}},
	{model.RolePackAcademic, []string{
		"professor", "research", "university", "phd", "lecturer",
		"publications", "faculty", "scholar", "academic", "laboratory",
	}},
	{model.RolePackArtist, []string{
		"artist", "album", "exhibition", "gallery", "singer", "musician",
		"novel", "paintings", "sculptor", "filmmaker", "poet",
	}},
	{model.RolePackPublicFigure, []string{
		"cricketer", "footballer", "athlete", "politician", "minister",
		"parliament", "elected", "captain", "olympic", "celebrity",
		"activist",
	}},
}

// Select decides exactly one pack for the run. Directory pages and
// everything below Tier A are excluded from the vote; with no usable
// Tier-A evidence the pack defaults to generic.
func Select(sources []*model.Source, facts []model.Fact) model.RolePack {
	var text strings.Builder
	usable := 0
	for _, src := range sources {
		if src == nil || src.Blocked || src.Tier != model.TierA {
			continue
		}
		if src.Directory || src.Kind == model.PageKindDirectory {
			continue
		}
		usable++
		if c := src.Content; c != nil {
			text.WriteString(c.Title)
			text.WriteString(" ")
			text.WriteString(c.AboutText)
			text.WriteString(" ")
			text.WriteString(c.MainText)
			text.WriteString(" ")
			for _, b := range c.Blocks {
				for _, v := range b.Fields {
					text.WriteString(v)
					text.WriteString(" ")
				}
			}
		}
	}
	for _, f := range facts {
		if f.Tier == model.TierA && !f.Directory {
			text.WriteString(f.Value)
			text.WriteString(" ")
		}
	}

	if usable == 0 {
		return model.RolePackGeneric
	}

	haystack := strings.ToLower(text.String())
	best := model.RolePackGeneric
	bestHits := 0
	for _, pk := range packKeywords {
		hits := 0
		for _, w := range pk.words {
			if strings.Contains(haystack, w) {
				hits++
			}
		}
		if hits > bestHits {
			best = pk.pack
			bestHits = hits
		}
	}

	zap.L().Debug("rolepack: selected",
		zap.String("pack", string(best)),
		zap.Int("keyword_hits", bestHits),
		zap.Int("tier_a_sources", usable),
	)
	return best
}
