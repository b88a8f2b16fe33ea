// Package assemble turns aggregation output into the final profile.
// Assembly never fails: a run with nothing confirmed still produces a
// well-formed profile with an empty about table and a null bio.
package assemble

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/model"
)

// maxReviewMentions caps how many alternative values a field flagged
// for review carries into public_mentions. The aggregator keeps every
// distinct value; display is where the list gets trimmed.
const maxReviewMentions = 3

// bioFields are the confirmed fields the bio template can draw on.
// Fewer than two of them confirmed means no bio at all; a one-fact
// sentence reads like a guess.
var bioFields = []string{
	model.FieldFullName,
	model.FieldProfession,
	model.FieldOrganization,
	model.FieldLocation,
}

// Unresolved builds the profile for a run that never bound an identity:
// the not-found result, or the ambiguous case where the caller must pick
// from the candidate list. Extraction has not run, so every fact surface
// is empty but well-formed.
func Unresolved(name string, outcome model.Outcome, candidates []model.Candidate) model.Profile {
	return model.Profile{
		ResolvedIdentity: model.ResolvedIdentity{Name: name},
		RolePack:         model.RolePackGeneric,
		AboutTable:       map[string]model.AboutEntry{},
		PublicMentions:   map[string][]model.Mention{},
		Sources:          []string{},
		NeedsReview:      []string{},
		Outcome:          outcome,
		Candidates:       candidates,
	}
}

// Build assembles the profile for a resolved identity. Confirmed fields
// inside the pack's field set land in the about table; every other
// value, confirmed or not, is listed as a public mention with its
// sources. The two surfaces never share a value for the same field.
func Build(identity model.ResolvedIdentity, pack model.RolePack, fields map[string]model.ResolvedField, sources []*model.Source, factTotal int) model.Profile {
	p := model.Profile{
		ResolvedIdentity: identity,
		RolePack:         pack,
		AboutTable:       map[string]model.AboutEntry{},
		PublicMentions:   map[string][]model.Mention{},
		Sources:          sourceURLs(sources),
		FactCount:        model.FactCount{TotalCandidates: factTotal},
		NeedsReview:      []string{},
		Outcome:          model.OutcomeResolved,
	}

	for name, rf := range fields {
		top := rf.Top()
		if top == nil {
			continue
		}
		if rf.NeedsReview {
			p.NeedsReview = append(p.NeedsReview, name)
		}
		if rf.Status == model.StatusConfirmed {
			p.FactCount.Confirmed++
			if pack.Includes(name) {
				p.AboutTable[name] = model.AboutEntry{
					Value:      top.Value,
					Confidence: rf.Confidence,
					Sources:    top.Sources,
				}
				addMentions(&p, name, rf, rf.Values[1:])
				continue
			}
		}
		addMentions(&p, name, rf, rf.Values)
	}
	sort.Strings(p.NeedsReview)

	p.Bio = bio(identity, p.AboutTable)

	zap.L().Debug("assemble: profile built",
		zap.String("pack", string(pack)),
		zap.Int("about_fields", len(p.AboutTable)),
		zap.Int("mention_fields", len(p.PublicMentions)),
		zap.Int("needs_review", len(p.NeedsReview)),
		zap.Bool("bio", p.Bio != nil),
	)
	return p
}

func addMentions(p *model.Profile, field string, rf model.ResolvedField, groups []model.ValueGroup) {
	if rf.NeedsReview && len(groups) > maxReviewMentions {
		groups = groups[:maxReviewMentions]
	}
	for _, g := range groups {
		p.PublicMentions[field] = append(p.PublicMentions[field], model.Mention{
			Value:   g.Value,
			Sources: g.Sources,
		})
	}
}

// bio renders the one-sentence summary from confirmed about-table
// entries only. Mentions never leak into prose.
func bio(identity model.ResolvedIdentity, about map[string]model.AboutEntry) *string {
	eligible := 0
	for _, f := range bioFields {
		if _, ok := about[f]; ok {
			eligible++
		}
	}
	name := identity.Name
	if e, ok := about[model.FieldFullName]; ok {
		name = e.Value
	}
	if name == "" || eligible < 2 {
		return nil
	}

	prof, hasProf := about[model.FieldProfession]
	org, hasOrg := about[model.FieldOrganization]
	loc, hasLoc := about[model.FieldLocation]

	var b strings.Builder
	b.WriteString(name)
	predicate := true
	switch {
	case hasProf:
		b.WriteString(" is ")
		b.WriteString(article(prof.Value))
		b.WriteString(" ")
		b.WriteString(prof.Value)
		if hasOrg {
			b.WriteString(" at ")
			b.WriteString(org.Value)
		}
	case hasOrg:
		b.WriteString(" is associated with ")
		b.WriteString(org.Value)
	default:
		predicate = false
	}
	if hasLoc {
		if predicate {
			b.WriteString(", based in ")
		} else {
			b.WriteString(" is based in ")
		}
		b.WriteString(loc.Value)
	}
	b.WriteString(".")

	s := b.String()
	return &s
}

func article(noun string) string {
	if noun == "" {
		return "a"
	}
	switch noun[0] {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return "an"
	}
	return "a"
}

// sourceURLs lists the consulted pages in fetch order, blocked sources
// excluded, one entry per URL.
func sourceURLs(sources []*model.Source) []string {
	urls := []string{}
	seen := map[string]bool{}
	for _, s := range sources {
		if s == nil || s.Blocked || s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		urls = append(urls, s.URL)
	}
	return urls
}
