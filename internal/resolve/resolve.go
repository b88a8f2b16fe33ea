// Package resolve turns a subject name plus weak anchors into a ranked,
// filtered list of identity candidates. It never binds an identity on
// the name alone; selection happens only when an anchor uniquely
// corroborates one candidate.
package resolve

import (
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/classify"
	"github.com/sells-group/persona-cli/internal/model"
)

// Rank score contributions.
const (
	scoreAnchorDomain = 100 // exact domain match to the supplied anchor
	scoreOwnDomain    = 30  // candidate backed by a result on its own domain
	scoreAboutPath    = 10  // representative URL looks like an about/team/contact page
	scoreDirectory    = -20 // known directory domain
	scoreUnrelated    = -50 // domain unrelated to every anchor keyword
)

// Hit is one search result handed to the resolver.
type Hit struct {
	URL     string
	Title   string
	Snippet string
}

// Result is the resolver outcome. Selected is non-nil only when an
// anchor uniquely bound one candidate; otherwise the caller disambiguates
// from Candidates. Both empty means a normal not-found outcome.
type Result struct {
	Candidates []model.Candidate
	Selected   *model.Candidate
}

// Resolver ranks identity candidates for one run.
type Resolver struct {
	maxCandidates int
	directories   map[string]bool
}

// New builds a resolver. Directory domains come from the run's trust
// rules so resolver and classifier penalize the same aggregators.
func New(maxCandidates int, rules classify.Rules) *Resolver {
	if maxCandidates < 2 {
		maxCandidates = 5
	}
	dirs := make(map[string]bool, len(rules.Directories))
	for _, d := range rules.Directories {
		dirs[strings.ToLower(d)] = true
	}
	return &Resolver{maxCandidates: maxCandidates, directories: dirs}
}

// Resolve ranks the search hits into candidates. Zero hits yields an
// empty result, not an error; an empty name is the one malformed input.
func (r *Resolver) Resolve(name string, anchors model.Anchors, hits []Hit) (Result, error) {
	if strings.TrimSpace(name) == "" {
		return Result{}, eris.New("resolve: name is required")
	}
	if len(hits) == 0 {
		zap.L().Info("resolve: no search results", zap.String("name", name))
		return Result{}, nil
	}

	anchorDomain := effectiveAnchorDomain(anchors)
	cands := r.groupByDomain(name, hits)
	for i := range cands {
		r.scoreCandidate(&cands[i], anchorDomain, anchors)
	}
	model.SortCandidates(cands)

	// Domain-anchored runs are filtered to domain matches first; the
	// unfiltered ranked list is only a fallback when nothing matched.
	if anchorDomain != "" {
		if filtered := filterByDomain(cands, anchorDomain); len(filtered) > 0 {
			cands = filtered
		}
	}

	if len(cands) > r.maxCandidates {
		cands = cands[:r.maxCandidates]
	}

	res := Result{Candidates: cands}
	if sel := r.selectUnique(cands, anchorDomain, anchors); sel != nil {
		res.Selected = sel
		zap.L().Info("resolve: anchor uniquely bound candidate",
			zap.String("name", name),
			zap.String("domain", sel.Domain),
			zap.Int("rank_score", sel.RankScore),
		)
	} else {
		zap.L().Info("resolve: returning candidate list",
			zap.String("name", name),
			zap.Int("candidates", len(cands)),
		)
	}
	return res, nil
}

// effectiveAnchorDomain prefers the explicit domain anchor and falls
// back to the known page URL's domain.
func effectiveAnchorDomain(anchors model.Anchors) string {
	if anchors.Domain != "" {
		return classify.Domain(anchors.Domain)
	}
	if anchors.KnownURL != "" {
		return classify.Domain(anchors.KnownURL)
	}
	return ""
}

// groupByDomain buckets hits per domain and builds one candidate per
// bucket with up to two representative URLs.
func (r *Resolver) groupByDomain(name string, hits []Hit) []model.Candidate {
	order := make([]string, 0, len(hits))
	byDomain := make(map[string]*model.Candidate)
	texts := make(map[string][]string)

	for _, h := range hits {
		domain := classify.Domain(h.URL)
		if domain == "" {
			continue
		}
		c, ok := byDomain[domain]
		if !ok {
			c = &model.Candidate{Name: name, Domain: domain}
			byDomain[domain] = c
			order = append(order, domain)
		}
		if len(c.URLs) < 2 {
			c.URLs = append(c.URLs, h.URL)
		}
		texts[domain] = append(texts[domain], h.Title, h.Snippet)
	}

	cands := make([]model.Candidate, 0, len(order))
	for _, domain := range order {
		c := byDomain[domain]
		c.Organization = orgHintFromText(texts[domain])
		cands = append(cands, *c)
	}
	return cands
}

// orgHintFromText pulls an organization hint from result titles and
// snippets. Titles often carry "Name - Org" or "Name | Org" shapes.
func orgHintFromText(texts []string) string {
	for _, t := range texts {
		for _, sep := range []string{" | ", " - ", " – "} {
			idx := strings.Index(t, sep)
			if idx <= 0 {
				continue
			}
			tail := strings.TrimSpace(t[idx+len(sep):])
			if tail != "" && len(strings.Fields(tail)) <= 6 {
				return tail
			}
		}
	}
	return ""
}

func (r *Resolver) scoreCandidate(c *model.Candidate, anchorDomain string, anchors model.Anchors) {
	if anchorDomain != "" && domainsEqual(c.Domain, anchorDomain) {
		c.RankScore += scoreAnchorDomain
		c.Reasons = append(c.Reasons, "anchor domain match")
	}
	if len(c.URLs) > 0 {
		c.RankScore += scoreOwnDomain
		c.Reasons = append(c.Reasons, "result on own domain")
	}
	for _, u := range c.URLs {
		kind := classify.KindByURL(u)
		if kind == model.PageKindAbout || kind == model.PageKindContact {
			c.RankScore += scoreAboutPath
			c.Reasons = append(c.Reasons, "about page path")
			break
		}
	}
	if r.isDirectory(c.Domain) {
		c.RankScore += scoreDirectory
		c.Reasons = append(c.Reasons, "directory domain")
	}
	if !anchors.Empty() && unrelatedToAnchors(*c, anchorDomain, anchors) {
		c.RankScore += scoreUnrelated
		c.Reasons = append(c.Reasons, "unrelated to anchors")
	}
}

func (r *Resolver) isDirectory(domain string) bool {
	if r.directories[domain] {
		return true
	}
	for d := range r.directories {
		if strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// unrelatedToAnchors reports whether no anchor keyword appears in the
// candidate's domain, organization hint, or representative URLs.
func unrelatedToAnchors(c model.Candidate, anchorDomain string, anchors model.Anchors) bool {
	hay := strings.ToLower(c.Domain + " " + c.Organization + " " + c.Location + " " + strings.Join(c.URLs, " "))

	var terms []string
	if anchorDomain != "" {
		terms = append(terms, anchorDomain, domainLabel(anchorDomain))
	}
	for _, t := range []string{anchors.Organization, anchors.City, strings.TrimPrefix(anchors.Handle, "@")} {
		if t != "" {
			terms = append(terms, t)
		}
	}

	for _, term := range terms {
		for _, token := range strings.Fields(strings.ToLower(term)) {
			if len(token) >= 3 && strings.Contains(hay, token) {
				return false
			}
		}
	}
	return true
}

// selectUnique binds a candidate only when an anchor uniquely
// corroborates it: a domain anchor filtering to exactly one candidate,
// or a text anchor matching exactly one.
func (r *Resolver) selectUnique(cands []model.Candidate, anchorDomain string, anchors model.Anchors) *model.Candidate {
	if anchors.Empty() || len(cands) == 0 {
		return nil
	}

	if anchorDomain != "" {
		matches := filterByDomain(cands, anchorDomain)
		if len(matches) == 1 {
			return &matches[0]
		}
		return nil
	}

	var match *model.Candidate
	for i := range cands {
		if textAnchorMatch(cands[i], anchors) {
			if match != nil {
				return nil // more than one plausible candidate
			}
			match = &cands[i]
		}
	}
	return match
}

func textAnchorMatch(c model.Candidate, anchors model.Anchors) bool {
	hay := strings.ToLower(c.Domain + " " + c.Organization + " " + c.Location + " " + strings.Join(c.URLs, " "))
	for _, t := range []string{anchors.Organization, anchors.City, strings.TrimPrefix(anchors.Handle, "@")} {
		if t != "" && strings.Contains(hay, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

func filterByDomain(cands []model.Candidate, domain string) []model.Candidate {
	var out []model.Candidate
	for _, c := range cands {
		if domainsEqual(c.Domain, domain) || strings.HasSuffix(c.Domain, "."+domain) {
			out = append(out, c)
		}
	}
	return out
}

func domainsEqual(a, b string) bool {
	return strings.TrimPrefix(a, "www.") == strings.TrimPrefix(b, "www.")
}

// domainLabel returns the registrable label of a domain, the part people
// actually name an organization after ("tmjhelpline" in tmjhelpline.com).
func domainLabel(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) >= 2 {
		return parts[len(parts)-2]
	}
	return domain
}
