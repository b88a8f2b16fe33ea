package classify

import (
	"net/url"
	"strings"

	"github.com/sells-group/persona-cli/internal/model"
)

// Classifier assigns tiers and page kinds for one run. Built from the
// run's fingerprint plus resolved rules; immutable afterwards so a rerun
// over the same inputs classifies identically.
type Classifier struct {
	fp        model.IdentityFingerprint
	tierA     map[string]bool
	tierB     map[string]bool
	deny      map[string]bool
	dirs      map[string]bool
	allowlist map[string]bool
}

// New builds a classifier from rules, the run fingerprint, and an
// optional allowlist. A non-empty allowlist enables strict mode.
func New(rules Rules, fp model.IdentityFingerprint, allowlist []string) *Classifier {
	return &Classifier{
		fp:        fp,
		tierA:     domainSet(rules.TierA),
		tierB:     domainSet(rules.TierB),
		deny:      domainSet(rules.Denylist),
		dirs:      domainSet(rules.Directories),
		allowlist: domainSet(allowlist),
	}
}

// Strict reports whether an allowlist is active.
func (c *Classifier) Strict() bool {
	return len(c.allowlist) > 0
}

// Allowed reports whether a domain survives strict mode. Without an
// allowlist every domain is allowed; the denylist affects tier, not
// admission.
func (c *Classifier) Allowed(domain string) bool {
	if !c.Strict() {
		return true
	}
	return matchSet(c.allowlist, domain)
}

// Classify assigns the trust tier, page kind, and flags for a URL. The
// content-dependent part of the kind (infobox detection) is refined
// later via RefineKind.
func (c *Classifier) Classify(rawURL string) model.Source {
	domain := Domain(rawURL)
	src := model.Source{
		URL:    rawURL,
		Domain: domain,
		Kind:   KindByURL(rawURL),
	}

	switch {
	case c.fp.MatchesDomain(domain):
		src.Tier = model.TierA
		src.AnchorDomain = true
	case matchSet(c.deny, domain):
		src.Tier = model.TierC
	case matchSet(c.dirs, domain):
		src.Tier = model.TierC
		src.Directory = true
	case matchSet(c.tierA, domain) || institutionalDomain(domain):
		src.Tier = model.TierA
	case matchSet(c.tierB, domain) || tierBPath(rawURL):
		src.Tier = model.TierB
	default:
		src.Tier = model.TierC
	}

	if src.Kind == model.PageKindDirectory {
		src.Directory = true
	}

	return src
}

// RefineKind upgrades the page kind once content is available: a page
// carrying an infobox is a reference page whatever its URL looked like.
func RefineKind(src model.Source, content *model.Content) model.Source {
	if content != nil && content.HasInfobox {
		src.Kind = model.PageKindReference
	}
	return src
}

// institutionalDomain reports government and academic suffixes.
func institutionalDomain(domain string) bool {
	return strings.HasSuffix(domain, ".gov") ||
		strings.HasSuffix(domain, ".edu") ||
		strings.HasSuffix(domain, ".ac.uk") ||
		strings.HasSuffix(domain, ".gov.uk") ||
		strings.HasSuffix(domain, ".nic.in") ||
		strings.HasSuffix(domain, ".gov.in")
}

// tierBPath reports speaker/award/author style paths, which read as
// conference or publisher pages even on unknown domains.
var tierBSegments = map[string]bool{
	"speaker":  true,
	"speakers": true,
	"award":    true,
	"awards":   true,
	"author":   true,
	"authors":  true,
}

func tierBPath(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if tierBSegments[strings.ToLower(seg)] {
			return true
		}
	}
	return false
}

// urlPathPatterns maps first URL path segments to page kinds.
var urlPathPatterns = map[string]model.PageKind{
	"about":      model.PageKindAbout,
	"about-us":   model.PageKindAbout,
	"about_us":   model.PageKindAbout,
	"aboutus":    model.PageKindAbout,
	"who-we-are": model.PageKindAbout,
	"our-story":  model.PageKindAbout,
	"team":       model.PageKindAbout,
	"our-team":   model.PageKindAbout,
	"leadership": model.PageKindAbout,
	"staff":      model.PageKindAbout,
	"people":     model.PageKindAbout,
	"bio":        model.PageKindAbout,
	"contact":    model.PageKindContact,
	"contact-us": model.PageKindContact,
	"contact_us": model.PageKindContact,
	"contactus":  model.PageKindContact,
	"wiki":       model.PageKindReference,
	"profile":    model.PageKindProfile,
	"profiles":   model.PageKindProfile,
	"doctor":     model.PageKindProfile,
	"doctors":    model.PageKindProfile,
	"member":     model.PageKindProfile,
	"members":    model.PageKindProfile,
	"directory":  model.PageKindDirectory,
	"listings":   model.PageKindDirectory,
	"listing":    model.PageKindDirectory,
	"search":     model.PageKindDirectory,
	"blog":       model.PageKindArticle,
	"news":       model.PageKindArticle,
	"press":      model.PageKindArticle,
	"article":    model.PageKindArticle,
	"articles":   model.PageKindArticle,
}

// KindByURL classifies a page kind from its first path segment only,
// avoiding false positives on deep paths like /blog/about-our-team.
func KindByURL(rawURL string) model.PageKind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return model.PageKindGeneric
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return model.PageKindGeneric
	}
	if idx := strings.Index(path, "/"); idx > 0 {
		path = path[:idx]
	}
	if kind, ok := urlPathPatterns[strings.ToLower(path)]; ok {
		return kind
	}
	return model.PageKindGeneric
}

// Domain extracts the lowercased host from a URL, stripping any port and
// leading www. Bare domains without a scheme are accepted.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		u, err = url.Parse("https://" + rawURL)
		if err != nil {
			return strings.ToLower(rawURL)
		}
	}
	host := strings.ToLower(u.Host)
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return strings.TrimPrefix(host, "www.")
}

func domainSet(domains []string) map[string]bool {
	set := make(map[string]bool, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(d, "www.")))
		if d != "" {
			set[d] = true
		}
	}
	return set
}

// matchSet reports whether domain equals or is a subdomain of any set
// entry.
func matchSet(set map[string]bool, domain string) bool {
	if set[domain] {
		return true
	}
	for d := range set {
		if strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}
