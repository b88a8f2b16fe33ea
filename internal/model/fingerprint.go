package model

import "strings"

// Anchors are the caller-supplied disambiguating hints for a lookup.
// All fields are optional; a lookup with no anchors never auto-binds
// an identity.
type Anchors struct {
	Domain       string `json:"domain,omitempty"`
	Organization string `json:"organization,omitempty"`
	City         string `json:"city,omitempty"`
	Handle       string `json:"handle,omitempty"`
	KnownURL     string `json:"known_url,omitempty"`
}

// Empty reports whether no anchor hint was supplied.
func (a Anchors) Empty() bool {
	return a.Domain == "" && a.Organization == "" && a.City == "" &&
		a.Handle == "" && a.KnownURL == ""
}

// Terms returns the non-empty anchor values usable as search keywords.
// KnownURL is excluded; it is a page, not a keyword.
func (a Anchors) Terms() []string {
	var terms []string
	for _, t := range []string{a.Domain, a.Organization, a.City, a.Handle} {
		if t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// IdentityFingerprint is the matching criteria a page or candidate must
// satisfy to be treated as belonging to the target identity. Built once
// per run from the selected candidate plus caller anchors; never mutated
// afterwards, so reruns over the same inputs are reproducible.
type IdentityFingerprint struct {
	Domains         []string `json:"domains"`
	Locations       []string `json:"locations,omitempty"`
	Specialties     []string `json:"specialties,omitempty"`
	Organizations   []string `json:"organizations,omitempty"`
	RequiredMatches int      `json:"required_matches"`
}

// NewFingerprint derives the per-run fingerprint from the selected
// candidate and the original anchors. All entries are lowercased.
func NewFingerprint(c Candidate, anchors Anchors, specialties []string, requiredMatches int) IdentityFingerprint {
	if requiredMatches < 1 {
		requiredMatches = 1
	}
	fp := IdentityFingerprint{RequiredMatches: requiredMatches}
	fp.Domains = appendLower(fp.Domains, c.Domain, anchors.Domain)
	fp.Locations = appendLower(fp.Locations, c.Location, anchors.City)
	fp.Organizations = appendLower(fp.Organizations, c.Organization, anchors.Organization)
	for _, s := range specialties {
		fp.Specialties = appendLower(fp.Specialties, s)
	}
	return fp
}

// MatchesDomain reports whether domain equals or is a subdomain of any
// fingerprint domain.
func (fp IdentityFingerprint) MatchesDomain(domain string) bool {
	d := strings.ToLower(strings.TrimPrefix(domain, "www."))
	for _, fd := range fp.Domains {
		if d == fd || strings.HasSuffix(d, "."+fd) {
			return true
		}
	}
	return false
}

// MatchCount returns how many distinct fingerprint groups (domain,
// location, specialty, organization) have at least one entry contained
// in text. Matching is case-insensitive substring containment.
func (fp IdentityFingerprint) MatchCount(text string) int {
	t := strings.ToLower(text)
	count := 0
	for _, group := range [][]string{fp.Domains, fp.Locations, fp.Specialties, fp.Organizations} {
		for _, kw := range group {
			if kw != "" && strings.Contains(t, kw) {
				count++
				break
			}
		}
	}
	return count
}

// Accepts reports whether text matches at least RequiredMatches
// fingerprint groups.
func (fp IdentityFingerprint) Accepts(text string) bool {
	return fp.MatchCount(text) >= fp.RequiredMatches
}

// MatchesAnchor reports whether value equals or contains any fingerprint
// domain, organization, or location. Used to promote Tier-B facts that
// agree with a supplied anchor.
func (fp IdentityFingerprint) MatchesAnchor(value string) bool {
	v := strings.ToLower(value)
	for _, group := range [][]string{fp.Domains, fp.Organizations, fp.Locations} {
		for _, kw := range group {
			if kw != "" && (strings.Contains(v, kw) || strings.Contains(kw, v)) {
				return true
			}
		}
	}
	return false
}

func appendLower(dst []string, values ...string) []string {
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		dup := false
		for _, existing := range dst {
			if existing == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
