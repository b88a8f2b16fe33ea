package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Canonical field names for the about table and mentions.
const (
	FieldFullName     = "full_name"
	FieldProfession   = "profession"
	FieldOrganization = "primary_organization"
	FieldLocation     = "location"
	FieldEmail        = "public_email"
	FieldPhone        = "public_phone"
	FieldWebsite      = "website"
	FieldBirthDate    = "birth_date"
	FieldNationality  = "nationality"
	FieldKnownFor     = "known_for"
	FieldSpecialty    = "specialty"
	FieldCredentials  = "credentials"
	FieldEducation    = "education"
	FieldWorks        = "works"
	FieldAwards       = "awards"
	FieldIndustry     = "industry"
	FieldResearchArea = "research_area"
)

// CoreIdentityFields are the fields that, on a reference page with an
// infobox, may only be sourced from the infobox or the first declarative
// sentence. Body text on such pages is full of third-party biography.
func CoreIdentityFields() []string {
	return []string{
		FieldFullName,
		FieldProfession,
		FieldBirthDate,
		FieldNationality,
		FieldKnownFor,
	}
}

// Evidence snippet window bounds, in characters around the match.
const (
	snippetWindow = 100
	snippetMax    = 160
)

// EvidenceSnippet is the literal text span proving a value was present
// on a page. Every fact carries one; a value with no snippet cannot
// enter the data model.
type EvidenceSnippet struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}

// NewSnippet cuts a bounded window around the [start,end) span of text.
// The window is widened up to snippetWindow characters on each side and
// clamped to snippetMax total.
func NewSnippet(text string, start, end int, sourceURL string) EvidenceSnippet {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if end < start {
		end = start
	}
	lo := start - snippetWindow/2
	if lo < 0 {
		lo = 0
	}
	hi := end + snippetWindow/2
	if hi > len(text) {
		hi = len(text)
	}
	if hi-lo > snippetMax {
		hi = lo + snippetMax
		if hi < end {
			hi = end
		}
	}
	snippet := strings.TrimSpace(text[lo:hi])
	return EvidenceSnippet{Text: snippet, SourceURL: sourceURL}
}

// SnippetFromMatch builds a snippet around the first occurrence of match
// in text. Falls back to the head of text when the match is not found
// verbatim (structured values often differ in whitespace from the raw
// page).
func SnippetFromMatch(text, match, sourceURL string) EvidenceSnippet {
	idx := strings.Index(text, match)
	if idx < 0 {
		idx = strings.Index(strings.ToLower(text), strings.ToLower(match))
	}
	if idx < 0 {
		end := snippetMax
		if end > len(text) {
			end = len(text)
		}
		return EvidenceSnippet{Text: strings.TrimSpace(text[:end]), SourceURL: sourceURL}
	}
	return NewSnippet(text, idx, idx+len(match), sourceURL)
}

// ValueKey folds a field/value pair for duplicate collapsing: scoring
// and aggregation must agree on what counts as the same value.
func ValueKey(field, value string) string {
	return field + "\x00" + strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// Fact is one evidence-backed candidate value for a field. Multiple
// facts may share a field name; they stay siblings until aggregation.
type Fact struct {
	Field        string           `json:"field"`
	Value        string           `json:"value"`
	Evidence     EvidenceSnippet  `json:"evidence"`
	SourceURL    string           `json:"source_url"`
	SourceDomain string           `json:"source_domain"`
	Tier         Tier             `json:"tier"`
	Origin       StructuralOrigin `json:"origin"`
	AnchorDomain bool             `json:"anchor_domain"`
	Directory    bool             `json:"directory"`
	ContactPage  bool             `json:"contact_page"`
	Score        int              `json:"score"`
}

// NewFact builds a fact from an extracted value and its source. It
// refuses values without evidence, enforcing the provenance invariant at
// construction time.
func NewFact(field, value string, ev EvidenceSnippet, src Source, origin StructuralOrigin) (Fact, error) {
	value = strings.TrimSpace(value)
	if field == "" {
		return Fact{}, eris.New("model: fact requires a field name")
	}
	if value == "" {
		return Fact{}, eris.Errorf("model: empty value for field %s", field)
	}
	if strings.TrimSpace(ev.Text) == "" || ev.SourceURL == "" {
		return Fact{}, eris.Errorf("model: fact %s=%q requires evidence", field, value)
	}
	return Fact{
		Field:        field,
		Value:        value,
		Evidence:     ev,
		SourceURL:    src.URL,
		SourceDomain: src.Domain,
		Tier:         src.Tier,
		Origin:       origin,
		AnchorDomain: src.AnchorDomain,
		Directory:    src.Directory || src.Kind == PageKindDirectory,
		ContactPage:  src.ContactLike(),
	}, nil
}
