package model

// Tier is the trust level assigned to a source domain. Tier A alone can
// confirm a fact; Tier C alone never can.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// Rank returns the tier as a comparable integer, higher is more trusted.
func (t Tier) Rank() int {
	switch t {
	case TierA:
		return 3
	case TierB:
		return 2
	default:
		return 1
	}
}

// PageKind is the classified category of a page, assigned from URL path
// patterns and content signals. Extractors branch on it instead of
// re-sniffing URLs.
type PageKind string

const (
	PageKindReference PageKind = "reference" // encyclopedic page with an infobox
	PageKindAbout     PageKind = "about"
	PageKindContact   PageKind = "contact"
	PageKindProfile   PageKind = "profile"
	PageKindDirectory PageKind = "directory"
	PageKindArticle   PageKind = "article"
	PageKindGeneric   PageKind = "generic"
)

// StructuralOrigin records where on the page an extracted value came from.
type StructuralOrigin string

const (
	OriginStructuredData StructuralOrigin = "structured_data"
	OriginInfobox        StructuralOrigin = "infobox"
	OriginFirstSentence  StructuralOrigin = "first_sentence"
	OriginContactPage    StructuralOrigin = "contact_page"
	OriginGenericText    StructuralOrigin = "generic_text"
)

// Source is a fetched page under consideration for extraction. Created
// on fetch, classified once, never mutated afterwards; content is
// discarded after extraction.
type Source struct {
	URL          string   `json:"url"`
	Domain       string   `json:"domain"`
	Tier         Tier     `json:"tier"`
	Kind         PageKind `json:"kind"`
	Directory    bool     `json:"directory"`
	Blocked      bool     `json:"blocked"`
	AnchorDomain bool     `json:"anchor_domain"`
	Content      *Content `json:"-"`
}

// ContactLike reports whether the page is a contact or about page, the
// kinds whose facts get the contact-page scoring bonus.
func (s Source) ContactLike() bool {
	return s.Kind == PageKindContact || s.Kind == PageKindAbout
}
