package model

// Confidence labels a resolved field by independent-source agreement on
// its top value.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"   // >=3 sources agree
	ConfidenceMedium Confidence = "medium" // exactly 2
	ConfidenceLow    Confidence = "low"    // single source
)

// FieldStatus is the publication gate for a resolved field.
type FieldStatus string

const (
	StatusConfirmed     FieldStatus = "confirmed"
	StatusPublicMention FieldStatus = "public_mention"
)

// ValueGroup is one distinct value for a field after collapsing
// exact duplicates across sources.
type ValueGroup struct {
	Value        string             `json:"value"`
	Score        int                `json:"score"`
	Sources      []string           `json:"sources"`
	Domains      []string           `json:"domains"`
	Evidence     []EvidenceSnippet  `json:"evidence"`
	BestTier     Tier               `json:"best_tier"`
	Origins      []StructuralOrigin `json:"origins"`
	AnchorDomain bool               `json:"anchor_domain"`
	AnchorMatch  bool               `json:"anchor_match"`
}

// Corroboration returns the number of independent sources (distinct
// domains) backing the value.
func (g ValueGroup) Corroboration() int {
	return len(g.Domains)
}

// ResolvedField is the aggregation output for one field name: distinct
// values ordered by aggregate score, an overall confidence, and the
// confirmed/mention decision for the top value.
type ResolvedField struct {
	Field       string       `json:"field"`
	Values      []ValueGroup `json:"values"`
	Confidence  Confidence   `json:"confidence"`
	Status      FieldStatus  `json:"status"`
	NeedsReview bool         `json:"needs_review"`
}

// Top returns the highest-scored value group, or nil when the field
// resolved to nothing.
func (rf ResolvedField) Top() *ValueGroup {
	if len(rf.Values) == 0 {
		return nil
	}
	return &rf.Values[0]
}
