package model

// Outcome is the terminal state of a lookup.
type Outcome string

const (
	OutcomeResolved  Outcome = "resolved"
	OutcomeAmbiguous Outcome = "ambiguous" // candidate list returned, caller must pick
	OutcomeNotFound  Outcome = "not_found" // zero candidates, a normal result
)

// ResolvedIdentity names the single identity the run bound to.
type ResolvedIdentity struct {
	Name         string `json:"name"`
	Domain       string `json:"domain,omitempty"`
	Organization string `json:"organization,omitempty"`
}

// AboutEntry is one confirmed field in the about table.
type AboutEntry struct {
	Value      string     `json:"value"`
	Confidence Confidence `json:"confidence"`
	Sources    []string   `json:"sources"`
}

// Mention is a value that stayed below the confirmation bar, shown with
// its sources but excluded from the about table.
type Mention struct {
	Value   string   `json:"value"`
	Sources []string `json:"sources"`
}

// FactCount summarizes how many candidate values were seen versus
// confirmed.
type FactCount struct {
	TotalCandidates int `json:"total_candidates"`
	Confirmed       int `json:"confirmed"`
}

// Profile is the assembled output of a run. Always well-formed: an empty
// about table is a valid result, not a failure.
type Profile struct {
	ResolvedIdentity ResolvedIdentity      `json:"resolved_identity"`
	RolePack         RolePack              `json:"role_pack"`
	AboutTable       map[string]AboutEntry `json:"about_table"`
	PublicMentions   map[string][]Mention  `json:"public_mentions"`
	Bio              *string               `json:"bio"`
	Sources          []string              `json:"sources"`
	FactCount        FactCount             `json:"fact_count"`
	NeedsReview      []string              `json:"needs_review"`
	Outcome          Outcome               `json:"outcome"`
	Candidates       []Candidate           `json:"candidates,omitempty"`
}
