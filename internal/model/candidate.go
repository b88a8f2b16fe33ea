package model

import "sort"

// Candidate is a proposed identity binding for a subject name: a domain
// plus whatever organization/location hints the search results carried.
// The resolver produces a ranked list; the caller (or an exact anchor
// match) selects exactly one.
type Candidate struct {
	Name         string   `json:"name"`
	Domain       string   `json:"domain"`
	Organization string   `json:"organization,omitempty"`
	Location     string   `json:"location,omitempty"`
	URLs         []string `json:"urls"`
	RankScore    int      `json:"rank_score"`
	Reasons      []string `json:"reasons,omitempty"`
}

// SortCandidates orders candidates by rank score descending; ties break
// toward the shorter domain so canonical root domains beat sub-paths.
func SortCandidates(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].RankScore != cands[j].RankScore {
			return cands[i].RankScore > cands[j].RankScore
		}
		if len(cands[i].Domain) != len(cands[j].Domain) {
			return len(cands[i].Domain) < len(cands[j].Domain)
		}
		return cands[i].Domain < cands[j].Domain
	})
}
