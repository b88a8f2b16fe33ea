package extract

import "strings"

// professionVocab is the controlled occupation vocabulary. A profession
// candidate must contain at least one of these words.
var professionVocab = []string{
	"doctor", "dentist", "physician", "surgeon", "cardiologist",
	"dermatologist", "orthodontist", "pediatrician", "psychiatrist",
	"psychologist", "nurse", "therapist", "physiotherapist", "pharmacist",
	"veterinarian", "dietitian",
	"engineer", "architect", "developer", "programmer", "designer",
	"scientist", "researcher", "professor", "lecturer", "teacher",
	"historian", "economist",
	"lawyer", "advocate", "attorney", "judge", "barrister",
	"accountant", "consultant", "analyst", "banker", "investor",
	"entrepreneur", "founder", "manager", "executive", "officer",
	"cricketer", "footballer", "athlete", "boxer", "swimmer", "golfer",
	"actor", "actress", "singer", "musician", "artist", "dancer",
	"author", "writer", "journalist", "editor", "director", "producer",
	"photographer", "chef", "pilot", "politician", "diplomat",
}

// kinshipWords mark statements about relatives, never about the subject.
var kinshipWords = []string{
	"father", "mother", "brother", "sister", "son", "daughter",
	"wife", "husband", "uncle", "aunt", "cousin", "nephew", "niece",
	"grandfather", "grandmother", "parents", "sibling",
}

// reportedSpeechMarkers signal quoted or attributed statements about a
// third party.
var reportedSpeechMarkers = []string{
	"according to", "said", "told", "claimed", "quoted",
}

// freeMailProviders are consumer mail domains. Addresses on them only
// count when found on the subject's own domain.
var freeMailProviders = map[string]bool{
	"gmail.com":      true,
	"googlemail.com": true,
	"yahoo.com":      true,
	"yahoo.co.in":    true,
	"hotmail.com":    true,
	"outlook.com":    true,
	"live.com":       true,
	"aol.com":        true,
	"icloud.com":     true,
	"protonmail.com": true,
	"proton.me":      true,
	"mail.com":       true,
	"rediffmail.com": true,
	"zoho.com":       true,
}

// sportsEventWords collide with location shapes (venues, clubs, fixtures).
var sportsEventWords = map[string]bool{
	"stadium":      true,
	"arena":        true,
	"league":       true,
	"cup":          true,
	"championship": true,
	"tournament":   true,
	"olympics":     true,
	"fc":           true,
	"united":       true,
	"trophy":       true,
}

// orgConnectors may stay lowercase inside an otherwise title-case name.
var orgConnectors = map[string]bool{
	"of": true, "and": true, "the": true, "for": true,
	"de": true, "la": true, "&": true,
}

// prepositions that disqualify an organization value when leading.
var leadingPrepositions = map[string]bool{
	"of": true, "at": true, "in": true, "for": true, "by": true,
	"with": true, "from": true, "on": true, "to": true,
}

func containsProfessionWord(v string) bool {
	lower := strings.ToLower(v)
	for _, w := range professionVocab {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func containsKinship(v string) bool {
	lower := " " + strings.ToLower(v) + " "
	for _, w := range kinshipWords {
		if strings.Contains(lower, " "+w+" ") || strings.Contains(lower, " "+w+"'s ") {
			return true
		}
	}
	return false
}

func containsReportedSpeech(v string) bool {
	lower := strings.ToLower(v)
	for _, w := range reportedSpeechMarkers {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
