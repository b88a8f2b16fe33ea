package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/persona-cli/internal/model"
)

// Context carries what a validator may consult besides the value itself:
// the source the value came from, the text surrounding the match, and the
// structural origin of the extraction.
type Context struct {
	Source      *model.Source
	Fingerprint *model.IdentityFingerprint
	Around      string
	Origin      model.StructuralOrigin
}

func (c Context) structured() bool {
	return c.Origin == model.OriginStructuredData || c.Origin == model.OriginInfobox
}

// rule is one reject predicate. A field's rules run in order; the first
// rejection wins and names the rule in the debug log.
type rule struct {
	name   string
	reject func(value string, ctx Context) bool
}

// noiseRe matches list/category/filter/navigation vocabulary. A value
// matched inside such context is discarded regardless of field.
var noiseRe = regexp.MustCompile(`(?i)(categor(?:y|ies):|filter by|sort(?:ed)? by|tags:|related searches|you may also like|sign in|log ?in|subscribe|privacy policy|terms of (?:use|service)|next page|more results|all listings)`)

var (
	emailGrammarRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._%+-]*@[a-z0-9][a-z0-9.-]*\.[a-z]{2,}$`)
	phoneLabelRe   = regexp.MustCompile(`(?i)\b(?:phone|tel|telephone|call|mobile|contact|helpline)\b`)
	digitRe        = regexp.MustCompile(`\d`)
)

// fieldRules is the validator registry: each field maps to an ordered
// list of reject predicates evaluated before a value can become a fact.
var fieldRules = map[string][]rule{
	model.FieldOrganization: {
		{name: "org_shape", reject: orgShapeReject},
	},
	model.FieldProfession: {
		{name: "kinship", reject: func(v string, ctx Context) bool {
			return containsKinship(v) || containsKinship(ctx.Around)
		}},
		{name: "reported_speech", reject: func(_ string, ctx Context) bool {
			return !ctx.structured() && containsReportedSpeech(ctx.Around)
		}},
		{name: "too_long", reject: func(v string, _ Context) bool {
			return len(v) >= 60
		}},
		{name: "vocabulary", reject: func(v string, _ Context) bool {
			return !containsProfessionWord(v)
		}},
	},
	model.FieldLocation: {
		{name: "location_shape", reject: locationShapeReject},
		{name: "sports_collision", reject: func(v string, _ Context) bool {
			for _, tok := range strings.Fields(strings.ToLower(strings.ReplaceAll(v, ",", " "))) {
				if sportsEventWords[tok] {
					return true
				}
			}
			return false
		}},
	},
	model.FieldEmail: {
		{name: "email_grammar", reject: func(v string, _ Context) bool {
			lower := strings.ToLower(v)
			return strings.Contains(lower, "..") || !emailGrammarRe.MatchString(lower)
		}},
		{name: "free_provider", reject: func(v string, ctx Context) bool {
			at := strings.LastIndex(v, "@")
			if at < 0 {
				return true
			}
			if !freeMailProviders[strings.ToLower(v[at+1:])] {
				return false
			}
			return ctx.Source == nil || !ctx.Source.AnchorDomain
		}},
	},
	model.FieldPhone: {
		{name: "tier_c", reject: func(_ string, ctx Context) bool {
			return ctx.Source != nil && ctx.Source.Tier == model.TierC
		}},
		{name: "digits", reject: func(v string, _ Context) bool {
			n := countDigits(v)
			return n < 8 || n > 15
		}},
		{name: "label_required", reject: func(_ string, ctx Context) bool {
			if ctx.structured() || ctx.Origin == model.OriginContactPage {
				return false
			}
			if ctx.Source != nil && ctx.Source.ContactLike() {
				return false
			}
			return !phoneLabelRe.MatchString(ctx.Around)
		}},
	},
	model.FieldFullName: {
		{name: "name_shape", reject: nameShapeReject},
	},
	model.FieldWebsite: {
		{name: "url_shape", reject: func(v string, _ Context) bool {
			u, err := url.Parse(v)
			if err != nil {
				return true
			}
			return (u.Scheme != "http" && u.Scheme != "https") || u.Host == ""
		}},
	},
	model.FieldNationality: {
		{name: "nationality_shape", reject: func(v string, _ Context) bool {
			return len(v) > 40 || digitRe.MatchString(v)
		}},
	},
	model.FieldBirthDate: {
		{name: "date_shape", reject: func(v string, _ Context) bool {
			return len(v) > 60 || !digitRe.MatchString(v)
		}},
	},
	model.FieldKnownFor:     {maxLenRule(120)},
	model.FieldSpecialty:    {maxLenRule(120)},
	model.FieldCredentials:  {maxLenRule(120)},
	model.FieldEducation:    {maxLenRule(120)},
	model.FieldWorks:        {maxLenRule(120)},
	model.FieldAwards:       {maxLenRule(120)},
	model.FieldIndustry:     {maxLenRule(120)},
	model.FieldResearchArea: {maxLenRule(120)},
}

func maxLenRule(n int) rule {
	return rule{name: "too_long", reject: func(v string, _ Context) bool {
		return len(v) > n
	}}
}

// Validate runs the contextual noise gate and then the field's rules in
// order. It returns false with the name of the rejecting rule; a field
// with no registered rules passes on the noise gate alone.
func Validate(field, value string, ctx Context) (bool, string) {
	if noiseRe.MatchString(ctx.Around) {
		return false, "contextual_noise"
	}
	for _, r := range fieldRules[field] {
		if r.reject(value, ctx) {
			return false, r.name
		}
	}
	return true, ""
}

// orgShapeReject accepts 2-6 title-case tokens not led by a preposition,
// or any value that squashes to an anchor domain's name.
func orgShapeReject(v string, ctx Context) bool {
	if anchorNameMatch(v, ctx.Fingerprint) {
		return false
	}
	tokens := strings.Fields(v)
	if len(tokens) < 2 || len(tokens) > 6 {
		return true
	}
	if leadingPrepositions[strings.ToLower(tokens[0])] {
		return true
	}
	caser := cases.Title(language.English)
	for _, tok := range tokens {
		if !isTitleToken(tok, caser) {
			return true
		}
	}
	return false
}

func isTitleToken(tok string, caser cases.Caser) bool {
	if orgConnectors[strings.ToLower(tok)] {
		return true
	}
	if caser.String(strings.ToLower(tok)) == tok {
		return true
	}
	if tok == strings.ToUpper(tok) {
		return true
	}
	// Punctuated brand names keep their internal capitals.
	first, _ := firstRune(tok)
	return unicode.IsUpper(first) && strings.ContainsAny(tok, "'.-&")
}

// anchorNameMatch reports whether the value, squashed to lowercase
// letters, equals the name part of any fingerprint domain.
func anchorNameMatch(v string, fp *model.IdentityFingerprint) bool {
	if fp == nil {
		return false
	}
	squashed := squash(v)
	if squashed == "" {
		return false
	}
	for _, d := range fp.Domains {
		d = strings.TrimPrefix(d, "www.")
		if label, _, ok := strings.Cut(d, "."); ok && label == squashed {
			return true
		}
	}
	return false
}

func squash(v string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(v) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// locationShapeReject requires a "City, Region" shape of title-case
// parts. Values from structured fields skip the shape requirement.
func locationShapeReject(v string, ctx Context) bool {
	if ctx.structured() {
		return strings.TrimSpace(v) == ""
	}
	parts := strings.Split(v, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return true
	}
	for _, p := range parts {
		tokens := strings.Fields(strings.TrimSpace(p))
		if len(tokens) == 0 || len(tokens) > 3 {
			return true
		}
		for _, tok := range tokens {
			first, _ := firstRune(tok)
			if !unicode.IsUpper(first) {
				return true
			}
		}
	}
	return false
}

// nameShapeReject accepts 2-4 capitalized tokens, with an optional
// honorific, and no digits.
func nameShapeReject(v string, _ Context) bool {
	if len(v) > 60 || digitRe.MatchString(v) {
		return true
	}
	tokens := strings.Fields(v)
	if len(tokens) > 0 {
		switch tokens[0] {
		case "Dr.", "Prof.", "Mr.", "Mrs.", "Ms.":
			tokens = tokens[1:]
		}
	}
	if len(tokens) < 2 || len(tokens) > 4 {
		return true
	}
	for _, tok := range tokens {
		first, _ := firstRune(tok)
		if !unicode.IsUpper(first) {
			return true
		}
	}
	return false
}

func firstRune(s string) (rune, bool) {
	for _, r := range s {
		return r, true
	}
	return 0, false
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
