// Package extract turns normalized page content into evidence-backed
// candidate facts. Two regimes apply per source, never both: reference
// pages with a structured identity block are read from that block and
// the first declarative sentence only, while all other pages prefer
// structured markup and scan free text in about/contact regions.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/persona-cli/internal/model"
	"github.com/sells-group/persona-cli/internal/normalize"
)

// Extractor proposes facts from one source at a time. Sources never
// share state, so a single Extractor is safe across goroutines.
type Extractor struct {
	fp *model.IdentityFingerprint
}

func New(fp *model.IdentityFingerprint) *Extractor {
	return &Extractor{fp: fp}
}

// Extract produces zero or more validated facts from a source. Blocked
// sources and sources without content contribute nothing; an absent
// field is absence, never a guess.
func (e *Extractor) Extract(src *model.Source) []model.Fact {
	if src == nil || src.Blocked || src.Content == nil {
		return nil
	}
	col := &collector{src: src, fp: e.fp, seen: make(map[string]bool)}
	if src.Kind == model.PageKindReference && hasStructuredIdentity(src.Content) {
		col.reference()
	} else {
		col.general()
	}
	return col.facts
}

// hasStructuredIdentity reports whether the page carries an infobox or a
// schema.org Person block.
func hasStructuredIdentity(c *model.Content) bool {
	if c.HasInfobox {
		return true
	}
	for _, b := range c.Blocks {
		if b.Kind == model.BlockJSONLD && strings.Contains(b.Type, "Person") {
			return true
		}
	}
	return false
}

// collector accumulates facts for a single source, deduplicating
// field/value pairs so structured origins win over free-text repeats.
type collector struct {
	src   *model.Source
	fp    *model.IdentityFingerprint
	seen  map[string]bool
	facts []model.Fact
}

func (c *collector) emit(field, value, evidence string, origin model.StructuralOrigin) {
	value = strings.TrimSpace(value)
	if field == "" || value == "" {
		return
	}
	key := field + "\x00" + strings.ToLower(value)
	if c.seen[key] {
		return
	}
	ok, reason := Validate(field, value, Context{
		Source:      c.src,
		Fingerprint: c.fp,
		Around:      evidence,
		Origin:      origin,
	})
	if !ok {
		zap.L().Debug("extract: rejected candidate value",
			zap.String("field", field),
			zap.String("value", value),
			zap.String("rule", reason),
			zap.String("url", c.src.URL),
		)
		return
	}
	f, err := model.NewFact(field, value, model.EvidenceSnippet{Text: evidence, SourceURL: c.src.URL}, *c.src, origin)
	if err != nil {
		zap.L().Debug("extract: dropping fact", zap.Error(err))
		return
	}
	c.seen[key] = true
	c.facts = append(c.facts, f)
}

// reference reads a reference-style page: infobox rows, Person blocks,
// and the first declarative sentence. Body text is never consulted;
// encyclopedic prose is full of third-party biography.
func (c *collector) reference() {
	content := c.src.Content

	for _, b := range content.InfoboxBlocks() {
		labels := make([]string, 0, len(b.Fields))
		for label := range b.Fields {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			field := infoboxField(label)
			if field == "" {
				continue
			}
			value := b.Fields[label]
			c.emit(field, value, label+": "+value, model.OriginInfobox)
		}
	}

	for _, b := range content.Blocks {
		if b.Kind == model.BlockJSONLD && strings.Contains(b.Type, "Person") {
			c.emitPersonBlock(b)
		}
	}

	if subject, predicate, sentence := firstDeclarative(content.Sentences); subject != "" {
		c.emit(model.FieldFullName, subject, model.SnippetFromMatch(sentence, subject, c.src.URL).Text, model.OriginFirstSentence)
		if p := clipPredicate(predicate); p != "" {
			c.emit(model.FieldProfession, p, model.SnippetFromMatch(sentence, p, c.src.URL).Text, model.OriginFirstSentence)
		}
	}
}

// general reads any other page: structured markup first, then free text
// restricted to about/contact regions.
func (c *collector) general() {
	content := c.src.Content

	for _, b := range content.Blocks {
		if b.Kind == model.BlockJSONLD && strings.Contains(b.Type, "Person") {
			c.emitPersonBlock(b)
		}
	}
	for _, b := range content.StructuredBlocks() {
		if b.Kind == model.BlockOpenGraph && strings.EqualFold(b.Fields["type"], "profile") {
			if title := cutSiteSuffix(b.Fields["title"]); title != "" {
				c.emit(model.FieldFullName, title, "og:title: "+b.Fields["title"], model.OriginStructuredData)
			}
		}
	}

	about := c.aboutScope()
	contact := c.contactScope()

	c.scanEmails(contact, model.OriginContactPage)
	c.scanEmails(about, c.freeTextOrigin())
	c.scanPhones(contact, model.OriginContactPage)
	c.scanPhones(about, c.freeTextOrigin())
	c.scanAboutSentences(about)
}

// emitPersonBlock maps schema.org Person keys onto fields in a fixed
// order so extraction stays deterministic.
var personFieldMap = []struct{ key, field string }{
	{"name", model.FieldFullName},
	{"jobTitle", model.FieldProfession},
	{"worksFor", model.FieldOrganization},
	{"memberOf", model.FieldOrganization},
	{"address", model.FieldLocation},
	{"homeLocation", model.FieldLocation},
	{"email", model.FieldEmail},
	{"telephone", model.FieldPhone},
	{"url", model.FieldWebsite},
	{"birthDate", model.FieldBirthDate},
	{"nationality", model.FieldNationality},
	{"alumniOf", model.FieldEducation},
	{"knowsAbout", model.FieldSpecialty},
	{"award", model.FieldAwards},
}

func (c *collector) emitPersonBlock(b model.Block) {
	for _, m := range personFieldMap {
		value, ok := b.Fields[m.key]
		if !ok {
			continue
		}
		if m.field == model.FieldEmail {
			value = strings.TrimPrefix(value, "mailto:")
		}
		c.emit(m.field, value, m.key+": "+value, model.OriginStructuredData)
	}
}

func (c *collector) aboutScope() string {
	if t := c.src.Content.AboutText; t != "" {
		return t
	}
	if c.src.Kind == model.PageKindAbout || c.src.Kind == model.PageKindProfile {
		return c.src.Content.MainText
	}
	return ""
}

func (c *collector) contactScope() string {
	if t := c.src.Content.ContactText; t != "" {
		return t
	}
	if c.src.Kind == model.PageKindContact {
		return c.src.Content.MainText
	}
	return ""
}

func (c *collector) freeTextOrigin() model.StructuralOrigin {
	if c.src.ContactLike() {
		return model.OriginContactPage
	}
	return model.OriginGenericText
}

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9][A-Za-z0-9._%+-]*@[A-Za-z0-9][A-Za-z0-9.-]*\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{6,16}\d`)

	declarativeRe = regexp.MustCompile(`^((?:(?:Dr|Prof|Mr|Mrs|Ms)\. )?[A-Z][\w.'-]+(?: [A-Z][\w.'-]+){1,3}) (?:is|was) (?:a|an|the) ([^,.;]+)`)
	professionRe  = regexp.MustCompile(`(?i)\b(?:is|was|as) (?:a|an) ([A-Za-z][A-Za-z -]{2,60})`)
	orgRe         = regexp.MustCompile(`\b(?i:works (?:at|for|with)|founder of|co-?founder of|partner at|principal at|director (?:at|of)|practi[cs]es at|ceo of|professor at|chair of) ((?:[A-Z][A-Za-z0-9&.'-]* ?){1,6})`)
	locationRe    = regexp.MustCompile(`\b(?i:based in|located in|living in|lives in|residing in|practi[cs]ing in|from) ([A-Z][A-Za-z.'-]+(?: [A-Z][A-Za-z.'-]+){0,2}, [A-Z][A-Za-z.'-]+(?: [A-Z][A-Za-z.'-]+){0,2})`)
)

func (c *collector) scanEmails(region string, origin model.StructuralOrigin) {
	if region == "" {
		return
	}
	for _, match := range emailRe.FindAllString(region, 5) {
		c.emit(model.FieldEmail, match, model.SnippetFromMatch(region, match, c.src.URL).Text, origin)
	}
}

func (c *collector) scanPhones(region string, origin model.StructuralOrigin) {
	if region == "" {
		return
	}
	for _, match := range phoneRe.FindAllString(region, 5) {
		value := strings.TrimSpace(match)
		c.emit(model.FieldPhone, value, model.SnippetFromMatch(region, value, c.src.URL).Text, origin)
	}
}

// scanAboutSentences applies the profession, organization, and location
// patterns sentence by sentence, so validator context stays local to the
// sentence the value came from.
func (c *collector) scanAboutSentences(region string) {
	if region == "" {
		return
	}
	origin := c.freeTextOrigin()
	for _, sentence := range normalize.SplitSentences(region) {
		for _, m := range professionRe.FindAllStringSubmatch(sentence, 3) {
			if p := clipPredicate(m[1]); p != "" {
				c.emit(model.FieldProfession, p, model.SnippetFromMatch(sentence, p, c.src.URL).Text, origin)
			}
		}
		for _, m := range orgRe.FindAllStringSubmatch(sentence, 3) {
			value := strings.TrimSpace(m[1])
			c.emit(model.FieldOrganization, value, model.SnippetFromMatch(sentence, value, c.src.URL).Text, origin)
		}
		for _, m := range locationRe.FindAllStringSubmatch(sentence, 3) {
			value := strings.TrimSpace(m[1])
			c.emit(model.FieldLocation, value, model.SnippetFromMatch(sentence, value, c.src.URL).Text, origin)
		}
	}
}

// firstDeclarative finds the earliest "X is a/an ..." sentence near the
// top of the document and returns its subject and predicate.
func firstDeclarative(sentences []string) (subject, predicate, sentence string) {
	limit := 5
	if len(sentences) < limit {
		limit = len(sentences)
	}
	for _, s := range sentences[:limit] {
		if m := declarativeRe.FindStringSubmatch(s); m != nil {
			return m[1], strings.TrimSpace(m[2]), s
		}
	}
	return "", "", ""
}

// predicateStops cut a captured predicate down to its head noun phrase.
var predicateStops = []string{
	" who ", " that ", " which ", " and ", " based ", " from ", " at ",
	" in ", " with ", " since ", " known ", " practicing ", " practising ",
	" working ", " serving ", " specializing ", " specialising ",
}

func clipPredicate(p string) string {
	p += " "
	cut := len(p)
	for _, stop := range predicateStops {
		if i := strings.Index(p, stop); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.Trim(p[:cut], " .,")
}

// cutSiteSuffix strips the "| Site Name" tail common in page titles.
func cutSiteSuffix(title string) string {
	for _, sep := range []string{" | ", " - ", " – "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
			break
		}
	}
	return strings.TrimSpace(title)
}

// infoboxField maps an infobox row label onto a canonical field name.
func infoboxField(label string) string {
	label = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(label), ":"))
	switch label {
	case "occupation", "occupations", "profession":
		return model.FieldProfession
	case "born":
		return model.FieldBirthDate
	case "nationality", "citizenship":
		return model.FieldNationality
	case "known for":
		return model.FieldKnownFor
	case "alma mater", "education":
		return model.FieldEducation
	case "notable works", "works":
		return model.FieldWorks
	case "awards", "honours", "honors":
		return model.FieldAwards
	case "website":
		return model.FieldWebsite
	case "specialty", "speciality", "field", "fields":
		return model.FieldSpecialty
	case "institution", "institutions", "employer", "organization", "organisation":
		return model.FieldOrganization
	case "residence":
		return model.FieldLocation
	default:
		return ""
	}
}
