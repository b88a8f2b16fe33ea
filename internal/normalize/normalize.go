// Package normalize turns raw HTML into model.Content: cleaned visible
// text, a sentence list, structured blocks (JSON-LD, OpenGraph, infobox
// tables), and the about/contact region text that downstream extraction
// is allowed to read free text from.
package normalize

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"

	"github.com/sells-group/persona-cli/internal/model"
)

const (
	minSentenceLen = 12
	maxSentenceLen = 600
	maxRegionLen   = 4000
)

// skipTags are elements whose subtrees never contribute visible text.
var skipTags = map[string]bool{
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
}

// aboutMarkers and contactMarkers match id/class attribute values that
// flag the page regions free-text extraction may read from.
var (
	aboutMarkers   = []string{"about", "bio", "team", "profile-summary"}
	contactMarkers = []string{"contact", "get-in-touch", "reach-us"}
)

// Normalize parses raw HTML into Content. A parse failure is an error;
// an empty page is not.
func Normalize(rawHTML string) (*model.Content, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, eris.Wrap(err, "normalize: parse html")
	}

	w := &walker{meta: make(map[string]string)}
	w.walk(doc, false, false)

	if len(w.og) > 0 {
		w.blocks = append(w.blocks, model.Block{Kind: model.BlockOpenGraph, Fields: w.og})
	}

	title := w.title
	if title == "" {
		title = w.og["title"]
	}

	main := collapse(w.text.String())
	return &model.Content{
		Title:       title,
		MainText:    main,
		Sentences:   SplitSentences(main),
		Blocks:      w.blocks,
		Meta:        w.meta,
		HasInfobox:  w.hasInfobox,
		AboutText:   capRunes(collapse(w.about.String()), maxRegionLen),
		ContactText: capRunes(collapse(w.contact.String()), maxRegionLen),
	}, nil
}

// walker accumulates page state over a single DOM traversal.
type walker struct {
	title      string
	text       strings.Builder
	about      strings.Builder
	contact    strings.Builder
	blocks     []model.Block
	meta       map[string]string
	og         map[string]string
	hasInfobox bool
}

func (w *walker) walk(n *html.Node, inAbout, inContact bool) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script":
			if strings.EqualFold(attr(n, "type"), "application/ld+json") {
				w.blocks = append(w.blocks, jsonLDBlocks(rawText(n))...)
			}
			return
		case "title":
			if w.title == "" {
				w.title = collapse(textOf(n))
			}
			return
		case "meta":
			w.harvestMeta(n)
			return
		case "table":
			// Infobox rows are harvested as a structured block and kept
			// out of the prose text.
			if attrContains(n, "class", "infobox") {
				if b := infoboxBlock(n); len(b.Fields) > 0 {
					w.blocks = append(w.blocks, b)
					w.hasInfobox = true
				}
				return
			}
		}
		if skipTags[n.Data] {
			return
		}
		if !inAbout && regionMatches(n, aboutMarkers) {
			inAbout = true
		}
		if !inContact && regionMatches(n, contactMarkers) {
			inContact = true
		}
	}

	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			w.text.WriteString(t)
			w.text.WriteString(" ")
			if inAbout {
				w.about.WriteString(t)
				w.about.WriteString(" ")
			}
			if inContact {
				w.contact.WriteString(t)
				w.contact.WriteString(" ")
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, inAbout, inContact)
	}
}

func (w *walker) harvestMeta(n *html.Node) {
	content := strings.TrimSpace(attr(n, "content"))
	if content == "" {
		return
	}
	if prop := strings.ToLower(attr(n, "property")); strings.HasPrefix(prop, "og:") {
		w.meta[prop] = content
		key := strings.TrimPrefix(prop, "og:")
		if w.og == nil {
			w.og = make(map[string]string)
		}
		if _, dup := w.og[key]; !dup {
			w.og[key] = content
		}
		return
	}
	switch name := strings.ToLower(attr(n, "name")); name {
	case "description", "author", "keywords", "twitter:title", "twitter:description":
		w.meta[name] = content
	}
}

// regionMatches reports whether the element's id or class carries one of
// the marker tokens.
func regionMatches(n *html.Node, markers []string) bool {
	hay := strings.ToLower(attr(n, "id") + " " + attr(n, "class"))
	if strings.TrimSpace(hay) == "" {
		return false
	}
	for _, m := range markers {
		if strings.Contains(hay, m) {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func attrContains(n *html.Node, key, substr string) bool {
	return strings.Contains(strings.ToLower(attr(n, key)), substr)
}

// textOf returns the visible text of a subtree.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || skipTags[n.Data]) {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				sb.WriteString(t)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// rawText returns the unmodified text children of a node. Script bodies
// must keep their whitespace for JSON parsing.
func rawText(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// SplitSentences splits prose into sentences, guarding against common
// abbreviations and initials so honorific names survive intact.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if len(s) >= minSentenceLen && len(s) <= maxSentenceLen {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)
		switch r {
		case '!', '?':
			if i+1 < len(text) && text[i+1] == ' ' {
				flush()
			}
		case '.':
			if i+1 < len(text) && text[i+1] == ' ' && !endsWithAbbrev(current.String()) {
				flush()
			}
		}
	}
	if current.Len() > 0 {
		flush()
	}
	return sentences
}

var abbrevs = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"st": true, "jr": true, "sr": true, "no": true, "vs": true,
	"inc": true, "ltd": true, "co": true, "al": true, "etc": true,
}

func endsWithAbbrev(s string) bool {
	s = strings.TrimRight(s, ".")
	last := s
	if i := strings.LastIndexAny(s, " \t"); i >= 0 {
		last = s[i+1:]
	}
	last = strings.ToLower(last)
	if last == "" {
		return false
	}
	if len(last) == 1 || strings.Contains(last, ".") {
		return true
	}
	return abbrevs[last]
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func capRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
