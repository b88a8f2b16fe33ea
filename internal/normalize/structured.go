package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/sells-group/persona-cli/internal/model"
)

// jsonLDBlocks parses one ld+json script body into blocks. Malformed
// payloads are skipped, not fatal; broken JSON-LD is everywhere.
func jsonLDBlocks(raw string) []model.Block {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var root any
	if err := json.Unmarshal([]byte(raw), &root); err != nil {
		zap.L().Debug("normalize: skipping malformed json-ld", zap.Error(err))
		return nil
	}
	var blocks []model.Block
	collectLD(root, &blocks)
	return blocks
}

func collectLD(node any, out *[]model.Block) {
	switch t := node.(type) {
	case []any:
		for _, e := range t {
			collectLD(e, out)
		}
	case map[string]any:
		if g, ok := t["@graph"]; ok {
			collectLD(g, out)
			return
		}
		if b := ldBlock(t); len(b.Fields) > 0 {
			*out = append(*out, b)
		}
	}
}

// ldBlock flattens one JSON-LD object into string fields, keeping the
// schema.org type on the block.
func ldBlock(m map[string]any) model.Block {
	b := model.Block{Kind: model.BlockJSONLD, Fields: make(map[string]string)}
	for k, v := range m {
		if strings.HasPrefix(k, "@") {
			if k == "@type" {
				b.Type = typeOf(v)
			}
			continue
		}
		if s := flattenValue(v); s != "" {
			b.Fields[k] = s
		}
	}
	return b
}

// typeOf resolves @type, which may be a string or an array of strings.
func typeOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// flattenValue renders a JSON-LD value as a single string. Nested
// entities collapse to their name; postal addresses collapse to
// locality, region, country.
func flattenValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any:
		if name, ok := t["name"].(string); ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
		return flattenAddress(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			if s := flattenValue(e); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func flattenAddress(m map[string]any) string {
	var parts []string
	for _, k := range []string{"addressLocality", "addressRegion", "addressCountry"} {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, ", ")
}

// infoboxBlock harvests label/value rows from an infobox table.
func infoboxBlock(table *html.Node) model.Block {
	b := model.Block{Kind: model.BlockInfobox, Fields: make(map[string]string)}
	var walkRows func(*html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if label, value := rowCells(n); label != "" && value != "" {
				b.Fields[label] = value
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkRows(c)
		}
	}
	walkRows(table)
	return b
}

func rowCells(tr *html.Node) (label, value string) {
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "th":
			if label == "" {
				label = collapse(textOf(c))
			}
		case "td":
			if value == "" {
				value = collapse(textOf(c))
			}
		}
	}
	return label, value
}
