package model

// BlockKind distinguishes the structured-data block types harvested from
// a page.
type BlockKind string

const (
	BlockJSONLD    BlockKind = "json_ld"
	BlockOpenGraph BlockKind = "open_graph"
	BlockInfobox   BlockKind = "infobox"
)

// Block is one structured-data block: a flat key/value view of a JSON-LD
// object, the OpenGraph metas, or an infobox table.
type Block struct {
	Kind   BlockKind         `json:"kind"`
	Type   string            `json:"type,omitempty"` // schema.org @type for JSON-LD blocks
	Fields map[string]string `json:"fields"`
}

// Content is the normalized payload of a fetched page: cleaned main text
// plus the structured blocks extractors prefer over free text.
type Content struct {
	Title       string            `json:"title"`
	MainText    string            `json:"main_text"`
	Sentences   []string          `json:"sentences,omitempty"`
	Blocks      []Block           `json:"blocks,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
	HasInfobox  bool              `json:"has_infobox"`
	AboutText   string            `json:"about_text,omitempty"`
	ContactText string            `json:"contact_text,omitempty"`
}

// InfoboxBlocks returns only the infobox blocks.
func (c *Content) InfoboxBlocks() []Block {
	var out []Block
	for _, b := range c.Blocks {
		if b.Kind == BlockInfobox {
			out = append(out, b)
		}
	}
	return out
}

// StructuredBlocks returns the JSON-LD and OpenGraph blocks.
func (c *Content) StructuredBlocks() []Block {
	var out []Block
	for _, b := range c.Blocks {
		if b.Kind == BlockJSONLD || b.Kind == BlockOpenGraph {
			out = append(out, b)
		}
	}
	return out
}
