// Package roster loads batch subject lists from spreadsheet files.
package roster

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Entry is one subject to look up. Only Name is required; the rest are
// anchors.
type Entry struct {
	Name         string
	Domain       string
	Organization string
	City         string
	Handle       string
	KnownURL     string
}

// columnAliases maps canonical entry fields to accepted header names.
// Headers are matched case-insensitively with spaces, hyphens and
// underscores treated alike.
var columnAliases = map[string][]string{
	"name":         {"name", "full name", "subject", "person"},
	"domain":       {"domain", "website", "site"},
	"organization": {"organization", "organisation", "company", "org", "employer"},
	"city":         {"city", "location"},
	"handle":       {"handle", "username", "social", "twitter"},
	"known_url":    {"known url", "url", "profile url", "link"},
}

// Load reads a roster file, dispatching on extension. Supported:
// .csv and .xlsx.
func Load(path string) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".xlsx":
		return loadXLSX(path)
	default:
		return nil, eris.Errorf("roster: unsupported file type %q", filepath.Ext(path))
	}
}

func loadCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "roster: open csv")
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "roster: read header")
	}
	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "roster: read row")
		}
		appendEntry(&entries, columns, record)
	}
	return entries, nil
}

func loadXLSX(path string) ([]Entry, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "roster: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("roster: workbook has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("roster: sheet is empty")
	}

	columns, err := mapHeader(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, row := range sheet.Rows[1:] {
		appendEntry(&entries, columns, rowToStrings(row))
	}
	return entries, nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

// mapHeader resolves header names to entry fields. A name column is
// required; everything else is optional.
func mapHeader(header []string) (map[int]string, error) {
	columns := make(map[int]string)
	for i, raw := range header {
		key := normalizeHeader(raw)
		for field, aliases := range columnAliases {
			for _, alias := range aliases {
				if key == alias {
					columns[i] = field
				}
			}
		}
	}

	for _, field := range columns {
		if field == "name" {
			return columns, nil
		}
	}
	return nil, eris.Errorf("roster: no name column in header %v", header)
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", " ")
	h = strings.ReplaceAll(h, "-", " ")
	return strings.Join(strings.Fields(h), " ")
}

func appendEntry(entries *[]Entry, columns map[int]string, row []string) {
	var e Entry
	for i, field := range columns {
		if i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		switch field {
		case "name":
			e.Name = value
		case "domain":
			e.Domain = value
		case "organization":
			e.Organization = value
		case "city":
			e.City = value
		case "handle":
			e.Handle = value
		case "known_url":
			e.KnownURL = value
		}
	}
	if e.Name == "" {
		if len(row) > 0 {
			zap.L().Warn("roster: skipping row without a name", zap.Strings("row", row))
		}
		return
	}
	*entries = append(*entries, e)
}
