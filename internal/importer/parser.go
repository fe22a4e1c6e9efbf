// Package importer reads item exports (CSV) into aggregation records.
package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	enc "github.com/MrJamesThe3rd/reclaim/internal/encoding"
	"github.com/MrJamesThe3rd/reclaim/internal/impact"
)

// Result is a parsed export.
type Result struct {
	Profile string
	Charset enc.Charset
	Records []impact.Record
}

// Parser auto-detects the delimiter, charset and column profile of an
// item export. Rows that cannot be read into a complete record are kept
// with empty fields so aggregation counts them as skipped.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) (*Result, error) {
	utf8r, charset, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	head, _ := br.Peek(1024)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(string(head))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	profile, cols, headerIdx := detectProfile(rows)
	if profile == nil {
		return nil, fmt.Errorf("no matching export format: expected product type, grade and a status or reused/resold/scrapped columns")
	}

	records := parseRows(profile, cols, rows[headerIdx+1:])

	slog.Debug("parsed item export", "profile", profile.Name, "charset", charset, "records", len(records))

	return &Result{Profile: profile.Name, Charset: charset, Records: records}, nil
}

// sniffDelimiter picks the candidate that splits some leading line into the
// most fields. Preamble lines before the header contribute nothing.
func sniffDelimiter(head string) rune {
	best, bestCount := ',', 0

	for line := range strings.Lines(head) {
		for _, c := range []rune{',', ';', '\t', '|'} {
			if n := strings.Count(line, string(c)); n > bestCount {
				best, bestCount = c, n
			}
		}
	}

	return best
}

// colIndex maps lower-cased column names to their index in the row.
type colIndex map[string]int

func (c colIndex) find(aliases []string) (int, bool) {
	for _, a := range aliases {
		if i, ok := c[a]; ok {
			return i, true
		}
	}

	return 0, false
}

func detectProfile(rows [][]string) (*Profile, colIndex, int) {
	for rowIdx, row := range rows {
		cols := make(colIndex)

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = i
			}
		}

		for i := range profiles {
			if matchesProfile(&profiles[i], cols) {
				return &profiles[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, aliases := range p.required() {
		if _, ok := cols.find(aliases); !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, rows [][]string) []impact.Record {
	cell := func(row []string, aliases []string) string {
		i, ok := cols.find(aliases)
		if !ok || i >= len(row) {
			return ""
		}

		return strings.TrimSpace(row[i])
	}

	var out []impact.Record

	for _, row := range rows {
		if blank(row) {
			continue
		}

		rec := impact.Record{
			ID:          cell(row, p.IDCols),
			ProductType: cell(row, p.TypeCols),
			Grade:       cell(row, p.GradeCols),
		}

		switch p.Mode {
		case dispositionStatus:
			if s := cell(row, p.StatusCols); s != "" {
				rec.Disposition = impact.Status(s)
			}
		case dispositionFlags:
			rec.Disposition = impact.Flags{
				Reused:   truthy(cell(row, p.ReusedCols)),
				Resold:   truthy(cell(row, p.ResoldCols)),
				Scrapped: truthy(cell(row, p.ScrappedCols)),
			}
		}

		out = append(out, rec)
	}

	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "x", "ja", "oui", "sí", "si":
		return true
	}

	return false
}
