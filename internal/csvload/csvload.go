// Package csvload reads a CSV file into a core.Frame for promotion into an
// embedded engine. Column types are inferred over the whole file: a column
// gets the widest type that accepts every non-empty cell.
package csvload

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tabular-ai/sqlgate/pkg/core"
)

// dateLayouts are the datetime shapes accepted during inference.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Load reads the CSV file at path into a frame. The first row must be a
// header row.
func Load(path string) (core.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Frame{}, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read reads CSV data from r into a frame.
func Read(r io.Reader) (core.Frame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return core.Frame{}, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return core.Frame{}, fmt.Errorf("CSV input is empty, header row required")
	}

	header := records[0]
	cells := records[1:]

	kinds := make([]cellKind, len(header))
	for i := range kinds {
		kinds[i] = inferColumn(cells, i)
	}

	frame := core.Frame{Columns: header}
	for _, record := range cells {
		row := make([]any, len(header))
		for i, cell := range record {
			row[i] = convert(cell, kinds[i])
		}
		frame.Rows = append(frame.Rows, row)
	}

	if err := frame.Validate(); err != nil {
		return core.Frame{}, err
	}
	return frame, nil
}

type cellKind int

const (
	kindInt cellKind = iota
	kindFloat
	kindBool
	kindTime
	kindText
)

// inferColumn finds the widest kind accepting every non-empty cell in
// column i. Empty cells become NULL and do not constrain the type.
func inferColumn(records [][]string, i int) cellKind {
	kind := kindInt
	seen := false
	for _, record := range records {
		cell := strings.TrimSpace(record[i])
		if cell == "" {
			continue
		}
		if !seen {
			kind = kindOf(cell)
			seen = true
			continue
		}
		kind = widen(kind, cell)
		if kind == kindText {
			break
		}
	}
	if !seen {
		return kindText
	}
	return kind
}

func kindOf(cell string) cellKind {
	if _, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return kindInt
	}
	if _, err := strconv.ParseFloat(cell, 64); err == nil {
		return kindFloat
	}
	if isBool(cell) {
		return kindBool
	}
	if isTime(cell) {
		return kindTime
	}
	return kindText
}

// widen returns the narrowest kind that accepts both the current kind and
// the new cell. Int widens to float; everything else mismatching is text.
func widen(kind cellKind, cell string) cellKind {
	next := kindOf(cell)
	if next == kind {
		return kind
	}
	if (kind == kindInt && next == kindFloat) || (kind == kindFloat && next == kindInt) {
		return kindFloat
	}
	return kindText
}

func convert(cell string, kind cellKind) any {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}
	switch kind {
	case kindInt:
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case kindFloat:
		v, _ := strconv.ParseFloat(cell, 64)
		return v
	case kindBool:
		return strings.EqualFold(cell, "true")
	case kindTime:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, cell); err == nil {
				return t
			}
		}
		return cell
	default:
		return cell
	}
}

func isBool(cell string) bool {
	return strings.EqualFold(cell, "true") || strings.EqualFold(cell, "false")
}

func isTime(cell string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, cell); err == nil {
			return true
		}
	}
	return false
}
