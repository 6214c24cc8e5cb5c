// Package tabular reads spreadsheet exports (CSV, TSV, XLSX) into a header
// plus string rows so they can be turned into catalog records.
package tabular

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// ErrUnsupportedFormat is returned for files that are not .csv, .tsv or .xlsx.
var ErrUnsupportedFormat = eris.New("unsupported tabular format")

// ErrEmpty is returned when a file has no header row.
var ErrEmpty = eris.New("tabular file has no header row")

// Table is a header row and the data rows beneath it. Rows may be shorter
// or longer than the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Options selects how a file is read.
type Options struct {
	// Sheet names the XLSX sheet to read. Empty reads the first sheet.
	Sheet string
}

// Read loads path from fs, choosing the parser by extension.
func Read(ctx context.Context, fs afero.Fs, path string, opts Options) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".tsv", ".xlsx":
	default:
		return nil, eris.Wrapf(ErrUnsupportedFormat, "tabular: %s", path)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: read %s", path)
	}

	var rows [][]string
	switch ext {
	case ".xlsx":
		rows, err = ReadXLSX(data, XLSXOptions{SheetName: opts.Sheet})
	case ".tsv":
		rows, err = ReadCSV(ctx, bytes.NewReader(data), CSVOptions{Delimiter: '\t', TrimSpace: true, LazyQuotes: true})
	default:
		rows, err = ReadCSV(ctx, bytes.NewReader(data), CSVOptions{TrimSpace: true, LazyQuotes: true})
	}
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: %s", path)
	}
	return NewTable(rows)
}

// NewTable splits rows into header and data, dropping rows with no content.
func NewTable(rows [][]string) (*Table, error) {
	var kept [][]string
	for _, row := range rows {
		if !blank(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmpty
	}
	return &Table{Header: kept[0], Rows: kept[1:]}, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
