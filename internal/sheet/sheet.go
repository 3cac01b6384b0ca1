// Package sheet reads and writes the tabular files the converter works on.
//
// Two formats are supported, chosen by file extension: Excel workbooks
// (.xlsx, and .xlsm for reading) and comma-separated text (.csv). Every table
// is a header row followed by data rows, all cells held as text.
package sheet

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions other than xlsx, xlsm and csv.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrNoHeader is returned when a file holds no header row.
	ErrNoHeader = errors.New("spreadsheet has no header row")
	// ErrReadOnlyFormat is returned when writing to a format that can only be read.
	ErrReadOnlyFormat = errors.New("spreadsheet format is read-only")
)

// Format identifies the on-disk encoding of a table.
type Format int

const (
	FormatXLSX Format = iota + 1
	FormatCSV
)

// Table is a loaded spreadsheet. Every row has exactly len(Header) cells.
type Table struct {
	Path   string
	Hash   string
	Sheet  string
	Header []string
	Rows   [][]string

	// BOM records that a CSV source started with a UTF-8 byte order mark.
	BOM bool

	// origin is set for tables read from an .xlsx workbook and carried by
	// Derive, so writing back to .xlsx only touches cells whose text changed.
	origin *origin
}

type origin struct {
	workbook []byte
	header   []string
	rows     [][]string
}

// Derive returns a table with new content that keeps t's source. Cells that
// still hold the text they were read with keep their original type and style
// when the result is written to a workbook.
func (t *Table) Derive(header []string, rows [][]string) *Table {
	return &Table{
		Sheet:  t.Sheet,
		Header: header,
		Rows:   rows,
		BOM:    t.BOM,
		origin: t.origin,
	}
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Writable returns the format Write would use for path. Macro-enabled
// workbooks are read-only: the output would not carry a valid macro package.
func Writable(path string) (Format, error) {
	format, err := FormatOf(path)
	if err != nil {
		return 0, err
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsm") {
		return 0, fmt.Errorf("%w: %q", ErrReadOnlyFormat, filepath.Ext(path))
	}
	return format, nil
}

// Load reads a table from path. sheetName selects a worksheet in a workbook;
// empty means the first one. It is ignored for CSV files.
func Load(path, sheetName string) (*Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, fmt.Errorf("sheet.Load: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sheet.Load: %w", err)
	}

	var t *Table
	switch format {
	case FormatXLSX:
		t, err = decodeXLSX(data, sheetName)
	case FormatCSV:
		t, err = decodeCSV(data)
	}
	if err != nil {
		return nil, fmt.Errorf("sheet.Load %s: %w", filepath.Base(path), err)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		t.origin = snapshot(data, t)
	}

	h := sha256.Sum256(data)
	t.Path = path
	t.Hash = fmt.Sprintf("sha256:%x", h)
	return t, nil
}

// Write stores t at path in the format implied by the extension. The file is
// staged next to path and renamed into place, so a failed write never leaves
// a partial file behind.
func Write(path string, t *Table) error {
	format, err := Writable(path)
	if err != nil {
		return fmt.Errorf("sheet.Write: %w", err)
	}

	var data []byte
	switch format {
	case FormatXLSX:
		data, err = encodeXLSX(t)
	case FormatCSV:
		data, err = encodeCSV(t)
	}
	if err != nil {
		return fmt.Errorf("sheet.Write: %w", err)
	}
	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("sheet.Write: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".firefit-*"+filepath.Ext(path))
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

// Index returns the position of the column whose header equals name once
// surrounding whitespace is removed from the header cell.
func (t *Table) Index(name string) (int, bool) {
	for i, h := range t.Header {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	return -1, false
}

// Cell returns row[col], or "" when col is negative.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// normalize pads the header and every row to a common width.
func normalize(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrNoHeader
	}
	width := 0
	for _, r := range records {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return nil, ErrNoHeader
	}
	t := &Table{
		Header: pad(records[0], width),
		Rows:   make([][]string, 0, len(records)-1),
	}
	for _, r := range records[1:] {
		t.Rows = append(t.Rows, pad(r, width))
	}
	return t, nil
}

func pad(r []string, width int) []string {
	out := make([]string, width)
	copy(out, r)
	return out
}

func snapshot(workbook []byte, t *Table) *origin {
	o := &origin{
		workbook: workbook,
		header:   append([]string(nil), t.Header...),
		rows:     make([][]string, len(t.Rows)),
	}
	for i, r := range t.Rows {
		o.rows[i] = append([]string(nil), r...)
	}
	return o
}
