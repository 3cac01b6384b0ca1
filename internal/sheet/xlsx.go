package sheet

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/sorryxx18/firefit-score-converter/internal/cell"
)

const defaultSheet = "Sheet1"

func decodeXLSX(data []byte, sheetName string) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := sheetName
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoHeader
		}
		name = sheets[0]
	} else if idx, err := f.GetSheetIndex(name); err != nil || idx < 0 {
		return nil, fmt.Errorf("worksheet %q not found", name)
	}

	// Raw values keep numbers free of display formatting such as "1,500" or "85%".
	records, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	t, err := normalize(records)
	if err != nil {
		return nil, err
	}
	t.Sheet = name
	return t, nil
}

func encodeXLSX(t *Table) ([]byte, error) {
	if t.origin != nil {
		return patchXLSX(t)
	}
	f := excelize.NewFile()
	defer f.Close()

	name := t.Sheet
	if name == "" {
		name = defaultSheet
	}
	if name != defaultSheet {
		if err := f.SetSheetName(defaultSheet, name); err != nil {
			return nil, err
		}
	}

	if err := writeRow(f, name, 1, t.Header, false); err != nil {
		return nil, err
	}
	for i, r := range t.Rows {
		if err := writeRow(f, name, i+2, r, true); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return repack(buf.Bytes())
}

// patchXLSX writes t into a copy of the workbook it was read from. Only cells
// whose text differs from the source are set, so dates, text-typed numbers,
// formulas and styles in untouched cells survive unchanged.
func patchXLSX(t *Table) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(t.origin.workbook))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := patchRow(f, t.Sheet, 1, t.origin.header, t.Header, false); err != nil {
		return nil, err
	}
	for i, r := range t.Rows {
		var old []string
		if i < len(t.origin.rows) {
			old = t.origin.rows[i]
		}
		if err := patchRow(f, t.Sheet, i+2, old, r, true); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return repack(buf.Bytes())
}

func patchRow(f *excelize.File, sheetName string, rowNum int, old, row []string, numbers bool) error {
	for col, v := range row {
		if Cell(old, col) == v {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(col+1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, axis, cellValue(v, numbers)); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheetName string, rowNum int, row []string, numbers bool) error {
	axis, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(row))
	for i, s := range row {
		values[i] = cellValue(s, numbers)
	}
	return f.SetSheetRow(sheetName, axis, &values)
}

// cellValue stores canonical numbers as numeric cells so totals stay summable
// in Excel. Text such as "007" or "1.50" is kept verbatim.
func cellValue(s string, numbers bool) interface{} {
	if s == "" {
		return nil
	}
	if numbers {
		if v, ok := cell.Number(s); ok && cell.Format(v) == s {
			return v
		}
	}
	return s
}

// repack rewrites the workbook archive with entries in name order and zeroed
// timestamps so identical tables always produce identical bytes.
func repack(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	files := make([]*zip.File, len(zr.File))
	copy(files, zr.File)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, zf := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: zf.Name, Method: zip.Deflate})
		if err != nil {
			return nil, err
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, err
		}
		_, err = io.Copy(w, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
