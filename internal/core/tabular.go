package core

// tabular.go converts between uploaded bytes and Tables.
//
// CSV cells load as text (or empty); numbers only appear when a spreadsheet
// stores a numeric cell, or when inferNumbers runs before a CSV is written as
// a workbook. Spreadsheet cells carrying a date number format load as text in
// DateTimeLayout. Headers are normalized the same way for both formats:
// blank names become "Unnamed: <i>" and repeated names get ".1", ".2" suffixes,
// so every column name in a Table is unique.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is the sheet name used for written workbooks.
const DefaultSheet = "Sheet1"

// DateTimeLayout renders spreadsheet date cells.
const DateTimeLayout = "2006-01-02 15:04:05"

// LoadTable parses an uploaded file as format.
// Failures are returned as *OpError with KindParse.
func LoadTable(f UploadedFile, format Format) (*Table, error) {
	switch format {
	case FormatCSV:
		return loadCSV(f)
	case FormatSpreadsheet:
		return loadSpreadsheet(f)
	}
	return nil, parseError(f.Name, ErrUnsupportedFormat)
}

// WriteTable serializes t as format.
// Failures are returned as *OpError with KindIO.
func WriteTable(t *Table, format Format) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, ioError("", err)
	}
	switch format {
	case FormatCSV:
		return writeCSV(t)
	case FormatSpreadsheet:
		return writeSpreadsheet(t)
	}
	return nil, ioError("", ErrUnsupportedFormat)
}

func loadCSV(f UploadedFile) (*Table, error) {
	data := stripBOM(f.Data)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, parseError(f.Name, ErrEmptyFile)
	}
	if err := validateUTF8(data); err != nil {
		return nil, parseError(f.Name, err)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, parseError(f.Name, ErrNoHeader)
	}
	if err != nil {
		return nil, parseError(f.Name, fmt.Errorf("invalid csv: %w", err))
	}

	t := NewTable(normalizeHeader(header))
	width := len(t.Columns)

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, parseError(f.Name, fmt.Errorf("invalid csv: %w", err))
		}
		if len(record) > width {
			line, _ := r.FieldPos(0)
			return nil, parseError(f.Name, fmt.Errorf("invalid csv: line %d: expected %d fields, saw %d", line, width, len(record)))
		}

		// Short records are padded with empty cells.
		row := make([]Value, width)
		for i, field := range record {
			row[i] = TextValue(field)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func writeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := writeCSVRecord(w, &buf, t.Columns); err != nil {
		return nil, ioError("", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = v.String()
		}
		if err := writeCSVRecord(w, &buf, record); err != nil {
			return nil, ioError("", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, ioError("", err)
	}
	return buf.Bytes(), nil
}

// writeCSVRecord writes one record. encoding/csv emits a lone empty field as
// a blank line, which readers skip, so that case is written as "" instead.
func writeCSVRecord(w *csv.Writer, buf *bytes.Buffer, record []string) error {
	if len(record) == 1 && record[0] == "" {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		buf.WriteString("\"\"\n")
		return nil
	}
	return w.Write(record)
}

func loadSpreadsheet(f UploadedFile) (*Table, error) {
	if len(f.Data) == 0 {
		return nil, parseError(f.Name, ErrEmptyFile)
	}

	wb, err := excelize.OpenReader(bytes.NewReader(f.Data))
	if err != nil {
		return nil, parseError(f.Name, fmt.Errorf("invalid spreadsheet: %w", err))
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseError(f.Name, ErrNoHeader)
	}
	sheet := sheets[0]

	date1904 := false
	if props, err := wb.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}

	rows, err := wb.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, parseError(f.Name, fmt.Errorf("read sheet %q: %w", sheet, err))
	}

	headerRow := -1
	for i, row := range rows {
		if !isBlankRow(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		return nil, parseError(f.Name, ErrNoHeader)
	}

	// Cells right of the header get unnamed columns rather than being dropped.
	width := 0
	for _, row := range rows[headerRow:] {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, rows[headerRow])

	t := NewTable(normalizeHeader(header))
	for r := headerRow + 1; r < len(rows); r++ {
		raw := rows[r]
		if isBlankRow(raw) {
			continue
		}
		row := make([]Value, width)
		for c, s := range raw {
			row[c] = spreadsheetValue(wb, sheet, c+1, r+1, s, date1904)
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// spreadsheetValue types a raw cell. String-typed cells stay text even when
// they look numeric; numbers formatted as dates become DateTimeLayout text;
// everything else that parses as a float is a number.
func spreadsheetValue(wb *excelize.File, sheet string, col, row int, raw string, date1904 bool) Value {
	if raw == "" {
		return EmptyValue()
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		cell = ""
	}
	if cell != "" {
		if typ, err := wb.GetCellType(sheet, cell); err == nil {
			switch typ {
			case excelize.CellTypeBool:
				if raw == "1" {
					return TextValue("TRUE")
				}
				return TextValue("FALSE")
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
				excelize.CellTypeFormula, excelize.CellTypeError:
				return TextValue(raw)
			}
		}
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return TextValue(raw)
	}
	if cell != "" && isDateCell(wb, sheet, cell) {
		if tm, err := excelize.ExcelDateToTime(f, date1904); err == nil {
			return TextValue(tm.Format(DateTimeLayout))
		}
	}
	return NumberValue(f)
}

// isDateCell reports whether the cell's number format renders a date or time.
func isDateCell(wb *excelize.File, sheet, cell string) bool {
	idx, err := wb.GetCellStyle(sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	style, err := wb.GetStyle(idx)
	if err != nil || style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormat(*style.CustomNumFmt)
	}
	return isBuiltInDateFormat(style.NumFmt)
}

// Built-in number format IDs that render dates or times, including the
// locale-specific ranges.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormat looks for date or time tokens in a custom format code,
// ignoring quoted literals, bracketed sections and escaped characters.
func isDateFormat(code string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case quoted:
			quoted = c != '"'
		case bracket:
			bracket = c != ']'
		case c == '"':
			quoted = true
		case c == '[':
			bracket = true
		case c == '\\' || c == '_' || c == '*':
			i++
		default:
			b.WriteByte(c)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ymdhs")
}

// inferNumbers turns text cells holding a plain number into number cells.
// A cell converts only when the number renders back to the same text, so
// "007" or "2.50" stay text and a CSV written as a workbook reads back
// unchanged.
func inferNumbers(t *Table) {
	for _, row := range t.Rows {
		for j, v := range row {
			if v.Kind() != ValueText {
				continue
			}
			f, err := strconv.ParseFloat(v.String(), 64)
			if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
				continue
			}
			if n := NumberValue(f); n.String() == v.String() {
				row[j] = n
			}
		}
	}
}

func writeSpreadsheet(t *Table) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	sw, err := wb.NewStreamWriter(DefaultSheet)
	if err != nil {
		return nil, ioError("", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, ioError("", err)
	}

	for i, row := range t.Rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			switch v.Kind() {
			case ValueNumber:
				f, _ := v.Float()
				cells[j] = f
			case ValueText:
				cells[j] = v.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, ioError("", err)
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return nil, ioError("", fmt.Errorf("row %d: %w", i+1, err))
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, ioError("", err)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		return nil, ioError("", err)
	}
	return buf.Bytes(), nil
}

// normalizeHeader names blank columns and disambiguates repeated names.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))

	for i, name := range header {
		if strings.TrimSpace(name) == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for n := 1; taken[candidate]; n++ {
			candidate = name + "." + strconv.Itoa(n)
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
