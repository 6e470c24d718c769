package core

import (
	"fmt"
	"strconv"
)

// ValueKind identifies the loose type of a table cell.
type ValueKind int

const (
	ValueEmpty ValueKind = iota
	ValueText
	ValueNumber
)

// Value is a single loosely typed cell: empty, text or number.
// The zero Value is empty.
type Value struct {
	kind ValueKind
	text string
	num  float64
}

// EmptyValue returns the empty cell.
func EmptyValue() Value {
	return Value{}
}

// TextValue returns a text cell. An empty string yields the empty cell.
func TextValue(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: ValueText, text: s}
}

// NumberValue returns a numeric cell.
func NumberValue(f float64) Value {
	return Value{kind: ValueNumber, num: f}
}

// Kind returns the cell's kind.
func (v Value) Kind() ValueKind { return v.kind }

// IsEmpty reports whether the cell has no value.
func (v Value) IsEmpty() bool { return v.kind == ValueEmpty }

// Float returns the numeric value and true for number cells.
func (v Value) Float() (float64, bool) {
	if v.kind != ValueNumber {
		return 0, false
	}
	return v.num, true
}

// String renders the cell the way the writers serialize it.
// Numbers use the shortest representation that round-trips ("3", "2.5").
func (v Value) String() string {
	switch v.kind {
	case ValueText:
		return v.text
	case ValueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Table is a header plus rows of cells. Every row holds exactly one value
// per column.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// NewTable creates an empty table with a copy of the given header.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// RowCount returns the number of data rows.
func (t *Table) RowCount() int { return len(t.Rows) }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.Columns) }

// AppendRow adds a row, rejecting rows whose width differs from the header.
func (t *Table) AppendRow(values ...Value) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("row has %d values, header has %d columns", len(values), len(t.Columns))
	}
	row := make([]Value, len(values))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	return nil
}

// ColumnIndex returns the position of the named column or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Validate checks the row width invariant.
func (t *Table) Validate() error {
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("row %d has %d values, header has %d columns", i, len(row), len(t.Columns))
		}
	}
	return nil
}

// Slice returns rows [start, end) as a new table sharing the header names.
// The row slices themselves are shared with t.
func (t *Table) Slice(start, end int) *Table {
	out := NewTable(t.Columns)
	if start < end {
		out.Rows = t.Rows[start:end:end]
	}
	return out
}

// Equal reports whether both tables have the same header and cell values.
func (t *Table) Equal(other *Table) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.Columns) != len(other.Columns) || len(t.Rows) != len(other.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != other.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		if len(t.Rows[i]) != len(other.Rows[i]) {
			return false
		}
		for j := range t.Rows[i] {
			if t.Rows[i][j] != other.Rows[i][j] {
				return false
			}
		}
	}
	return true
}
