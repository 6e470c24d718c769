package core

import (
	"fmt"
	"slices"
	"strings"
)

// MergeReport notes, per input table, the unified columns it did not have.
// Those cells were filled with empty values.
type MergeReport struct {
	Missing [][]string
}

// HasGaps reports whether any input lacked a unified column.
func (r MergeReport) HasGaps() bool {
	for _, cols := range r.Missing {
		if len(cols) > 0 {
			return true
		}
	}
	return false
}

// Notes renders the report for a result summary, naming inputs by label.
func (r MergeReport) Notes(labels []string) []string {
	var notes []string
	for i, cols := range r.Missing {
		if len(cols) == 0 {
			continue
		}
		label := fmt.Sprintf("file %d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		notes = append(notes, fmt.Sprintf("%s had no %s column(s); cells left empty", label, strings.Join(cols, ", ")))
	}
	return notes
}

// MergeTables concatenates tables row-wise in the given order.
//
// The result's columns are the union of all input columns in order of first
// appearance. Each row is re-projected onto that union; columns an input
// lacks are left empty.
func MergeTables(tables []*Table) (*Table, MergeReport) {
	var columns []string
	seen := make(map[string]bool)
	for _, t := range tables {
		for _, c := range t.Columns {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}

	total := 0
	for _, t := range tables {
		total += len(t.Rows)
	}

	merged := NewTable(columns)
	merged.Rows = make([][]Value, 0, total)
	report := MergeReport{Missing: make([][]string, len(tables))}

	for ti, t := range tables {
		// projection[j] is the source column feeding unified column j, or -1.
		projection := make([]int, len(columns))
		for j, c := range columns {
			projection[j] = t.ColumnIndex(c)
			if projection[j] < 0 {
				report.Missing[ti] = append(report.Missing[ti], c)
			}
		}

		for _, row := range t.Rows {
			out := make([]Value, len(columns))
			for j, src := range projection {
				if src >= 0 {
					out[j] = row[src]
				}
			}
			merged.Rows = append(merged.Rows, out)
		}
	}

	return merged, report
}

// MergeStrict concatenates tables that all share the first table's header.
// Any difference in column names or order is a KindSchema error.
func MergeStrict(tables []*Table, labels []string) (*Table, error) {
	if len(tables) == 0 {
		return NewTable(nil), nil
	}

	want := tables[0].Columns
	for i, t := range tables[1:] {
		if !slices.Equal(t.Columns, want) {
			label := ""
			if i+1 < len(labels) {
				label = labels[i+1]
			}
			return nil, &OpError{
				Kind: KindSchema,
				File: label,
				Err:  fmt.Errorf("columns [%s] do not match [%s]", strings.Join(t.Columns, ", "), strings.Join(want, ", ")),
			}
		}
	}

	merged, _ := MergeTables(tables)
	return merged, nil
}
