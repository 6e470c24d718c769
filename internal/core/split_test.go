package core

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"testing"
)

func numberedTable(t *testing.T, rows int) *Table {
	t.Helper()
	tbl := NewTable([]string{"n", "label"})
	for i := 0; i < rows; i++ {
		if err := tbl.AppendRow(TextValue(strconv.Itoa(i)), TextValue(fmt.Sprintf("row %d", i))); err != nil {
			t.Fatal(err)
		}
	}
	return tbl
}

func TestPlanSplit(t *testing.T) {
	tests := []struct {
		rows, size int
		want       []RowRange
	}{
		{rows: 250, size: 100, want: []RowRange{{0, 100}, {100, 200}, {200, 250}}},
		{rows: 200, size: 100, want: []RowRange{{0, 100}, {100, 200}}},
		{rows: 3, size: 1, want: []RowRange{{0, 1}, {1, 2}, {2, 3}}},
		{rows: 5, size: 10, want: []RowRange{{0, 5}}},
		{rows: 0, size: 100, want: []RowRange{{0, 0}}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.rows, tt.size), func(t *testing.T) {
			got, err := PlanSplit(tt.rows, tt.size)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("PlanSplit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPartCount(t *testing.T) {
	tests := []struct{ rows, size, want int }{
		{250, 100, 3},
		{200, 100, 2},
		{1, 100, 1},
		{0, 100, 0},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := PartCount(tt.rows, tt.size); got != tt.want {
			t.Errorf("PartCount(%d, %d) = %d, want %d", tt.rows, tt.size, got, tt.want)
		}
	}
}

func TestSplitTable(t *testing.T) {
	tbl := numberedTable(t, 250)

	chunks, err := SplitTable(tbl, 100)
	if err != nil {
		t.Fatal(err)
	}

	sizes := make([]int, len(chunks))
	next := 0
	for i, c := range chunks {
		sizes[i] = c.RowCount()
		if !slices.Equal(c.Columns, tbl.Columns) {
			t.Errorf("chunk %d header = %v", i, c.Columns)
		}
		// Concatenating the chunks must reproduce the rows in order.
		for _, row := range c.Rows {
			if row[0].String() != strconv.Itoa(next) {
				t.Fatalf("chunk %d: got row %s, want %d", i, row[0], next)
			}
			next++
		}
	}
	if !slices.Equal(sizes, []int{100, 100, 50}) {
		t.Errorf("chunk sizes = %v, want [100 100 50]", sizes)
	}
	if next != 250 {
		t.Errorf("rows covered = %d, want 250", next)
	}
}

func TestSplitTable_ZeroRows(t *testing.T) {
	chunks, err := SplitTable(numberedTable(t, 0), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 || chunks[0].RowCount() != 0 || chunks[0].ColumnCount() != 2 {
		t.Errorf("chunks = %v, want one header-only chunk", chunks)
	}
}

func TestSplitTable_InvalidChunkSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := SplitTable(numberedTable(t, 5), size)
		if KindOf(err) != KindPrecondition || !errors.Is(err, ErrInvalidChunkSize) {
			t.Errorf("SplitTable(size=%d) error = %v, want ErrInvalidChunkSize", size, err)
		}
	}
}

func readZip(t *testing.T, data []byte) ([]string, map[string][]byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	var names []string
	contents := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		names = append(names, f.Name)
		contents[f.Name] = b
	}
	return names, contents
}

func TestPackageChunks_CSV(t *testing.T) {
	chunks, err := SplitTable(numberedTable(t, 5), 2)
	if err != nil {
		t.Fatal(err)
	}

	var ticks [][2]int
	data, err := PackageChunks(chunks, FormatCSV, func(step, total int) {
		ticks = append(ticks, [2]int{step, total})
	})
	if err != nil {
		t.Fatal(err)
	}

	names, contents := readZip(t, data)
	if !slices.Equal(names, []string{"part_1.csv", "part_2.csv", "part_3.csv"}) {
		t.Errorf("entries = %v", names)
	}
	if !slices.Equal(ticks, [][2]int{{1, 3}, {2, 3}, {3, 3}}) {
		t.Errorf("ticks = %v", ticks)
	}

	last, err := LoadTable(UploadedFile{Name: "part_3.csv", Data: contents["part_3.csv"]}, FormatCSV)
	if err != nil {
		t.Fatal(err)
	}
	if last.RowCount() != 1 || last.Rows[0][0].String() != "4" {
		t.Errorf("part_3 rows = %v", cellStrings(last))
	}
	if !slices.Equal(last.Columns, []string{"n", "label"}) {
		t.Errorf("part_3 header = %v", last.Columns)
	}
}

func TestPackageChunks_WriteErrorNamesPart(t *testing.T) {
	good := numberedTable(t, 1)
	bad := NewTable([]string{"n", "label"})
	bad.Rows = append(bad.Rows, []Value{TextValue("short")})

	_, err := PackageChunks([]*Table{good, bad}, FormatCSV, nil)
	if KindOf(err) != KindIO {
		t.Fatalf("error = %v, want KindIO", err)
	}

	var opErr *OpError
	if !errors.As(err, &opErr) || opErr.File != "part_2.csv" {
		t.Fatalf("error = %#v, want file part_2.csv", err)
	}
	if errors.As(opErr.Err, new(*OpError)) {
		t.Errorf("error wraps a second OpError: %v", err)
	}
	if n := strings.Count(err.Error(), "io error"); n != 1 {
		t.Errorf("%q names the kind %d times, want once", err.Error(), n)
	}
}

func TestPackageChunks_Spreadsheet(t *testing.T) {
	chunks, err := SplitTable(numberedTable(t, 3), 2)
	if err != nil {
		t.Fatal(err)
	}

	data, err := PackageChunks(chunks, FormatSpreadsheet, nil)
	if err != nil {
		t.Fatal(err)
	}

	names, contents := readZip(t, data)
	if !slices.Equal(names, []string{"part_1.xlsx", "part_2.xlsx"}) {
		t.Fatalf("entries = %v", names)
	}
	first, err := LoadTable(UploadedFile{Name: "part_1.xlsx", Data: contents["part_1.xlsx"]}, FormatSpreadsheet)
	if err != nil {
		t.Fatal(err)
	}
	if first.RowCount() != 2 {
		t.Errorf("part_1 rows = %d, want 2", first.RowCount())
	}
}

func TestPackageChunks_Deterministic(t *testing.T) {
	chunks, err := SplitTable(numberedTable(t, 7), 3)
	if err != nil {
		t.Fatal(err)
	}

	a, err := PackageChunks(chunks, FormatCSV, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := PackageChunks(chunks, FormatCSV, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("identical input produced different archives")
	}
}
