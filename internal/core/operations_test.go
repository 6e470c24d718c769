package core

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestRegistry(t *testing.T) {
	if OperationCount() != 6 {
		t.Fatalf("OperationCount() = %d, want 6", OperationCount())
	}

	var keys []string
	for _, def := range All() {
		keys = append(keys, def.Kind.Key())
		if def.Handler == nil {
			t.Errorf("%s has no handler", def.Label)
		}
	}
	if !slices.Equal(keys, []string{"pdf", "excel", "csv", "e2c", "c2e", "split"}) {
		t.Errorf("All() keys = %v", keys)
	}
}

func TestLookup(t *testing.T) {
	def, err := Lookup("split")
	if err != nil {
		t.Fatal(err)
	}
	if def.Kind != OpSplit || def.MultiFile() {
		t.Errorf("Lookup(split) = %+v", def)
	}

	if _, err := Lookup("zip"); !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("Lookup(zip) error = %v", err)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register should panic")
		}
	}()
	Register(OperationDefinition{Kind: OpMergePDF})
}

func TestCheckBatch(t *testing.T) {
	pdf, _ := Get(OpMergePDF)
	e2c, _ := Get(OpExcelToCSV)
	split, _ := Get(OpSplit)

	tests := []struct {
		name     string
		def      OperationDefinition
		files    []UploadedFile
		wantKind ErrorKind
	}{
		{name: "pdf batch", def: pdf, files: files("a.pdf", "B.PDF")},
		{name: "empty batch", def: pdf, wantKind: KindPrecondition},
		{name: "wrong extension", def: pdf, files: files("a.pdf", "notes.txt"), wantKind: KindParse},
		{name: "single-file tool given two", def: e2c, files: files("a.xlsx", "b.xlsx"), wantKind: KindPrecondition},
		{name: "split accepts csv", def: split, files: files("big.csv")},
		{name: "split accepts xlsx", def: split, files: files("big.xlsx")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.CheckBatch(tt.files)
			if tt.wantKind == 0 {
				if err != nil {
					t.Errorf("CheckBatch() = %v", err)
				}
				return
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("CheckBatch() = %v, want kind %v", err, tt.wantKind)
			}
		})
	}
}

func runHandler(t *testing.T, kind OpKind, batch []UploadedFile, opts Options) (Result, []int) {
	t.Helper()
	def, ok := Get(kind)
	if !ok {
		t.Fatalf("%s not registered", kind)
	}
	var steps []int
	res, err := def.Handler(context.Background(), batch, opts, func(step, _ int) {
		steps = append(steps, step)
	})
	if err != nil {
		t.Fatalf("%s: %v", kind, err)
	}
	return res, steps
}

func TestHandler_MergeCSV(t *testing.T) {
	res, steps := runHandler(t, OpMergeCSV, []UploadedFile{
		csvFile("a.csv", "name,age\nAlice,30\n"),
		csvFile("b.csv", "name,city\nBob,Oslo\nCarol,Rome\n"),
	}, Options{})

	if res.Summary != "Merged! Total 3 rows." || res.Count != 3 {
		t.Errorf("result = %q count %d", res.Summary, res.Count)
	}
	if res.Artifact.Filename != "merged.csv" || res.Artifact.MIME != MIMECSV {
		t.Errorf("artifact = %s %s", res.Artifact.Filename, res.Artifact.MIME)
	}
	if len(res.Notes) == 0 {
		t.Error("union merge with gaps should carry notes")
	}
	if !slices.Equal(steps, []int{1, 2}) {
		t.Errorf("steps = %v", steps)
	}

	want := "name,age,city\nAlice,30,\nBob,,Oslo\nCarol,,Rome\n"
	if got := string(res.Artifact.Data); got != want {
		t.Errorf("merged csv = %q, want %q", got, want)
	}
}

func TestHandler_MergeCSVStrict(t *testing.T) {
	def, _ := Get(OpMergeCSV)
	_, err := def.Handler(context.Background(), []UploadedFile{
		csvFile("a.csv", "name,age\nAlice,30\n"),
		csvFile("b.csv", "name,city\nBob,Oslo\n"),
	}, Options{Strict: true}, nil)

	if KindOf(err) != KindSchema {
		t.Errorf("strict merge error = %v, want KindSchema", err)
	}
}

func TestHandler_MergeExcel(t *testing.T) {
	a, err := WriteTable(mustTable(t, []string{"sku", "qty"}, []string{"A1", "2"}), FormatSpreadsheet)
	if err != nil {
		t.Fatal(err)
	}
	b, err := WriteTable(mustTable(t, []string{"sku", "qty"}, []string{"B7", "5"}, []string{"C3", "1"}), FormatSpreadsheet)
	if err != nil {
		t.Fatal(err)
	}

	res, _ := runHandler(t, OpMergeExcel, []UploadedFile{
		{Name: "a.xlsx", Data: a},
		{Name: "b.xlsx", Data: b},
	}, Options{})

	merged, err := LoadTable(UploadedFile{Name: res.Artifact.Filename, Data: res.Artifact.Data}, FormatSpreadsheet)
	if err != nil {
		t.Fatal(err)
	}
	if merged.RowCount() != 3 || merged.Rows[2][0].String() != "C3" {
		t.Errorf("merged rows = %v", cellStrings(merged))
	}
	if res.Artifact.Filename != "merged.xlsx" {
		t.Errorf("filename = %s", res.Artifact.Filename)
	}
}

func TestHandler_Convert(t *testing.T) {
	csvIn := csvFile("people.csv", "name,age\nAlice,30\nBob,25\n")

	res, _ := runHandler(t, OpCSVToExcel, []UploadedFile{csvIn}, Options{})
	if res.Summary != "Converted to Excel successfully!" || res.Artifact.Filename != "converted.xlsx" {
		t.Errorf("c2e result = %q %s", res.Summary, res.Artifact.Filename)
	}

	back, _ := runHandler(t, OpExcelToCSV, []UploadedFile{{Name: "people.xlsx", Data: res.Artifact.Data}}, Options{})
	if back.Summary != "Converted to CSV successfully!" || back.Count != 2 {
		t.Errorf("e2c result = %q count %d", back.Summary, back.Count)
	}
	if got := string(back.Artifact.Data); got != string(csvIn.Data) {
		t.Errorf("round trip = %q, want %q", got, csvIn.Data)
	}
}

func TestHandler_ConvertWritesNumericCells(t *testing.T) {
	csvIn := csvFile("amounts.csv", "id,amt,code,price\n1,2.5,007,2.50\n")

	res, _ := runHandler(t, OpCSVToExcel, []UploadedFile{csvIn}, Options{})

	wb, err := excelize.OpenReader(bytes.NewReader(res.Artifact.Data))
	if err != nil {
		t.Fatal(err)
	}
	defer wb.Close()

	for _, cell := range []string{"A2", "B2"} {
		typ, err := wb.GetCellType(DefaultSheet, cell)
		if err != nil {
			t.Fatal(err)
		}
		if typ != excelize.CellTypeNumber && typ != excelize.CellTypeUnset {
			t.Errorf("%s type = %v, want number", cell, typ)
		}
	}

	tbl, err := LoadTable(UploadedFile{Name: "amounts.xlsx", Data: res.Artifact.Data}, FormatSpreadsheet)
	if err != nil {
		t.Fatal(err)
	}
	kinds := []ValueKind{ValueNumber, ValueNumber, ValueText, ValueText}
	for i, want := range kinds {
		if got := tbl.Rows[0][i].Kind(); got != want {
			t.Errorf("column %s kind = %v, want %v", tbl.Columns[i], got, want)
		}
	}

	back, _ := runHandler(t, OpExcelToCSV, []UploadedFile{{Name: "amounts.xlsx", Data: res.Artifact.Data}}, Options{})
	if got := string(back.Artifact.Data); got != string(csvIn.Data) {
		t.Errorf("round trip = %q, want %q", got, csvIn.Data)
	}
}

func TestHandler_ConvertDateCells(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()

	dateTime := "dd/mm/yyyy hh:mm"
	styleID, err := wb.NewStyle(&excelize.Style{CustomNumFmt: &dateTime})
	if err != nil {
		t.Fatal(err)
	}

	for cell, v := range map[string]any{
		"A1": "when", "B1": "due", "C1": "qty",
		"A2": time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		"B2": 45366.5,
		"C2": 3,
	} {
		if err := wb.SetCellValue("Sheet1", cell, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := wb.SetCellStyle("Sheet1", "B2", "B2", styleID); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := wb.Write(&buf); err != nil {
		t.Fatal(err)
	}

	res, _ := runHandler(t, OpExcelToCSV, []UploadedFile{{Name: "dates.xlsx", Data: buf.Bytes()}}, Options{})

	want := "when,due,qty\n2024-03-15 00:00:00,2024-03-15 12:00:00,3\n"
	if got := string(res.Artifact.Data); got != want {
		t.Errorf("e2c = %q, want %q", got, want)
	}
}

func TestHandler_Split(t *testing.T) {
	data, err := WriteTable(numberedTable(t, 250), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}

	res, steps := runHandler(t, OpSplit, []UploadedFile{{Name: "big.csv", Data: data}}, Options{RowsPerFile: 100})

	if res.Summary != "3 files created successfully!" || res.Count != 3 {
		t.Errorf("result = %q count %d", res.Summary, res.Count)
	}
	if res.Artifact.Filename != "split_files.zip" || res.Artifact.MIME != MIMEZip {
		t.Errorf("artifact = %s %s", res.Artifact.Filename, res.Artifact.MIME)
	}
	if !slices.Equal(steps, []int{1, 2, 3}) {
		t.Errorf("steps = %v", steps)
	}

	names, _ := readZip(t, res.Artifact.Data)
	if !slices.Equal(names, []string{"part_1.csv", "part_2.csv", "part_3.csv"}) {
		t.Errorf("entries = %v", names)
	}
}

func TestHandler_SplitRejectsBadChunkSize(t *testing.T) {
	def, _ := Get(OpSplit)
	_, err := def.Handler(context.Background(), []UploadedFile{csvFile("a.csv", "x\n1\n")}, Options{}, nil)
	if !errors.Is(err, ErrInvalidChunkSize) {
		t.Errorf("error = %v, want ErrInvalidChunkSize", err)
	}
}

func TestHandler_MergePDF(t *testing.T) {
	res, _ := runHandler(t, OpMergePDF, []UploadedFile{
		{Name: "a.pdf", Data: buildPDF(t, "a", 1)},
		{Name: "b.pdf", Data: buildPDF(t, "b", 2)},
	}, Options{})

	if res.Summary != "2 PDFs merged successfully!" || res.Count != 2 {
		t.Errorf("result = %q count %d", res.Summary, res.Count)
	}
	if !slices.Equal(res.Notes, []string{"3 pages in total"}) {
		t.Errorf("notes = %v", res.Notes)
	}
}

func TestPreviewTable(t *testing.T) {
	data, err := WriteTable(numberedTable(t, 12), FormatCSV)
	if err != nil {
		t.Fatal(err)
	}

	p, err := PreviewTable(UploadedFile{Name: "big.csv", Data: data}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if p.Rows != 12 || p.Columns != 2 || p.Parts != 3 {
		t.Errorf("preview = %+v", p)
	}
	if len(p.SampleRows) != 5 || p.SampleRows[4][0] != "4" {
		t.Errorf("sample rows = %v", p.SampleRows)
	}
}
