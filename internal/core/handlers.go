package core

import (
	"context"
	"fmt"
)

const (
	outputMergedPDF  = "merged.pdf"
	outputMergedXLSX = "merged.xlsx"
	outputMergedCSV  = "merged.csv"
	outputCSV        = "converted.csv"
	outputXLSX       = "converted.xlsx"
	outputSplitZip   = "split_files.zip"
)

func init() {
	Register(OperationDefinition{
		Kind:        OpMergePDF,
		Label:       "PDF Merger",
		Description: "Combine several PDF files into one document, pages untouched.",
		Tip:         "The order in the list is the order of pages in the final PDF.",
		Extensions:  []string{".pdf"},
		MinFiles:    1,
		Output:      outputMergedPDF,
		Handler:     mergePDF,
	})
	Register(OperationDefinition{
		Kind:        OpMergeExcel,
		Label:       "Excel Merger",
		Description: "Stack the rows of several .xlsx files into one sheet.",
		Tip:         "Files with different columns are merged with empty cells where a column is missing.",
		Extensions:  []string{".xlsx"},
		MinFiles:    1,
		Output:      outputMergedXLSX,
		Handler:     mergeTables(OpMergeExcel, FormatSpreadsheet, outputMergedXLSX),
	})
	Register(OperationDefinition{
		Kind:        OpMergeCSV,
		Label:       "CSV Merger",
		Description: "Append the rows of several CSV files into one CSV.",
		Tip:         "Each file's header row is read once; only data rows are appended.",
		Extensions:  []string{".csv"},
		MinFiles:    1,
		Output:      outputMergedCSV,
		Handler:     mergeTables(OpMergeCSV, FormatCSV, outputMergedCSV),
	})
	Register(OperationDefinition{
		Kind:        OpExcelToCSV,
		Label:       "Excel→CSV",
		Description: "Convert the first sheet of a workbook to a plain CSV file.",
		Tip:         "Only the first sheet is converted.",
		Extensions:  []string{".xlsx"},
		MinFiles:    1,
		MaxFiles:    1,
		Output:      outputCSV,
		Handler:     convertTable(OpExcelToCSV, FormatSpreadsheet, FormatCSV, outputCSV),
	})
	Register(OperationDefinition{
		Kind:        OpCSVToExcel,
		Label:       "CSV→Excel",
		Description: "Turn a CSV file into an .xlsx workbook.",
		Tip:         "The CSV must be UTF-8; a byte order mark is fine.",
		Extensions:  []string{".csv"},
		MinFiles:    1,
		MaxFiles:    1,
		Output:      outputXLSX,
		Handler:     convertTable(OpCSVToExcel, FormatCSV, FormatSpreadsheet, outputXLSX),
	})
	Register(OperationDefinition{
		Kind:        OpSplit,
		Label:       "File Splitter",
		Description: "Break a large CSV or Excel file into parts with a set number of rows, packed in a ZIP.",
		Tip:         "Every part keeps the header row. Parts are named part_1, part_2, part_3...",
		Extensions:  []string{".csv", ".xlsx"},
		MinFiles:    1,
		MaxFiles:    1,
		Output:      outputSplitZip,
		Handler:     splitFile,
	})
}

func mergePDF(_ context.Context, files []UploadedFile, _ Options, tick TickFunc) (Result, error) {
	data, pages, err := MergeDocuments(files, tick)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Kind:    OpMergePDF,
		Summary: fmt.Sprintf("%d PDFs merged successfully!", len(files)),
		Count:   len(files),
		Notes:   []string{fmt.Sprintf("%d pages in total", pages)},
		Artifact: Artifact{
			Filename: outputMergedPDF,
			MIME:     MIMEPDF,
			Data:     data,
		},
	}, nil
}

// loadTables parses every file as format, ticking once per file read.
func loadTables(files []UploadedFile, format Format, tick TickFunc) ([]*Table, error) {
	tables := make([]*Table, len(files))
	for i, f := range files {
		t, err := LoadTable(f, format)
		if err != nil {
			return nil, err
		}
		tables[i] = t
		tick.call(i+1, len(files))
	}
	return tables, nil
}

func mergeTables(kind OpKind, format Format, output string) Handler {
	return func(_ context.Context, files []UploadedFile, opts Options, tick TickFunc) (Result, error) {
		if len(files) == 0 {
			return Result{}, preconditionError(ErrNoInputs)
		}

		tables, err := loadTables(files, format, tick)
		if err != nil {
			return Result{}, err
		}

		var (
			merged *Table
			notes  []string
		)
		if opts.Strict {
			merged, err = MergeStrict(tables, FileNames(files))
			if err != nil {
				return Result{}, err
			}
		} else {
			var report MergeReport
			merged, report = MergeTables(tables)
			notes = report.Notes(FileNames(files))
		}

		data, err := WriteTable(merged, format)
		if err != nil {
			return Result{}, err
		}

		return Result{
			Kind:    kind,
			Summary: fmt.Sprintf("Merged! Total %d rows.", merged.RowCount()),
			Count:   merged.RowCount(),
			Notes:   notes,
			Artifact: Artifact{
				Filename: output,
				MIME:     format.MIME(),
				Data:     data,
			},
		}, nil
	}
}

func convertTable(kind OpKind, from, to Format, output string) Handler {
	return func(_ context.Context, files []UploadedFile, _ Options, tick TickFunc) (Result, error) {
		if len(files) != 1 {
			return Result{}, preconditionError(fmt.Errorf("convert takes exactly one file, got %d: %w", len(files), ErrNoInputs))
		}

		t, err := LoadTable(files[0], from)
		if err != nil {
			return Result{}, err
		}
		if from == FormatCSV && to == FormatSpreadsheet {
			inferNumbers(t)
		}
		data, err := WriteTable(t, to)
		if err != nil {
			return Result{}, err
		}
		tick.call(1, 1)

		return Result{
			Kind:    kind,
			Summary: fmt.Sprintf("Converted to %s successfully!", to),
			Count:   t.RowCount(),
			Notes:   []string{fmt.Sprintf("%d rows × %d columns", t.RowCount(), t.ColumnCount())},
			Artifact: Artifact{
				Filename: output,
				MIME:     to.MIME(),
				Data:     data,
			},
		}, nil
	}
}

func splitFile(_ context.Context, files []UploadedFile, opts Options, tick TickFunc) (Result, error) {
	if len(files) != 1 {
		return Result{}, preconditionError(fmt.Errorf("split takes exactly one file, got %d: %w", len(files), ErrNoInputs))
	}
	f := files[0]

	format, err := FormatFromName(f.Name)
	if err != nil {
		return Result{}, parseError(f.Name, err)
	}
	t, err := LoadTable(f, format)
	if err != nil {
		return Result{}, err
	}

	chunks, err := SplitTable(t, opts.RowsPerFile)
	if err != nil {
		return Result{}, err
	}
	data, err := PackageChunks(chunks, format, tick)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Kind:    OpSplit,
		Summary: fmt.Sprintf("%d files created successfully!", len(chunks)),
		Count:   len(chunks),
		Notes:   []string{fmt.Sprintf("%d rows, %d per file", t.RowCount(), opts.RowsPerFile)},
		Artifact: Artifact{
			Filename: outputSplitZip,
			MIME:     MIMEZip,
			Data:     data,
		},
	}, nil
}
