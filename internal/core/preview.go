package core

import "time"

// previewSampleRows is how many leading rows a preview carries.
const previewSampleRows = 5

// TablePreview summarizes a single uploaded table before a run.
type TablePreview struct {
	Rows             int        `json:"rows"`
	Columns          int        `json:"columns"`
	ColumnNames      []string   `json:"columnNames"`
	SampleRows       [][]string `json:"sampleRows"`
	Parts            int        `json:"parts,omitempty"` // split only: ceil(rows/rowsPerFile)
	ProcessingTimeMs int64      `json:"processingTimeMs"`
}

// PreviewTable loads f and reports its shape. When rowsPerFile is positive
// the preview also projects how many split parts a run would create.
func PreviewTable(f UploadedFile, rowsPerFile int) (*TablePreview, error) {
	start := time.Now()

	format, err := FormatFromName(f.Name)
	if err != nil {
		return nil, parseError(f.Name, err)
	}
	t, err := LoadTable(f, format)
	if err != nil {
		return nil, err
	}

	p := &TablePreview{
		Rows:        t.RowCount(),
		Columns:     t.ColumnCount(),
		ColumnNames: t.Columns,
	}
	for _, row := range t.Rows[:min(previewSampleRows, len(t.Rows))] {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = v.String()
		}
		p.SampleRows = append(p.SampleRows, cells)
	}
	if rowsPerFile > 0 {
		p.Parts = max(1, PartCount(t.RowCount(), rowsPerFile))
	}

	p.ProcessingTimeMs = time.Since(start).Milliseconds()
	return p, nil
}
