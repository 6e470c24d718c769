package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// UploadedFile is one named blob of a batch. Its Name is its identity.
type UploadedFile struct {
	Name string
	Data []byte
}

// Size returns the file size in bytes.
func (f UploadedFile) Size() int64 {
	return int64(len(f.Data))
}

// HumanSize renders the size for file listings ("1.2 MB").
func (f UploadedFile) HumanSize() string {
	return humanize.Bytes(uint64(len(f.Data)))
}

// FileNames returns the identities of a batch in batch order.
func FileNames(files []UploadedFile) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	return names
}

// TotalSize sums the sizes of a batch.
func TotalSize(files []UploadedFile) int64 {
	var total int64
	for _, f := range files {
		total += f.Size()
	}
	return total
}

// Format is a tabular serialization.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatSpreadsheet
)

const (
	MIMECSV         = "text/csv"
	MIMESpreadsheet = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEPDF         = "application/pdf"
	MIMEZip         = "application/zip"
)

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatSpreadsheet:
		return "xlsx"
	}
	return ""
}

// MIME returns the download content type.
func (f Format) MIME() string {
	switch f {
	case FormatCSV:
		return MIMECSV
	case FormatSpreadsheet:
		return MIMESpreadsheet
	}
	return "application/octet-stream"
}

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatSpreadsheet:
		return "Excel"
	}
	return "unknown"
}

// FormatFromName picks the table format from a file extension.
func FormatFromName(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatSpreadsheet, nil
	}
	return 0, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
}
