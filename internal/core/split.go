package core

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"time"
)

// DefaultRowsPerFile is the chunk size offered when the caller picks none.
const DefaultRowsPerFile = 100

// archiveTime is stamped on every ZIP entry so identical input produces
// identical archives.
var archiveTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// RowRange is a half-open range of row indices.
type RowRange struct {
	Start, End int
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int { return r.End - r.Start }

// PlanSplit partitions rows into consecutive ranges of at most chunkSize.
// A table with no rows yields a single empty range, so splitting always
// produces at least one part carrying the header.
func PlanSplit(rows, chunkSize int) ([]RowRange, error) {
	if chunkSize < 1 {
		return nil, preconditionError(fmt.Errorf("rows per file %d: %w", chunkSize, ErrInvalidChunkSize))
	}
	if rows <= 0 {
		return []RowRange{{0, 0}}, nil
	}

	plan := make([]RowRange, 0, PartCount(rows, chunkSize))
	for start := 0; start < rows; start += chunkSize {
		plan = append(plan, RowRange{Start: start, End: min(start+chunkSize, rows)})
	}
	return plan, nil
}

// PartCount returns ceil(rows/chunkSize), the number of non-empty parts.
func PartCount(rows, chunkSize int) int {
	if chunkSize < 1 || rows <= 0 {
		return 0
	}
	return (rows + chunkSize - 1) / chunkSize
}

// SplitTable partitions t into chunks of chunkSize rows, each with the
// original header. Every row lands in exactly one chunk, in order.
func SplitTable(t *Table, chunkSize int) ([]*Table, error) {
	plan, err := PlanSplit(t.RowCount(), chunkSize)
	if err != nil {
		return nil, err
	}

	chunks := make([]*Table, len(plan))
	for i, r := range plan {
		chunks[i] = t.Slice(r.Start, r.End)
	}
	return chunks, nil
}

// PartName returns the archive entry name of the i-th part (1-based).
func PartName(i int, format Format) string {
	return fmt.Sprintf("part_%d.%s", i, format.Extension())
}

// PackageChunks serializes each chunk as format and stores them in one ZIP,
// named part_1..part_n in chunk order. tick is called once per chunk written.
func PackageChunks(chunks []*Table, format Format, tick TickFunc) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, chunk := range chunks {
		name := PartName(i+1, format)

		data, err := WriteTable(chunk, format)
		if err != nil {
			var opErr *OpError
			if errors.As(err, &opErr) {
				opErr.File = name
				return nil, opErr
			}
			return nil, ioError(name, err)
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: archiveTime,
		})
		if err != nil {
			return nil, ioError(name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, ioError(name, err)
		}

		tick.call(i+1, len(chunks))
	}

	if err := zw.Close(); err != nil {
		return nil, ioError("", err)
	}
	return buf.Bytes(), nil
}
