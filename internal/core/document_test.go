package core

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// buildPDF writes a minimal valid PDF with the given number of pages. Each
// page's content stream carries a "<label>-p<n>" comment so page order can be
// checked in the merged bytes.
func buildPDF(t *testing.T, label string, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 200] /Resources << >> /Contents %d 0 R >>", 4+2*i))
		content := fmt.Sprintf("%% %s-p%d\n0 0 m 100 100 l S", label, i+1)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}

func TestDocumentPages(t *testing.T) {
	n, err := DocumentPages(UploadedFile{Name: "a.pdf", Data: buildPDF(t, "a", 4)})
	if err != nil {
		t.Fatalf("DocumentPages: %v", err)
	}
	if n != 4 {
		t.Errorf("pages = %d, want 4", n)
	}
}

func TestMergeDocuments(t *testing.T) {
	docs := []UploadedFile{
		{Name: "a.pdf", Data: buildPDF(t, "docA", 2)},
		{Name: "b.pdf", Data: buildPDF(t, "docB", 5)},
		{Name: "c.pdf", Data: buildPDF(t, "docC", 3)},
	}

	var ticks [][2]int
	out, pages, err := MergeDocuments(docs, func(step, total int) {
		ticks = append(ticks, [2]int{step, total})
	})
	if err != nil {
		t.Fatalf("MergeDocuments: %v", err)
	}

	if pages != 10 {
		t.Errorf("pages = %d, want 10", pages)
	}
	n, err := api.PageCount(bytes.NewReader(out), pdfConfig())
	if err != nil {
		t.Fatalf("merged output is not readable: %v", err)
	}
	if n != 10 {
		t.Errorf("merged page count = %d, want 10", n)
	}
	if !slices.Equal(ticks, [][2]int{{1, 3}, {2, 3}, {3, 3}}) {
		t.Errorf("ticks = %v", ticks)
	}

	// Pages appear in input order: all of A, then B, then C.
	last := -1
	for _, marker := range []string{"docA-p1", "docA-p2", "docB-p1", "docB-p5", "docC-p1", "docC-p3"} {
		idx := bytes.Index(out, []byte(marker))
		if idx < 0 {
			t.Fatalf("marker %s missing from merged output", marker)
		}
		if idx < last {
			t.Errorf("marker %s out of order", marker)
		}
		last = idx
	}
}

func TestMergeDocuments_SingleInputIsIdentity(t *testing.T) {
	data := buildPDF(t, "solo", 3)

	out, pages, err := MergeDocuments([]UploadedFile{{Name: "solo.pdf", Data: data}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, data) {
		t.Error("single input should be returned unchanged")
	}
	if pages != 3 {
		t.Errorf("pages = %d, want 3", pages)
	}
}

func TestMergeDocuments_NoInputs(t *testing.T) {
	_, _, err := MergeDocuments(nil, nil)
	if KindOf(err) != KindPrecondition || !errors.Is(err, ErrNoInputs) {
		t.Errorf("error = %v, want precondition ErrNoInputs", err)
	}
}

func TestMergeDocuments_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "not a pdf", data: []byte("hello, this is text")},
		{name: "empty", data: nil},
		{name: "truncated", data: buildPDF(t, "cut", 2)[:40]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := []UploadedFile{
				{Name: "good.pdf", Data: buildPDF(t, "good", 1)},
				{Name: "broken.pdf", Data: tt.data},
			}

			out, _, err := MergeDocuments(docs, nil)
			if KindOf(err) != KindDocument {
				t.Fatalf("error = %v, want KindDocument", err)
			}
			var opErr *OpError
			if !errors.As(err, &opErr) || opErr.File != "broken.pdf" {
				t.Errorf("error does not name broken.pdf: %v", err)
			}
			if out != nil {
				t.Error("failed merge returned output")
			}
		})
	}
}
