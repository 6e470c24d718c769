package core

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var disableConfigDir sync.Once

// pdfConfig returns a fresh pdfcpu configuration. Validation is relaxed so
// documents from common producers with minor PDF format violations still merge.
// pdfcpu's on-disk config directory is never created.
func pdfConfig() *model.Configuration {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// DocumentPages validates one PDF and returns its page count.
func DocumentPages(f UploadedFile) (int, error) {
	if len(f.Data) == 0 {
		return 0, documentError(f.Name, ErrEmptyFile)
	}

	n, err := api.PageCount(bytes.NewReader(f.Data), pdfConfig())
	if err != nil {
		return 0, documentError(f.Name, fmt.Errorf("invalid pdf: %w", err))
	}
	return n, nil
}

// MergeDocuments concatenates the pages of docs, in order, into one PDF.
// Pages are copied as-is. Every input is validated before anything is
// written, so a bad input yields no output at all. It returns the merged
// bytes and the total page count.
func MergeDocuments(docs []UploadedFile, tick TickFunc) ([]byte, int, error) {
	if len(docs) == 0 {
		return nil, 0, preconditionError(ErrNoInputs)
	}

	pages := 0
	readers := make([]io.ReadSeeker, len(docs))
	for i, doc := range docs {
		n, err := DocumentPages(doc)
		if err != nil {
			return nil, 0, err
		}
		pages += n
		readers[i] = bytes.NewReader(doc.Data)
		tick.call(i+1, len(docs))
	}

	if len(docs) == 1 {
		return bytes.Clone(docs[0].Data), pages, nil
	}

	var buf bytes.Buffer
	if err := api.MergeRaw(readers, &buf, false, pdfConfig()); err != nil {
		return nil, 0, documentError("", fmt.Errorf("merge: %w", err))
	}
	return buf.Bytes(), pages, nil
}
