package core

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
)

// OpKind identifies a tool. The set is closed.
type OpKind int

const (
	OpMergePDF OpKind = iota + 1
	OpMergeExcel
	OpMergeCSV
	OpExcelToCSV
	OpCSVToExcel
	OpSplit
)

var opKeys = map[OpKind]string{
	OpMergePDF:   "pdf",
	OpMergeExcel: "excel",
	OpMergeCSV:   "csv",
	OpExcelToCSV: "e2c",
	OpCSVToExcel: "c2e",
	OpSplit:      "split",
}

// Key returns the URL-safe identifier ("pdf", "e2c", ...).
func (k OpKind) Key() string {
	return opKeys[k]
}

func (k OpKind) String() string {
	if key, ok := opKeys[k]; ok {
		return key
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// ParseOpKind maps a key back to its OpKind.
func ParseOpKind(key string) (OpKind, error) {
	for k, v := range opKeys {
		if v == key {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", key, ErrUnknownOperation)
}

// Options are the user-tunable knobs of a run.
type Options struct {
	RowsPerFile int  // split only
	Strict      bool // table merges: reject differing columns instead of filling
}

// Handler runs one operation over an already ordered batch.
type Handler func(ctx context.Context, files []UploadedFile, opts Options, tick TickFunc) (Result, error)

// OperationDefinition is everything the surfaces need to offer a tool.
type OperationDefinition struct {
	Kind        OpKind
	Label       string   // "PDF Merger"
	Description string   // one sentence for the dashboard card
	Tip         string   // shown under the uploader
	Extensions  []string // accepted, lower-case, with dot
	MinFiles    int
	MaxFiles    int    // 0 = unlimited
	Output      string // download name, "" when it depends on the input
	Handler     Handler
}

// MultiFile reports whether the tool takes a batch (and so supports reordering).
func (d OperationDefinition) MultiFile() bool {
	return d.MaxFiles != 1
}

// Accepts reports whether name has one of the tool's extensions.
func (d OperationDefinition) Accepts(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range d.Extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// CheckBatch validates the batch size and file types before a run.
func (d OperationDefinition) CheckBatch(files []UploadedFile) error {
	if len(files) == 0 {
		return preconditionError(ErrNoInputs)
	}
	if len(files) < d.MinFiles {
		return preconditionError(fmt.Errorf("%s needs %d or more files, got %d: %w", d.Label, d.MinFiles, len(files), ErrNoInputs))
	}
	if d.MaxFiles > 0 && len(files) > d.MaxFiles {
		return preconditionError(fmt.Errorf("%s takes at most %d file(s), got %d", d.Label, d.MaxFiles, len(files)))
	}
	for _, f := range files {
		if !d.Accepts(f.Name) {
			return parseError(f.Name, fmt.Errorf("expected %s: %w", strings.Join(d.Extensions, " or "), ErrUnsupportedFormat))
		}
	}
	return nil
}

var (
	registry   = make(map[OpKind]OperationDefinition)
	registryMu sync.RWMutex
)

// Register adds an operation definition to the registry.
// Panics if the kind is already registered.
func Register(def OperationDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Kind]; exists {
		panic(fmt.Sprintf("operation already registered: %s", def.Kind))
	}
	def.Extensions = slices.Clone(def.Extensions)
	registry[def.Kind] = def
}

// Get returns an operation definition by kind.
func Get(kind OpKind) (OperationDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// Lookup resolves a tool key to its definition.
func Lookup(key string) (OperationDefinition, error) {
	kind, err := ParseOpKind(key)
	if err != nil {
		return OperationDefinition{}, err
	}
	def, ok := Get(kind)
	if !ok {
		return OperationDefinition{}, fmt.Errorf("%q: %w", key, ErrUnknownOperation)
	}
	return def, nil
}

// All returns all registered operations in OpKind order.
func All() []OperationDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]OperationDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Kind < result[j].Kind
	})

	return result
}

// OperationCount returns the number of registered operations.
func OperationCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}
