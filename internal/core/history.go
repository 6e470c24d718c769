package core

import (
	"slices"
	"time"
)

// DefaultHistorySize is how many recent actions a session keeps.
const DefaultHistorySize = 5

// HistoryEntry records one completed run for the dashboard.
type HistoryEntry struct {
	Time   time.Time `json:"time"`
	Tool   string    `json:"tool"`
	Files  []string  `json:"files"`
	Output string    `json:"output"`
	Count  int       `json:"count"`
}

// Clock renders the entry time as HH:MM.
func (e HistoryEntry) Clock() string {
	return e.Time.Format("15:04")
}

// NewHistoryEntry builds the entry for a successful run. Count is the number
// of input files, except for the splitter where it is the number of parts.
func NewHistoryEntry(def OperationDefinition, files []UploadedFile, res Result, at time.Time) HistoryEntry {
	count := len(files)
	if def.Kind == OpSplit {
		count = res.Count
	}
	return HistoryEntry{
		Time:   at,
		Tool:   def.Label,
		Files:  FileNames(files),
		Output: res.Artifact.Filename,
		Count:  count,
	}
}

// History is a newest-first list capped at a fixed size.
type History struct {
	limit   int
	entries []HistoryEntry
}

// NewHistory returns an empty history keeping at most limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit}
}

// Add records e as the newest entry, dropping the oldest past the limit.
func (h *History) Add(e HistoryEntry) {
	h.entries = slices.Insert(h.entries, 0, e)
	if len(h.entries) > h.limit {
		h.entries = h.entries[:h.limit]
	}
}

// Entries returns a copy, newest first.
func (h *History) Entries() []HistoryEntry {
	return slices.Clone(h.entries)
}

// Len returns the number of entries kept.
func (h *History) Len() int {
	return len(h.entries)
}
