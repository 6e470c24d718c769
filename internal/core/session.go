package core

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Session is one browser's working state: the open tool, its uploaded batch,
// the user's ordering of that batch, and recent history. All methods are safe
// for concurrent use.
type Session struct {
	ID string

	mu      sync.Mutex
	tool    OpKind // 0 on the dashboard
	batch   []UploadedFile
	order   FileOrder
	history *History
}

func newSession(id string, historySize int) *Session {
	return &Session{ID: id, history: NewHistory(historySize)}
}

// Tool returns the open tool, or 0 on the dashboard.
func (s *Session) Tool() OpKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// EnterTool opens kind with an empty batch.
func (s *Session) EnterTool(kind OpKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enterTool(kind)
}

func (s *Session) enterTool(kind OpKind) {
	s.tool = kind
	s.batch = nil
	s.order.Reset()
}

// ExitTool returns to the dashboard, discarding the batch and its order.
func (s *Session) ExitTool() {
	s.EnterTool(0)
}

// SetBatch replaces the batch for kind and returns it in display order.
// Re-uploading the same set of names keeps the user's arrangement; any other
// set starts from upload order. Switching tools starts from a clean state.
func (s *Session) SetBatch(kind OpKind, files []UploadedFile) []UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tool != kind {
		s.enterTool(kind)
	}
	s.batch = slices.Clone(files)
	s.order.Reconcile(FileNames(s.batch))
	return s.ordered()
}

// Batch returns the batch for kind in display order.
func (s *Session) Batch(kind OpKind) ([]UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tool != kind || len(s.batch) == 0 {
		return nil, fmt.Errorf("%s: %w", kind, ErrNoInputs)
	}
	return s.ordered(), nil
}

// Move swaps the file at display position with its neighbour and returns the
// new display order.
func (s *Session) Move(kind OpKind, position int, dir Direction) ([]UploadedFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tool != kind || len(s.batch) == 0 {
		return nil, fmt.Errorf("%s: %w", kind, ErrNoInputs)
	}
	if err := s.order.Move(position, dir); err != nil {
		return nil, err
	}
	return s.ordered(), nil
}

func (s *Session) ordered() []UploadedFile {
	out, err := ApplyOrder(s.order.Order(), s.batch)
	if err != nil {
		// The order always tracks the batch; fall back to upload order.
		return slices.Clone(s.batch)
	}
	return out
}

// AddHistory records a completed run.
func (s *Session) AddHistory(e HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history.Add(e)
}

// History returns recent runs, newest first.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Entries()
}

// SessionStore holds sessions in memory, evicting the least recently used
// past capacity and any session idle longer than the TTL.
type SessionStore struct {
	cache       *expirable.LRU[string, *Session]
	historySize int
}

// NewSessionStore creates a store with the given capacity, idle TTL, and
// per-session history size.
func NewSessionStore(capacity int, ttl time.Duration, historySize int) *SessionStore {
	return &SessionStore{
		cache:       expirable.NewLRU[string, *Session](capacity, nil, ttl),
		historySize: historySize,
	}
}

// Create starts a new session with a random id.
func (st *SessionStore) Create() *Session {
	s := newSession(uuid.NewString(), st.historySize)
	st.cache.Add(s.ID, s)
	return s
}

// Get returns the session for id and refreshes its TTL.
func (st *SessionStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	s, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	st.cache.Add(id, s)
	return s, true
}

// GetOrCreate returns the session for id, or a new one when id is unknown or
// expired. created reports which happened.
func (st *SessionStore) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

// Remove drops a session.
func (st *SessionStore) Remove(id string) {
	st.cache.Remove(id)
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	return st.cache.Len()
}
