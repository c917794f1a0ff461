// Package journal records one entry per client exchange.
//
// The [Store] interface is implemented by [MemoryStore] for tests and
// short-lived processes, and by the mongodb sub-package for durable
// journals. Entries are written by the journal interceptor once an
// exchange completes.
//
// All store implementations must be safe for concurrent use.
package journal

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an entry does not exist
var ErrNotFound = errors.New("journal entry not found")

// Entry describes one completed exchange
type Entry struct {
	ID          string `bson:"_id" json:"id"`
	MessageID   string `bson:"message_id,omitempty" json:"messageId,omitempty"`
	RelatesTo   string `bson:"relates_to,omitempty" json:"relatesTo,omitempty"`
	Destination string `bson:"destination" json:"destination"`
	Action      string `bson:"action,omitempty" json:"action,omitempty"`

	// Outcome is the exchange classification, e.g. "extracted" or "fault-raised"
	Outcome string `bson:"outcome" json:"outcome"`
	Error   string `bson:"error,omitempty" json:"error,omitempty"`

	FaultCode   string `bson:"fault_code,omitempty" json:"faultCode,omitempty"`
	FaultReason string `bson:"fault_reason,omitempty" json:"faultReason,omitempty"`

	StartedAt   time.Time     `bson:"started_at" json:"startedAt"`
	CompletedAt time.Time     `bson:"completed_at" json:"completedAt"`
	Duration    time.Duration `bson:"duration" json:"duration"`

	// Serialized messages; stores may keep them out of line
	Request  []byte `bson:"-" json:"-"`
	Response []byte `bson:"-" json:"-"`
}

// Filter selects entries. Zero fields match everything.
type Filter struct {
	Destination string
	Outcome     string
	MessageID   string
	Since       *time.Time
	Limit       int
	Offset      int
}

func (f *Filter) matches(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.Destination != "" && e.Destination != f.Destination {
		return false
	}
	if f.Outcome != "" && e.Outcome != f.Outcome {
		return false
	}
	if f.MessageID != "" && e.MessageID != f.MessageID {
		return false
	}
	if f.Since != nil && e.StartedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Store persists journal entries
type Store interface {
	// Record stores an entry, assigning an ID when empty
	Record(ctx context.Context, entry *Entry) error

	// Get returns an entry with its messages
	Get(ctx context.Context, id string) (*Entry, error)

	// List returns entries matching filter, newest first, without messages
	List(ctx context.Context, filter *Filter) ([]*Entry, error)

	// Count returns the number of entries matching filter
	Count(ctx context.Context, filter *Filter) (int64, error)
}

// NewID returns a new entry identifier
func NewID() string {
	return uuid.NewString()
}

// MemoryStore is an in-memory Store
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	order   []string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
	}
}

// Record implements Store
func (s *MemoryStore) Record(ctx context.Context, entry *Entry) error {
	if entry.ID == "" {
		entry.ID = NewID()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}

	stored := *entry
	stored.Request = append([]byte(nil), entry.Request...)
	stored.Response = append([]byte(nil), entry.Response...)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.ID]; !exists {
		s.order = append(s.order, entry.ID)
	}
	s.entries[entry.ID] = &stored
	return nil
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := *e
	return &found, nil
}

// List implements Store
func (s *MemoryStore) List(ctx context.Context, filter *Filter) ([]*Entry, error) {
	s.mu.RLock()
	var matched []*Entry
	for _, id := range s.order {
		e := s.entries[id]
		if filter.matches(e) {
			found := *e
			found.Request, found.Response = nil, nil
			matched = append(matched, &found)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].StartedAt.After(matched[j].StartedAt)
	})

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(matched) {
				return nil, nil
			}
			matched = matched[filter.Offset:]
		}
		if filter.Limit > 0 && len(matched) > filter.Limit {
			matched = matched[:filter.Limit]
		}
	}
	return matched, nil
}

// Count implements Store
func (s *MemoryStore) Count(ctx context.Context, filter *Filter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.entries {
		if filter.matches(e) {
			n++
		}
	}
	return n, nil
}
