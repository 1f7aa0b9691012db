package pricecache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps entries in process memory (tests, CACHE_BACKEND=memory)
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data     []byte
	storedAt time.Time
}

// NewMemoryStore creates an empty memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Name returns the backend name
func (s *MemoryStore) Name() string { return "memory" }

// Load returns a copy of the entry for fingerprint
func (s *MemoryStore) Load(_ context.Context, fingerprint string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[fingerprint]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.data...), nil
}

// Save stores a copy of data
func (s *MemoryStore) Save(_ context.Context, fingerprint string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[fingerprint] = memoryEntry{
		data:     append([]byte(nil), data...),
		storedAt: s.now().UTC(),
	}
	return nil
}

// List returns stored entries sorted by fingerprint
func (s *MemoryStore) List(_ context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(s.entries))
	for fp, e := range s.entries {
		entries = append(entries, Entry{Fingerprint: fp, Size: int64(len(e.data)), StoredAt: e.storedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Fingerprint < entries[j].Fingerprint
	})
	return entries, nil
}

// Clear removes every entry
func (s *MemoryStore) Clear(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.entries)
	s.entries = make(map[string]memoryEntry)
	return n, nil
}

// Len returns the number of entries
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
