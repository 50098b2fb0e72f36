package catalog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore implements Store over an in-memory map. Intended for
// demos and testing — no database required.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record // canonical ref string -> record
}

// NewMemoryStore creates a new empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) FindRecords(_ context.Context, q Query) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Record
	for _, r := range s.records {
		if q.Matches(r) {
			matched = append(matched, r)
		}
	}
	// Map iteration order is random; sort by canonical reference so
	// repeated fetches of the same catalog produce the same order.
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Ref().String() < matched[j].Ref().String()
	})
	return matched, nil
}

func (s *MemoryStore) ResolveByRef(_ context.Context, ref EntityRef) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[ref.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) UpsertRecords(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
		s.records[r.Ref().String()] = r
	}
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
