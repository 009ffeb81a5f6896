package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JakeFAU/weblink-inspector/internal/weblink"
)

// WebLinkStore implements weblink.RecordStore.
type WebLinkStore struct {
	mu      sync.RWMutex
	records map[string][]weblink.Record
}

// NewWebLinkStore constructs an empty WebLinkStore.
func NewWebLinkStore() *WebLinkStore {
	return &WebLinkStore{records: make(map[string][]weblink.Record)}
}

// WebLinks returns the records for url, newest version first.
func (s *WebLinkStore) WebLinks(_ context.Context, url string, limit int) ([]weblink.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.records[url]
	out := make([]weblink.Record, len(stored))
	copy(out, stored)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SaveWebLink appends record. Duplicate versions are accepted.
func (s *WebLinkStore) SaveWebLink(_ context.Context, record weblink.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.URL] = append(s.records[record.URL], record)
	return nil
}
