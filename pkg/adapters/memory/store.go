package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/scribe/pkg/domain"
)

// DocumentStore implements ports.DocumentStore in memory.
// Safe for concurrent use.
type DocumentStore struct {
	data map[string]domain.DocumentRecord
	mu   sync.RWMutex
}

// NewDocumentStore creates a new in-memory archive.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		data: make(map[string]domain.DocumentRecord),
	}
}

// Save persists the record in memory.
func (s *DocumentStore) Save(ctx context.Context, rec domain.DocumentRecord) error {
	// Deep copy to ensure isolation, similar to serialization
	rec.Embed = rec.Embed.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID] = rec
	return nil
}

// Load retrieves a record from memory.
func (s *DocumentStore) Load(ctx context.Context, id string) (domain.DocumentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return domain.DocumentRecord{}, domain.ErrDocumentNotFound
	}

	// Copy on read so the caller can't mutate the stored fields.
	rec.Embed = rec.Embed.Clone()
	return rec, nil
}

// Delete removes the record.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns archived document IDs, oldest first.
func (s *DocumentStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	recs := make([]domain.DocumentRecord, 0, len(s.data))
	for _, rec := range s.data {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CompletedAt.Equal(recs[j].CompletedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CompletedAt.Before(recs[j].CompletedAt)
	})

	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids, nil
}
