package ports_test

import (
	"context"
	"sync"
	"testing"

	"github.com/aretw0/scribe/pkg/domain"
	"github.com/aretw0/scribe/pkg/ports"
)

// MockStore is a map-backed DocumentStore used to exercise the contract itself.
type MockStore struct {
	mu   sync.Mutex
	data map[string]domain.DocumentRecord
}

func NewMockStore() *MockStore {
	return &MockStore{data: make(map[string]domain.DocumentRecord)}
}

func (m *MockStore) Save(ctx context.Context, rec domain.DocumentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.Embed = rec.Embed.Clone()
	m.data[rec.ID] = rec
	return nil
}

func (m *MockStore) Load(ctx context.Context, id string) (domain.DocumentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.data[id]
	if !ok {
		return domain.DocumentRecord{}, domain.ErrDocumentNotFound
	}
	return rec, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestDocumentStore_Contract(t *testing.T) {
	ports.RunDocumentStoreContract(t, NewMockStore())
}
