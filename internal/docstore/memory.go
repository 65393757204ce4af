package docstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Ensure Memory implements Store and Versioner.
var (
	_ Store     = (*Memory)(nil)
	_ Versioner = (*Memory)(nil)
)

// Memory is an in-process Store. It is safe for concurrent use and gives
// read-after-write consistency.
type Memory struct {
	collections map[string]map[string]Fields
	indexes     Indexes
	version     int64
	mu          sync.RWMutex
}

// NewMemory creates an empty in-memory store with the given composite indexes.
func NewMemory(indexes ...Index) *Memory {
	return &Memory{
		collections: make(map[string]map[string]Fields),
		indexes:     indexes,
	}
}

// Get retrieves a document by id.
func (m *Memory) Get(ctx context.Context, collection, id string) (*Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return &Doc{Collection: collection, ID: id, Fields: fields.Clone()}, nil
}

// Query returns documents matching q.
func (m *Memory) Query(ctx context.Context, q Query) ([]Doc, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := m.indexes.Check(q); err != nil {
		return nil, err
	}
	m.mu.RLock()
	docs := make([]Doc, 0, len(m.collections[q.Collection]))
	// Sorted ids give unordered queries a stable result.
	ids := make([]string, 0, len(m.collections[q.Collection]))
	for id := range m.collections[q.Collection] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		docs = append(docs, Doc{
			Collection: q.Collection,
			ID:         id,
			Fields:     m.collections[q.Collection][id].Clone(),
		})
	}
	m.mu.RUnlock()
	return Apply(q, docs), nil
}

// Add creates a document with a random id.
func (m *Memory) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, fields.Clone())
	m.version++
	return id, nil
}

// Set creates or replaces a document with a caller-chosen id.
func (m *Memory) Set(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, fields.Clone())
	m.version++
	return nil
}

// Update merges fields into an existing document.
func (m *Memory) Update(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	for k, v := range fields.Clone() {
		existing[k] = v
	}
	m.version++
	return nil
}

// Delete removes a document.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[collection][id]; ok {
		delete(m.collections[collection], id)
		m.version++
	}
	return nil
}

// Version returns the number of writes applied so far.
func (m *Memory) Version(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version, nil
}

func (m *Memory) put(collection, id string, fields Fields) {
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]Fields)
		m.collections[collection] = docs
	}
	if fields == nil {
		fields = Fields{}
	}
	docs[id] = fields
}
