// Package testutil provides shared test utilities and test doubles.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
)

// MockClock is a test double for models.Clock.
type MockClock struct {
	NowTime time.Time
	mu      sync.Mutex
}

// NewMockClock creates a clock frozen at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{NowTime: t}
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.NowTime
}

// Advance moves the clock forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NowTime = m.NowTime.Add(d)
}

// FaultyStore wraps a docstore.Store and injects errors per collection.
// Fields are ordered to minimize memory padding.
type FaultyStore struct {
	docstore.Store

	// QueryErr maps a collection path to the error its queries fail with.
	QueryErr map[string]error
	// GetErr maps a collection path to the error Get fails with.
	GetErr map[string]error
	// AddErr fails every Add when set.
	AddErr error
	// UpdateErr fails every Update when set.
	UpdateErr error
	// BeforeAdd runs before each Add reaches the wrapped store.
	BeforeAdd func(collection string)

	Queries []docstore.Query
	Adds    int
	mu      sync.Mutex
}

// NewFaultyStore wraps inner with no faults configured.
func NewFaultyStore(inner docstore.Store) *FaultyStore {
	return &FaultyStore{
		Store:    inner,
		QueryErr: make(map[string]error),
		GetErr:   make(map[string]error),
	}
}

// Get fails with the configured collection error or delegates.
func (f *FaultyStore) Get(ctx context.Context, collection, id string) (*docstore.Doc, error) {
	f.mu.Lock()
	err := f.GetErr[collection]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.Store.Get(ctx, collection, id)
}

// Query records q and fails with the configured collection error or delegates.
func (f *FaultyStore) Query(ctx context.Context, q docstore.Query) ([]docstore.Doc, error) {
	f.mu.Lock()
	f.Queries = append(f.Queries, q)
	err := f.QueryErr[q.Collection]
	f.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	return f.Store.Query(ctx, q)
}

// Add fails with AddErr or delegates.
func (f *FaultyStore) Add(ctx context.Context, collection string, fields docstore.Fields) (string, error) {
	if f.BeforeAdd != nil {
		f.BeforeAdd(collection)
	}
	f.mu.Lock()
	f.Adds++
	err := f.AddErr
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return f.Store.Add(ctx, collection, fields)
}

// Update fails with UpdateErr or delegates.
func (f *FaultyStore) Update(ctx context.Context, collection, id string, fields docstore.Fields) error {
	f.mu.Lock()
	err := f.UpdateErr
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Store.Update(ctx, collection, id, fields)
}

// FailQuery makes queries on collection fail with err.
func (f *FaultyStore) FailQuery(collection string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.QueryErr[collection] = err
}

// QueryCount returns how many queries targeted collection.
func (f *FaultyStore) QueryCount(collection string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, q := range f.Queries {
		if q.Collection == collection {
			n++
		}
	}
	return n
}
