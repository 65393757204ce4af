// Package docstore defines the keyed, partitioned document collection the
// timer and report services are written against, plus an in-memory
// implementation of it.
//
// Collections are addressed by slash-separated paths such as
// "projects/REG2017/taskSessions". The last path segment is the collection
// group, which is what composite indexes are declared against.
package docstore

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
)

// Store errors.
var (
	// ErrIndexMissing is returned when a query needs a composite index that
	// has not been declared for the collection group.
	ErrIndexMissing = errors.New("failed precondition: query requires a composite index")
	// ErrUnavailable is returned when the backing store cannot be reached.
	ErrUnavailable = errors.New("document store unavailable")
	// ErrNotFound is returned by Update when the document does not exist.
	ErrNotFound = errors.New("document not found")
)

// Store is a keyed document collection with query capability.
type Store interface {
	// Get returns the document, or nil when it does not exist.
	Get(ctx context.Context, collection, id string) (*Doc, error)

	// Query returns the documents matching q.
	Query(ctx context.Context, q Query) ([]Doc, error)

	// Add creates a document with a store-assigned id.
	Add(ctx context.Context, collection string, fields Fields) (string, error)

	// Update merges fields into an existing document.
	Update(ctx context.Context, collection, id string, fields Fields) error

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// Setter is implemented by stores that accept caller-chosen document ids.
type Setter interface {
	// Set creates or replaces the document.
	Set(ctx context.Context, collection, id string, fields Fields) error
}

// Versioner is implemented by stores that count writes. Version changes
// after every successful write, including writes made by other processes
// sharing the same backing store.
type Versioner interface {
	Version(ctx context.Context) (int64, error)
}

// Doc is a stored document.
type Doc struct {
	Fields     Fields
	Collection string
	ID         string
}

// Fields holds document field values. Supported value types are nil,
// string, bool, int64, float64, time.Time, []string and []any.
type Fields map[string]any

// String returns the string value of key, or "" when absent or not a string.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// StringPtr returns nil when key is absent or null.
func (f Fields) StringPtr(key string) *string {
	s, ok := f[key].(string)
	if !ok {
		return nil
	}
	return &s
}

// Time returns the time value of key.
func (f Fields) Time(key string) (time.Time, bool) {
	t, ok := f[key].(time.Time)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// TimePtr returns nil when key is absent, null or not a time.
func (f Fields) TimePtr(key string) *time.Time {
	t, ok := f.Time(key)
	if !ok {
		return nil
	}
	return &t
}

// Int64 returns the integral value of key. Fractional and non-finite
// numbers are reported as invalid.
func (f Fields) Int64(key string) (int64, bool) {
	switch v := f[key].(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}

// Float64 returns the numeric value of key.
func (f Fields) Float64(key string) (float64, bool) {
	n, ok := toFloat(f[key])
	return n, ok
}

// Strings returns the string list stored under key.
func (f Fields) Strings(key string) []string {
	switch v := f[key].(type) {
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Clone returns a deep copy of the fields.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		return Fields(val).Clone()
	case Fields:
		return val.Clone()
	default:
		return v
	}
}

// Group returns the collection group of a collection path.
func Group(collection string) string {
	if i := strings.LastIndex(collection, "/"); i >= 0 {
		return collection[i+1:]
	}
	return collection
}

// Path joins path segments into a collection path.
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}
