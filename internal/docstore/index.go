package docstore

import (
	"fmt"
	"slices"
)

// Index declares a composite index on a collection group.
type Index struct {
	Collection string   `toml:"collection" yaml:"collection"`
	Fields     []string `toml:"fields" yaml:"fields"`
}

// Indexes is the set of declared composite indexes.
type Indexes []Index

// Check returns ErrIndexMissing when q needs a composite index that is not
// declared. Equality-only queries are served by merging single-field
// indexes, and a query that ranges or orders on a single field without any
// equality filter uses that field's single-field index.
func (ix Indexes) Check(q Query) error {
	var eq, ordered []string
	for _, f := range q.Filters {
		if f.Op.IsRange() {
			ordered = appendUnique(ordered, f.Field)
		} else {
			eq = appendUnique(eq, f.Field)
		}
	}
	for _, o := range q.Orders {
		ordered = appendUnique(ordered, o.Field)
	}

	if len(ordered) == 0 {
		return nil
	}
	if len(eq) == 0 && len(ordered) == 1 {
		return nil
	}

	needed := append(slices.Clone(eq), ordered...)
	group := Group(q.Collection)
	for _, idx := range ix {
		if idx.Collection != group {
			continue
		}
		if containsAll(idx.Fields, needed) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s(%v)", ErrIndexMissing, group, needed)
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}
