package docstore

import (
	"cmp"
	"slices"
	"time"
)

// Op is a filter operator.
type Op string

// Filter operators.
const (
	OpEqual         Op = "=="
	OpLess          Op = "<"
	OpLessEqual     Op = "<="
	OpGreater       Op = ">"
	OpGreaterEqual  Op = ">="
	OpArrayContains Op = "array-contains"
)

// IsRange reports whether the operator is an inequality.
func (o Op) IsRange() bool {
	switch o {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	default:
		return false
	}
}

// Direction is a sort direction.
type Direction int

// Sort directions.
const (
	Asc Direction = iota
	Desc
)

// Filter is a single conjunctive predicate.
type Filter struct {
	Value any
	Field string
	Op    Op
}

// Order is a single sort key.
type Order struct {
	Field string
	Dir   Direction
}

// Query selects documents from one collection.
// Fields are ordered to minimize memory padding.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Max        int // 0 = no limit
}

// From starts a query on a collection path.
func From(collection string) Query {
	return Query{Collection: collection}
}

// Where adds a filter.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(slices.Clone(q.Filters), Filter{Field: field, Op: op, Value: value})
	return q
}

// OrderBy adds a sort key.
func (q Query) OrderBy(field string, dir Direction) Query {
	q.Orders = append(slices.Clone(q.Orders), Order{Field: field, Dir: dir})
	return q
}

// Limit caps the number of returned documents.
func (q Query) Limit(n int) Query {
	q.Max = n
	return q
}

// Matches reports whether fields satisfy every filter of the query.
func (q Query) Matches(fields Fields) bool {
	for _, f := range q.Filters {
		if !f.Matches(fields) {
			return false
		}
	}
	return true
}

// Matches reports whether fields satisfy the filter. A missing field is
// treated as null.
func (f Filter) Matches(fields Fields) bool {
	v := fields[f.Field]
	switch f.Op {
	case OpEqual:
		if f.Value == nil || v == nil {
			return f.Value == nil && v == nil
		}
		c, ok := Compare(v, f.Value)
		return ok && c == 0
	case OpArrayContains:
		return arrayContains(v, f.Value)
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		if v == nil || f.Value == nil {
			return false
		}
		c, ok := Compare(v, f.Value)
		if !ok {
			return false
		}
		switch f.Op {
		case OpLess:
			return c < 0
		case OpLessEqual:
			return c <= 0
		case OpGreater:
			return c > 0
		default:
			return c >= 0
		}
	default:
		return false
	}
}

func arrayContains(list, want any) bool {
	switch l := list.(type) {
	case []string:
		s, ok := want.(string)
		return ok && slices.Contains(l, s)
	case []any:
		for _, item := range l {
			if c, ok := Compare(item, want); ok && c == 0 {
				return true
			}
		}
	}
	return false
}

// Apply filters, sorts and limits docs according to the query. It is the
// shared evaluation used by every Store implementation.
func Apply(q Query, docs []Doc) []Doc {
	out := make([]Doc, 0, len(docs))
	for _, d := range docs {
		if q.Matches(d.Fields) {
			out = append(out, d)
		}
	}
	if len(q.Orders) > 0 {
		slices.SortStableFunc(out, func(a, b Doc) int {
			for _, o := range q.Orders {
				c := compareForSort(a.Fields[o.Field], b.Fields[o.Field])
				if o.Dir == Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}
	if q.Max > 0 && len(out) > q.Max {
		out = out[:q.Max]
	}
	return out
}

// Compare orders two field values of the same kind. The second result is
// false when the values are not comparable.
func Compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return cmp.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		default:
			return 1, true
		}
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	return cmp.Compare(af, bf), true
}

// compareForSort falls back to a type rank so mixed-type fields still sort
// deterministically.
func compareForSort(a, b any) int {
	if c, ok := Compare(a, b); ok {
		return c
	}
	return cmp.Compare(typeRank(a), typeRank(b))
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int32, int64, float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	default:
		return 5
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
