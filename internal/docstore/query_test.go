package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Matches(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	fields := Fields{
		"userId":    "u1",
		"endedAt":   nil,
		"startedAt": t0,
		"duration":  int64(120),
		"assignees": []string{"u1", "u2"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"equal string", Filter{Field: "userId", Op: OpEqual, Value: "u1"}, true},
		{"equal string mismatch", Filter{Field: "userId", Op: OpEqual, Value: "u2"}, false},
		{"equal null", Filter{Field: "endedAt", Op: OpEqual, Value: nil}, true},
		{"missing field equals null", Filter{Field: "note", Op: OpEqual, Value: nil}, true},
		{"non-null is not null", Filter{Field: "userId", Op: OpEqual, Value: nil}, false},
		{"time >=", Filter{Field: "startedAt", Op: OpGreaterEqual, Value: t0}, true},
		{"time <", Filter{Field: "startedAt", Op: OpLess, Value: t0}, false},
		{"int vs float", Filter{Field: "duration", Op: OpEqual, Value: float64(120)}, true},
		{"range on null", Filter{Field: "endedAt", Op: OpGreater, Value: t0}, false},
		{"incomparable types", Filter{Field: "userId", Op: OpGreater, Value: 3}, false},
		{"array contains", Filter{Field: "assignees", Op: OpArrayContains, Value: "u2"}, true},
		{"array contains miss", Filter{Field: "assignees", Op: OpArrayContains, Value: "u3"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(fields))
		})
	}
}

func TestApply_FilterSortLimit(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	docs := []Doc{
		{ID: "a", Fields: Fields{"taskId": "t1", "startedAt": base.Add(1 * time.Hour)}},
		{ID: "b", Fields: Fields{"taskId": "t2", "startedAt": base.Add(2 * time.Hour)}},
		{ID: "c", Fields: Fields{"taskId": "t1", "startedAt": base.Add(3 * time.Hour)}},
		{ID: "d", Fields: Fields{"taskId": "t1", "startedAt": base}},
	}

	q := From("projects/P/taskSessions").
		Where("taskId", OpEqual, "t1").
		OrderBy("startedAt", Desc)

	got := Apply(q, docs)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "d"}, ids(got))

	got = Apply(q.Limit(2), docs)
	assert.Equal(t, []string{"c", "a"}, ids(got))
}

func TestQuery_BuilderDoesNotAlias(t *testing.T) {
	base := From("labels").Where("projectId", OpEqual, nil)
	a := base.Where("name", OpEqual, "a")
	b := base.Where("name", OpEqual, "b")

	require.Len(t, a.Filters, 2)
	require.Len(t, b.Filters, 2)
	assert.Equal(t, "a", a.Filters[1].Value)
	assert.Equal(t, "b", b.Filters[1].Value)
}

func TestCompare_NilSortsFirst(t *testing.T) {
	c, ok := Compare(nil, "x")
	require.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare("x", nil)
	require.True(t, ok)
	assert.Equal(t, 1, c)
}

func ids(docs []Doc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}
