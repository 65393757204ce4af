package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

var jst = time.FixedZone("JST", 9*3600)

func TestParseDate(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, jst)

	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-03-01", time.Date(2025, 3, 1, 0, 0, 0, 0, jst)},
		{"2025/03/01", time.Date(2025, 3, 1, 0, 0, 0, 0, jst)},
		{"2025-03-01T09:15", time.Date(2025, 3, 1, 9, 15, 0, 0, jst)},
		{"2025-03-01T00:00:00Z", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-03-01T09:00:00.5+09:00", time.Date(2025, 3, 1, 9, 0, 0, 500000000, jst)},
		{"today", time.Date(2025, 3, 15, 0, 0, 0, 0, jst)},
		{" Yesterday ", time.Date(2025, 3, 14, 0, 0, 0, 0, jst)},
		{"3 days ago", time.Date(2025, 3, 12, 0, 0, 0, 0, jst)},
		{"2 weeks ago", time.Date(2025, 3, 1, 0, 0, 0, 0, jst)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input, jst, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"", "2025-13-01", "03/01/2025", "soon", "5 years ago"} {
		_, err := ParseDate(input, jst, time.Now())
		assert.ErrorIs(t, err, models.ErrInvalidDateRange, input)
	}
}

func TestParseRange_InclusiveTo(t *testing.T) {
	from, to, err := ParseRange("2025-03-01", "2025-03-31", jst, time.Now())
	require.NoError(t, err)

	assert.True(t, from.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, jst)))
	assert.True(t, to.Equal(time.Date(2025, 3, 31, 23, 59, 59, 999000000, jst)))

	lateSession := time.Date(2025, 3, 31, 23, 59, 58, 0, jst)
	assert.False(t, lateSession.After(to))
}

func TestParseRange_Errors(t *testing.T) {
	_, _, err := ParseRange("2025-04-02", "2025-04-01", jst, time.Now())
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)

	_, _, err = ParseRange("nope", "2025-04-01", jst, time.Now())
	require.ErrorIs(t, err, models.ErrInvalidDateRange)
	assert.Contains(t, err.Error(), "from:")

	// Same day is a valid one-day window.
	_, _, err = ParseRange("2025-04-01", "2025-04-01", jst, time.Now())
	assert.NoError(t, err)
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2025-07")
	require.NoError(t, err)
	assert.Equal(t, "2025-07", got)

	for _, bad := range []string{"2025-7", "2025-13", "July", ""} {
		_, err := ParseMonth(bad)
		assert.Error(t, err, bad)
	}
}

func TestMonthKey_UsesLocation(t *testing.T) {
	utcLate := time.Date(2025, 6, 30, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-07", MonthKey(utcLate, jst))
	assert.Equal(t, "2025-06", MonthKey(utcLate, time.UTC))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1.5h", FormatDuration(90*time.Minute))
	assert.Equal(t, "5m", FormatDuration(5*time.Minute))
	assert.Equal(t, "42s", FormatDuration(42*time.Second))
	assert.Equal(t, "1:02:05", FormatSeconds(3725))
	assert.Equal(t, "-", FormatDate(nil, jst))
}
