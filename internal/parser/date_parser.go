package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/models"
)

// Accepted absolute layouts, tried in order. Layouts without a zone are
// read in the caller's location.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02",
}

var relativeRegex = regexp.MustCompile(`^(\d+)\s+(day|days|week|weeks)\s+ago$`)

var monthRegex = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// ParseDate parses a report boundary.
// Supported formats:
// - ISO 8601 with zone (e.g., "2025-03-01T09:00:00+09:00")
// - local date-time (e.g., "2025-03-01T09:00")
// - date only (e.g., "2025-03-01", "2025/03/01"), meaning midnight
// - "today", "yesterday"
// - X days/weeks ago (e.g., "3 days ago")
func ParseDate(input string, loc *time.Location, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", models.ErrInvalidDateRange)
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, nil
		}
	}

	if t, err := parseRelativeDate(strings.ToLower(input), loc, now); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: cannot parse %q. Use: YYYY-MM-DD, ISO 8601, today, yesterday, or X days ago",
		models.ErrInvalidDateRange, input)
}

// parseRelativeDate parses "today", "yesterday" and "X days ago" style input.
func parseRelativeDate(input string, loc *time.Location, now time.Time) (time.Time, error) {
	today := StartOfDay(now, loc)

	switch input {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	matches := relativeRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return time.Time{}, fmt.Errorf("invalid relative date format")
	}
	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid number")
	}

	switch matches[2] {
	case "day", "days":
		if amount > 3660 { // Max 10 years in days
			return time.Time{}, fmt.Errorf("days must be at most 3660")
		}
		return today.AddDate(0, 0, -amount), nil
	default:
		if amount > 520 { // Max 10 years in weeks
			return time.Time{}, fmt.Errorf("weeks must be at most 520")
		}
		return today.AddDate(0, 0, -amount*7), nil
	}
}

// ParseRange parses a closed report window. from keeps its parsed time;
// to is moved to 23:59:59.999 of its calendar day so the whole day counts.
func ParseRange(fromStr, toStr string, loc *time.Location, now time.Time) (from, to time.Time, err error) {
	from, err = ParseDate(fromStr, loc, now)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}
	to, err = ParseDate(toStr, loc, now)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}
	to = EndOfDay(to, loc)
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from %s is after to %s",
			models.ErrInvalidDateRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return from, to, nil
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns 23:59:59.999 of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}

// ParseMonth validates a "YYYY-MM" month filter.
func ParseMonth(input string) (string, error) {
	input = strings.TrimSpace(input)
	matches := monthRegex.FindStringSubmatch(input)
	if len(matches) != 3 {
		return "", fmt.Errorf("invalid month %q, use YYYY-MM", input)
	}
	month, err := strconv.Atoi(matches[2])
	if err != nil || month < 1 || month > 12 {
		return "", fmt.Errorf("month must be between 01 and 12")
	}
	return input, nil
}

// MonthKey formats t as "YYYY-MM" in loc.
func MonthKey(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("2006-01")
}
