package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the fixed-width UTC layout used for every timestamp column.
// Fixed width keeps lexical and chronological order identical, so range
// predicates can compare the TEXT columns directly on both dialects.
const TimeLayout = "2006-01-02T15:04:05Z"

// FormatTime renders t in TimeLayout, truncated to the second.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimeLayout)
}

// NullableTime returns nil for the zero time and FormatTime otherwise.
func NullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return FormatTime(t)
}

// ParseTime parses a TimeLayout column value. The empty string is the zero time.
// A malformed value is stored data gone bad and is tagged ErrDatabase.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parse timestamp %q: %w", ErrDatabase, s, err)
	}
	return t, nil
}

// ParseNullTime parses a nullable timestamp column.
func ParseNullTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid {
		return time.Time{}, nil
	}
	return ParseTime(ns.String)
}

// BoolToInt maps a bool to the INTEGER 0/1 representation used in every schema.
func BoolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// NullableString returns nil for the empty string.
func NullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// LikePattern builds a case-insensitive contains pattern for LOWER(col) LIKE ?.
func LikePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
