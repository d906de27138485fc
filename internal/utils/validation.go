package utils

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the absolute date format accepted on input.
const DateLayout = "2006-01-02"

// relativePattern matches relative date formats like +7d, -3d, +2w, +1m
var relativePattern = regexp.MustCompile(`^([+-])(\d+)([dwm])$`)

// parseRelativeDate parses "today", "tomorrow", "yesterday" and +/-N{d,w,m} against now.
// Returns nil, nil if the string is not a relative date.
func parseRelativeDate(dateStr string, now time.Time) (*time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	lower := strings.ToLower(dateStr)
	switch lower {
	case "today":
		return &today, nil
	case "tomorrow":
		t := today.AddDate(0, 0, 1)
		return &t, nil
	case "yesterday":
		t := today.AddDate(0, 0, -1)
		return &t, nil
	}

	matches := relativePattern.FindStringSubmatch(lower)
	if matches == nil {
		return nil, nil
	}

	num, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, ErrInvalidDate(dateStr)
	}
	if matches[1] == "-" {
		num = -num
	}

	var result time.Time
	switch matches[3] {
	case "d":
		result = today.AddDate(0, 0, num)
	case "w":
		result = today.AddDate(0, 0, num*7)
	case "m":
		result = today.AddDate(0, num, 0)
	}
	return &result, nil
}

// ParseDateFlagAt parses a date string supporting both relative and absolute formats,
// resolving relative dates against now.
// Supported relative formats: today, tomorrow, yesterday, +Nd, -Nd, +Nw, +Nm
// Supported absolute format: YYYY-MM-DD
// Returns nil, nil for empty string (clear date).
func ParseDateFlagAt(dateStr string, now time.Time) (*time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return nil, nil
	}

	t, err := parseRelativeDate(dateStr, now)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return t, nil
	}

	parsed, err := time.ParseInLocation(DateLayout, dateStr, now.Location())
	if err != nil {
		return nil, ErrInvalidDate(dateStr)
	}
	return &parsed, nil
}

// ParseDateRange parses "START" or "START..END", each side accepted by ParseDateFlagAt.
// An empty string clears the date (nil, nil, nil).
func ParseDateRange(value string, now time.Time) (start, end *time.Time, err error) {
	startStr, endStr, isRange := strings.Cut(value, "..")

	start, err = ParseDateFlagAt(startStr, now)
	if err != nil {
		return nil, nil, err
	}
	if !isRange {
		return start, nil, nil
	}
	if start == nil {
		return nil, nil, ErrInvalidDate(value)
	}

	end, err = ParseDateFlagAt(endStr, now)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateDateRange(start, end); err != nil {
		return nil, nil, WrapWithSuggestion(err, "Put the earlier date first, e.g. 2026-01-15..2026-01-20")
	}
	return start, end, nil
}

// ValidateDateRange validates that start date is not after end date.
// Nil dates are considered valid.
func ValidateDateRange(start, end *time.Time) error {
	if start == nil || end == nil {
		return nil
	}
	if start.After(*end) {
		return errors.New("start date cannot be after end date")
	}
	return nil
}
