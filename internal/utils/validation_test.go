package utils

import (
	"errors"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDateFlagAtValid(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
	}{
		{"2026-01-15", day(2026, 1, 15)},
		{"today", day(2026, 3, 10)},
		{"Tomorrow", day(2026, 3, 11)},
		{"yesterday", day(2026, 3, 9)},
		{"+7d", day(2026, 3, 17)},
		{"-3d", day(2026, 3, 7)},
		{"+2w", day(2026, 3, 24)},
		{"+1m", day(2026, 4, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseDateFlagAt(tt.input, fixedNow)
			if err != nil {
				t.Fatalf("ParseDateFlagAt(%q) error: %v", tt.input, err)
			}
			if result == nil || !result.Equal(tt.expected) {
				t.Errorf("ParseDateFlagAt(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestParseDateFlagEmpty(t *testing.T) {
	result, err := ParseDateFlagAt("  ", fixedNow)
	if err != nil || result != nil {
		t.Errorf("ParseDateFlagAt(\"  \") = %v, %v; want nil, nil", result, err)
	}
}

func TestParseDateFlagInvalid(t *testing.T) {
	for _, input := range []string{"2026-13-01", "15/01/2026", "next week", "+7x"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDateFlagAt(input, fixedNow)
			if err == nil {
				t.Fatalf("ParseDateFlagAt(%q) should fail", input)
			}
			var ews *ErrorWithSuggestion
			if !errors.As(err, &ews) {
				t.Errorf("error should be *ErrorWithSuggestion, got %T", err)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	start, end, err := ParseDateRange("2026-03-01..+2d", fixedNow)
	if err != nil {
		t.Fatalf("ParseDateRange error: %v", err)
	}
	if !start.Equal(day(2026, 3, 1)) || !end.Equal(day(2026, 3, 12)) {
		t.Errorf("got %v..%v", start, end)
	}
}

func TestParseDateRangeSingle(t *testing.T) {
	start, end, err := ParseDateRange("today", fixedNow)
	if err != nil {
		t.Fatalf("ParseDateRange error: %v", err)
	}
	if !start.Equal(day(2026, 3, 10)) || end != nil {
		t.Errorf("got %v, %v", start, end)
	}
}

func TestParseDateRangeClear(t *testing.T) {
	start, end, err := ParseDateRange("", fixedNow)
	if err != nil || start != nil || end != nil {
		t.Errorf("got %v, %v, %v; want all nil", start, end, err)
	}
}

func TestParseDateRangeReversed(t *testing.T) {
	if _, _, err := ParseDateRange("2026-03-05..2026-03-01", fixedNow); err == nil {
		t.Error("reversed range should fail")
	}
}

func TestParseDateRangeMissingStart(t *testing.T) {
	if _, _, err := ParseDateRange("..2026-03-01", fixedNow); err == nil {
		t.Error("range without a start should fail")
	}
}

func TestValidateDateRange(t *testing.T) {
	a, b := day(2026, 1, 1), day(2026, 1, 2)
	if err := ValidateDateRange(&a, &b); err != nil {
		t.Errorf("ordered range: %v", err)
	}
	if err := ValidateDateRange(&a, &a); err != nil {
		t.Errorf("same day: %v", err)
	}
	if err := ValidateDateRange(&b, &a); err == nil {
		t.Error("reversed range should fail")
	}
	if err := ValidateDateRange(nil, &a); err != nil {
		t.Errorf("nil start: %v", err)
	}
}
