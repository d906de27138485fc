package utils

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorWithSuggestionImplementsError(t *testing.T) {
	var _ error = &ErrorWithSuggestion{}
}

func TestErrorWithSuggestionError(t *testing.T) {
	err := &ErrorWithSuggestion{
		Err:        errors.New("page missing"),
		Suggestion: "Try search",
	}
	want := "page missing\n\nSuggestion: Try search"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorWithSuggestionUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := WrapWithSuggestion(inner, "do something")
	if !errors.Is(err, inner) {
		t.Error("errors.Is should find wrapped error")
	}
	var ews *ErrorWithSuggestion
	if !errors.As(err, &ews) {
		t.Fatal("errors.As should match *ErrorWithSuggestion")
	}
	if ews.GetSuggestion() != "do something" {
		t.Errorf("GetSuggestion() = %q", ews.GetSuggestion())
	}
}

func TestNotFoundErrorsWrapSentinel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"database", ErrDatabaseNotFound("db1"), "database db1"},
		{"page", ErrPageNotFound("p1"), "page p1"},
		{"property", ErrPropertyNotFound("Status", "db1"), `property "Status"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, ErrNotFound) {
				t.Errorf("%v does not wrap ErrNotFound", tt.err)
			}
			if !strings.Contains(tt.err.Error(), tt.want) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.want)
			}
		})
	}
}

func TestErrPropertyNotFoundSuggestsCommand(t *testing.T) {
	var ews *ErrorWithSuggestion
	if !errors.As(ErrPropertyNotFound("Status", "db1"), &ews) {
		t.Fatal("expected *ErrorWithSuggestion")
	}
	if !strings.Contains(ews.Suggestion, "notionat db properties db1") {
		t.Errorf("suggestion = %q", ews.Suggestion)
	}
}

func TestErrBackendOfflineSuggestions(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"dial tcp: lookup api.notion.com: no such host", "DNS"},
		{"dial tcp 127.0.0.1:443: connection refused", "server is running"},
		{"context deadline exceeded (Client.Timeout exceeded)", "slow or unreachable"},
		{"unexpected EOF", "internet connection"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var ews *ErrorWithSuggestion
			if !errors.As(ErrBackendOffline("notion", tt.reason), &ews) {
				t.Fatal("expected *ErrorWithSuggestion")
			}
			if !strings.Contains(ews.Suggestion, tt.want) {
				t.Errorf("suggestion = %q, want it to contain %q", ews.Suggestion, tt.want)
			}
		})
	}
}

func TestErrInvalidLaneListsValid(t *testing.T) {
	err := ErrInvalidLane("doing", []string{"backlog", "started"})
	if !strings.Contains(err.Error(), "backlog, started") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrTokenMissing(t *testing.T) {
	err := ErrTokenMissing()
	if !strings.Contains(err.Error(), "NOTIONAT_NOTION_TOKEN") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrAuthenticationFailed(t *testing.T) {
	err := ErrAuthenticationFailed("notion")
	if !strings.Contains(err.Error(), "authentication failed for notion") {
		t.Errorf("Error() = %q", err.Error())
	}
}
