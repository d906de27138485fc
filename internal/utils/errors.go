package utils

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorWithSuggestion wraps an error with a user-friendly suggestion.
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

// Error implements the error interface.
func (e *ErrorWithSuggestion) Error() string {
	return fmt.Sprintf("%s\n\nSuggestion: %s", e.Err.Error(), e.Suggestion)
}

// GetSuggestion returns the suggestion text.
func (e *ErrorWithSuggestion) GetSuggestion() string {
	return e.Suggestion
}

// Unwrap returns the underlying error for error chain support.
func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// WrapWithSuggestion wraps an existing error with a suggestion.
func WrapWithSuggestion(err error, suggestion string) error {
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// ErrNotFound is the sentinel wrapped by every "not found" constructor.
var ErrNotFound = errors.New("not found")

// ErrTokenMissing returns an error when no Notion integration token is configured.
func ErrTokenMissing() error {
	return &ErrorWithSuggestion{
		Err:        errors.New("notion token not configured"),
		Suggestion: "Run 'notionat auth set' or export NOTIONAT_NOTION_TOKEN",
	}
}

// ErrAuthenticationFailed returns an error when authentication fails.
func ErrAuthenticationFailed(backend string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("authentication failed for %s", backend),
		Suggestion: "Verify your integration token is correct and has not been revoked",
	}
}

// ErrBackendOffline returns an error when a backend is unreachable with smart suggestions.
func ErrBackendOffline(name, reason string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("backend %s is offline: %s", name, reason),
		Suggestion: getSmartSuggestion(reason),
	}
}

// getSmartSuggestion returns a context-aware suggestion based on the error reason.
func getSmartSuggestion(reason string) string {
	lowerReason := strings.ToLower(reason)

	if strings.Contains(lowerReason, "no such host") || strings.Contains(lowerReason, "dns") {
		return "Check your DNS settings and internet connection"
	}

	if strings.Contains(lowerReason, "connection refused") {
		return "Check if the server is running and accessible"
	}

	if strings.Contains(lowerReason, "timeout") {
		return "The server may be slow or unreachable. Try again later, or use --cached"
	}

	return "Check your internet connection and try again, or use --cached"
}

// ErrDatabaseNotFound returns an error for an unknown or unshared database.
func ErrDatabaseNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("database %s: %w", id, ErrNotFound),
		Suggestion: "Share the database with your integration, or run 'notionat db list' to see available databases",
	}
}

// ErrPageNotFound returns an error for an unknown or unshared page.
func ErrPageNotFound(id string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("page %s: %w", id, ErrNotFound),
		Suggestion: "Share the page with your integration, or run 'notionat search' to find it",
	}
}

// ErrPropertyNotFound returns an error for a property id or name that is not in the schema.
func ErrPropertyNotFound(property, databaseID string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("property %q: %w", property, ErrNotFound),
		Suggestion: fmt.Sprintf("Run 'notionat db properties %s' to list the properties", databaseID),
	}
}

// ErrInvalidLane returns an error for a kanban lane name outside the fixed set.
func ErrInvalidLane(lane string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid lane: %s", lane),
		Suggestion: fmt.Sprintf("Valid lanes: %s", strings.Join(valid, ", ")),
	}
}

// ErrKanbanRequiresSelect returns an error when a kanban status property is not a select.
func ErrKanbanRequiresSelect(property string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("property %q is not a select property", property),
		Suggestion: "Kanban lanes are built from a select property such as Status",
	}
}

// ErrUnsupportedProperty returns an error for a property type that cannot be edited.
func ErrUnsupportedProperty(property, propertyType string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("property %q has type %s, which cannot be edited", property, propertyType),
		Suggestion: "Editable types: checkbox, select, multi_select, date, people",
	}
}

// ErrInvalidDate returns an error for an invalid date string.
func ErrInvalidDate(dateStr string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid date: %s", dateStr),
		Suggestion: "Use YYYY-MM-DD, a relative date like today or +7d, or a range like 2026-01-15..+3d",
	}
}

// ErrInvalidOption returns an error for a select value matching no option.
func ErrInvalidOption(value string, valid []string) error {
	return &ErrorWithSuggestion{
		Err:        fmt.Errorf("invalid option: %s", value),
		Suggestion: fmt.Sprintf("Valid options: %s", strings.Join(valid, ", ")),
	}
}
