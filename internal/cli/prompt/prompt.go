// Package prompt handles interactive page selection for commands run without
// an explicit page id.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"notionat/backend"
	"notionat/internal/utils"
	"notionat/internal/views"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = utils.ErrSelectionCancelled
	ErrNoPages            = errors.New("no pages available")
	ErrNoMatches          = errors.New("no pages match the filter")
)

// PageSelector filters pages by title, then asks for a number.
type PageSelector struct {
	Pages  []backend.Page
	Prompt string
	Reader io.Reader
	Writer io.Writer
	Now    time.Time
}

// Run executes the selection prompt. A single candidate, before or after
// filtering, is selected without asking.
func (s *PageSelector) Run() (*backend.Page, error) {
	if len(s.Pages) == 0 {
		return nil, ErrNoPages
	}
	if len(s.Pages) == 1 {
		return &s.Pages[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}
	scanner := bufio.NewScanner(s.Reader)

	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}
	filtered := FilterPages(s.Pages, strings.TrimSpace(scanner.Text()))

	if len(filtered) == 0 {
		return nil, ErrNoMatches
	}
	if len(filtered) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", views.PageTitle(filtered[0]))
		return &filtered[0], nil
	}

	for i, p := range filtered {
		_, _ = fmt.Fprintf(writer, "  %d) %s\n", i+1, formatPageLine(p, s.now()))
	}

	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	num, err := strconv.Atoi(input)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %s", input)
	}
	if num == 0 {
		return nil, ErrSelectionCancelled
	}
	if num < 1 || num > len(filtered) {
		return nil, fmt.Errorf("selection out of range: %d", num)
	}
	return &filtered[num-1], nil
}

func (s *PageSelector) now() time.Time {
	if s.Now.IsZero() {
		return time.Now()
	}
	return s.Now
}

// FilterPages keeps pages whose title contains filter, ignoring case.
func FilterPages(pages []backend.Page, filter string) []backend.Page {
	if filter == "" {
		return pages
	}
	q := strings.ToLower(filter)
	var out []backend.Page
	for _, p := range pages {
		if strings.Contains(strings.ToLower(p.DisplayTitle()), q) {
			out = append(out, p)
		}
	}
	return out
}

// formatPageLine shows the title with its kind and last edit.
func formatPageLine(p backend.Page, now time.Time) string {
	var meta []string
	if p.IsDatabase() {
		meta = append(meta, "database")
	}
	if !p.LastEditedTime.IsZero() {
		meta = append(meta, "edited "+views.RelativeTime(p.LastEditedTime, now))
	}
	if len(meta) == 0 {
		return views.PageTitle(p)
	}
	return fmt.Sprintf("%s [%s]", views.PageTitle(p), strings.Join(meta, ", "))
}
