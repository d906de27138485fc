package cache

import (
	"context"
	"slices"
	"strings"
	"time"

	"notionat/backend"
	"notionat/internal/utils"
)

// MaxRecentlyOpened bounds the recently opened ledger.
const MaxRecentlyOpened = 20

// RecentPage is a ledger entry: the page as it was when opened, and when.
type RecentPage struct {
	Page     backend.Page `json:"page"`
	OpenedAt time.Time    `json:"opened_at"`
}

// RecentlyOpenedEntry is the entry holding the ledger, for subscribers.
func (c *Cache) RecentlyOpenedEntry() *Entry[[]RecentPage] {
	return NewEntry[[]RecentPage](c, KeyRecentlyOpened)
}

// RecordRecentlyOpened moves page to the front of the ledger, or adds it there.
// The ledger never holds the same page twice and keeps at most MaxRecentlyOpened
// entries, newest first. Persist failures are logged and otherwise ignored.
func (c *Cache) RecordRecentlyOpened(ctx context.Context, page backend.Page) {
	entry := c.RecentlyOpenedEntry()

	ledger, _, err := entry.Read(ctx)
	if err != nil {
		utils.Debugf("recently opened ledger unreadable, starting empty: %v", err)
	}
	ledger = slices.Clone(ledger)

	now := c.clock()
	ledger = slices.DeleteFunc(ledger, func(r RecentPage) bool { return r.Page.ID == page.ID })
	ledger = slices.Insert(ledger, 0, RecentPage{Page: page, OpenedAt: now})

	slices.SortStableFunc(ledger, func(a, b RecentPage) int {
		return b.OpenedAt.Compare(a.OpenedAt)
	})
	if len(ledger) > MaxRecentlyOpened {
		ledger = ledger[:MaxRecentlyOpened]
	}

	if err := entry.Write(ctx, ledger); err != nil {
		utils.Debugf("recording recently opened page %s: %v", page.ID, err)
	}
}

// RecentlyOpened returns the ledger, newest first. A non-empty query keeps the
// pages whose title contains it, ignoring case; untitled pages match "Untitled".
func (c *Cache) RecentlyOpened(ctx context.Context, query string) ([]RecentPage, error) {
	ledger, _, err := c.RecentlyOpenedEntry().Read(ctx)
	if err != nil {
		return nil, err
	}
	return FilterRecent(ledger, query), nil
}

// FilterRecent keeps the ledger entries whose title contains query, ignoring case.
func FilterRecent(ledger []RecentPage, query string) []RecentPage {
	if query == "" {
		return ledger
	}
	q := strings.ToLower(query)
	var out []RecentPage
	for _, r := range ledger {
		if strings.Contains(strings.ToLower(r.Page.DisplayTitle()), q) {
			out = append(out, r)
		}
	}
	return out
}
