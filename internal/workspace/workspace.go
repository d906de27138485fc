// Package workspace wires the local cache to the remote content API. Every
// read returns the stored value immediately and revalidates it in the
// background; writes go to the API and are folded back into the cache.
package workspace

import (
	"context"
	"errors"
	"slices"
	"strings"

	"notionat/backend"
	"notionat/backend/git"
	"notionat/internal/cache"
	"notionat/internal/utils"
	"notionat/internal/views"
)

// ErrOffline is the refresh error when no content API is configured.
var ErrOffline = errors.New("offline: showing cached data only")

// Service is the set of operations the CLI and TUI call.
type Service struct {
	api      backend.ContentAPI
	cache    *cache.Cache
	roots    []string
	maxDepth int
}

// Option configures a Service.
type Option func(*Service)

// WithRepoRoots sets where Repos scans for Git repositories.
func WithRepoRoots(roots []string, maxDepth int) Option {
	return func(s *Service) {
		s.roots = roots
		s.maxDepth = maxDepth
	}
}

// New returns a Service. A nil api serves cached data only; every refresh
// then fails with ErrOffline.
func New(api backend.ContentAPI, c *cache.Cache, opts ...Option) *Service {
	s := &Service{api: api, cache: c, maxDepth: git.DefaultMaxDepth}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache exposes the underlying cache for subscribers.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Offline reports whether the service has no content API.
func (s *Service) Offline() bool {
	return s.api == nil
}

// online wraps fetch so it fails with ErrOffline when there is no API.
func online[T any](s *Service, fetch func(ctx context.Context, api backend.ContentAPI) (T, error)) cache.FetchFunc[T] {
	return func(ctx context.Context) (T, error) {
		if s.api == nil {
			var zero T
			return zero, ErrOffline
		}
		return fetch(ctx, s.api)
	}
}

// Search queries the API directly. Results are not cached.
func (s *Service) Search(ctx context.Context, query string) ([]backend.Page, error) {
	if s.api == nil {
		return nil, ErrOffline
	}
	return s.api.SearchPages(ctx, query)
}

// Databases lists the databases shared with the integration.
func (s *Service) Databases(ctx context.Context) (cache.Delivery[[]backend.Page], <-chan cache.Result[[]backend.Page]) {
	return s.cache.Databases().GetThenRefresh(ctx, online(s, func(ctx context.Context, api backend.ContentAPI) ([]backend.Page, error) {
		return api.FetchDatabases(ctx)
	}))
}

// DatabasePages lists the rows of a database.
func (s *Service) DatabasePages(ctx context.Context, databaseID string) (cache.Delivery[[]backend.Page], <-chan cache.Result[[]backend.Page]) {
	return s.cache.DatabasePages(databaseID).GetThenRefresh(ctx, online(s, func(ctx context.Context, api backend.ContentAPI) ([]backend.Page, error) {
		return api.QueryDatabase(ctx, databaseID, nil)
	}))
}

// DatabaseProperties returns the database schema, restricted to the property
// types list views can display.
func (s *Service) DatabaseProperties(ctx context.Context, databaseID string) (cache.Delivery[[]backend.DatabaseProperty], <-chan cache.Result[[]backend.DatabaseProperty]) {
	return s.cache.DatabaseProperties(databaseID).GetThenRefresh(ctx, s.fetchProperties(databaseID))
}

func (s *Service) fetchProperties(databaseID string) cache.FetchFunc[[]backend.DatabaseProperty] {
	return online(s, func(ctx context.Context, api backend.ContentAPI) ([]backend.DatabaseProperty, error) {
		props, err := api.FetchDatabaseProperties(ctx, databaseID)
		if err != nil {
			return nil, err
		}
		return views.SupportedProperties(props), nil
	})
}

// Users lists workspace members.
func (s *Service) Users(ctx context.Context) (cache.Delivery[[]backend.User], <-chan cache.Result[[]backend.User]) {
	return s.cache.Users().GetThenRefresh(ctx, online(s, func(ctx context.Context, api backend.ContentAPI) ([]backend.User, error) {
		return api.FetchUsers(ctx)
	}))
}

// ReposEntry is the cache entry holding the last repository scan. The disk is
// the source of truth, so a scan that finds nothing replaces the stored list.
func (s *Service) ReposEntry() *cache.Entry[[]git.Repo] {
	return cache.NewEntry[[]git.Repo](s.cache, cache.KeyGitRepos).
		WithEmpty(func([]git.Repo) bool { return false })
}

// Repos lists Git repositories under the configured roots.
func (s *Service) Repos(ctx context.Context) (cache.Delivery[[]git.Repo], <-chan cache.Result[[]git.Repo]) {
	return s.ReposEntry().GetThenRefresh(ctx, s.scanRepos)
}

// RescanRepos rescans the roots and stores the result.
func (s *Service) RescanRepos(ctx context.Context) ([]git.Repo, error) {
	return s.ReposEntry().Refresh(ctx, s.scanRepos)
}

func (s *Service) scanRepos(ctx context.Context) ([]git.Repo, error) {
	return git.Scan(ctx, s.roots, s.maxDepth)
}

// RecentlyOpened returns the recently opened pages matching query, newest first.
func (s *Service) RecentlyOpened(ctx context.Context, query string) ([]cache.RecentPage, error) {
	return s.cache.RecentlyOpened(ctx, query)
}

// View returns the stored view of a database, or the default view.
func (s *Service) View(ctx context.Context, databaseID string) views.DatabaseView {
	return s.cache.LoadDatabaseView(ctx, databaseID)
}

// MutateView applies mutator to the database's view and stores the result.
func (s *Service) MutateView(ctx context.Context, databaseID string, mutator views.Mutator) (views.DatabaseView, error) {
	return s.cache.MutateDatabaseView(ctx, databaseID, mutator)
}

// OpenPage records page as recently opened and fetches its content.
func (s *Service) OpenPage(ctx context.Context, page backend.Page) (*backend.PageContent, error) {
	s.cache.RecordRecentlyOpened(ctx, page)
	if s.api == nil {
		return nil, ErrOffline
	}
	return s.api.FetchPageContent(ctx, page.ID)
}

// LookupPage finds a page by id in the recently opened ledger or any cached
// database listing.
func (s *Service) LookupPage(ctx context.Context, pageID string) (backend.Page, bool) {
	recent, err := s.cache.RecentlyOpened(ctx, "")
	if err == nil {
		for _, r := range recent {
			if r.Page.ID == pageID {
				return r.Page, true
			}
		}
	}

	keys, err := s.cache.Store().Keys(ctx, cache.PrefixDatabasePages)
	if err != nil {
		utils.Debugf("listing cached databases: %v", err)
		return backend.Page{}, false
	}
	for _, key := range keys {
		pages, _, err := cache.NewEntry[[]backend.Page](s.cache, key).Read(ctx)
		if err != nil {
			continue
		}
		if i := slices.IndexFunc(pages, func(p backend.Page) bool { return p.ID == pageID }); i >= 0 {
			return pages[i], true
		}
	}
	return backend.Page{}, false
}

// ResolveDatabase finds a database by id or title (case-insensitive). The
// cached list is consulted first; when it has no match the list is refreshed.
func (s *Service) ResolveDatabase(ctx context.Context, ref string) (backend.Page, error) {
	entry := s.cache.Databases()
	dbs, _, err := entry.Read(ctx)
	if err != nil {
		utils.Debugf("reading cached databases: %v", err)
	}
	if db, ok := matchDatabase(dbs, ref); ok {
		return db, nil
	}

	if s.api != nil {
		fresh, err := entry.Refresh(ctx, online(s, func(ctx context.Context, api backend.ContentAPI) ([]backend.Page, error) {
			return api.FetchDatabases(ctx)
		}))
		if err != nil && !errors.Is(err, cache.ErrEmptyResult) {
			return backend.Page{}, err
		}
		if db, ok := matchDatabase(fresh, ref); ok {
			return db, nil
		}
	}

	// An unknown id can still be queried directly.
	if looksLikeID(ref) {
		return backend.Page{ID: ref, Object: backend.ObjectDatabase}, nil
	}
	return backend.Page{}, utils.ErrDatabaseNotFound(ref)
}

func matchDatabase(dbs []backend.Page, ref string) (backend.Page, bool) {
	norm := normalizeID(ref)
	for _, db := range dbs {
		if db.ID == ref || normalizeID(db.ID) == norm {
			return db, true
		}
	}
	for _, db := range dbs {
		if strings.EqualFold(db.DisplayTitle(), ref) {
			return db, true
		}
	}
	return backend.Page{}, false
}

func normalizeID(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, "-", ""))
}

// looksLikeID reports whether s is a Notion id (32 hex digits, dashes optional).
func looksLikeID(s string) bool {
	id := normalizeID(s)
	if len(id) != 32 {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}

// PropertyEdit is one property change: the property id or name and the raw
// user input for it (see views.BuildPatch for the accepted forms).
type PropertyEdit struct {
	Property string
	Input    string
}

// SetProperty updates one property of page from user input. The updated page
// replaces the old one in the cached database listing.
func (s *Service) SetProperty(ctx context.Context, page backend.Page, property, input string) (*backend.Page, error) {
	return s.SetProperties(ctx, page, []PropertyEdit{{Property: property, Input: input}})
}

// SetProperties applies several edits to page in a single update. Nothing is
// sent when any edit is invalid; a later edit of the same property wins.
func (s *Service) SetProperties(ctx context.Context, page backend.Page, edits []PropertyEdit) (*backend.Page, error) {
	if s.api == nil {
		return nil, ErrOffline
	}
	if len(edits) == 0 {
		return nil, errors.New("no property to set")
	}
	databaseID := page.ParentDatabaseID
	if databaseID == "" {
		return nil, utils.ErrPropertyNotFound(edits[0].Property, "(no parent database)")
	}

	props, err := loadOrFetch(ctx, s.cache.DatabaseProperties(databaseID), s.fetchProperties(databaseID))
	if err != nil {
		return nil, err
	}

	var users []backend.User
	patch := backend.PropertyPatch{}
	for _, edit := range edits {
		prop := backend.FindProperty(props, edit.Property)
		if prop == nil {
			return nil, utils.ErrPropertyNotFound(edit.Property, databaseID)
		}
		if !views.IsEditable(*prop) {
			return nil, utils.ErrUnsupportedProperty(prop.DisplayName(), string(prop.Type))
		}

		if prop.Type == backend.PropertyPeople && users == nil {
			users, err = loadOrFetch(ctx, s.cache.Users(), online(s, func(ctx context.Context, api backend.ContentAPI) ([]backend.User, error) {
				return api.FetchUsers(ctx)
			}))
			if err != nil {
				return nil, err
			}
		}

		p, err := views.BuildPatch(*prop, page, edit.Input, users, s.cache.Now())
		if err != nil {
			return nil, err
		}
		patch = patch.Merge(p)
	}

	updated, err := s.api.PatchPage(ctx, page.ID, patch)
	if err != nil {
		return nil, err
	}
	if updated.ParentDatabaseID == "" {
		updated.ParentDatabaseID = databaseID
	}

	s.replaceCachedPage(ctx, databaseID, *updated)
	return updated, nil
}

// loadOrFetch reads entry and refreshes it only when nothing is stored.
func loadOrFetch[T any](ctx context.Context, entry *cache.Entry[T], fetch cache.FetchFunc[T]) (T, error) {
	v, found, err := entry.Read(ctx)
	if err == nil && found {
		return v, nil
	}
	return entry.Refresh(ctx, fetch)
}

func (s *Service) replaceCachedPage(ctx context.Context, databaseID string, page backend.Page) {
	entry := s.cache.DatabasePages(databaseID)
	pages, found, err := entry.Read(ctx)
	if err != nil || !found {
		return
	}
	i := slices.IndexFunc(pages, func(p backend.Page) bool { return p.ID == page.ID })
	if i < 0 {
		return
	}
	pages = slices.Clone(pages)
	pages[i] = page
	if err := entry.Write(ctx, pages); err != nil {
		utils.Debugf("updating cached page %s: %v", page.ID, err)
	}
}

// Await waits for the refresh of a read and returns the freshest value
// available: the fetched value, else the stored one. The refresh error is
// returned only when nothing is stored.
func Await[T any](d cache.Delivery[T], results <-chan cache.Result[T]) (T, error) {
	r, ok := <-results
	if ok && r.Err == nil {
		return r.Value, nil
	}
	if d.Found {
		if ok && !errors.Is(r.Err, cache.ErrEmptyResult) {
			utils.Warnf("showing cached data: %v", r.Err)
		}
		return d.Value, nil
	}
	if !ok || errors.Is(r.Err, cache.ErrEmptyResult) {
		return d.Value, nil
	}
	return d.Value, r.Err
}
