package testutil

import (
	"context"
	"sync"

	"notionat/backend"
	"notionat/internal/utils"
)

// FakeAPI is an in-memory backend.ContentAPI. Fields may be set directly
// before use; Err, when set, fails every call.
type FakeAPI struct {
	mu sync.Mutex

	Pages      map[string][]backend.Page // database id -> rows
	Databases  []backend.Page
	Properties map[string][]backend.DatabaseProperty
	Content    map[string]string // page id -> markdown
	Users      []backend.User
	SearchHits []backend.Page
	Err        error

	Patches []FakePatch
	Calls   []string
}

// FakePatch records one PatchPage call.
type FakePatch struct {
	PageID string
	Patch  backend.PropertyPatch
}

var _ backend.ContentAPI = (*FakeAPI)(nil)

// NewFakeAPI returns an empty FakeAPI.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		Pages:      make(map[string][]backend.Page),
		Properties: make(map[string][]backend.DatabaseProperty),
		Content:    make(map[string]string),
	}
}

func (f *FakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	return f.Err
}

// CallCount returns how many times call was made.
func (f *FakeAPI) CallCount(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *FakeAPI) SearchPages(ctx context.Context, query string) ([]backend.Page, error) {
	if err := f.record("SearchPages"); err != nil {
		return nil, err
	}
	return f.SearchHits, nil
}

func (f *FakeAPI) QueryDatabase(ctx context.Context, databaseID string, filter backend.QueryFilter) ([]backend.Page, error) {
	if err := f.record("QueryDatabase"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pages, ok := f.Pages[databaseID]
	if !ok {
		return nil, utils.ErrDatabaseNotFound(databaseID)
	}
	return pages, nil
}

func (f *FakeAPI) FetchDatabaseProperties(ctx context.Context, databaseID string) ([]backend.DatabaseProperty, error) {
	if err := f.record("FetchDatabaseProperties"); err != nil {
		return nil, err
	}
	props, ok := f.Properties[databaseID]
	if !ok {
		return nil, utils.ErrDatabaseNotFound(databaseID)
	}
	return props, nil
}

func (f *FakeAPI) FetchPageContent(ctx context.Context, pageID string) (*backend.PageContent, error) {
	if err := f.record("FetchPageContent"); err != nil {
		return nil, err
	}
	md, ok := f.Content[pageID]
	if !ok {
		return nil, utils.ErrPageNotFound(pageID)
	}
	return &backend.PageContent{Markdown: md}, nil
}

// PatchPage records the patch and applies checkbox and select values to the
// stored row so callers see an updated page.
func (f *FakeAPI) PatchPage(ctx context.Context, pageID string, patch backend.PropertyPatch) (*backend.Page, error) {
	if err := f.record("PatchPage"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Patches = append(f.Patches, FakePatch{PageID: pageID, Patch: patch})

	for dbID, pages := range f.Pages {
		for i, p := range pages {
			if p.ID != pageID {
				continue
			}
			updated := p
			updated.Properties = make(backend.Properties, len(p.Properties))
			for k, v := range p.Properties {
				updated.Properties[k] = v
			}
			for propID, body := range patch {
				if checked, ok := body[string(backend.PropertyCheckbox)].(bool); ok {
					updated.Properties[propID] = backend.CheckboxValue{ID: propID, Checked: checked}
				}
				if raw, ok := body[string(backend.PropertySelect)]; ok {
					sv := backend.SelectValue{ID: propID}
					if ref, ok := raw.(map[string]string); ok {
						sv.Option = &backend.SelectOption{ID: ref["id"]}
					}
					updated.Properties[propID] = sv
				}
			}
			f.Pages[dbID][i] = updated
			return &updated, nil
		}
	}
	return &backend.Page{ID: pageID, Object: backend.ObjectPage}, nil
}

func (f *FakeAPI) FetchUsers(ctx context.Context) ([]backend.User, error) {
	if err := f.record("FetchUsers"); err != nil {
		return nil, err
	}
	return f.Users, nil
}

func (f *FakeAPI) FetchDatabases(ctx context.Context) ([]backend.Page, error) {
	if err := f.record("FetchDatabases"); err != nil {
		return nil, err
	}
	return f.Databases, nil
}

func (f *FakeAPI) Close() error { return nil }
