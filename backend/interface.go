package backend

import (
	"context"
	"strings"
	"time"
)

// Object kinds returned by the content API.
const (
	ObjectPage     = "page"
	ObjectDatabase = "database"
)

// UntitledTitle is shown for pages without a title.
const UntitledTitle = "Untitled"

// Page represents a Notion page or database as seen by list views.
type Page struct {
	ID               string     `json:"id"`
	Object           string     `json:"object"`
	URL              string     `json:"url"`
	Title            string     `json:"title,omitempty"`
	IconEmoji        string     `json:"icon_emoji,omitempty"`
	IconFile         string     `json:"icon_file,omitempty"`
	IconExternal     string     `json:"icon_external,omitempty"`
	LastEditedTime   time.Time  `json:"last_edited_time"`
	ParentDatabaseID string     `json:"parent_database_id,omitempty"`
	Properties       Properties `json:"properties,omitempty"`
}

// IsDatabase reports whether the page is a database.
func (p Page) IsDatabase() bool {
	return p.Object == ObjectDatabase
}

// DisplayTitle returns the title, or "Untitled" when empty.
func (p Page) DisplayTitle() string {
	if strings.TrimSpace(p.Title) == "" {
		return UntitledTitle
	}
	return p.Title
}

// DatabaseProperty describes one column of a database schema.
type DatabaseProperty struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Type    PropertyType   `json:"type"`
	Options []SelectOption `json:"options,omitempty"`
}

// DisplayName returns the property name, or "Untitled" when empty.
func (p DatabaseProperty) DisplayName() string {
	if p.Name == "" {
		return UntitledTitle
	}
	return p.Name
}

// FindProperty returns the property with the given id or name, or nil.
func FindProperty(props []DatabaseProperty, idOrName string) *DatabaseProperty {
	for i := range props {
		if props[i].ID == idOrName {
			return &props[i]
		}
	}
	for i := range props {
		if strings.EqualFold(props[i].Name, idOrName) {
			return &props[i]
		}
	}
	return nil
}

// User is a workspace member.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Type      string `json:"type,omitempty"`
}

// PageContent is the rendered body of a page.
type PageContent struct {
	Markdown string `json:"markdown"`
}

// QueryFilter is a Notion filter object passed through to database queries.
type QueryFilter map[string]any

// ContentAPI is the remote content collaborator the cache consumes.
// Every call may fail; none of them retry at this level.
type ContentAPI interface {
	SearchPages(ctx context.Context, query string) ([]Page, error)
	QueryDatabase(ctx context.Context, databaseID string, filter QueryFilter) ([]Page, error)
	FetchDatabaseProperties(ctx context.Context, databaseID string) ([]DatabaseProperty, error)
	FetchPageContent(ctx context.Context, pageID string) (*PageContent, error)
	PatchPage(ctx context.Context, pageID string, patch PropertyPatch) (*Page, error)
	FetchUsers(ctx context.Context) ([]User, error)
	FetchDatabases(ctx context.Context) ([]Page, error)

	Close() error
}
