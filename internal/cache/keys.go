package cache

import (
	"notionat/backend"
	"notionat/internal/views"
)

// Store keys. Per-database keys append the database id.
const (
	KeyRecentlyOpened = "RECENTLY_OPENED_PAGES"
	KeyDatabases      = "DATABASES"
	KeyUsers          = "USERS"
	KeyGitRepos       = "GIT_REPOS"

	PrefixDatabasePages      = "PAGES_DATABASE_"
	PrefixDatabaseProperties = "PROPERTIES_DATABASE_"
	PrefixDatabaseView       = "VIEW_DATABASE_"
)

// DatabasePagesKey is the key of a database's cached rows.
func DatabasePagesKey(databaseID string) string { return PrefixDatabasePages + databaseID }

// DatabasePropertiesKey is the key of a database's cached schema.
func DatabasePropertiesKey(databaseID string) string { return PrefixDatabaseProperties + databaseID }

// DatabaseViewKey is the key of a database's view preferences.
func DatabaseViewKey(databaseID string) string { return PrefixDatabaseView + databaseID }

// Databases is the entry for the list of shared databases.
func (c *Cache) Databases() *Entry[[]backend.Page] {
	return NewEntry[[]backend.Page](c, KeyDatabases)
}

// Users is the entry for the workspace users.
func (c *Cache) Users() *Entry[[]backend.User] {
	return NewEntry[[]backend.User](c, KeyUsers)
}

// DatabasePages is the entry for a database's most recently edited rows.
func (c *Cache) DatabasePages(databaseID string) *Entry[[]backend.Page] {
	return NewEntry[[]backend.Page](c, DatabasePagesKey(databaseID))
}

// DatabaseProperties is the entry for a database's schema.
func (c *Cache) DatabaseProperties(databaseID string) *Entry[[]backend.DatabaseProperty] {
	return NewEntry[[]backend.DatabaseProperty](c, DatabasePropertiesKey(databaseID))
}

// DatabaseView is the entry for a database's view preferences.
func (c *Cache) DatabaseView(databaseID string) *Entry[views.DatabaseView] {
	return NewEntry[views.DatabaseView](c, DatabaseViewKey(databaseID))
}
