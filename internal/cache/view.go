package cache

import (
	"context"

	"notionat/internal/utils"
	"notionat/internal/views"
)

// LoadDatabaseView returns the stored view for a database, or the default
// empty view when none is stored or it cannot be read.
func (c *Cache) LoadDatabaseView(ctx context.Context, databaseID string) views.DatabaseView {
	v, _, err := c.DatabaseView(databaseID).Read(ctx)
	if err != nil {
		utils.Debugf("loading view for %s, using default: %v", databaseID, err)
		return views.DatabaseView{}
	}
	return v
}

// MutateDatabaseView applies mutator to the database's current view, hands the
// result to the view's subscribers, persists it and returns it. The new view is
// returned even when persisting fails, together with the error.
func (c *Cache) MutateDatabaseView(ctx context.Context, databaseID string, mutator views.Mutator) (views.DatabaseView, error) {
	next := mutator(c.LoadDatabaseView(ctx, databaseID))
	if err := c.DatabaseView(databaseID).Write(ctx, next); err != nil {
		return next, err
	}
	return next, nil
}
