package workspace

import (
	"fmt"

	"notionat/internal/store"
	"notionat/internal/store/bolt"
	"notionat/internal/store/sqlite"
)

// OpenStore opens the key-value store for the configured driver.
func OpenStore(driver, path string) (store.Store, error) {
	switch driver {
	case store.DriverSQLite, "":
		return sqlite.New(path)
	case store.DriverBolt:
		return bolt.Open(path)
	case store.DriverMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
