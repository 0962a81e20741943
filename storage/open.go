package storage

import (
	"fmt"

	"rewards-dashboard/config"
	"rewards-dashboard/database"
)

// Open returns the Storage selected by cfg.StorageDriver.
func Open(cfg *config.Config) (Storage, error) {
	switch cfg.StorageDriver {
	case "", "postgres":
		if err := database.ConnectDatabase(cfg); err != nil {
			return nil, err
		}
		if err := database.MigrateDatabase(); err != nil {
			return nil, err
		}
		return NewDB(database.GetDB()), nil
	case "file":
		return NewFile(cfg.StorageFile), nil
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.StorageDriver)
	}
}
