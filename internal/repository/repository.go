package repository

import (
	"context"
	"database/sql"
)

// SettingsRepo keeps small client preferences across restarts.
type SettingsRepo interface {
	// LoadScheduleOffset returns the remembered lead time; ok is false when none is stored.
	LoadScheduleOffset(ctx context.Context) (minutes int, ok bool, err error)
	SaveScheduleOffset(ctx context.Context, minutes int) error
}

type Repository struct {
	Settings SettingsRepo
}

// NewRepository backs the repositories with db, or keeps them in memory when db is nil.
func NewRepository(db *sql.DB) *Repository {
	if db == nil {
		return &Repository{Settings: NewSettingsMemory()}
	}
	return &Repository{
		Settings: NewSettingsSQLite(db),
	}
}
