package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

const (
	keyScheduleOffset = "schedule_offset_minutes"

	upsertSettingSQL = `
		INSERT INTO client_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`

	selectSettingSQL = `SELECT value FROM client_settings WHERE key=?`
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

// LoadScheduleOffset reads the remembered offset row.
func (r *SettingsSQLite) LoadScheduleOffset(ctx context.Context) (int, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, selectSettingSQL, keyScheduleOffset).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil // nothing remembered yet
		}
		return 0, false, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse %s=%q: %w", keyScheduleOffset, raw, err)
	}
	return v, true, nil
}

// SaveScheduleOffset upserts the offset row; updated_at is stored in UTC.
func (r *SettingsSQLite) SaveScheduleOffset(ctx context.Context, minutes int) error {
	_, err := r.db.ExecContext(ctx, upsertSettingSQL,
		keyScheduleOffset,
		strconv.Itoa(minutes),
		time.Now().UTC(),
	)
	return err
}

// SettingsMemory is the process-local fallback when no database is configured.
type SettingsMemory struct {
	mu     sync.Mutex
	offset *int
}

func NewSettingsMemory() *SettingsMemory {
	return &SettingsMemory{}
}

func (m *SettingsMemory) LoadScheduleOffset(ctx context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offset == nil {
		return 0, false, nil
	}
	return *m.offset, true, nil
}

func (m *SettingsMemory) SaveScheduleOffset(ctx context.Context, minutes int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offset = &minutes
	return nil
}
