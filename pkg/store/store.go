// Package store persists alert history in sqlite.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"terrainwatch/pkg/db"
	"terrainwatch/pkg/notify"
)

// AlertStore handles alert history persistence.
type AlertStore interface {
	SaveAlert(ctx context.Context, ev notify.Event) error
	RecentAlerts(ctx context.Context, limit int) ([]notify.Event, error)
	PruneAlerts(ctx context.Context, before time.Time) (int64, error)
}

// SQLiteStore implements AlertStore.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(d *db.DB) *SQLiteStore {
	return &SQLiteStore{db: d}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveAlert stores the event. The full event is kept as a msgpack payload next to the indexed columns.
func (s *SQLiteStore) SaveAlert(ctx context.Context, ev notify.Event) error {
	payload, err := msgpack.Marshal(&ev)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO alert_history (id, source, class, severity, message, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Source), ev.Class, string(ev.Severity), ev.Message, payload, ev.Time.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to save alert %s: %w", ev.ID, err)
	}
	return nil
}

// RecentAlerts returns up to limit events, newest first.
func (s *SQLiteStore) RecentAlerts(ctx context.Context, limit int) ([]notify.Event, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM alert_history ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var out []notify.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var ev notify.Event
		if err := msgpack.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode alert: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// PruneAlerts deletes events created before the cutoff and returns how many were removed.
func (s *SQLiteStore) PruneAlerts(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM alert_history WHERE created_at < ?", before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to prune alerts: %w", err)
	}
	return res.RowsAffected()
}
