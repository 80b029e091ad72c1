package store

import (
	"database/sql"

	"github.com/dukerupert/shoplist/internal/model"
)

func (s *RecordStore) recordEvent(tx *sql.Tx, listID string, status model.SyncStatus) error {
	if _, err := tx.Exec(
		`INSERT INTO sync_events (list_id, status, occurred_at) VALUES (?, ?, ?)`,
		listID, string(status), s.now(),
	); err != nil {
		return persistErr("record sync event", err)
	}
	return nil
}

// ListSyncEvents returns the marker history of a list, oldest first. History
// is kept after the list itself is deleted.
func (s *RecordStore) ListSyncEvents(listID string) ([]model.SyncEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, list_id, status, occurred_at FROM sync_events WHERE list_id = ? ORDER BY id ASC`,
		listID,
	)
	if err != nil {
		return nil, persistErr("list sync events", err)
	}
	defer rows.Close()

	var events []model.SyncEvent
	for rows.Next() {
		var e model.SyncEvent
		var status string
		if err := rows.Scan(&e.ID, &e.ListID, &status, &e.OccurredAt); err != nil {
			return nil, persistErr("scan sync event", err)
		}
		e.Status = model.SyncStatus(status)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list sync events", err)
	}
	return events, nil
}
