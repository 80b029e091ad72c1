package model

import "time"

// SyncStatus marks a list as carrying local changes that have not been
// acknowledged upstream. The zero value means no marker is set.
type SyncStatus string

const (
	SyncAbsent  SyncStatus = ""
	SyncCreated SyncStatus = "created"
	SyncUpdated SyncStatus = "updated"
	SyncDeleted SyncStatus = "deleted"

	// SyncAcknowledged only appears in sync history, when a marker is cleared.
	SyncAcknowledged SyncStatus = "synced"
)

// ParseSyncStatus maps a stored label to a SyncStatus.
func ParseSyncStatus(s string) (SyncStatus, bool) {
	switch SyncStatus(s) {
	case SyncAbsent, SyncCreated, SyncUpdated, SyncDeleted:
		return SyncStatus(s), true
	}
	return SyncAbsent, false
}

// Pending reports whether any marker is set, including "deleted".
func (s SyncStatus) Pending() bool {
	return s != SyncAbsent
}

type ShoppingList struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	CreatedAt  time.Time  `json:"created_at"`
	SyncStatus SyncStatus `json:"sync_status,omitempty"`
	ProductIDs []string   `json:"product_ids"`
}

// SyncEvent records one marker transition on a list.
type SyncEvent struct {
	ID         int64      `json:"id"`
	ListID     string     `json:"list_id"`
	Status     SyncStatus `json:"status"`
	OccurredAt time.Time  `json:"occurred_at"`
}
