package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/shoplist/internal/model"
)

// RecordStore owns shopping lists and their products. Every mutation runs in
// a single transaction and is serialized per list, so sync markers advance in
// the order calls were made.
type RecordStore struct {
	db    *sql.DB
	locks *listLocks
	now   func() time.Time
	newID func() string
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{
		db:    db,
		locks: newListLocks(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// withTx commits only when fn succeeds. Errors from fn are returned as-is.
func (s *RecordStore) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return persistErr(op, fmt.Errorf("begin tx: %w", err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return persistErr(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// stamp sets the list's marker and appends it to the sync history. It reports
// false when the list does not exist.
func (s *RecordStore) stamp(tx *sql.Tx, listID string, status model.SyncStatus) (bool, error) {
	var marker sql.NullString
	if status != model.SyncAbsent {
		marker = sql.NullString{String: string(status), Valid: true}
	}
	result, err := tx.Exec(`UPDATE shopping_lists SET sync_status = ? WHERE id = ?`, marker, listID)
	if err != nil {
		return false, persistErr("stamp sync status", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, persistErr("rows affected", err)
	}
	if n == 0 {
		return false, nil
	}

	event := status
	if status == model.SyncAbsent {
		event = model.SyncAcknowledged
	}
	if err := s.recordEvent(tx, listID, event); err != nil {
		return false, err
	}
	return true, nil
}

type listLock struct {
	sync.Mutex
	refs int
}

// listLocks hands out one mutex per list id and forgets it once unused.
type listLocks struct {
	mu    sync.Mutex
	locks map[string]*listLock
}

func newListLocks() *listLocks {
	return &listLocks{locks: make(map[string]*listLock)}
}

func (l *listLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	ll, ok := l.locks[id]
	if !ok {
		ll = &listLock{}
		l.locks[id] = ll
	}
	ll.refs++
	l.mu.Unlock()

	ll.Lock()
	return func() {
		ll.Unlock()
		l.mu.Lock()
		ll.refs--
		if ll.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
