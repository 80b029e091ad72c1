package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/shoplist/internal/model"
)

func scanList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var status sql.NullString
	if err := scanner.Scan(&l.ID, &l.Name, &l.CreatedAt, &status); err != nil {
		return nil, err
	}
	marker, ok := model.ParseSyncStatus(status.String)
	if !ok {
		return nil, fmt.Errorf("unknown sync status %q", status.String)
	}
	l.SyncStatus = marker
	l.ProductIDs = []string{}
	return &l, nil
}

const listCols = `id, name, created_at, sync_status`

func (s *RecordStore) CreateList(name string) (*model.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("name", "must not be empty")
	}

	l := &model.ShoppingList{
		ID:         s.newID(),
		Name:       name,
		CreatedAt:  s.now(),
		SyncStatus: model.SyncCreated,
		ProductIDs: []string{},
	}

	err := s.withTx("create list", func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			`INSERT INTO shopping_lists (id, name, created_at, sync_status) VALUES (?, ?, ?, ?)`,
			l.ID, l.Name, l.CreatedAt, string(l.SyncStatus),
		); err != nil {
			return persistErr("insert list", err)
		}
		return s.recordEvent(tx, l.ID, model.SyncCreated)
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// GetListByID returns nil, nil when the list does not exist.
func (s *RecordStore) GetListByID(id string) (*model.ShoppingList, error) {
	row := s.db.QueryRow(`SELECT `+listCols+` FROM shopping_lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get list", err)
	}

	ids, err := s.productIDsByList(id)
	if err != nil {
		return nil, err
	}
	if ids[id] != nil {
		l.ProductIDs = ids[id]
	}
	return l, nil
}

// ListLists returns every list. Callers must not depend on the order.
func (s *RecordStore) ListLists() ([]model.ShoppingList, error) {
	return s.queryLists(`SELECT ` + listCols + ` FROM shopping_lists ORDER BY rowid ASC`)
}

// ListPendingSync returns every list with any marker set, "deleted" included.
func (s *RecordStore) ListPendingSync() ([]model.ShoppingList, error) {
	return s.queryLists(`SELECT ` + listCols + ` FROM shopping_lists WHERE sync_status IS NOT NULL ORDER BY rowid ASC`)
}

func (s *RecordStore) queryLists(query string, args ...any) ([]model.ShoppingList, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, persistErr("list lists", err)
	}

	var lists []model.ShoppingList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			rows.Close()
			return nil, persistErr("scan list", err)
		}
		lists = append(lists, *l)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, persistErr("list lists", err)
	}

	// Rows are closed before the second query; in-memory databases have a
	// single connection.
	ids, err := s.productIDsByList("")
	if err != nil {
		return nil, err
	}
	for i := range lists {
		if pids := ids[lists[i].ID]; pids != nil {
			lists[i].ProductIDs = pids
		}
	}
	return lists, nil
}

// productIDsByList groups product ids by list. An empty listID loads all.
func (s *RecordStore) productIDsByList(listID string) (map[string][]string, error) {
	query := `SELECT list_id, id FROM products ORDER BY rowid ASC`
	var args []any
	if listID != "" {
		query = `SELECT list_id, id FROM products WHERE list_id = ? ORDER BY rowid ASC`
		args = append(args, listID)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, persistErr("list product ids", err)
	}
	defer rows.Close()

	ids := make(map[string][]string)
	for rows.Next() {
		var lid, pid string
		if err := rows.Scan(&lid, &pid); err != nil {
			return nil, persistErr("scan product id", err)
		}
		ids[lid] = append(ids[lid], pid)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list product ids", err)
	}
	return ids, nil
}

func (s *RecordStore) RenameList(id, name string) (*model.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("name", "must not be empty")
	}

	unlock := s.locks.lock(id)
	err := s.withTx("rename list", func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE shopping_lists SET name = ? WHERE id = ?`, name, id); err != nil {
			return persistErr("rename list", err)
		}
		found, err := s.stamp(tx, id, model.SyncUpdated)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}
	return s.GetListByID(id)
}

// MarkSynced clears the list's marker. Only an upstream acknowledgement
// should call it.
func (s *RecordStore) MarkSynced(id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	return s.withTx("mark synced", func(tx *sql.Tx) error {
		found, err := s.stamp(tx, id, model.SyncAbsent)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		return nil
	})
}

// DeleteList stamps the list "deleted" and removes it together with its
// products in one transaction.
func (s *RecordStore) DeleteList(id string) error {
	unlock := s.locks.lock(id)
	defer unlock()

	return s.withTx("delete list", func(tx *sql.Tx) error {
		found, err := s.stamp(tx, id, model.SyncDeleted)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("list %s: %w", id, ErrNotFound)
		}
		if _, err := tx.Exec(`DELETE FROM products WHERE list_id = ?`, id); err != nil {
			return persistErr("delete list products", err)
		}
		if _, err := tx.Exec(`DELETE FROM shopping_lists WHERE id = ?`, id); err != nil {
			return persistErr("delete list", err)
		}
		return nil
	})
}
