package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/shoplist/internal/model"
)

func scanProduct(scanner interface{ Scan(...any) error }) (*model.Product, error) {
	var p model.Product
	var category, priority string
	var purchased int

	err := scanner.Scan(&p.ID, &p.ListID, &p.Name, &category, &priority, &purchased, &p.CreatedAt)
	if err != nil {
		return nil, err
	}

	p.Category = model.Category(category)
	p.Priority = model.Priority(priority)
	p.IsPurchased = purchased != 0
	return &p, nil
}

const productCols = `id, list_id, name, category, priority, is_purchased, created_at`

// AddProduct creates an unpurchased product on the list and marks the list
// "updated". Both rows are written in one transaction.
func (s *RecordStore) AddProduct(listID, name string, category model.Category, priority model.Priority) (*model.Product, error) {
	return s.AddProductChecked(listID, name, category, priority, nil)
}

// AddProductChecked is AddProduct with a commit check: check runs inside the
// transaction after the writes, and a non-nil error rolls them back and is
// returned unchanged. A nil check always commits.
func (s *RecordStore) AddProductChecked(listID, name string, category model.Category, priority model.Priority, check func() error) (*model.Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Invalid("name", "must not be empty")
	}
	if _, ok := model.ParseCategory(string(category)); !ok {
		return nil, Invalid("category", fmt.Sprintf("unknown category %q", category))
	}
	prio, ok := model.ParsePriority(string(priority))
	if !ok {
		return nil, Invalid("priority", fmt.Sprintf("unknown priority %q", priority))
	}

	p := &model.Product{
		ID:        s.newID(),
		ListID:    listID,
		Name:      name,
		Category:  category,
		Priority:  prio,
		CreatedAt: s.now(),
	}

	unlock := s.locks.lock(listID)
	defer unlock()

	err := s.withTx("add product", func(tx *sql.Tx) error {
		found, err := s.stamp(tx, listID, model.SyncUpdated)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("list %s: %w", listID, ErrNotFound)
		}
		if _, err := tx.Exec(
			`INSERT INTO products (id, list_id, name, category, priority, is_purchased, created_at) VALUES (?, ?, ?, ?, ?, 0, ?)`,
			p.ID, p.ListID, p.Name, string(p.Category), string(p.Priority), p.CreatedAt,
		); err != nil {
			return persistErr("insert product", err)
		}
		if check != nil {
			return check()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProductByID returns nil, nil when the product does not exist.
func (s *RecordStore) GetProductByID(id string) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, persistErr("get product", err)
	}
	return p, nil
}

func (s *RecordStore) ListProductsByList(listID string) ([]model.Product, error) {
	rows, err := s.db.Query(
		`SELECT `+productCols+` FROM products WHERE list_id = ? ORDER BY rowid ASC`,
		listID,
	)
	if err != nil {
		return nil, persistErr("list products", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, persistErr("scan product", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, persistErr("list products", err)
	}
	return products, nil
}

// TogglePurchased flips the purchased flag. The list marker is left alone.
func (s *RecordStore) TogglePurchased(id string) (*model.Product, error) {
	existing, err := s.GetProductByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	unlock := s.locks.lock(existing.ListID)
	err = s.withTx("toggle purchased", func(tx *sql.Tx) error {
		result, err := tx.Exec(`UPDATE products SET is_purchased = 1 - is_purchased WHERE id = ?`, id)
		if err != nil {
			return persistErr("toggle purchased", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return persistErr("rows affected", err)
		} else if n == 0 {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}
	return s.GetProductByID(id)
}

// DeleteProduct removes the product and marks its list "updated". A list
// that is already gone is not an error.
func (s *RecordStore) DeleteProduct(id string) error {
	existing, err := s.GetProductByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	unlock := s.locks.lock(existing.ListID)
	defer unlock()

	return s.withTx("delete product", func(tx *sql.Tx) error {
		if _, err := s.stamp(tx, existing.ListID, model.SyncUpdated); err != nil {
			return err
		}
		result, err := tx.Exec(`DELETE FROM products WHERE id = ?`, id)
		if err != nil {
			return persistErr("delete product", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return persistErr("rows affected", err)
		} else if n == 0 {
			return fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil
	})
}
