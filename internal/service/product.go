package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/shoplist/internal/grocery"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/store"
)

const maxQuantity = 50

// ProductService handles product-level use cases.
type ProductService struct {
	records       *store.RecordStore
	resolver      Resolver
	lookupTimeout time.Duration
	logger        *slog.Logger
}

func NewProductService(rs *store.RecordStore, resolver Resolver, lookupTimeout time.Duration, logger *slog.Logger) *ProductService {
	if lookupTimeout <= 0 {
		lookupTimeout = defaultLookupTimeout
	}
	return &ProductService{
		records:       rs,
		resolver:      resolver,
		lookupTimeout: lookupTimeout,
		logger:        logger,
	}
}

// AddProductInput is a manual add. Quantity 0 leaves the name as entered;
// 1..50 bakes " (<n> adet)" into it. Empty category is derived from the name,
// empty priority means Medium.
type AddProductInput struct {
	ListID   string `json:"-"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

func (s *ProductService) AddProduct(in AddProductInput) (*model.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, store.Invalid("name", "must not be empty")
	}
	if in.Quantity < 0 || in.Quantity > maxQuantity {
		return nil, store.Invalid("quantity", fmt.Sprintf("must be between 1 and %d", maxQuantity))
	}
	if in.Quantity > 0 {
		name = fmt.Sprintf("%s (%d adet)", name, in.Quantity)
	}

	category := grocery.Categorize(name)
	if in.Category != "" {
		c, ok := model.ParseCategory(in.Category)
		if !ok {
			return nil, store.Invalid("category", fmt.Sprintf("unknown category %q", in.Category))
		}
		category = c
	}

	priority, ok := model.ParsePriority(in.Priority)
	if !ok {
		return nil, store.Invalid("priority", fmt.Sprintf("unknown priority %q", in.Priority))
	}

	p, err := s.records.AddProduct(in.ListID, name, category, priority)
	if err != nil {
		return nil, err
	}
	s.logger.Info("product added", "list_id", p.ListID, "product_id", p.ID, "category", p.Category)
	return p, nil
}

// GetProduct returns store.ErrNotFound when the product does not exist.
func (s *ProductService) GetProduct(id string) (*model.Product, error) {
	p, err := s.records.GetProductByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (s *ProductService) TogglePurchased(id string) (*model.Product, error) {
	return s.records.TogglePurchased(id)
}

func (s *ProductService) DeleteProduct(id string) error {
	if err := s.records.DeleteProduct(id); err != nil {
		return err
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}
