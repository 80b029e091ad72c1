package service

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/store"
)

// ListProducts returns the list's products in the requested order. The store
// is not modified.
func (s *ProductService) ListProducts(listID string, opt model.SortOption) ([]model.Product, error) {
	l, err := s.records.GetListByID(listID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("list %s: %w", listID, store.ErrNotFound)
	}

	products, err := s.records.ListProductsByList(listID)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []model.Product{}
	}
	SortProducts(products, opt)
	return products, nil
}

// SortProducts orders products in place. Ties keep their stored order.
//
// Priority ordering compares the raw labels, so ascending is
// High < Low < Medium rather than by urgency. Missing priorities sort as Low.
func SortProducts(products []model.Product, opt model.SortOption) {
	switch opt {
	case model.SortPriorityLowToHigh:
		slices.SortStableFunc(products, func(a, b model.Product) int {
			return cmp.Compare(a.Priority.SortLabel(), b.Priority.SortLabel())
		})
	case model.SortPriorityHighToLow:
		slices.SortStableFunc(products, func(a, b model.Product) int {
			return cmp.Compare(b.Priority.SortLabel(), a.Priority.SortLabel())
		})
	default:
		slices.SortStableFunc(products, func(a, b model.Product) int {
			return strings.Compare(a.Name, b.Name)
		})
	}
}
