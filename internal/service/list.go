package service

import (
	"fmt"
	"log/slog"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/store"
)

// ListService handles list-level use cases.
type ListService struct {
	records *store.RecordStore
	logger  *slog.Logger
}

func NewListService(rs *store.RecordStore, logger *slog.Logger) *ListService {
	return &ListService{records: rs, logger: logger}
}

func (s *ListService) CreateList(name string) (*model.ShoppingList, error) {
	l, err := s.records.CreateList(name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("list created", "list_id", l.ID)
	return l, nil
}

// GetList returns store.ErrNotFound when the list does not exist.
func (s *ListService) GetList(id string) (*model.ShoppingList, error) {
	l, err := s.records.GetListByID(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("list %s: %w", id, store.ErrNotFound)
	}
	return l, nil
}

func (s *ListService) ListAll() ([]model.ShoppingList, error) {
	lists, err := s.records.ListLists()
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	return lists, nil
}

// PendingSync returns every list carrying a sync marker.
func (s *ListService) PendingSync() ([]model.ShoppingList, error) {
	lists, err := s.records.ListPendingSync()
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	return lists, nil
}

func (s *ListService) RenameList(id, name string) (*model.ShoppingList, error) {
	return s.records.RenameList(id, name)
}

// DeleteList removes the list and all of its products.
func (s *ListService) DeleteList(id string) error {
	if err := s.records.DeleteList(id); err != nil {
		return err
	}
	s.logger.Info("list deleted", "list_id", id)
	return nil
}

// MarkSynced clears the marker after an upstream acknowledgement.
func (s *ListService) MarkSynced(id string) error {
	if err := s.records.MarkSynced(id); err != nil {
		return err
	}
	s.logger.Debug("list marked synced", "list_id", id)
	return nil
}

func (s *ListService) SyncHistory(id string) ([]model.SyncEvent, error) {
	events, err := s.records.ListSyncEvents(id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.SyncEvent{}
	}
	return events, nil
}
