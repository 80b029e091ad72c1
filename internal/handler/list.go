package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/service"
	ws "github.com/dukerupert/shoplist/internal/websocket"
)

type ListHandler struct {
	lists  *service.ListService
	hub    Broadcaster
	logger *slog.Logger
}

func NewListHandler(ls *service.ListService, hub Broadcaster, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: ls, hub: hub, logger: logger}
}

type listRequest struct {
	Name string `json:"name"`
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	l, err := h.lists.CreateList(req.Name)
	if err != nil {
		writeFailure(w, h.logger, err, "create list")
		return
	}

	h.broadcast(r, "created", l)
	writeJSON(w, http.StatusCreated, l)
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.ListAll()
	if err != nil {
		writeFailure(w, h.logger, err, "list lists")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) PendingSync(w http.ResponseWriter, r *http.Request) {
	lists, err := h.lists.PendingSync()
	if err != nil {
		writeFailure(w, h.logger, err, "list pending lists")
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.lists.GetList(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.logger, err, "get list")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *ListHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	l, err := h.lists.RenameList(r.PathValue("id"), req.Name)
	if err != nil {
		writeFailure(w, h.logger, err, "rename list")
		return
	}

	h.broadcast(r, "updated", l)
	writeJSON(w, http.StatusOK, l)
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.lists.DeleteList(id); err != nil {
		writeFailure(w, h.logger, err, "delete list")
		return
	}

	msg := ws.NewMessage("list", "deleted", id, id)
	msg.SyncStatus = string(model.SyncDeleted)
	notify(h.hub, r, msg)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ListHandler) MarkSynced(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.lists.MarkSynced(id); err != nil {
		writeFailure(w, h.logger, err, "mark list synced")
		return
	}

	l, err := h.lists.GetList(id)
	if err != nil {
		writeFailure(w, h.logger, err, "get list")
		return
	}
	h.broadcast(r, "synced", l)
	writeJSON(w, http.StatusOK, l)
}

func (h *ListHandler) SyncEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.lists.SyncHistory(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.logger, err, "list sync events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *ListHandler) broadcast(r *http.Request, action string, l *model.ShoppingList) {
	msg := ws.NewMessage("list", action, l.ID, l.ID)
	msg.SyncStatus = string(l.SyncStatus)
	msg.Data = l
	notify(h.hub, r, msg)
}
