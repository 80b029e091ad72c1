package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/shoplist/internal/model"
)

func TestCreateListHandler(t *testing.T) {
	env := setupHandlers(t)

	l := env.createList(t, "  Groceries ")
	assert.Equal(t, "Groceries", l.Name)
	assert.Equal(t, model.SyncCreated, l.SyncStatus)
	assert.Empty(t, l.ProductIDs)
	assert.Equal(t, []string{"list_created"}, env.hub.types())

	rec := env.do(t, "GET", "/api/lists/"+l.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, l.ID, decode[model.ShoppingList](t, rec).ID)
}

func TestCreateListHandlerErrors(t *testing.T) {
	env := setupHandlers(t)

	rec := env.do(t, "POST", "/api/lists", map[string]string{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", decode[map[string]string](t, rec)["field"])

	rec = env.do(t, "POST", "/api/lists", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, env.hub.types())
}

func TestListHandlerNotFound(t *testing.T) {
	env := setupHandlers(t)

	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/lists/missing"},
		{"DELETE", "/api/lists/missing"},
		{"POST", "/api/lists/missing/synced"},
		{"GET", "/api/lists/missing/products"},
	} {
		rec := env.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := env.do(t, "PUT", "/api/lists/missing", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListsAndPendingSyncHandler(t *testing.T) {
	env := setupHandlers(t)

	rec := env.do(t, "GET", "/api/lists", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	a := env.createList(t, "A")
	b := env.createList(t, "B")

	rec = env.do(t, "POST", "/api/lists/"+a.ID+"/synced", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	synced := decode[model.ShoppingList](t, rec)
	assert.Equal(t, model.SyncAbsent, synced.SyncStatus)

	rec = env.do(t, "GET", "/api/lists/pending-sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]model.ShoppingList](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	rec = env.do(t, "GET", "/api/lists", nil)
	assert.Len(t, decode[[]model.ShoppingList](t, rec), 2)
}

func TestRenameAndDeleteListHandler(t *testing.T) {
	env := setupHandlers(t)
	l := env.createList(t, "Old")

	rec := env.do(t, "PUT", "/api/lists/"+l.ID, map[string]string{"name": "New"})
	require.Equal(t, http.StatusOK, rec.Code)
	renamed := decode[model.ShoppingList](t, rec)
	assert.Equal(t, "New", renamed.Name)
	assert.Equal(t, model.SyncUpdated, renamed.SyncStatus)

	rec = env.do(t, "DELETE", "/api/lists/"+l.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, "GET", "/api/lists/"+l.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, "GET", "/api/lists/"+l.ID+"/sync-events", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var statuses []model.SyncStatus
	for _, ev := range decode[[]model.SyncEvent](t, rec) {
		statuses = append(statuses, ev.Status)
	}
	assert.Equal(t, []model.SyncStatus{model.SyncCreated, model.SyncUpdated, model.SyncDeleted}, statuses)

	assert.Equal(t, []string{"list_created", "list_updated", "list_deleted"}, env.hub.types())
}
