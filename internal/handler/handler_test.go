package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/shoplist/internal/database"
	"github.com/dukerupert/shoplist/internal/lookup"
	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/scan"
	"github.com/dukerupert/shoplist/internal/service"
	"github.com/dukerupert/shoplist/internal/store"
	ws "github.com/dukerupert/shoplist/internal/websocket"
)

type recorder struct {
	mu   sync.Mutex
	msgs []ws.Message
}

func (r *recorder) Broadcast(msg ws.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		out = append(out, m.Type)
	}
	return out
}

type testEnv struct {
	mux   *http.ServeMux
	hub   *recorder
	scans *scan.Manager
}

// setupHandlers wires real services against an in-memory database and a fake
// catalog that knows one barcode.
func setupHandlers(t *testing.T) *testEnv {
	t.Helper()

	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/4000417025005.json" {
			w.Write([]byte(`{"status":1,"product":{"product_name":"Sparkling Water"}}`))
			return
		}
		w.Write([]byte(`{"status":0}`))
	}))
	t.Cleanup(catalog.Close)

	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	rs := store.NewRecordStore(db)
	client := lookup.NewClient(lookup.Config{BaseURL: catalog.URL, Timeout: 2 * time.Second}, logger)
	lists := service.NewListService(rs, logger)
	products := service.NewProductService(rs, client, 2*time.Second, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	scans := scan.NewManager(ctx, products, time.Minute, logger)

	hub := &recorder{}
	lh := NewListHandler(lists, hub, logger)
	ph := NewProductHandler(products, hub, logger)
	sh := NewScanHandler(scans, lists, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/lists", lh.Create)
	mux.HandleFunc("GET /api/lists", lh.List)
	mux.HandleFunc("GET /api/lists/pending-sync", lh.PendingSync)
	mux.HandleFunc("GET /api/lists/{id}", lh.Get)
	mux.HandleFunc("PUT /api/lists/{id}", lh.Rename)
	mux.HandleFunc("DELETE /api/lists/{id}", lh.Delete)
	mux.HandleFunc("POST /api/lists/{id}/synced", lh.MarkSynced)
	mux.HandleFunc("GET /api/lists/{id}/sync-events", lh.SyncEvents)
	mux.HandleFunc("GET /api/lists/{id}/products", ph.List)
	mux.HandleFunc("POST /api/lists/{id}/products", ph.Create)
	mux.HandleFunc("GET /api/products/{id}", ph.Get)
	mux.HandleFunc("POST /api/products/{id}/purchased", ph.TogglePurchased)
	mux.HandleFunc("DELETE /api/products/{id}", ph.Delete)
	mux.HandleFunc("POST /api/lists/{id}/scans", sh.Start)
	mux.HandleFunc("GET /api/scans/{id}", sh.Get)
	mux.HandleFunc("POST /api/scans/{id}/barcode", sh.Deliver)
	mux.HandleFunc("DELETE /api/scans/{id}", sh.Cancel)

	return &testEnv{mux: mux, hub: hub, scans: scans}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) createList(t *testing.T, name string) model.ShoppingList {
	t.Helper()
	rec := e.do(t, "POST", "/api/lists", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.ShoppingList](t, rec)
}
