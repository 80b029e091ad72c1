package server

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/shoplist/internal/auth"
	"github.com/dukerupert/shoplist/internal/handler"
	"github.com/dukerupert/shoplist/internal/lookup"
	"github.com/dukerupert/shoplist/internal/middleware"
	"github.com/dukerupert/shoplist/internal/scan"
	"github.com/dukerupert/shoplist/internal/service"
	"github.com/dukerupert/shoplist/internal/store"
	ws "github.com/dukerupert/shoplist/internal/websocket"
)

const (
	barcodeLimit  = 20
	barcodeWindow = time.Minute
)

type Options struct {
	Lookup         lookup.Config
	ScanSessionTTL time.Duration
	Gate           *auth.TokenGate
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	listH       *handler.ListHandler
	productH    *handler.ProductHandler
	scanH       *handler.ScanHandler
	scans       *scan.Manager
	gate        *auth.TokenGate
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires stores, services and handlers. ctx bounds every scan session:
// cancelling it abandons lookups still in flight.
func New(ctx context.Context, db *sql.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	records := store.NewRecordStore(db)
	resolver := lookup.NewClient(opts.Lookup, logger.With("component", "lookup"))

	lists := service.NewListService(records, logger.With("component", "list"))
	products := service.NewProductService(records, resolver, opts.Lookup.Timeout, logger.With("component", "product"))

	scans := scan.NewManager(ctx, products, opts.ScanSessionTTL, logger.With("component", "scan"))
	scans.OnComplete(func(s scan.Session) {
		hub.Broadcast(scanMessage(s))
		if s.ProductID == "" {
			return
		}
		p, err := products.GetProduct(s.ProductID)
		if err != nil {
			logger.Warn("load scanned product", "product_id", s.ProductID, "error", err)
			return
		}
		msg := ws.NewMessage("product", "created", p.ID, p.ListID)
		msg.Data = p
		hub.Broadcast(msg)
	})

	gate := opts.Gate
	if gate == nil {
		gate, _ = auth.NewTokenGate("")
	}

	return &Server{
		db:          db,
		hub:         hub,
		listH:       handler.NewListHandler(lists, hub, logger.With("component", "list_handler")),
		productH:    handler.NewProductHandler(products, hub, logger.With("component", "product_handler")),
		scanH:       handler.NewScanHandler(scans, lists, logger.With("component", "scan_handler")),
		scans:       scans,
		gate:        gate,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

func scanMessage(s scan.Session) ws.Message {
	action := "completed"
	if s.State == scan.StateFailed {
		action = "failed"
	}
	msg := ws.NewMessage("scan", action, s.ID, s.ListID)
	msg.Data = s
	return msg
}

// ScanManager returns the scan session manager for the reaper loop.
func (s *Server) ScanManager() *scan.Manager {
	return s.scans
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Everything else sits behind the token gate
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireToken(s.gate)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "degraded", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write([]byte(`{"status":"` + status + `"}`))
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// List routes
	mux.HandleFunc("GET /api/lists", s.listH.List)
	mux.HandleFunc("POST /api/lists", s.listH.Create)
	mux.HandleFunc("GET /api/lists/pending-sync", s.listH.PendingSync)
	mux.HandleFunc("GET /api/lists/{id}", s.listH.Get)
	mux.HandleFunc("PUT /api/lists/{id}", s.listH.Rename)
	mux.HandleFunc("DELETE /api/lists/{id}", s.listH.Delete)
	mux.HandleFunc("POST /api/lists/{id}/synced", s.listH.MarkSynced)
	mux.HandleFunc("GET /api/lists/{id}/sync-events", s.listH.SyncEvents)

	// Product routes
	mux.HandleFunc("GET /api/lists/{id}/products", s.productH.List)
	mux.HandleFunc("POST /api/lists/{id}/products", s.productH.Create)
	mux.HandleFunc("GET /api/products/{id}", s.productH.Get)
	mux.HandleFunc("POST /api/products/{id}/purchased", s.productH.TogglePurchased)
	mux.HandleFunc("DELETE /api/products/{id}", s.productH.Delete)

	// Scan sessions
	mux.HandleFunc("POST /api/lists/{id}/scans", s.scanH.Start)
	mux.HandleFunc("GET /api/scans/{id}", s.scanH.Get)
	mux.Handle("POST /api/scans/{id}/barcode",
		middleware.RateLimit(s.rateLimiter, middleware.ByPathValue("id"), barcodeLimit, barcodeWindow)(http.HandlerFunc(s.scanH.Deliver)))
	mux.HandleFunc("DELETE /api/scans/{id}", s.scanH.Cancel)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
