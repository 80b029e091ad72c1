package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/shoplist/internal/model"
	"github.com/dukerupert/shoplist/internal/service"
	ws "github.com/dukerupert/shoplist/internal/websocket"
)

type ProductHandler struct {
	products *service.ProductService
	hub      Broadcaster
	logger   *slog.Logger
}

func NewProductHandler(ps *service.ProductService, hub Broadcaster, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{products: ps, hub: hub, logger: logger}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.AddProductInput
	if err := decodeJSON(r, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	in.ListID = r.PathValue("id")

	p, err := h.products.AddProduct(in)
	if err != nil {
		writeFailure(w, h.logger, err, "add product")
		return
	}

	h.broadcast(r, "created", p)
	writeJSON(w, http.StatusCreated, p)
}

// List returns a list's products, ordered by the "sort" query parameter.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	opt, ok := model.ParseSortOption(r.URL.Query().Get("sort"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid sort option"})
		return
	}

	products, err := h.products.ListProducts(r.PathValue("id"), opt)
	if err != nil {
		writeFailure(w, h.logger, err, "list products")
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetProduct(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.logger, err, "get product")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) TogglePurchased(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.TogglePurchased(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.logger, err, "toggle purchased")
		return
	}

	h.broadcast(r, "toggled", p)
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetProduct(r.PathValue("id"))
	if err != nil {
		writeFailure(w, h.logger, err, "get product")
		return
	}

	if err := h.products.DeleteProduct(p.ID); err != nil {
		writeFailure(w, h.logger, err, "delete product")
		return
	}

	notify(h.hub, r, ws.NewMessage("product", "deleted", p.ID, p.ListID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandler) broadcast(r *http.Request, action string, p *model.Product) {
	msg := ws.NewMessage("product", action, p.ID, p.ListID)
	msg.Data = p
	notify(h.hub, r, msg)
}
