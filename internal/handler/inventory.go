package handler

import (
	"net/http"

	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/domain/product"
)

func (h *Handler) StockAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.reports.StockAlerts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromStockAlerts(alerts))
}

// Restock takes the quantity from the query string or, when absent there,
// from a JSON body.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	qty, err := queryInt(r, "quantity")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("quantity") == "" {
		var req api.Restock
		if err := decode(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		qty = req.Quantity
	}
	p, err := h.orders.Restock(r.Context(), id, qty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromProduct(*p))
}

func (h *Handler) Movements(w http.ResponseWriter, r *http.Request) {
	var (
		f   product.MovementFilter
		err error
	)
	if r.URL.Query().Get("product_id") != "" {
		var id int
		if id, err = queryInt(r, "product_id"); err != nil {
			writeError(w, r, err)
			return
		}
		f.ProductID = int64(id)
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, r, err)
		return
	}
	ms, err := h.products.Movements(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromMovements(ms))
}
