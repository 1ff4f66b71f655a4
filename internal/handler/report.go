package handler

import (
	"net/http"

	"github.com/xenking/erp-inventory/internal/api"
)

func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.SalesReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromSalesReport(rep))
}

func (h *Handler) InventoryReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.reports.InventoryReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromInventoryReport(rep))
}
