package handler

import (
	"net/http"

	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/domain/product"
)

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	f := product.Filter{Category: r.URL.Query().Get("category")}
	var err error
	if f.LowStockOnly, err = queryBool(r, "low_stock"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		writeError(w, r, err)
		return
	}
	products, err := h.products.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromProducts(products))
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromProduct(*p))
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req api.ProductCreate
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Create(r.Context(), req.ToNewProduct())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.FromProduct(*p))
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req api.ProductUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.products.Update(r.Context(), id, req.ToPatch())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromProduct(*p))
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
