package handler

import (
	"net/http"

	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/domain/order"
)

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := order.Filter{CustomerName: q.Get("customer")}
	if s := q.Get("status"); s != "" {
		f.Status, _ = order.ParseStatus(s)
	}
	var err error
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, r, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		writeError(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromOrders(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromOrder(*o))
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req api.OrderCreate
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	o, err := h.orders.CreateOrder(r.Context(), req.ToCreateRequest())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.FromOrder(*o))
}

func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req api.StatusUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	status, _ := order.ParseStatus(req.Status)
	o, err := h.orders.ChangeStatus(r.Context(), id, status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromOrder(*o))
}

func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var opts order.DeleteOptions
	if opts.RestoreCompleted, err = queryBool(r, "restore_completed"); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.orders.DeleteOrder(r.Context(), id, opts); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
