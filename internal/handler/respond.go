package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/domain/apperr"
	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
)

const maxBodySize = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status and error body. Unexpected errors are
// logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind, status := api.Classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		msg = "internal error"
	}
	writeErrorBody(w, status, kind, msg, entityOf(err))
}

func writeErrorBody(w http.ResponseWriter, status int, kind, msg string, entity *api.Entity) {
	writeJSON(w, status, api.Error{Code: status, Kind: kind, Message: msg, Entity: entity})
}

// entityOf extracts the entity a domain error refers to.
func entityOf(err error) *api.Entity {
	var (
		productNotFound *product.NotFoundError
		insufficient    *product.InsufficientStockError
		inUse           *product.InUseError
		duplicate       *product.DuplicateError
		orderNotFound   *order.NotFoundError
		invalidStatus   *order.InvalidStatusError
	)
	switch {
	case errors.As(err, &productNotFound):
		return &api.Entity{Type: "product", ID: productNotFound.ProductID}
	case errors.As(err, &insufficient):
		return &api.Entity{Type: "product", ID: insufficient.ProductID}
	case errors.As(err, &inUse):
		return &api.Entity{Type: "product", ID: inUse.ProductID}
	case errors.As(err, &duplicate):
		return &api.Entity{Type: "product"}
	case errors.As(err, &orderNotFound):
		return &api.Entity{Type: "order", ID: orderNotFound.OrderID}
	case errors.As(err, &invalidStatus) && invalidStatus.OrderID != 0:
		return &api.Entity{Type: "order", ID: invalidStatus.OrderID}
	}
	return nil
}

// decode reads a JSON body into v.
func decode(r *http.Request, v any) error {
	d := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := d.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Invalid("body", "is empty")
		}
		return apperr.Invalid("body", err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperr.Invalid(name, "must be an integer")
	}
	return v, nil
}

func queryBool(r *http.Request, name string) (bool, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, apperr.Invalid(name, "must be a boolean")
	}
	return v, nil
}
