package api

import (
	"net/http"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
)

// Error kinds as they appear on the wire.
const (
	KindInvalidInput      = "invalid_input"
	KindNotFound          = "not_found"
	KindAlreadyExists     = "already_exists"
	KindConflict          = "conflict"
	KindInsufficientStock = "insufficient_stock"
	KindInvalidStatus     = "invalid_status"
	KindUnauthorized      = "unauthorized"
	KindRateLimited       = "rate_limited"
	KindUnavailable       = "unavailable"
	KindInternal          = "internal"
)

var kinds = []struct {
	name   string
	err    error
	status int
}{
	{KindInvalidInput, apperr.ErrInvalidInput, http.StatusBadRequest},
	{KindNotFound, apperr.ErrNotFound, http.StatusNotFound},
	{KindAlreadyExists, apperr.ErrAlreadyExists, http.StatusConflict},
	{KindConflict, apperr.ErrConflict, http.StatusConflict},
	{KindInsufficientStock, apperr.ErrInsufficientStock, http.StatusUnprocessableEntity},
	{KindInvalidStatus, apperr.ErrInvalidStatus, http.StatusUnprocessableEntity},
}

// Entity names the object an error is about.
type Entity struct {
	Type string `json:"type"`
	ID   int64  `json:"id,omitempty"`
}

// Error is the body of every non-2xx response.
type Error struct {
	Code    int     `json:"code"`
	Kind    string  `json:"kind"`
	Message string  `json:"message"`
	Entity  *Entity `json:"entity,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Unwrap returns the domain kind of the error, so errors decoded by a client
// match apperr sentinels like errors returned in process.
func (e *Error) Unwrap() error {
	for _, k := range kinds {
		if k.name == e.Kind {
			return k.err
		}
	}
	return nil
}

// Classify returns the wire kind and HTTP status for a domain error. Errors of
// no known kind are internal.
func Classify(err error) (kind string, status int) {
	k := apperr.Kind(err)
	for _, c := range kinds {
		if c.err == k {
			return c.name, c.status
		}
	}
	return KindInternal, http.StatusInternalServerError
}
