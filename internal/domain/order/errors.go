package order

import (
	"fmt"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
)

// NotFoundError indicates a requested order does not exist.
type NotFoundError struct {
	OrderID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %d not found", e.OrderID)
}

func (e *NotFoundError) Unwrap() error { return apperr.ErrNotFound }

// InvalidStatusError indicates an unknown target status or a transition the
// lifecycle does not allow. From is empty when the target itself is unknown.
type InvalidStatusError struct {
	OrderID int64
	From    Status
	To      Status
}

func (e *InvalidStatusError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("unknown order status %q", e.To)
	}
	return fmt.Sprintf("order %d cannot move from %s to %s", e.OrderID, e.From, e.To)
}

func (e *InvalidStatusError) Unwrap() error { return apperr.ErrInvalidStatus }
