package product

import (
	"fmt"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
)

// NotFoundError indicates a requested product does not exist.
type NotFoundError struct {
	ProductID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

func (e *NotFoundError) Unwrap() error { return apperr.ErrNotFound }

// InsufficientStockError indicates a deduction larger than the available stock.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (product %d): available %d, requested %d",
		e.Name, e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return apperr.ErrInsufficientStock }

// DuplicateError indicates a unique catalog key (name or sku) is already taken.
type DuplicateError struct {
	Field string
	Value string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("product with %s %q already exists", e.Field, e.Value)
}

func (e *DuplicateError) Unwrap() error { return apperr.ErrAlreadyExists }

// InUseError indicates a product cannot be deleted because order items
// reference it.
type InUseError struct {
	ProductID int64
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("product %d is referenced by existing orders", e.ProductID)
}

func (e *InUseError) Unwrap() error { return apperr.ErrConflict }
