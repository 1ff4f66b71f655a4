package product

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
)

// Storage limits. Quantities are INTEGER columns, amounts NUMERIC(12,2) and
// discounts NUMERIC(5,4).
const (
	MaxQuantity     = math.MaxInt32
	AmountPlaces    = 2
	DiscountPlaces  = 4
	maxAmountDigits = 10
)

// MaxAmount is the largest price, subtotal or total that can be stored.
var MaxAmount = decimal.New(1, maxAmountDigits).Sub(decimal.New(1, -AmountPlaces))

// CheckAmount validates a money value for field: at most two decimal places
// and not above MaxAmount.
func CheckAmount(field string, d decimal.Decimal) error {
	if !d.Equal(d.Round(AmountPlaces)) {
		return apperr.Invalid(field, fmt.Sprintf("must have at most %d decimal places", AmountPlaces))
	}
	if d.Abs().GreaterThan(MaxAmount) {
		return apperr.Invalid(field, "must not exceed "+MaxAmount.StringFixed(AmountPlaces))
	}
	return nil
}

// CheckQuantity validates a stock quantity or threshold for field.
func CheckQuantity(field string, n int) error {
	if n < 0 {
		return apperr.Invalid(field, "must not be negative")
	}
	if n > MaxQuantity {
		return apperr.Invalid(field, fmt.Sprintf("must not exceed %d", MaxQuantity))
	}
	return nil
}

// StockLimitError indicates a stock increase beyond MaxQuantity.
type StockLimitError struct {
	ProductID int64
	Stock     int
	Delta     int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("stock of product %d would exceed %d: current %d, adding %d",
		e.ProductID, MaxQuantity, e.Stock, e.Delta)
}

func (e *StockLimitError) Unwrap() error { return apperr.ErrInvalidInput }
