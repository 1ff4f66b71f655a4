package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/erp-inventory/internal/domain/product"
)

// Customer holds the contact details captured with an order.
type Customer struct {
	Name            string
	Email           string
	Phone           string
	ShippingAddress string
}

// Order is a customer order. TotalAmount always equals the sum of the item
// subtotals.
type Order struct {
	ID          int64
	Number      string
	Customer    Customer
	Notes       string
	OrderDate   time.Time
	Status      Status
	TotalAmount decimal.Decimal
	Items       []Item
	UpdatedAt   time.Time
}

// Item is a single order line. UnitPrice is the product price at the moment
// the order was placed and never follows later catalog changes.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Subtotal    decimal.Decimal
}

// newItem snapshots the product price into a new line.
func newItem(p product.Product, line Line) Item {
	return Item{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    line.Quantity,
		UnitPrice:   p.Price,
		Discount:    line.Discount,
		Subtotal:    Subtotal(p.Price, line.Quantity, line.Discount),
	}
}

// Subtotal returns unitPrice * quantity * (1 - discount) rounded to cents.
func Subtotal(unitPrice decimal.Decimal, quantity int, discount decimal.Decimal) decimal.Decimal {
	return unitPrice.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(decimal.NewFromInt(1).Sub(discount)).
		Round(2)
}

// SumSubtotals returns the total of the given items.
func SumSubtotals(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total
}

// FormatNumber builds the human-readable order number from the order date and
// a store-wide sequence value, e.g. ORD26100007.
func FormatNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("ORD%02d%02d%04d", t.Year()%100, int(t.Month()), seq)
}

// Filter narrows List results. Zero values mean "no restriction".
type Filter struct {
	Status       Status
	CustomerName string
	Limit        int
	Offset       int
}

// Repository defines persistence operations for orders and their items.
// Insert, SetStatus and Delete are only called by Service inside a unit of
// work; external callers use Service.
type Repository interface {
	Get(ctx context.Context, id int64) (*Order, error)
	// Lock returns the order with its items and holds a row lock on it until
	// the end of the current unit of work.
	Lock(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, error)
	NextSequence(ctx context.Context) (int64, error)
	// Insert stores the order and its items and fills in their IDs.
	Insert(ctx context.Context, o *Order) error
	SetStatus(ctx context.Context, id int64, status Status, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// Store gives access to the repositories. Inside WithinTx the repositories are
// bound to the transaction.
type Store interface {
	Products() product.Repository
	Orders() Repository
}

// TxStore is a Store that can run a unit of work atomically: either every
// write made by fn commits, or none does.
type TxStore interface {
	Store
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}
