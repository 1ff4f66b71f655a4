package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMinStockLevel is used when a product is created without a threshold.
const DefaultMinStockLevel = 10

// Product represents a catalog item and its current stock level.
type Product struct {
	ID            int64
	SKU           string
	Name          string
	Category      string
	Description   string
	Supplier      string
	Price         decimal.Decimal
	Cost          decimal.Decimal
	StockQuantity int
	MinStockLevel int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLowStock reports whether the stock is below the configured minimum.
func (p Product) IsLowStock() bool {
	return p.StockQuantity < p.MinStockLevel
}

// Shortage returns how many units are missing to reach the minimum level.
func (p Product) Shortage() int {
	if !p.IsLowStock() {
		return 0
	}
	return p.MinStockLevel - p.StockQuantity
}

// StockValue returns price * stock.
func (p Product) StockValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.StockQuantity)))
}

// NewProduct holds the fields required to create a product.
type NewProduct struct {
	SKU           string
	Name          string
	Category      string
	Description   string
	Supplier      string
	Price         decimal.Decimal
	Cost          decimal.Decimal
	StockQuantity int
	MinStockLevel *int
}

// Patch is a partial update of product metadata. Nil fields are left as is.
// Stock is deliberately absent: it only changes through AdjustStock.
type Patch struct {
	SKU           *string
	Name          *string
	Category      *string
	Description   *string
	Supplier      *string
	Price         *decimal.Decimal
	Cost          *decimal.Decimal
	MinStockLevel *int
}

// Apply writes the non-nil fields of the patch onto p.
func (u Patch) Apply(p *Product) {
	if u.SKU != nil {
		p.SKU = *u.SKU
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Supplier != nil {
		p.Supplier = *u.Supplier
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Cost != nil {
		p.Cost = *u.Cost
	}
	if u.MinStockLevel != nil {
		p.MinStockLevel = *u.MinStockLevel
	}
}

// Filter narrows List results. Zero values mean "no restriction".
type Filter struct {
	Category     string
	LowStockOnly bool
	Limit        int
	Offset       int
}

// Reason explains why a stock level changed.
type Reason string

const (
	ReasonOrderCreated   Reason = "order_created"
	ReasonOrderCancelled Reason = "order_cancelled"
	ReasonOrderDeleted   Reason = "order_deleted"
	ReasonRestock        Reason = "restock"
)

// StockChange describes a single signed stock adjustment.
type StockChange struct {
	Delta   int
	Reason  Reason
	OrderID int64
}

// Movement is a ledger entry written for every applied StockChange.
type Movement struct {
	ID        int64
	ProductID int64
	Delta     int
	Before    int
	After     int
	Reason    Reason
	OrderID   int64
	CreatedAt time.Time
}

// MovementFilter narrows the movement ledger.
type MovementFilter struct {
	ProductID int64
	Limit     int
}

// Repository defines persistence operations for the product catalog.
//
// AdjustStock is the only operation that writes stock levels. It must reject a
// change that would take the quantity below zero with *InsufficientStockError
// and record a Movement for every change it applies.
type Repository interface {
	Get(ctx context.Context, id int64) (*Product, error)
	// LockByIDs returns the products with the given ids, locked until the end
	// of the current unit of work. Unknown ids are simply absent.
	LockByIDs(ctx context.Context, ids []int64) ([]Product, error)
	List(ctx context.Context, f Filter) ([]Product, error)
	Create(ctx context.Context, p NewProduct) (*Product, error)
	Update(ctx context.Context, id int64, patch Patch) (*Product, error)
	Delete(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, change StockChange) (*Product, error)
	Movements(ctx context.Context, f MovementFilter) ([]Movement, error)
}
