// Package report builds read-only sales and inventory summaries.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
)

// TopProductsLimit caps SalesReport.TopProducts.
const TopProductsLimit = 5

// StockAlert is a product whose stock fell below its minimum level.
type StockAlert struct {
	ProductID     int64
	ProductName   string
	CurrentStock  int
	MinStockLevel int
	Shortage      int
}

// ProductSales aggregates completed-order lines of one product.
type ProductSales struct {
	ProductID   int64
	ProductName string
	Quantity    int
	Revenue     decimal.Decimal
}

// SalesReport summarizes all orders.
type SalesReport struct {
	TotalOrders      int
	CompletedOrders  int
	PendingOrders    int
	ProcessingOrders int
	CancelledOrders  int
	// TotalRevenue only counts completed orders.
	TotalRevenue decimal.Decimal
	TopProducts  []ProductSales
}

// InventoryReport summarizes the catalog.
type InventoryReport struct {
	TotalProducts    int
	TotalStockValue  decimal.Decimal
	OutOfStockCount  int
	LowStockProducts []StockAlert
}

// BuildStockAlerts returns an alert for every product below its minimum level,
// in catalog order.
func BuildStockAlerts(products []product.Product) []StockAlert {
	alerts := make([]StockAlert, 0)
	for _, p := range products {
		if !p.IsLowStock() {
			continue
		}
		alerts = append(alerts, StockAlert{
			ProductID:     p.ID,
			ProductName:   p.Name,
			CurrentStock:  p.StockQuantity,
			MinStockLevel: p.MinStockLevel,
			Shortage:      p.Shortage(),
		})
	}
	return alerts
}

// BuildInventoryReport summarizes products.
func BuildInventoryReport(products []product.Product) InventoryReport {
	r := InventoryReport{
		TotalProducts:    len(products),
		TotalStockValue:  decimal.Zero,
		LowStockProducts: BuildStockAlerts(products),
	}
	for _, p := range products {
		r.TotalStockValue = r.TotalStockValue.Add(p.StockValue())
		if p.StockQuantity == 0 {
			r.OutOfStockCount++
		}
	}
	return r
}

// BuildSalesReport summarizes orders. Product revenue is taken from the
// subtotals frozen on the items, so later price changes do not rewrite
// history. Products with equal revenue keep the order they were first seen in.
func BuildSalesReport(orders []order.Order) SalesReport {
	r := SalesReport{
		TotalOrders:  len(orders),
		TotalRevenue: decimal.Zero,
	}

	var sales []ProductSales
	index := make(map[int64]int)
	for _, o := range orders {
		switch o.Status {
		case order.StatusCompleted:
			r.CompletedOrders++
		case order.StatusPending:
			r.PendingOrders++
		case order.StatusProcessing:
			r.ProcessingOrders++
		case order.StatusCancelled:
			r.CancelledOrders++
		}
		if o.Status != order.StatusCompleted {
			continue
		}

		r.TotalRevenue = r.TotalRevenue.Add(o.TotalAmount)
		for _, it := range o.Items {
			i, ok := index[it.ProductID]
			if !ok {
				i = len(sales)
				index[it.ProductID] = i
				sales = append(sales, ProductSales{
					ProductID:   it.ProductID,
					ProductName: it.ProductName,
					Revenue:     decimal.Zero,
				})
			}
			sales[i].Quantity += it.Quantity
			sales[i].Revenue = sales[i].Revenue.Add(it.Subtotal)
		}
	}

	sort.SliceStable(sales, func(i, j int) bool {
		return sales[i].Revenue.GreaterThan(sales[j].Revenue)
	})
	if len(sales) > TopProductsLimit {
		sales = sales[:TopProductsLimit]
	}
	r.TopProducts = sales
	if r.TopProducts == nil {
		r.TopProducts = []ProductSales{}
	}
	return r
}
