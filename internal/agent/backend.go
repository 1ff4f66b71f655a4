package agent

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
)

// Backend exposes the operations an agent may call.
type Backend interface {
	ListProducts(ctx context.Context, lowStockOnly bool) ([]api.Product, error)
	ListOrders(ctx context.Context, status string) ([]api.Order, error)
	CreateOrder(ctx context.Context, req api.OrderCreate) (*api.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status string) (*api.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
	Restock(ctx context.Context, productID int64, quantity int) (*api.Product, error)
	StockAlerts(ctx context.Context) ([]api.StockAlert, error)
	SalesReport(ctx context.Context) (*api.SalesReport, error)
	InventoryReport(ctx context.Context) (*api.InventoryReport, error)
}

// Local is a Backend calling the services in process.
type Local struct {
	Products *product.Service
	Orders   *order.Service
	Reports  *report.Service
}

var _ Backend = (*Local)(nil)

func (l *Local) ListProducts(ctx context.Context, lowStockOnly bool) ([]api.Product, error) {
	ps, err := l.Products.List(ctx, product.Filter{LowStockOnly: lowStockOnly})
	if err != nil {
		return nil, err
	}
	return api.FromProducts(ps), nil
}

func (l *Local) ListOrders(ctx context.Context, status string) ([]api.Order, error) {
	var f order.Filter
	if status != "" {
		f.Status, _ = order.ParseStatus(status)
	}
	orders, err := l.Orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return api.FromOrders(orders), nil
}

func (l *Local) CreateOrder(ctx context.Context, req api.OrderCreate) (*api.Order, error) {
	o, err := l.Orders.CreateOrder(ctx, req.ToCreateRequest())
	if err != nil {
		return nil, err
	}
	out := api.FromOrder(*o)
	return &out, nil
}

func (l *Local) SetOrderStatus(ctx context.Context, id int64, status string) (*api.Order, error) {
	st, _ := order.ParseStatus(status)
	o, err := l.Orders.ChangeStatus(ctx, id, st)
	if err != nil {
		return nil, err
	}
	out := api.FromOrder(*o)
	return &out, nil
}

func (l *Local) DeleteOrder(ctx context.Context, id int64) error {
	return l.Orders.DeleteOrder(ctx, id, order.DeleteOptions{})
}

func (l *Local) Restock(ctx context.Context, productID int64, quantity int) (*api.Product, error) {
	p, err := l.Orders.Restock(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	out := api.FromProduct(*p)
	return &out, nil
}

func (l *Local) StockAlerts(ctx context.Context) ([]api.StockAlert, error) {
	alerts, err := l.Reports.StockAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return api.FromStockAlerts(alerts), nil
}

func (l *Local) SalesReport(ctx context.Context) (*api.SalesReport, error) {
	r, err := l.Reports.SalesReport(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "sales report")
	}
	out := api.FromSalesReport(r)
	return &out, nil
}

func (l *Local) InventoryReport(ctx context.Context) (*api.InventoryReport, error) {
	r, err := l.Reports.InventoryReport(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "inventory report")
	}
	out := api.FromInventoryReport(r)
	return &out, nil
}
