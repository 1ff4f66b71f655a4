package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/erp-inventory/internal/api"
	"github.com/xenking/erp-inventory/internal/domain/apperr"
)

// Result is the outcome of an executed task.
type Result struct {
	Op      Operation
	Message string
	// Data holds the api value returned by the backend, if any.
	Data any
}

// Executor runs tasks against a Backend.
type Executor struct {
	backend Backend
}

// NewExecutor creates an executor calling b.
func NewExecutor(b Backend) *Executor {
	return &Executor{backend: b}
}

// Handle parses a free-text command and executes it. The catalog is fetched
// for every command, so product names resolve against current data.
func (e *Executor) Handle(ctx context.Context, text string) (Result, error) {
	catalog, err := e.backend.ListProducts(ctx, false)
	if err != nil {
		return Result{}, errors.Wrap(err, "load catalog")
	}
	task, err := Parse(text, catalog)
	if err != nil {
		return Result{}, err
	}
	return e.Execute(ctx, task)
}

// Execute runs a parsed task.
func (e *Executor) Execute(ctx context.Context, t Task) (Result, error) {
	res := Result{Op: t.Op}
	switch t.Op {
	case OpCreateOrder:
		if strings.TrimSpace(t.CustomerName) == "" {
			return res, apperr.Invalid("customer_name", "is required")
		}
		if len(t.Items) == 0 {
			return res, apperr.Invalid("items", "no known products mentioned")
		}
		req := api.OrderCreate{
			CustomerName:    t.CustomerName,
			CustomerEmail:   t.CustomerEmail,
			CustomerPhone:   t.CustomerPhone,
			ShippingAddress: t.ShippingAddress,
			Items:           make([]api.OrderLine, 0, len(t.Items)),
		}
		for _, it := range t.Items {
			if it.ProductID == 0 {
				return res, apperr.Invalid("items", fmt.Sprintf("unknown product %q", it.ProductName))
			}
			req.Items = append(req.Items, api.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		o, err := e.backend.CreateOrder(ctx, req)
		if err != nil {
			return res, err
		}
		res.Data = o
		res.Message = fmt.Sprintf("Created order %s for %s, total %s", o.OrderNumber, o.CustomerName, o.TotalAmount)
	case OpListOrders:
		orders, err := e.backend.ListOrders(ctx, t.Status)
		if err != nil {
			return res, err
		}
		res.Data = orders
		res.Message = fmt.Sprintf("Found %d orders", len(orders))
	case OpSetOrderStatus:
		if t.OrderID <= 0 {
			return res, apperr.Invalid("order_id", "is required")
		}
		if t.Status == "" {
			return res, apperr.Invalid("status", "is required")
		}
		o, err := e.backend.SetOrderStatus(ctx, t.OrderID, t.Status)
		if err != nil {
			return res, err
		}
		res.Data = o
		res.Message = fmt.Sprintf("Order %s is %s", o.OrderNumber, o.Status)
	case OpDeleteOrder:
		if t.OrderID <= 0 {
			return res, apperr.Invalid("order_id", "is required")
		}
		if err := e.backend.DeleteOrder(ctx, t.OrderID); err != nil {
			return res, err
		}
		res.Message = fmt.Sprintf("Deleted order %d", t.OrderID)
	case OpListProducts:
		products, err := e.backend.ListProducts(ctx, t.LowStockOnly)
		if err != nil {
			return res, err
		}
		res.Data = products
		res.Message = fmt.Sprintf("Found %d products", len(products))
	case OpRestock:
		if t.ProductID <= 0 {
			return res, apperr.Invalid("product_id", "is required")
		}
		if t.Quantity <= 0 {
			return res, apperr.Invalid("quantity", "must be positive")
		}
		p, err := e.backend.Restock(ctx, t.ProductID, t.Quantity)
		if err != nil {
			return res, err
		}
		res.Data = p
		res.Message = fmt.Sprintf("Restocked %s by %d, now %d in stock", p.Name, t.Quantity, p.StockQuantity)
	case OpStockAlerts:
		alerts, err := e.backend.StockAlerts(ctx)
		if err != nil {
			return res, err
		}
		res.Data = alerts
		res.Message = fmt.Sprintf("%d products below minimum stock", len(alerts))
	case OpSalesReport:
		r, err := e.backend.SalesReport(ctx)
		if err != nil {
			return res, err
		}
		res.Data = r
		res.Message = fmt.Sprintf("%d orders, revenue %s", r.TotalOrders, r.TotalRevenue)
	case OpInventoryReport:
		r, err := e.backend.InventoryReport(ctx)
		if err != nil {
			return res, err
		}
		res.Data = r
		res.Message = fmt.Sprintf("%d products, stock value %s", r.TotalProducts, r.TotalStockValue)
	case OpUnknown:
		return res, ErrNotUnderstood
	default:
		return res, errors.Errorf("unsupported operation %d", int(t.Op))
	}
	return res, nil
}
