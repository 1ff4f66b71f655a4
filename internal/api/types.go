// Package api defines the JSON schema of the HTTP API and its mapping from
// domain types. Both the server handlers and the HTTP client use it.
package api

import (
	"time"

	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
)

// Product is a catalog entry.
type Product struct {
	ID            int64     `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	Supplier      string    `json:"supplier"`
	Price         Money     `json:"price"`
	Cost          Money     `json:"cost"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel int       `json:"min_stock_level"`
	IsLowStock    bool      `json:"is_low_stock"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductCreate is the body of POST /products.
type ProductCreate struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Supplier      string `json:"supplier"`
	Price         Money  `json:"price"`
	Cost          Money  `json:"cost"`
	StockQuantity int    `json:"stock_quantity"`
	MinStockLevel *int   `json:"min_stock_level,omitempty"`
}

// ProductUpdate is the body of PUT /products/{id}. Absent fields are kept.
// Stock is changed through restocking and orders only.
type ProductUpdate struct {
	SKU           *string `json:"sku,omitempty"`
	Name          *string `json:"name,omitempty"`
	Category      *string `json:"category,omitempty"`
	Description   *string `json:"description,omitempty"`
	Supplier      *string `json:"supplier,omitempty"`
	Price         *Money  `json:"price,omitempty"`
	Cost          *Money  `json:"cost,omitempty"`
	MinStockLevel *int    `json:"min_stock_level,omitempty"`
}

// OrderLine is one requested line of an order.
type OrderLine struct {
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Discount  *Ratio `json:"discount,omitempty"`
}

// OrderCreate is the body of POST /orders.
type OrderCreate struct {
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email,omitempty"`
	CustomerPhone   string      `json:"customer_phone,omitempty"`
	ShippingAddress string      `json:"shipping_address,omitempty"`
	Notes           string      `json:"notes,omitempty"`
	Items           []OrderLine `json:"items"`
}

// OrderItem is a stored order line.
type OrderItem struct {
	ID          int64  `json:"id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Money  `json:"unit_price"`
	Discount    Ratio  `json:"discount"`
	Subtotal    Money  `json:"subtotal"`
}

// Order is a customer order with its items.
type Order struct {
	ID              int64       `json:"id"`
	OrderNumber     string      `json:"order_number"`
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	ShippingAddress string      `json:"shipping_address"`
	Notes           string      `json:"notes"`
	Status          string      `json:"status"`
	TotalAmount     Money       `json:"total_amount"`
	OrderDate       time.Time   `json:"order_date"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Items           []OrderItem `json:"items"`
}

// StatusUpdate is the body of PUT /orders/{id}.
type StatusUpdate struct {
	Status string `json:"status"`
}

// Restock is the optional body of POST /inventory/restock/{id}.
type Restock struct {
	Quantity int `json:"quantity"`
}

// StockAlert reports a product below its minimum stock level.
type StockAlert struct {
	ProductID     int64  `json:"product_id"`
	ProductName   string `json:"product_name"`
	CurrentStock  int    `json:"current_stock"`
	MinStockLevel int    `json:"min_stock_level"`
	Shortage      int    `json:"shortage"`
}

// Movement is a stock ledger entry.
type Movement struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Delta     int       `json:"delta"`
	Before    int       `json:"before"`
	After     int       `json:"after"`
	Reason    string    `json:"reason"`
	OrderID   int64     `json:"order_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductSales is one entry of the top products ranking.
type ProductSales struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	Revenue     Money  `json:"revenue"`
}

// SalesReport is the body of GET /reports/sales.
type SalesReport struct {
	TotalOrders      int            `json:"total_orders"`
	TotalRevenue     Money          `json:"total_revenue"`
	CompletedOrders  int            `json:"completed_orders"`
	PendingOrders    int            `json:"pending_orders"`
	ProcessingOrders int            `json:"processing_orders"`
	CancelledOrders  int            `json:"cancelled_orders"`
	TopProducts      []ProductSales `json:"top_products"`
}

// InventoryReport is the body of GET /reports/inventory.
type InventoryReport struct {
	TotalProducts    int          `json:"total_products"`
	TotalStockValue  Money        `json:"total_stock_value"`
	OutOfStockCount  int          `json:"out_of_stock_count"`
	LowStockProducts []StockAlert `json:"low_stock_products"`
}

// CommandResponse is the result of POST /agent/command.
type CommandResponse struct {
	Operation string `json:"operation"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
}

// ChatRequest is the body of POST /agent/chat and /agent/command.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the agent's reply.
type ChatResponse struct {
	Reply     string   `json:"reply"`
	ToolCalls []string `json:"tool_calls,omitempty"`
}

// FromProduct maps a domain product.
func FromProduct(p product.Product) Product {
	return Product{
		ID:            p.ID,
		SKU:           p.SKU,
		Name:          p.Name,
		Category:      p.Category,
		Description:   p.Description,
		Supplier:      p.Supplier,
		Price:         Money(p.Price),
		Cost:          Money(p.Cost),
		StockQuantity: p.StockQuantity,
		MinStockLevel: p.MinStockLevel,
		IsLowStock:    p.IsLowStock(),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// FromProducts maps a list of products, never returning nil.
func FromProducts(ps []product.Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = FromProduct(p)
	}
	return out
}

// ToNewProduct maps a create request.
func (c ProductCreate) ToNewProduct() product.NewProduct {
	return product.NewProduct{
		SKU:           c.SKU,
		Name:          c.Name,
		Category:      c.Category,
		Description:   c.Description,
		Supplier:      c.Supplier,
		Price:         c.Price.Decimal(),
		Cost:          c.Cost.Decimal(),
		StockQuantity: c.StockQuantity,
		MinStockLevel: c.MinStockLevel,
	}
}

// ToPatch maps an update request.
func (u ProductUpdate) ToPatch() product.Patch {
	p := product.Patch{
		SKU:           u.SKU,
		Name:          u.Name,
		Category:      u.Category,
		Description:   u.Description,
		Supplier:      u.Supplier,
		MinStockLevel: u.MinStockLevel,
	}
	if u.Price != nil {
		d := u.Price.Decimal()
		p.Price = &d
	}
	if u.Cost != nil {
		d := u.Cost.Decimal()
		p.Cost = &d
	}
	return p
}

// ToCreateRequest maps an order request.
func (c OrderCreate) ToCreateRequest() order.CreateRequest {
	req := order.CreateRequest{
		Customer: order.Customer{
			Name:            c.CustomerName,
			Email:           c.CustomerEmail,
			Phone:           c.CustomerPhone,
			ShippingAddress: c.ShippingAddress,
		},
		Notes: c.Notes,
		Items: make([]order.Line, len(c.Items)),
	}
	for i, it := range c.Items {
		req.Items[i] = order.Line{ProductID: it.ProductID, Quantity: it.Quantity}
		if it.Discount != nil {
			req.Items[i].Discount = it.Discount.Decimal()
		}
	}
	return req
}

// FromOrder maps a domain order.
func FromOrder(o order.Order) Order {
	out := Order{
		ID:              o.ID,
		OrderNumber:     o.Number,
		CustomerName:    o.Customer.Name,
		CustomerEmail:   o.Customer.Email,
		CustomerPhone:   o.Customer.Phone,
		ShippingAddress: o.Customer.ShippingAddress,
		Notes:           o.Notes,
		Status:          string(o.Status),
		TotalAmount:     Money(o.TotalAmount),
		OrderDate:       o.OrderDate,
		UpdatedAt:       o.UpdatedAt,
		Items:           make([]OrderItem, len(o.Items)),
	}
	for i, it := range o.Items {
		out.Items[i] = OrderItem{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   Money(it.UnitPrice),
			Discount:    Ratio(it.Discount),
			Subtotal:    Money(it.Subtotal),
		}
	}
	return out
}

// FromOrders maps a list of orders, never returning nil.
func FromOrders(orders []order.Order) []Order {
	out := make([]Order, len(orders))
	for i, o := range orders {
		out[i] = FromOrder(o)
	}
	return out
}

// FromMovements maps ledger entries.
func FromMovements(ms []product.Movement) []Movement {
	out := make([]Movement, len(ms))
	for i, m := range ms {
		out[i] = Movement{
			ID:        m.ID,
			ProductID: m.ProductID,
			Delta:     m.Delta,
			Before:    m.Before,
			After:     m.After,
			Reason:    string(m.Reason),
			OrderID:   m.OrderID,
			CreatedAt: m.CreatedAt,
		}
	}
	return out
}

// FromStockAlerts maps stock alerts, never returning nil.
func FromStockAlerts(as []report.StockAlert) []StockAlert {
	out := make([]StockAlert, len(as))
	for i, a := range as {
		out[i] = StockAlert(a)
	}
	return out
}

// FromSalesReport maps a sales report.
func FromSalesReport(r report.SalesReport) SalesReport {
	out := SalesReport{
		TotalOrders:      r.TotalOrders,
		TotalRevenue:     Money(r.TotalRevenue),
		CompletedOrders:  r.CompletedOrders,
		PendingOrders:    r.PendingOrders,
		ProcessingOrders: r.ProcessingOrders,
		CancelledOrders:  r.CancelledOrders,
		TopProducts:      make([]ProductSales, len(r.TopProducts)),
	}
	for i, p := range r.TopProducts {
		out.TopProducts[i] = ProductSales{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			Revenue:     Money(p.Revenue),
		}
	}
	return out
}

// FromInventoryReport maps an inventory report.
func FromInventoryReport(r report.InventoryReport) InventoryReport {
	return InventoryReport{
		TotalProducts:    r.TotalProducts,
		TotalStockValue:  Money(r.TotalStockValue),
		OutOfStockCount:  r.OutOfStockCount,
		LowStockProducts: FromStockAlerts(r.LowStockProducts),
	}
}
