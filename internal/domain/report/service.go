package report

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
)

// Snapshotter runs fn against a consistent, read-only view of the store. No
// write committed while fn runs is visible to it.
type Snapshotter interface {
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context, s order.Store) error) error
}

// Service computes reports from store snapshots.
type Service struct {
	store Snapshotter
}

// NewService creates a report service.
func NewService(store Snapshotter) *Service {
	return &Service{store: store}
}

// SalesReport summarizes every order.
func (s *Service) SalesReport(ctx context.Context) (SalesReport, error) {
	var orders []order.Order
	if err := s.store.ReadSnapshot(ctx, func(ctx context.Context, st order.Store) error {
		var err error
		orders, err = st.Orders().List(ctx, order.Filter{})
		return err
	}); err != nil {
		return SalesReport{}, errors.Wrap(err, "sales report")
	}
	return BuildSalesReport(orders), nil
}

// InventoryReport summarizes the catalog.
func (s *Service) InventoryReport(ctx context.Context) (InventoryReport, error) {
	products, err := s.products(ctx)
	if err != nil {
		return InventoryReport{}, errors.Wrap(err, "inventory report")
	}
	return BuildInventoryReport(products), nil
}

// StockAlerts lists products below their minimum stock level.
func (s *Service) StockAlerts(ctx context.Context) ([]StockAlert, error) {
	products, err := s.products(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "stock alerts")
	}
	return BuildStockAlerts(products), nil
}

func (s *Service) products(ctx context.Context) ([]product.Product, error) {
	var products []product.Product
	err := s.store.ReadSnapshot(ctx, func(ctx context.Context, st order.Store) error {
		var err error
		products, err = st.Products().List(ctx, product.Filter{})
		return err
	})
	return products, err
}
