package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
)

// Service validates catalog edits before handing them to the repository.
// Stock levels are not editable here; see order.Service for stock changes.
type Service struct {
	repo Repository
}

// NewService creates a catalog Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns a single product.
func (s *Service) Get(ctx context.Context, id int64) (*Product, error) {
	return s.repo.Get(ctx, id)
}

// List returns products matching f.
func (s *Service) List(ctx context.Context, f Filter) ([]Product, error) {
	if f.Limit < 0 || f.Offset < 0 {
		return nil, apperr.Invalid("pagination", "limit and offset must not be negative")
	}
	return s.repo.List(ctx, f)
}

// Movements returns the stock ledger, newest first.
func (s *Service) Movements(ctx context.Context, f MovementFilter) ([]Movement, error) {
	if f.Limit < 0 {
		return nil, apperr.Invalid("limit", "must not be negative")
	}
	return s.repo.Movements(ctx, f)
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, p NewProduct) (*Product, error) {
	p.SKU = strings.TrimSpace(p.SKU)
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, apperr.Invalid("name", "required")
	}
	if p.SKU == "" {
		return nil, apperr.Invalid("sku", "required")
	}
	if !p.Price.IsPositive() {
		return nil, apperr.Invalid("price", "must be greater than 0")
	}
	if err := CheckAmount("price", p.Price); err != nil {
		return nil, err
	}
	if p.Cost.IsNegative() {
		return nil, apperr.Invalid("cost", "must not be negative")
	}
	if err := CheckAmount("cost", p.Cost); err != nil {
		return nil, err
	}
	if err := CheckQuantity("stock_quantity", p.StockQuantity); err != nil {
		return nil, err
	}
	if p.MinStockLevel == nil {
		level := DefaultMinStockLevel
		p.MinStockLevel = &level
	} else if err := CheckQuantity("min_stock_level", *p.MinStockLevel); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return created, nil
}

// Update applies a metadata/price patch.
func (s *Service) Update(ctx context.Context, id int64, patch Patch) (*Product, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperr.Invalid("name", "must not be empty")
		}
		patch.Name = &name
	}
	if patch.SKU != nil {
		sku := strings.TrimSpace(*patch.SKU)
		if sku == "" {
			return nil, apperr.Invalid("sku", "must not be empty")
		}
		patch.SKU = &sku
	}
	if patch.Price != nil {
		if !patch.Price.IsPositive() {
			return nil, apperr.Invalid("price", "must be greater than 0")
		}
		if err := CheckAmount("price", *patch.Price); err != nil {
			return nil, err
		}
	}
	if patch.Cost != nil {
		if patch.Cost.IsNegative() {
			return nil, apperr.Invalid("cost", "must not be negative")
		}
		if err := CheckAmount("cost", *patch.Cost); err != nil {
			return nil, err
		}
	}
	if patch.MinStockLevel != nil {
		if err := CheckQuantity("min_stock_level", *patch.MinStockLevel); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	return updated, nil
}

// Delete removes a product that no order item references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "delete product")
	}
	return nil
}
