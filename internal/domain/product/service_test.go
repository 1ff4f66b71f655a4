package product_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/erp-inventory/internal/domain/apperr"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/storage/memory"
)

func ptr[T any](v T) *T { return &v }

func TestServiceCreate(t *testing.T) {
	valid := func() product.NewProduct {
		return product.NewProduct{
			SKU:   " LAP-001 ",
			Name:  " Laptop ",
			Price: decimal.RequireFromString("5999.00"),
			Cost:  decimal.RequireFromString("4500.00"),
		}
	}

	t.Run("Defaults", func(t *testing.T) {
		svc := product.NewService(memory.New().Products())
		p, err := svc.Create(context.Background(), valid())
		require.NoError(t, err)
		assert.Equal(t, "LAP-001", p.SKU)
		assert.Equal(t, "Laptop", p.Name)
		assert.Equal(t, product.DefaultMinStockLevel, p.MinStockLevel)
	})

	for _, tt := range []struct {
		name   string
		mutate func(*product.NewProduct)
	}{
		{"EmptyName", func(p *product.NewProduct) { p.Name = "  " }},
		{"EmptySKU", func(p *product.NewProduct) { p.SKU = "" }},
		{"ZeroPrice", func(p *product.NewProduct) { p.Price = decimal.Zero }},
		{"NegativeCost", func(p *product.NewProduct) { p.Cost = decimal.NewFromInt(-1) }},
		{"NegativeStock", func(p *product.NewProduct) { p.StockQuantity = -1 }},
		{"NegativeMinLevel", func(p *product.NewProduct) { p.MinStockLevel = ptr(-1) }},
		{"PriceRoundsToZero", func(p *product.NewProduct) { p.Price = decimal.RequireFromString("0.001") }},
		{"PriceTooPrecise", func(p *product.NewProduct) { p.Price = decimal.RequireFromString("19.999") }},
		{"PriceAboveColumnRange", func(p *product.NewProduct) { p.Price = decimal.RequireFromString("10000000000") }},
		{"CostTooPrecise", func(p *product.NewProduct) { p.Cost = decimal.RequireFromString("1.005") }},
		{"StockAboveColumnRange", func(p *product.NewProduct) { p.StockQuantity = product.MaxQuantity + 1 }},
		{"MinLevelAboveColumnRange", func(p *product.NewProduct) { p.MinStockLevel = ptr(product.MaxQuantity + 1) }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			svc := product.NewService(memory.New().Products())
			np := valid()
			tt.mutate(&np)
			_, err := svc.Create(context.Background(), np)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc := product.NewService(memory.New().Products())
	p, err := svc.Create(ctx, product.NewProduct{SKU: "A", Name: "A", Price: decimal.NewFromInt(1), StockQuantity: 3})
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, product.Patch{Name: ptr(" ")})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.Update(ctx, p.ID, product.Patch{Price: ptr(decimal.NewFromInt(-5))})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.Update(ctx, p.ID, product.Patch{Price: ptr(decimal.RequireFromString("0.001"))})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = svc.Update(ctx, p.ID, product.Patch{Cost: ptr(decimal.RequireFromString("0.125"))})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	got, err := svc.Update(ctx, p.ID, product.Patch{Price: ptr(decimal.RequireFromString("12.50"))})
	require.NoError(t, err)
	assert.Equal(t, "12.50", got.Price.StringFixed(2))

	got, err = svc.Update(ctx, p.ID, product.Patch{MinStockLevel: ptr(2), Supplier: ptr("Acme")})
	require.NoError(t, err)
	assert.Equal(t, 2, got.MinStockLevel)
	assert.Equal(t, "Acme", got.Supplier)
	assert.Equal(t, 3, got.StockQuantity)
}

func TestServiceList(t *testing.T) {
	svc := product.NewService(memory.New().Products())
	_, err := svc.List(context.Background(), product.Filter{Limit: -1})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestProductStockHelpers(t *testing.T) {
	p := product.Product{Price: decimal.RequireFromString("2.5"), StockQuantity: 4, MinStockLevel: 10}
	assert.True(t, p.IsLowStock())
	assert.Equal(t, 6, p.Shortage())
	assert.Equal(t, "10.00", p.StockValue().StringFixed(2))

	p.StockQuantity = 10
	assert.False(t, p.IsLowStock())
	assert.Zero(t, p.Shortage())
}
