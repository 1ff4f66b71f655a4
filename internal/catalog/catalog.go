// Package catalog loads product catalogs from JSON files into a product
// repository.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/erp-inventory/db"
	"github.com/xenking/erp-inventory/internal/domain/apperr"
	"github.com/xenking/erp-inventory/internal/domain/product"
)

type entry struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Description   string          `json:"description"`
	Supplier      string          `json:"supplier"`
	Price         decimal.Decimal `json:"price"`
	Cost          decimal.Decimal `json:"cost"`
	StockQuantity int             `json:"stock_quantity"`
	MinStockLevel *int            `json:"min_stock_level"`
}

// Decode reads a JSON array of products.
func Decode(r io.Reader) ([]product.NewProduct, error) {
	var entries []entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, errors.Wrap(err, "parse products JSON")
	}
	out := make([]product.NewProduct, len(entries))
	for i, e := range entries {
		out[i] = product.NewProduct{
			SKU:           e.SKU,
			Name:          e.Name,
			Category:      e.Category,
			Description:   e.Description,
			Supplier:      e.Supplier,
			Price:         e.Price,
			Cost:          e.Cost,
			StockQuantity: e.StockQuantity,
			MinStockLevel: e.MinStockLevel,
		}
	}
	return out, nil
}

// Default returns the built-in catalog.
func Default() ([]product.NewProduct, error) {
	return Decode(bytes.NewReader(db.SeedProducts))
}

// Open reads a catalog file. Files ending in .gz are decompressed.
func Open(path string) ([]product.NewProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open catalog")
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, "open gzip reader")
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}
	return Decode(r)
}

// Result counts the outcome of Load.
type Result struct {
	Created int
	Skipped int
}

// Load creates every product of the catalog. Products whose SKU or name
// already exists are skipped, so loading is repeatable.
func Load(ctx context.Context, svc *product.Service, products []product.NewProduct) (Result, error) {
	var res Result
	for _, p := range products {
		_, err := svc.Create(ctx, p)
		switch {
		case err == nil:
			res.Created++
		case errors.Is(err, apperr.ErrAlreadyExists):
			res.Skipped++
		default:
			return res, errors.Wrapf(err, "create product %q", p.SKU)
		}
	}
	return res, nil
}
