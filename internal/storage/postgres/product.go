package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xenking/erp-inventory/internal/domain/product"
)

const productColumns = `id, sku, name, category, description, supplier, price, cost,
	stock_quantity, min_stock_level, created_at, updated_at`

const (
	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	lockProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE id = ANY($1) ORDER BY id FOR UPDATE`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1::text = '' OR category = $1)
		  AND (NOT $2::boolean OR stock_quantity < min_stock_level)
		ORDER BY id
		LIMIT $3 OFFSET $4`

	createProductSQL = `INSERT INTO products
		(sku, name, category, description, supplier, price, cost, stock_quantity, min_stock_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + productColumns

	updateProductSQL = `UPDATE products SET
		sku = COALESCE($2, sku),
		name = COALESCE($3, name),
		category = COALESCE($4, category),
		description = COALESCE($5, description),
		supplier = COALESCE($6, supplier),
		price = COALESCE($7, price),
		cost = COALESCE($8, cost),
		min_stock_level = COALESCE($9, min_stock_level),
		updated_at = now()
		WHERE id = $1
		RETURNING ` + productColumns

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	// adjustStockSQL applies the change only if stock stays within the
	// INTEGER range and non-negative, and records the movement in the same
	// statement.
	adjustStockSQL = `WITH updated AS (
			UPDATE products
			SET stock_quantity = stock_quantity + $2::integer, updated_at = now()
			WHERE id = $1 AND stock_quantity::bigint + $2::integer BETWEEN 0 AND 2147483647
			RETURNING ` + productColumns + `
		), movement AS (
			INSERT INTO stock_movements (product_id, delta, before_qty, after_qty, reason, order_id)
			SELECT id, $2, stock_quantity - $2, stock_quantity, $3, $4 FROM updated
		)
		SELECT ` + productColumns + ` FROM updated`

	listMovementsSQL = `SELECT id, product_id, delta, before_qty, after_qty, reason,
		COALESCE(order_id, 0), created_at
		FROM stock_movements
		WHERE ($1::bigint IS NULL OR product_id = $1)
		ORDER BY id DESC
		LIMIT $2`
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	db querier
}

// Get returns a single product by its identifier.
func (r *ProductRepository) Get(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.db.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &product.NotFoundError{ProductID: id}
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// LockByIDs locks the matching rows in id order, so concurrent units of work
// acquire them in the same order.
func (r *ProductRepository) LockByIDs(ctx context.Context, ids []int64) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, lockProductsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("locking products: %w", err)
	}
	return products, nil
}

// List returns products matching f ordered by ID.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	rows, err := r.db.Query(ctx, listProductsSQL, f.Category, f.LowStockOnly, nullIfZero(f.Limit), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return products, nil
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, np product.NewProduct) (*product.Product, error) {
	minLevel := product.DefaultMinStockLevel
	if np.MinStockLevel != nil {
		minLevel = *np.MinStockLevel
	}
	rows, err := r.db.Query(ctx, createProductSQL,
		np.SKU, np.Name, np.Category, np.Description, np.Supplier,
		np.Price, np.Cost, np.StockQuantity, minLevel,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if dup := duplicateError(err, np.SKU, np.Name); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("creating product: %w", err)
	}
	return &p, nil
}

// Update applies patch to product id.
func (r *ProductRepository) Update(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	rows, err := r.db.Query(ctx, updateProductSQL, id,
		patch.SKU, patch.Name, patch.Category, patch.Description, patch.Supplier,
		patch.Price, patch.Cost, patch.MinStockLevel,
	)
	if err != nil {
		return nil, fmt.Errorf("updating product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &product.NotFoundError{ProductID: id}
		}
		if dup := duplicateError(err, deref(patch.SKU), deref(patch.Name)); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("updating product %d: %w", id, err)
	}
	return &p, nil
}

// Delete removes a product. Products referenced by order items are kept.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return &product.InUseError{ProductID: id}
		}
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &product.NotFoundError{ProductID: id}
	}
	return nil
}

// AdjustStock applies a signed stock change and records it in the ledger.
func (r *ProductRepository) AdjustStock(ctx context.Context, id int64, change product.StockChange) (*product.Product, error) {
	rows, err := r.db.Query(ctx, adjustStockSQL, id, change.Delta, string(change.Reason), nullIfZero(change.OrderID))
	if err != nil {
		return nil, fmt.Errorf("adjusting stock of product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjusting stock of product %d: %w", id, err)
	}

	// Nothing updated: the product is missing or the change would take stock
	// out of range.
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if change.Delta > 0 {
		return nil, &product.StockLimitError{ProductID: id, Stock: current.StockQuantity, Delta: change.Delta}
	}
	return nil, &product.InsufficientStockError{
		ProductID: id,
		Name:      current.Name,
		Available: current.StockQuantity,
		Requested: -change.Delta,
	}
}

// Movements returns ledger entries newest first.
func (r *ProductRepository) Movements(ctx context.Context, f product.MovementFilter) ([]product.Movement, error) {
	rows, err := r.db.Query(ctx, listMovementsSQL, nullIfZero(f.ProductID), nullIfZero(f.Limit))
	if err != nil {
		return nil, fmt.Errorf("listing stock movements: %w", err)
	}
	movements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Movement, error) {
		var (
			m      product.Movement
			reason string
		)
		err := row.Scan(&m.ID, &m.ProductID, &m.Delta, &m.Before, &m.After, &reason, &m.OrderID, &m.CreatedAt)
		m.Reason = product.Reason(reason)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing stock movements: %w", err)
	}
	return movements, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Category, &p.Description, &p.Supplier,
		&p.Price, &p.Cost, &p.StockQuantity, &p.MinStockLevel,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// duplicateError maps a unique violation on sku or name to
// *product.DuplicateError.
func duplicateError(err error, sku, name string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	if strings.Contains(pgErr.ConstraintName, "sku") {
		return &product.DuplicateError{Field: "sku", Value: sku}
	}
	return &product.DuplicateError{Field: "name", Value: name}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
