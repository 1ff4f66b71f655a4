package memory

import (
	"context"
	"sort"

	"github.com/xenking/erp-inventory/internal/domain/product"
)

var _ product.Repository = (*productRepo)(nil)

type productRepo struct {
	view
}

func (r *productRepo) Get(_ context.Context, id int64) (*product.Product, error) {
	p, ok := r.read().products[id]
	if !ok {
		return nil, &product.NotFoundError{ProductID: id}
	}
	return &p, nil
}

// LockByIDs returns the known products among ids ordered by id. Units of work
// are already serialized, so no extra locking is needed.
func (r *productRepo) LockByIDs(_ context.Context, ids []int64) ([]product.Product, error) {
	st := r.read()
	out := make([]product.Product, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		p, ok := st.products[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *productRepo) List(_ context.Context, f product.Filter) ([]product.Product, error) {
	st := r.read()
	out := make([]product.Product, 0, len(st.products))
	for _, p := range st.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.LowStockOnly && !p.IsLowStock() {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (r *productRepo) Create(ctx context.Context, np product.NewProduct) (*product.Product, error) {
	var created product.Product
	err := r.write(ctx, func(st *state) error {
		if err := checkUnique(st, 0, np.SKU, np.Name); err != nil {
			return err
		}
		minLevel := product.DefaultMinStockLevel
		if np.MinStockLevel != nil {
			minLevel = *np.MinStockLevel
		}
		now := r.store.now()
		st.lastProductID++
		created = product.Product{
			ID:            st.lastProductID,
			SKU:           np.SKU,
			Name:          np.Name,
			Category:      np.Category,
			Description:   np.Description,
			Supplier:      np.Supplier,
			Price:         np.Price,
			Cost:          np.Cost,
			StockQuantity: np.StockQuantity,
			MinStockLevel: minLevel,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		st.products[created.ID] = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *productRepo) Update(ctx context.Context, id int64, patch product.Patch) (*product.Product, error) {
	var updated product.Product
	err := r.write(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return &product.NotFoundError{ProductID: id}
		}
		patch.Apply(&p)
		if err := checkUnique(st, id, p.SKU, p.Name); err != nil {
			return err
		}
		p.UpdatedAt = r.store.now()
		st.products[id] = p
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.write(ctx, func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return &product.NotFoundError{ProductID: id}
		}
		for _, o := range st.orders {
			for _, it := range o.Items {
				if it.ProductID == id {
					return &product.InUseError{ProductID: id}
				}
			}
		}
		delete(st.products, id)
		return nil
	})
}

func (r *productRepo) AdjustStock(ctx context.Context, id int64, change product.StockChange) (*product.Product, error) {
	var adjusted product.Product
	err := r.write(ctx, func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return &product.NotFoundError{ProductID: id}
		}
		before := p.StockQuantity
		if change.Delta > 0 && before > product.MaxQuantity-change.Delta {
			return &product.StockLimitError{ProductID: id, Stock: before, Delta: change.Delta}
		}
		if before+change.Delta < 0 {
			return &product.InsufficientStockError{
				ProductID: id,
				Name:      p.Name,
				Available: before,
				Requested: -change.Delta,
			}
		}

		now := r.store.now()
		p.StockQuantity = before + change.Delta
		p.UpdatedAt = now
		st.products[id] = p

		st.lastMovementID++
		st.movements = append(st.movements, product.Movement{
			ID:        st.lastMovementID,
			ProductID: id,
			Delta:     change.Delta,
			Before:    before,
			After:     p.StockQuantity,
			Reason:    change.Reason,
			OrderID:   change.OrderID,
			CreatedAt: now,
		})
		adjusted = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &adjusted, nil
}

// Movements returns ledger entries newest first.
func (r *productRepo) Movements(_ context.Context, f product.MovementFilter) ([]product.Movement, error) {
	st := r.read()
	out := make([]product.Movement, 0)
	for i := len(st.movements) - 1; i >= 0; i-- {
		m := st.movements[i]
		if f.ProductID != 0 && m.ProductID != f.ProductID {
			continue
		}
		out = append(out, m)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

// checkUnique rejects a sku or name already used by a product other than self.
func checkUnique(st *state, self int64, sku, name string) error {
	for _, p := range st.products {
		if p.ID == self {
			continue
		}
		if p.SKU == sku {
			return &product.DuplicateError{Field: "sku", Value: sku}
		}
		if p.Name == name {
			return &product.DuplicateError{Field: "name", Value: name}
		}
	}
	return nil
}
