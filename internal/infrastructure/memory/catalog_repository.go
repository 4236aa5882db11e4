package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo catálogo de solo lectura sobre Store.products.
type CatalogRepo struct {
	s *Store
}

func (r *CatalogRepo) Exists(ctx context.Context, productID string) (bool, error) {
	p, err := r.Get(ctx, productID)
	return p != nil, err
}

func (r *CatalogRepo) Get(ctx context.Context, productID string) (*entity.ProductSummary, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *CatalogRepo) GetMany(ctx context.Context, productIDs []string) (map[string]*entity.ProductSummary, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[string]*entity.ProductSummary, len(productIDs))
	for _, id := range productIDs {
		if p, ok := r.s.products[id]; ok {
			cp := *p
			out[id] = &cp
		}
	}
	return out, nil
}
