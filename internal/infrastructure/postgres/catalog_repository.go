package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepo)(nil)

// CatalogRepo lectura de la tabla products. El precio NUMERIC llega como decimal.Decimal
// gracias al codec registrado en NewPool.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador.
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

func (r *CatalogRepo) Exists(ctx context.Context, productID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return exists, nil
}

func (r *CatalogRepo) Get(ctx context.Context, productID string) (*entity.ProductSummary, error) {
	var p entity.ProductSummary
	err := r.q.QueryRow(ctx, `SELECT id, sku, name, price FROM products WHERE id = $1`, productID).
		Scan(&p.ID, &p.SKU, &p.Name, &p.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *CatalogRepo) GetMany(ctx context.Context, productIDs []string) (map[string]*entity.ProductSummary, error) {
	out := make(map[string]*entity.ProductSummary, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `SELECT id, sku, name, price FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p entity.ProductSummary
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out[p.ID] = &p
	}
	return out, rows.Err()
}
