package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CatalogRepository consulta de solo lectura al catálogo de productos.
type CatalogRepository interface {
	Exists(ctx context.Context, productID string) (bool, error)
	// Get devuelve (nil, nil) si el producto no existe.
	Get(ctx context.Context, productID string) (*entity.ProductSummary, error)
	// GetMany omite del mapa los ids que no existen.
	GetMany(ctx context.Context, productIDs []string) (map[string]*entity.ProductSummary, error)
}
