package repository

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// InventoryRecordRepository puerto del almacén de registros de inventario.
// Las escrituras son condicionales: Insert falla con domain.ErrDuplicateRecord si el par
// ya existe, UpdateIfVersion y Delete fallan con domain.ErrVersionConflict si la versión
// almacenada no coincide con expectedVersion.
type InventoryRecordRepository interface {
	// Get devuelve (nil, nil) si el registro no existe.
	Get(ctx context.Context, productID, storeID string) (*entity.InventoryRecord, error)
	Insert(ctx context.Context, rec *entity.InventoryRecord) error
	// UpdateIfVersion persiste rec (cantidad y versión nuevas) solo si la versión actual es expectedVersion.
	UpdateIfVersion(ctx context.Context, rec *entity.InventoryRecord, expectedVersion int64) error
	// Delete elimina el registro solo si sigue en expectedVersion. Uso exclusivo de compensación.
	Delete(ctx context.Context, productID, storeID string, expectedVersion int64) error
	ListByStore(ctx context.Context, storeID string) ([]*entity.InventoryRecord, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error)
	ListAll(ctx context.Context) ([]*entity.InventoryRecord, error)
}
