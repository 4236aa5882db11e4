package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*RecordRepo)(nil)

// RecordRepo registros de inventario en memoria. Devuelve siempre copias.
type RecordRepo struct {
	s      *Store
	locked bool // true: el llamador ya tiene s.mu (transacción)
}

// Get devuelve (nil, nil) si no existe.
func (r *RecordRepo) Get(ctx context.Context, productID, storeID string) (*entity.InventoryRecord, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock(r.locked)()
	return r.s.records[recordKey{productID, storeID}].Clone(), nil
}

// Insert crea el registro; falla si el par ya existe.
func (r *RecordRepo) Insert(ctx context.Context, rec *entity.InventoryRecord) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer r.s.lock(r.locked)()
	k := recordKey{rec.ProductID, rec.StoreID}
	if _, ok := r.s.records[k]; ok {
		return domain.ErrDuplicateRecord
	}
	r.s.records[k] = rec.Clone()
	return nil
}

// UpdateIfVersion escritura condicional por versión.
func (r *RecordRepo) UpdateIfVersion(ctx context.Context, rec *entity.InventoryRecord, expectedVersion int64) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer r.s.lock(r.locked)()
	k := recordKey{rec.ProductID, rec.StoreID}
	cur, ok := r.s.records[k]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	r.s.records[k] = rec.Clone()
	return nil
}

// Delete elimina el registro si sigue en expectedVersion.
func (r *RecordRepo) Delete(ctx context.Context, productID, storeID string, expectedVersion int64) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	defer r.s.lock(r.locked)()
	k := recordKey{productID, storeID}
	cur, ok := r.s.records[k]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	delete(r.s.records, k)
	return nil
}

// ListByStore registros de una tienda.
func (r *RecordRepo) ListByStore(ctx context.Context, storeID string) ([]*entity.InventoryRecord, error) {
	return r.list(ctx, func(rec *entity.InventoryRecord) bool { return rec.StoreID == storeID })
}

// ListByProduct registros de un producto en todas las tiendas.
func (r *RecordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	return r.list(ctx, func(rec *entity.InventoryRecord) bool { return rec.ProductID == productID })
}

// ListAll todos los registros.
func (r *RecordRepo) ListAll(ctx context.Context) ([]*entity.InventoryRecord, error) {
	return r.list(ctx, func(*entity.InventoryRecord) bool { return true })
}

func (r *RecordRepo) list(ctx context.Context, keep func(*entity.InventoryRecord) bool) ([]*entity.InventoryRecord, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock(r.locked)()
	out := make([]*entity.InventoryRecord, 0)
	for _, rec := range r.s.records {
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	sortRecords(out)
	return out, nil
}
