package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

// InventoryRecordRepo registros de inventario en PostgreSQL (usable con pool o tx).
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

const recordColumns = `product_id, store_id, quantity, min_stock, version, created_at, updated_at`

func scanRecord(row pgx.Row) (*entity.InventoryRecord, error) {
	var r entity.InventoryRecord
	if err := row.Scan(&r.ProductID, &r.StoreID, &r.Quantity, &r.MinStock, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}

// Get obtiene el registro de un producto en una tienda; (nil, nil) si no existe.
func (r *InventoryRecordRepo) Get(ctx context.Context, productID, storeID string) (*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records WHERE product_id = $1 AND store_id = $2`
	rec, err := scanRecord(r.q.QueryRow(ctx, query, productID, storeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	return rec, nil
}

// Insert crea el registro; la PK (product_id, store_id) garantiza unicidad.
func (r *InventoryRecordRepo) Insert(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, rec.ProductID, rec.StoreID, rec.Quantity, rec.MinStock, rec.Version, rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRecord
		}
		return fmt.Errorf("insert inventory record: %w", err)
	}
	return nil
}

// UpdateIfVersion UPDATE condicionado a la versión leída.
func (r *InventoryRecordRepo) UpdateIfVersion(ctx context.Context, rec *entity.InventoryRecord, expectedVersion int64) error {
	query := `
		UPDATE inventory_records
		SET quantity = $3, version = $4, updated_at = $5
		WHERE product_id = $1 AND store_id = $2 AND version = $6`
	tag, err := r.q.Exec(ctx, query, rec.ProductID, rec.StoreID, rec.Quantity, rec.Version, rec.UpdatedAt, expectedVersion)
	if err != nil {
		if isSerializationFailure(err) {
			return domain.ErrVersionConflict
		}
		if isCheckViolation(err) {
			return fmt.Errorf("%w: quantity negativa rechazada por la base de datos", domain.ErrInsufficientStock)
		}
		return fmt.Errorf("update inventory record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, rec.ProductID, rec.StoreID)
	}
	return nil
}

// Delete borra el registro solo si sigue en expectedVersion.
func (r *InventoryRecordRepo) Delete(ctx context.Context, productID, storeID string, expectedVersion int64) error {
	query := `DELETE FROM inventory_records WHERE product_id = $1 AND store_id = $2 AND version = $3`
	tag, err := r.q.Exec(ctx, query, productID, storeID, expectedVersion)
	if err != nil {
		return fmt.Errorf("delete inventory record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.missOrConflict(ctx, productID, storeID)
	}
	return nil
}

// missOrConflict distingue "no existe" de "otra versión" tras una escritura sin filas afectadas.
func (r *InventoryRecordRepo) missOrConflict(ctx context.Context, productID, storeID string) error {
	cur, err := r.Get(ctx, productID, storeID)
	if err != nil {
		return err
	}
	if cur == nil {
		return domain.ErrRecordNotFound
	}
	return domain.ErrVersionConflict
}

// ListByStore registros de una tienda.
func (r *InventoryRecordRepo) ListByStore(ctx context.Context, storeID string) ([]*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records WHERE store_id = $1 ORDER BY product_id`
	return r.list(ctx, query, storeID)
}

// ListByProduct registros de un producto en todas las tiendas.
func (r *InventoryRecordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records WHERE product_id = $1 ORDER BY store_id`
	return r.list(ctx, query, productID)
}

// ListAll todos los registros (snapshot para alertas).
func (r *InventoryRecordRepo) ListAll(ctx context.Context) ([]*entity.InventoryRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM inventory_records ORDER BY store_id, product_id`
	return r.list(ctx, query)
}

func (r *InventoryRecordRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryRecord, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inventory records: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.InventoryRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
