package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// Los guards envuelven cada llamada al almacén con un timeout propio y clasifican
// los errores: los centinelas de dominio pasan intactos, cualquier otro error
// (red, driver, deadline, cancelación) se convierte en domain.ErrStorageUnavailable.

// passthrough centinelas que cruzan guards y motor sin reclasificar.
var passthrough = []error{
	domain.ErrInvalidArgument,
	domain.ErrProductNotFound,
	domain.ErrRecordNotFound,
	domain.ErrMovementNotFound,
	domain.ErrInsufficientStock,
	domain.ErrDuplicateRecord,
	domain.ErrContention,
	domain.ErrTransferAborted,
	domain.ErrStorageUnavailable,
	domain.ErrVersionConflict,
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range passthrough {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
}

type guardedRecords struct {
	next    repository.InventoryRecordRepository
	timeout time.Duration
}

func guardRecords(next repository.InventoryRecordRepository, timeout time.Duration) repository.InventoryRecordRepository {
	if g, ok := next.(*guardedRecords); ok {
		return g
	}
	return &guardedRecords{next: next, timeout: timeout}
}

func (g *guardedRecords) Get(ctx context.Context, productID, storeID string) (*entity.InventoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	rec, err := g.next.Get(ctx, productID, storeID)
	return rec, classify(err)
}

func (g *guardedRecords) Insert(ctx context.Context, rec *entity.InventoryRecord) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return classify(g.next.Insert(ctx, rec))
}

func (g *guardedRecords) UpdateIfVersion(ctx context.Context, rec *entity.InventoryRecord, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return classify(g.next.UpdateIfVersion(ctx, rec, expectedVersion))
}

func (g *guardedRecords) Delete(ctx context.Context, productID, storeID string, expectedVersion int64) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return classify(g.next.Delete(ctx, productID, storeID, expectedVersion))
}

func (g *guardedRecords) ListByStore(ctx context.Context, storeID string) ([]*entity.InventoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	list, err := g.next.ListByStore(ctx, storeID)
	return list, classify(err)
}

func (g *guardedRecords) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	list, err := g.next.ListByProduct(ctx, productID)
	return list, classify(err)
}

func (g *guardedRecords) ListAll(ctx context.Context) ([]*entity.InventoryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	list, err := g.next.ListAll(ctx)
	return list, classify(err)
}

type guardedMovements struct {
	next    repository.MovementRepository
	timeout time.Duration
}

func guardMovements(next repository.MovementRepository, timeout time.Duration) repository.MovementRepository {
	if g, ok := next.(*guardedMovements); ok {
		return g
	}
	return &guardedMovements{next: next, timeout: timeout}
}

func (g *guardedMovements) Append(ctx context.Context, m *entity.MovementRecord) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return classify(g.next.Append(ctx, m))
}

func (g *guardedMovements) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	m, err := g.next.GetByID(ctx, id)
	return m, classify(err)
}

func (g *guardedMovements) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	list, err := g.next.List(ctx, filter)
	return list, classify(err)
}

type guardedCatalog struct {
	next    repository.CatalogRepository
	timeout time.Duration
}

func (g *guardedCatalog) Exists(ctx context.Context, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ok, err := g.next.Exists(ctx, productID)
	return ok, classify(err)
}

func (g *guardedCatalog) Get(ctx context.Context, productID string) (*entity.ProductSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	p, err := g.next.Get(ctx, productID)
	return p, classify(err)
}

func (g *guardedCatalog) GetMany(ctx context.Context, productIDs []string) (map[string]*entity.ProductSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	m, err := g.next.GetMany(ctx, productIDs)
	return m, classify(err)
}
