package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios con ganchos para inyectar fallos
// ──────────────────────────────────────────────────────────────────────────────

type hookedRecords struct {
	repository.InventoryRecordRepository
	beforeGet    func(ctx context.Context, productID, storeID string) error
	beforeInsert func(rec *entity.InventoryRecord) error
	beforeUpdate func(rec *entity.InventoryRecord) error
	afterUpdate  func(rec *entity.InventoryRecord)
	// Los ganchos *Err se ejecutan con la escritura ya aplicada y su error se devuelve
	// al motor, como un timeout que llega después de que el almacén confirmó.
	afterInsertErr func(rec *entity.InventoryRecord) error
	afterUpdateErr func(rec *entity.InventoryRecord) error
	afterDeleteErr func(productID, storeID string) error
}

func (h *hookedRecords) Get(ctx context.Context, productID, storeID string) (*entity.InventoryRecord, error) {
	if h.beforeGet != nil {
		if err := h.beforeGet(ctx, productID, storeID); err != nil {
			return nil, err
		}
	}
	return h.InventoryRecordRepository.Get(ctx, productID, storeID)
}

func (h *hookedRecords) Insert(ctx context.Context, rec *entity.InventoryRecord) error {
	if h.beforeInsert != nil {
		if err := h.beforeInsert(rec); err != nil {
			return err
		}
	}
	if err := h.InventoryRecordRepository.Insert(ctx, rec); err != nil {
		return err
	}
	if h.afterInsertErr != nil {
		return h.afterInsertErr(rec)
	}
	return nil
}

func (h *hookedRecords) UpdateIfVersion(ctx context.Context, rec *entity.InventoryRecord, expectedVersion int64) error {
	if h.beforeUpdate != nil {
		if err := h.beforeUpdate(rec); err != nil {
			return err
		}
	}
	if err := h.InventoryRecordRepository.UpdateIfVersion(ctx, rec, expectedVersion); err != nil {
		return err
	}
	if h.afterUpdate != nil {
		h.afterUpdate(rec)
	}
	if h.afterUpdateErr != nil {
		return h.afterUpdateErr(rec)
	}
	return nil
}

func (h *hookedRecords) Delete(ctx context.Context, productID, storeID string, expectedVersion int64) error {
	if err := h.InventoryRecordRepository.Delete(ctx, productID, storeID, expectedVersion); err != nil {
		return err
	}
	if h.afterDeleteErr != nil {
		return h.afterDeleteErr(productID, storeID)
	}
	return nil
}

type hookedMovements struct {
	repository.MovementRepository
	beforeAppend func(m *entity.MovementRecord) error
}

func (h *hookedMovements) Append(ctx context.Context, m *entity.MovementRecord) error {
	if h.beforeAppend != nil {
		if err := h.beforeAppend(m); err != nil {
			return err
		}
	}
	return h.MovementRepository.Append(ctx, m)
}

// hookedAtomicRunner runner transaccional en memoria cuyos repositorios de transacción
// pasan por los mismos ganchos.
type hookedAtomicRunner struct {
	inner   *memory.AtomicRunner
	records *hookedRecords
	moves   *hookedMovements
}

func (r *hookedAtomicRunner) Atomic() bool { return true }

func (r *hookedAtomicRunner) Run(ctx context.Context, fn func(repository.InventoryRecordRepository, repository.MovementRepository) error) error {
	return r.inner.Run(ctx, func(records repository.InventoryRecordRepository, movements repository.MovementRepository) error {
		rec := *r.records
		rec.InventoryRecordRepository = records
		mov := *r.moves
		mov.MovementRepository = movements
		return fn(&rec, &mov)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type recordingPublisher struct {
	mu    sync.Mutex
	got   []*entity.MovementRecord
	fails error
}

func (p *recordingPublisher) Publish(_ context.Context, m *entity.MovementRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, m)
	return p.fails
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.got)
}

type fixture struct {
	store     *memory.Store
	records   *hookedRecords
	movements *hookedMovements
	publisher *recordingPublisher
	engine    *ledger.Engine
}

const (
	productA = "prod-a"
	productB = "prod-b"
)

func testConfig() ledger.Config {
	return ledger.Config{
		MaxAttempts:          4,
		BackoffInitial:       time.Millisecond,
		BackoffMax:           5 * time.Millisecond,
		StoreTimeout:         time.Second,
		CompensationAttempts: 50,
		CompensationTimeout:  5 * time.Second,
	}
}

// newFixture atomic=true usa el runner transaccional; false el runner directo (compensación).
func newFixture(t *testing.T, atomic bool, cfg ledger.Config) *fixture {
	t.Helper()
	store := memory.NewStore()
	store.AddProduct(entity.ProductSummary{ID: productA, SKU: "SKU-A", Name: "Producto A", Price: decimal.RequireFromString("10.50")})
	store.AddProduct(entity.ProductSummary{ID: productB, SKU: "SKU-B", Name: "Producto B", Price: decimal.RequireFromString("3")})

	f := &fixture{
		store:     store,
		records:   &hookedRecords{InventoryRecordRepository: store.Records()},
		movements: &hookedMovements{MovementRepository: store.Movements()},
		publisher: &recordingPublisher{},
	}
	var runner ledger.TxRunner = ledger.NewDirectRunner(f.records, f.movements)
	if atomic {
		runner = &hookedAtomicRunner{inner: memory.NewAtomicRunner(store), records: f.records, moves: f.movements}
	}
	engine, err := ledger.NewEngine(ledger.Deps{
		Runner:    runner,
		Records:   store.Records(),
		Movements: store.Movements(),
		Catalog:   store.Catalog(),
		Publisher: f.publisher,
	}, cfg)
	require.NoError(t, err)
	f.engine = engine
	return f
}

func (f *fixture) mustCreate(t *testing.T, productID, storeID string, qty, min int64) {
	t.Helper()
	_, err := f.engine.CreateInitialInventory(context.Background(), productID, storeID, qty, min)
	require.NoError(t, err)
}

func (f *fixture) quantity(t *testing.T, productID, storeID string) int64 {
	t.Helper()
	rec, err := f.store.Records().Get(context.Background(), productID, storeID)
	require.NoError(t, err)
	require.NotNil(t, rec, "registro %s/%s debe existir", productID, storeID)
	return rec.Quantity
}

func (f *fixture) record(t *testing.T, productID, storeID string) *entity.InventoryRecord {
	t.Helper()
	rec, err := f.store.Records().Get(context.Background(), productID, storeID)
	require.NoError(t, err)
	return rec
}

func (f *fixture) movementsOfType(t *testing.T, typ entity.MovementType) []*entity.MovementRecord {
	t.Helper()
	list, err := f.store.Movements().List(context.Background(), repository.MovementFilter{Type: typ})
	require.NoError(t, err)
	return list
}

// runners ejecuta el subtest con ambos caminos del motor.
func runners(t *testing.T, fn func(t *testing.T, atomic bool)) {
	t.Run("atomico", func(t *testing.T) { fn(t, true) })
	t.Run("compensado", func(t *testing.T) { fn(t, false) })
}

// failOnce devuelve err la primera vez que match es verdadero.
func failOnce(match func(rec *entity.InventoryRecord) bool, err error) func(rec *entity.InventoryRecord) error {
	var once sync.Once
	return func(rec *entity.InventoryRecord) error {
		if !match(rec) {
			return nil
		}
		var out error
		once.Do(func() { out = err })
		return out
	}
}

func memoryAtomic(f *fixture) ledger.TxRunner {
	return memory.NewAtomicRunner(f.store)
}
