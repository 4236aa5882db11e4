// Package memory implementa los puertos de inventario en memoria del proceso.
// Se usa con STORAGE_DRIVER=memory y en los tests del motor.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

type recordKey struct {
	productID string
	storeID   string
}

// Store estado compartido por los repositorios en memoria.
// mu protege todo el estado; los repositorios "locked" lo toman en cada llamada y
// los de transacción trabajan con el lock ya tomado por AtomicRunner.
type Store struct {
	mu        sync.Mutex
	records   map[recordKey]*entity.InventoryRecord
	movements []*entity.MovementRecord
	products  map[string]*entity.ProductSummary
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		records:  make(map[recordKey]*entity.InventoryRecord),
		products: make(map[string]*entity.ProductSummary),
	}
}

// AddProduct registra un producto en el catálogo en memoria.
func (s *Store) AddProduct(p entity.ProductSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := p
	s.products[p.ID] = &cp
}

// Records repositorio de registros que toma el lock en cada llamada.
func (s *Store) Records() *RecordRepo { return &RecordRepo{s: s, locked: false} }

// Movements libro de movimientos que toma el lock en cada llamada.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s, locked: false} }

// Catalog catálogo de productos.
func (s *Store) Catalog() *CatalogRepo { return &CatalogRepo{s: s} }

// snapshot copia profunda del estado mutable. Requiere mu tomado.
type snapshot struct {
	records   map[recordKey]*entity.InventoryRecord
	movements int
}

func (s *Store) takeSnapshot() snapshot {
	recs := make(map[recordKey]*entity.InventoryRecord, len(s.records))
	for k, v := range s.records {
		recs[k] = v.Clone()
	}
	return snapshot{records: recs, movements: len(s.movements)}
}

func (s *Store) restore(snap snapshot) {
	s.records = snap.records
	s.movements = s.movements[:snap.movements]
}

func (s *Store) lock(held bool) func() {
	if held {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func sortRecords(list []*entity.InventoryRecord) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].StoreID != list[j].StoreID {
			return list[i].StoreID < list[j].StoreID
		}
		return list[i].ProductID < list[j].ProductID
	})
}

func ctxErr(ctx context.Context) error {
	return ctx.Err()
}
