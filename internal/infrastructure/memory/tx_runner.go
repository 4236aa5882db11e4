package memory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ ledger.TxRunner = (*AtomicRunner)(nil)

// AtomicRunner ejecuta fn con el lock del Store tomado y restaura una copia del estado
// si fn devuelve error. Equivale a una transacción serializable de un solo proceso.
type AtomicRunner struct {
	s *Store
}

// NewAtomicRunner construye el runner transaccional sobre s.
func NewAtomicRunner(s *Store) *AtomicRunner {
	return &AtomicRunner{s: s}
}

// Atomic siempre true.
func (r *AtomicRunner) Atomic() bool { return true }

// Run ejecuta fn como una unidad: o se aplican todas sus escrituras o ninguna.
func (r *AtomicRunner) Run(ctx context.Context, fn func(
	records repository.InventoryRecordRepository,
	movements repository.MovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snap := r.s.takeSnapshot()
	if err := fn(&RecordRepo{s: r.s, locked: true}, &MovementRepo{s: r.s, locked: true}); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}
