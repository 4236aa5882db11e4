package ledger

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TxRunner ejecuta fn pasando repositorios de registros y movimientos.
// Si Atomic() es true, todas las escrituras de fn se aplican juntas o ninguna
// (transacción PostgreSQL); si es false, cada escritura es atómica por sí sola y el
// motor compensa los pasos ya aplicados cuando un paso posterior falla.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		records repository.InventoryRecordRepository,
		movements repository.MovementRepository,
	) error) error
	Atomic() bool
}

// MovementPublisher publica movimientos ya confirmados (Kafka).
type MovementPublisher interface {
	Publish(ctx context.Context, m *entity.MovementRecord) error
}

// ReportRenderer genera la representación gráfica del reporte de stock bajo.
type ReportRenderer interface {
	RenderLowStock(alerts []entity.Alert, generatedAt time.Time) ([]byte, error)
}

// DirectRunner TxRunner sin transacción: pasa los repositorios tal cual.
// Para almacenes con atomicidad solo por registro (Redis, memoria).
type DirectRunner struct {
	records   repository.InventoryRecordRepository
	movements repository.MovementRepository
}

// NewDirectRunner construye el runner no atómico.
func NewDirectRunner(records repository.InventoryRecordRepository, movements repository.MovementRepository) *DirectRunner {
	return &DirectRunner{records: records, movements: movements}
}

func (r *DirectRunner) Run(ctx context.Context, fn func(
	records repository.InventoryRecordRepository,
	movements repository.MovementRepository,
) error) error {
	return fn(r.records, r.movements)
}

func (r *DirectRunner) Atomic() bool { return false }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, *entity.MovementRecord) error { return nil }
