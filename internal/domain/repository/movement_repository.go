package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementFilter criterios de consulta del libro de movimientos.
// Campos vacíos o nil no filtran. From y To son inclusivos.
type MovementFilter struct {
	ProductID string
	StoreID   string // origen o destino
	Type      entity.MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// Matches indica si m cumple el filtro (sin paginación).
func (f MovementFilter) Matches(m *entity.MovementRecord) bool {
	if f.ProductID != "" && m.ProductID != f.ProductID {
		return false
	}
	if f.StoreID != "" && !m.InvolvesStore(f.StoreID) {
		return false
	}
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.From != nil && m.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && m.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// MovementRepository puerto del libro de movimientos (solo inserción, inmutable).
type MovementRepository interface {
	Append(ctx context.Context, m *entity.MovementRecord) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.MovementRecord, error)
	// List devuelve los movimientos ordenados por Timestamp ascendente.
	List(ctx context.Context, filter MovementFilter) ([]*entity.MovementRecord, error)
}
