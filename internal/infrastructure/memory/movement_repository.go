package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en memoria (solo inserción).
type MovementRepo struct {
	s      *Store
	locked bool
}

// Append agrega un movimiento validado.
func (r *MovementRepo) Append(ctx context.Context, m *entity.MovementRecord) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	defer r.s.lock(r.locked)()
	cp := *m
	r.s.movements = append(r.s.movements, &cp)
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock(r.locked)()
	for _, m := range r.s.movements {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

// List movimientos ordenados por Timestamp ascendente; empates en orden de inserción.
func (r *MovementRepo) List(ctx context.Context, filter repository.MovementFilter) ([]*entity.MovementRecord, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	defer r.s.lock(r.locked)()
	matched := make([]*entity.MovementRecord, 0)
	for _, m := range r.s.movements {
		if filter.Matches(m) {
			matched = append(matched, m)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	offset := max(filter.Offset, 0)
	if offset >= len(matched) {
		return []*entity.MovementRecord{}, nil
	}
	matched = matched[offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	out := make([]*entity.MovementRecord, len(matched))
	for i, m := range matched {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}
