package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos en PostgreSQL (solo INSERT).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, source_store_id, target_store_id, quantity, type, timestamp`

func scanMovement(row pgx.Row) (*entity.MovementRecord, error) {
	var (
		m              entity.MovementRecord
		source, target *string
		typ            string
	)
	if err := row.Scan(&m.ID, &m.ProductID, &source, &target, &m.Quantity, &typ, &m.Timestamp); err != nil {
		return nil, err
	}
	if source != nil {
		m.SourceStoreID = *source
	}
	if target != nil {
		m.TargetStoreID = *target
	}
	m.Type = entity.MovementType(typ)
	m.Timestamp = m.Timestamp.UTC()
	return &m, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Append inserta el movimiento.
func (r *MovementRepo) Append(ctx context.Context, m *entity.MovementRecord) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	query := `INSERT INTO movements (` + movementColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, m.ID, m.ProductID, nullable(m.SourceStoreID), nullable(m.TargetStoreID), m.Quantity, string(m.Type), m.Timestamp)
	if err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

// GetByID (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	query := `SELECT ` + movementColumns + ` FROM movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return m, nil
}

// List filtra por producto, tienda, tipo y rango de fechas, ordenado por timestamp.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementRecord, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.StoreID != "" {
		args = append(args, f.StoreID)
		where = append(where, fmt.Sprintf("(source_store_id = $%[1]d OR target_store_id = $%[1]d)", len(args)))
	}
	if f.Type != "" {
		add("type = $%d", string(f.Type))
	}
	if f.From != nil {
		add("timestamp >= $%d", *f.From)
	}
	if f.To != nil {
		add("timestamp <= $%d", *f.To)
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + movementColumns + ` FROM movements`)
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY timestamp, id")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	rows, err := r.q.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	out := make([]*entity.MovementRecord, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
