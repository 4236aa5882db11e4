package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	SourceStoreID *string   `json:"sourceStoreId"`
	TargetStoreID *string   `json:"targetStoreId"`
	Quantity      int64     `json:"quantity"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
}

// MovementListResponse GET /movements.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// MovementToResponse los ids de tienda ausentes se serializan como null.
func MovementToResponse(m *entity.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		ProductID:     m.ProductID,
		SourceStoreID: optional(m.SourceStoreID),
		TargetStoreID: optional(m.TargetStoreID),
		Quantity:      m.Quantity,
		Type:          string(m.Type),
		Timestamp:     m.Timestamp,
	}
}

// MovementsToResponse listado paginado.
func MovementsToResponse(list []*entity.MovementRecord, page PageRequest) MovementListResponse {
	items := make([]MovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, MovementToResponse(m))
	}
	return MovementListResponse{Items: items, Page: PageResponse{Limit: page.Limit, Offset: page.Offset, Total: len(items)}}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
