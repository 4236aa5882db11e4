package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// ProductSummaryResponse resumen de catálogo embebido en respuestas de inventario.
type ProductSummaryResponse struct {
	ID    string          `json:"id"`
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// ProductToResponse nil si el catálogo no conoce el producto.
func ProductToResponse(p *entity.ProductSummary) *ProductSummaryResponse {
	if p == nil {
		return nil
	}
	return &ProductSummaryResponse{ID: p.ID, SKU: p.SKU, Name: p.Name, Price: p.Price}
}
