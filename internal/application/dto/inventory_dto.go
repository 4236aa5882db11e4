package dto

import (
	"time"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// CreateInventoryRequest body para POST /inventory.
type CreateInventoryRequest struct {
	ProductID string `json:"productId"`
	StoreID   string `json:"storeId"`
	Quantity  *int64 `json:"quantity"`
	MinStock  *int64 `json:"minStock"`
}

// TransferRequest body para POST /inventory/transfer.
type TransferRequest struct {
	ProductID     string `json:"productId"`
	SourceStoreID string `json:"sourceStoreId"`
	TargetStoreID string `json:"targetStoreId"`
	Quantity      int64  `json:"quantity"`
}

// AdjustStockRequest body para POST /inventory/adjust. Delta positivo = entrada, negativo = salida.
type AdjustStockRequest struct {
	ProductID string `json:"productId"`
	StoreID   string `json:"storeId"`
	Delta     int64  `json:"delta"`
}

// InventoryRecordResponse registro de inventario; Product solo en listados.
type InventoryRecordResponse struct {
	ProductID string                  `json:"productId"`
	StoreID   string                  `json:"storeId"`
	Quantity  int64                   `json:"quantity"`
	MinStock  int64                   `json:"minStock"`
	Version   int64                   `json:"version"`
	CreatedAt time.Time               `json:"createdAt"`
	UpdatedAt time.Time               `json:"updatedAt"`
	Product   *ProductSummaryResponse `json:"product,omitempty"`
}

// TransferResponse resultado de un traslado.
type TransferResponse struct {
	Source   InventoryRecordResponse `json:"source"`
	Target   InventoryRecordResponse `json:"target"`
	Movement MovementResponse        `json:"movement"`
}

// LowStockAlertResponse registro por debajo de su mínimo.
type LowStockAlertResponse struct {
	InventoryRecordResponse
	Deficit int64 `json:"deficit"` // minStock - quantity
}

// ProductStockResponse GET /products/{productId}/stock.
type ProductStockResponse struct {
	ProductID string                    `json:"productId"`
	Product   *ProductSummaryResponse   `json:"product"`
	Total     int64                     `json:"total"`
	Stores    []InventoryRecordResponse `json:"stores"`
}

// RecordToResponse mapea el registro a su DTO.
func RecordToResponse(rec *entity.InventoryRecord, product *entity.ProductSummary) InventoryRecordResponse {
	return InventoryRecordResponse{
		ProductID: rec.ProductID,
		StoreID:   rec.StoreID,
		Quantity:  rec.Quantity,
		MinStock:  rec.MinStock,
		Version:   rec.Version,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Product:   ProductToResponse(product),
	}
}

// ViewsToResponse listado de una tienda.
func ViewsToResponse(views []entity.InventoryView) []InventoryRecordResponse {
	out := make([]InventoryRecordResponse, 0, len(views))
	for _, v := range views {
		out = append(out, RecordToResponse(v.Record, v.Product))
	}
	return out
}

// AlertsToResponse cuerpo de GET /inventory/alert: arreglo plano, vacío si no hay alertas.
func AlertsToResponse(alerts []entity.Alert) []LowStockAlertResponse {
	out := make([]LowStockAlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, LowStockAlertResponse{
			InventoryRecordResponse: RecordToResponse(a.Record, a.Product),
			Deficit:                 a.Deficit,
		})
	}
	return out
}
