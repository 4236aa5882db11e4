package inventory

import (
	"sort"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
)

// EvaluateLowStock devuelve una alerta por cada registro con Quantity < MinStock
// (estrictamente menor: Quantity == MinStock no alerta).
// Servicio de dominio puro: no modifica los registros y el resultado queda ordenado
// por tienda y luego por producto.
func EvaluateLowStock(records []*entity.InventoryRecord) []entity.Alert {
	alerts := make([]entity.Alert, 0)
	for _, r := range records {
		if r == nil || !r.IsLow() {
			continue
		}
		alerts = append(alerts, entity.Alert{
			Record:  r.Clone(),
			Deficit: r.MinStock - r.Quantity,
		})
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		a, b := alerts[i].Record, alerts[j].Record
		if a.StoreID != b.StoreID {
			return a.StoreID < b.StoreID
		}
		return a.ProductID < b.ProductID
	})
	return alerts
}

// TotalQuantity suma las cantidades de los registros (stock global de un producto).
func TotalQuantity(records []*entity.InventoryRecord) int64 {
	var total int64
	for _, r := range records {
		total += r.Quantity
	}
	return total
}
