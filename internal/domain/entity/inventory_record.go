package entity

import "time"

// InventoryRecord representa el stock disponible de un producto en una tienda.
// Identificado por (ProductID, StoreID). Version se usa para concurrencia optimista:
// cada escritura aplicada produce Version+1.
type InventoryRecord struct {
	ProductID string
	StoreID   string
	Quantity  int64
	MinStock  int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewInventoryRecord construye un registro nuevo en versión 0.
func NewInventoryRecord(productID, storeID string, quantity, minStock int64, now time.Time) *InventoryRecord {
	return &InventoryRecord{
		ProductID: productID,
		StoreID:   storeID,
		Quantity:  quantity,
		MinStock:  minStock,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithQuantity devuelve una copia con la nueva cantidad y la versión siguiente.
// El registro original no se modifica.
func (r *InventoryRecord) WithQuantity(quantity int64, now time.Time) *InventoryRecord {
	next := *r
	next.Quantity = quantity
	next.Version = r.Version + 1
	next.UpdatedAt = now
	return &next
}

// IsLow indica si la cantidad está por debajo del mínimo configurado.
func (r *InventoryRecord) IsLow() bool {
	return r.Quantity < r.MinStock
}

// Clone devuelve una copia independiente.
func (r *InventoryRecord) Clone() *InventoryRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
