package entity

import (
	"errors"
	"time"
)

// MovementType tipo de movimiento de inventario.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeIN       MovementType = "IN"       // entrada
	MovementTypeOUT      MovementType = "OUT"      // salida
	MovementTypeTRANSFER MovementType = "TRANSFER" // traslado entre tiendas
)

// Valid indica si el tipo es uno de los conocidos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeIN, MovementTypeOUT, MovementTypeTRANSFER:
		return true
	}
	return false
}

// MovementRecord es la entrada inmutable del libro de movimientos.
// IN lleva solo TargetStoreID, OUT solo SourceStoreID y TRANSFER ambos (distintos).
type MovementRecord struct {
	ID            string
	ProductID     string
	SourceStoreID string
	TargetStoreID string
	Quantity      int64
	Type          MovementType
	Timestamp     time.Time
}

// NewInMovement entrada de stock en una tienda.
func NewInMovement(id, productID, storeID string, quantity int64, ts time.Time) *MovementRecord {
	return &MovementRecord{ID: id, ProductID: productID, TargetStoreID: storeID, Quantity: quantity, Type: MovementTypeIN, Timestamp: ts.UTC()}
}

// NewOutMovement salida de stock de una tienda.
func NewOutMovement(id, productID, storeID string, quantity int64, ts time.Time) *MovementRecord {
	return &MovementRecord{ID: id, ProductID: productID, SourceStoreID: storeID, Quantity: quantity, Type: MovementTypeOUT, Timestamp: ts.UTC()}
}

// NewTransferMovement traslado de source a target.
func NewTransferMovement(id, productID, sourceStoreID, targetStoreID string, quantity int64, ts time.Time) *MovementRecord {
	return &MovementRecord{
		ID:            id,
		ProductID:     productID,
		SourceStoreID: sourceStoreID,
		TargetStoreID: targetStoreID,
		Quantity:      quantity,
		Type:          MovementTypeTRANSFER,
		Timestamp:     ts.UTC(),
	}
}

var errInvalidMovement = errors.New("movimiento inválido")

// Validate verifica los invariantes del movimiento antes de persistirlo.
func (m *MovementRecord) Validate() error {
	if m.ID == "" || m.ProductID == "" || m.Quantity <= 0 {
		return errInvalidMovement
	}
	switch m.Type {
	case MovementTypeIN:
		if m.TargetStoreID == "" || m.SourceStoreID != "" {
			return errInvalidMovement
		}
	case MovementTypeOUT:
		if m.SourceStoreID == "" || m.TargetStoreID != "" {
			return errInvalidMovement
		}
	case MovementTypeTRANSFER:
		if m.SourceStoreID == "" || m.TargetStoreID == "" || m.SourceStoreID == m.TargetStoreID {
			return errInvalidMovement
		}
	default:
		return errInvalidMovement
	}
	return nil
}

// InvolvesStore indica si el movimiento toca la tienda como origen o destino.
func (m *MovementRecord) InvolvesStore(storeID string) bool {
	return m.SourceStoreID == storeID || m.TargetStoreID == storeID
}
