package entity

import "github.com/shopspring/decimal"

// ProductSummary vista de solo lectura de un producto del catálogo.
// El catálogo lo administra otro componente; el motor de inventario solo lo consulta.
type ProductSummary struct {
	ID    string
	SKU   string
	Name  string
	Price decimal.Decimal
}

// InventoryView registro de inventario unido con el resumen del producto.
// Product es nil si el catálogo ya no conoce el producto.
type InventoryView struct {
	Record  *InventoryRecord
	Product *ProductSummary
}

// Alert stock bajo derivado de un registro (no se persiste).
type Alert struct {
	Record  *InventoryRecord
	Product *ProductSummary
	Deficit int64 // MinStock - Quantity
}
