package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/inventory"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// MaxMovementsPage tope de movimientos por consulta.
const MaxMovementsPage = 500

// ProductStock stock de un producto en todas las tiendas.
type ProductStock struct {
	Product *entity.ProductSummary
	Records []*entity.InventoryRecord
	Total   int64
}

// GetLowStockAlerts registros con quantity < minStock, con el resumen del producto.
func (e *Engine) GetLowStockAlerts(ctx context.Context) (alerts []entity.Alert, err error) {
	ctx, span := e.startSpan(ctx, "GetLowStockAlerts")
	defer func() { endSpan(span, err) }()

	records, err := e.records.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	alerts = inventory.EvaluateLowStock(records)
	if len(alerts) == 0 {
		return alerts, nil
	}
	ids := make([]string, 0, len(alerts))
	for _, a := range alerts {
		ids = append(ids, a.Record.ProductID)
	}
	products, err := e.catalog.GetMany(ctx, uniq(ids))
	if err != nil {
		return nil, err
	}
	for i := range alerts {
		alerts[i].Product = products[alerts[i].Record.ProductID]
	}
	span.SetAttributes(attribute.Int("alerts", len(alerts)))
	return alerts, nil
}

// ListStoreInventory registros de una tienda con el resumen de cada producto.
func (e *Engine) ListStoreInventory(ctx context.Context, storeID string) (views []entity.InventoryView, err error) {
	ctx, span := e.startSpan(ctx, "ListStoreInventory", attribute.String("store_id", storeID))
	defer func() { endSpan(span, err) }()

	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, invalid("storeId es obligatorio")
	}
	records, err := e.records.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ProductID < records[j].ProductID })
	views = make([]entity.InventoryView, 0, len(records))
	if len(records) == 0 {
		return views, nil
	}
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ProductID)
	}
	products, err := e.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		views = append(views, entity.InventoryView{Record: r, Product: products[r.ProductID]})
	}
	return views, nil
}

// GetProductStock stock de un producto por tienda y total.
func (e *Engine) GetProductStock(ctx context.Context, productID string) (ps *ProductStock, err error) {
	ctx, span := e.startSpan(ctx, "GetProductStock", attribute.String("product_id", productID))
	defer func() { endSpan(span, err) }()

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, invalid("productId es obligatorio")
	}
	product, err := e.catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	records, err := e.records.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &ProductStock{Product: product, Records: records, Total: inventory.TotalQuantity(records)}, nil
}

// GetMovement movimiento por id.
func (e *Engine) GetMovement(ctx context.Context, id string) (m *entity.MovementRecord, err error) {
	ctx, span := e.startSpan(ctx, "GetMovement", attribute.String("movement_id", id))
	defer func() { endSpan(span, err) }()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("id es obligatorio")
	}
	m, err = e.movements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrMovementNotFound, id)
	}
	return m, nil
}

// ListMovements consulta el libro por producto, tienda, tipo y rango de fechas (inclusivo).
func (e *Engine) ListMovements(ctx context.Context, filter repository.MovementFilter) (list []*entity.MovementRecord, err error) {
	ctx, span := e.startSpan(ctx, "ListMovements",
		attribute.String("product_id", filter.ProductID), attribute.String("type", string(filter.Type)))
	defer func() { endSpan(span, err) }()

	if filter.Type != "" && !filter.Type.Valid() {
		return nil, invalid("tipo de movimiento desconocido: %s", filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, invalid("from no puede ser posterior a to")
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, invalid("limit y offset no pueden ser negativos")
	}
	if filter.Limit == 0 || filter.Limit > MaxMovementsPage {
		filter.Limit = MaxMovementsPage
	}
	return e.movements.List(ctx, filter)
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
