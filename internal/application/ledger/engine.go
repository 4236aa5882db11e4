// Package ledger es el motor de inventario: valida, aplica escrituras condicionales por
// versión con reintentos acotados, ejecuta traslados entre tiendas (transaccionales o
// compensados) y registra cada cambio de stock en el libro de movimientos.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

const tracerName = "github.com/jhoicas/stock-ledger/internal/application/ledger"

// Deps dependencias del motor. Runner, Records, Movements y Catalog son obligatorias.
// Records y Movements se usan para lecturas fuera de transacción.
type Deps struct {
	Runner    TxRunner
	Records   repository.InventoryRecordRepository
	Movements repository.MovementRepository
	Catalog   repository.CatalogRepository
	Publisher MovementPublisher
	Renderer  ReportRenderer
	Logger    *logger.Logger
	Clock     func() time.Time
	NewID     func() string
}

// Engine motor de inventario. Seguro para uso concurrente; no guarda cantidades en memoria.
type Engine struct {
	runner    TxRunner
	records   repository.InventoryRecordRepository
	movements repository.MovementRepository
	catalog   repository.CatalogRepository
	publisher MovementPublisher
	renderer  ReportRenderer
	log       *logger.Logger
	cfg       Config
	clock     func() time.Time
	newID     func() string
	tracer    trace.Tracer
}

// NewEngine construye el motor.
func NewEngine(deps Deps, cfg Config) (*Engine, error) {
	if deps.Runner == nil || deps.Records == nil || deps.Movements == nil || deps.Catalog == nil {
		return nil, errors.New("ledger: runner, records, movements y catalog son obligatorios")
	}
	cfg = cfg.withDefaults()
	e := &Engine{
		runner:    deps.Runner,
		records:   guardRecords(deps.Records, cfg.StoreTimeout),
		movements: guardMovements(deps.Movements, cfg.StoreTimeout),
		catalog:   &guardedCatalog{next: deps.Catalog, timeout: cfg.StoreTimeout},
		publisher: deps.Publisher,
		renderer:  deps.Renderer,
		log:       deps.Logger,
		cfg:       cfg,
		clock:     deps.Clock,
		newID:     deps.NewID,
		tracer:    otel.Tracer(tracerName),
	}
	if e.publisher == nil {
		e.publisher = noopPublisher{}
	}
	if e.log == nil {
		e.log = logger.NewNop()
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

// inTx ejecuta fn en el runner con los repositorios protegidos por el guard.
func (e *Engine) inTx(ctx context.Context, fn func(records repository.InventoryRecordRepository, movements repository.MovementRepository) error) error {
	err := e.runner.Run(ctx, func(records repository.InventoryRecordRepository, movements repository.MovementRepository) error {
		return fn(guardRecords(records, e.cfg.StoreTimeout), guardMovements(movements, e.cfg.StoreTimeout))
	})
	// Errores del propio runner (begin/commit) también cuentan como infraestructura.
	return classify(err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func (e *Engine) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "ledger."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// publish envía el movimiento confirmado. Un fallo solo se registra en el log:
// el libro ya es la fuente de verdad.
func (e *Engine) publish(ctx context.Context, m *entity.MovementRecord) {
	if m == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.StoreTimeout)
	defer cancel()
	if err := e.publisher.Publish(pctx, m); err != nil {
		e.log.Warn().Err(err).Str("movement_id", m.ID).Str("type", string(m.Type)).Msg("publicar movimiento")
	}
}

// CreateInitialInventory crea el registro (producto, tienda) en versión 0 y, si quantity > 0,
// registra un movimiento IN por esa cantidad.
func (e *Engine) CreateInitialInventory(ctx context.Context, productID, storeID string, quantity, minStock int64) (rec *entity.InventoryRecord, err error) {
	ctx, span := e.startSpan(ctx, "CreateInitialInventory",
		attribute.String("product_id", productID), attribute.String("store_id", storeID), attribute.Int64("quantity", quantity))
	defer func() { endSpan(span, err) }()

	productID, storeID = strings.TrimSpace(productID), strings.TrimSpace(storeID)
	if productID == "" || storeID == "" {
		return nil, invalid("productId y storeId son obligatorios")
	}
	if quantity < 0 || minStock < 0 {
		return nil, invalid("quantity y minStock no pueden ser negativos")
	}
	exists, err := e.catalog.Exists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}

	now := e.now()
	rec = entity.NewInventoryRecord(productID, storeID, quantity, minStock, now)
	var mov *entity.MovementRecord
	if quantity > 0 {
		mov = entity.NewInMovement(e.newID(), productID, storeID, quantity, now)
	}

	err = e.inTx(ctx, func(records repository.InventoryRecordRepository, movements repository.MovementRepository) error {
		if err := records.Insert(ctx, rec); err != nil && !e.landed(ctx, records, err, rec) {
			return err
		}
		if mov == nil {
			return nil
		}
		if err := movements.Append(ctx, mov); err != nil {
			if !e.runner.Atomic() {
				e.undoCreate(ctx, records, rec)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, mov)
	return rec.Clone(), nil
}

// AdjustStock suma delta (positivo o negativo) a la cantidad con concurrencia optimista
// y registra un movimiento IN u OUT por |delta|.
func (e *Engine) AdjustStock(ctx context.Context, productID, storeID string, delta int64) (rec *entity.InventoryRecord, err error) {
	ctx, span := e.startSpan(ctx, "AdjustStock",
		attribute.String("product_id", productID), attribute.String("store_id", storeID), attribute.Int64("delta", delta))
	defer func() { endSpan(span, err) }()

	productID, storeID = strings.TrimSpace(productID), strings.TrimSpace(storeID)
	if productID == "" || storeID == "" {
		return nil, invalid("productId y storeId son obligatorios")
	}
	if delta == 0 {
		return nil, invalid("delta no puede ser cero")
	}

	var (
		updated *entity.InventoryRecord
		mov     *entity.MovementRecord
	)
	err = e.inTxWithRetry(ctx, func(records repository.InventoryRecordRepository, movements repository.MovementRepository) error {
		cur, err := records.Get(ctx, productID, storeID)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, productID, storeID)
		}
		next := cur.Quantity + delta
		if next < 0 {
			return fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, cur.Quantity, -delta)
		}
		now := e.now()
		candidate := cur.WithQuantity(next, now)
		if err := records.UpdateIfVersion(ctx, candidate, cur.Version); err != nil && !e.landed(ctx, records, err, candidate) {
			return err
		}
		if delta > 0 {
			mov = entity.NewInMovement(e.newID(), productID, storeID, delta, now)
		} else {
			mov = entity.NewOutMovement(e.newID(), productID, storeID, -delta, now)
		}
		if err := movements.Append(ctx, mov); err != nil {
			if !e.runner.Atomic() {
				if cerr := e.compensateDelta(ctx, records, productID, storeID, -delta); cerr != nil {
					return fmt.Errorf("%w: ajuste sin movimiento: %v", domain.ErrStorageUnavailable, cerr)
				}
			}
			return err
		}
		updated = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.publish(ctx, mov)
	return updated, nil
}

// inTxWithRetry repite la unidad completa (lectura + escritura condicional) ante conflictos.
// En el camino atómico cada intento es una transacción nueva.
func (e *Engine) inTxWithRetry(ctx context.Context, fn func(records repository.InventoryRecordRepository, movements repository.MovementRepository) error) error {
	return e.retryOnConflict(ctx, e.cfg.MaxAttempts, func() error {
		return e.inTx(ctx, fn)
	})
}

// undoCreate elimina un registro recién creado cuyo movimiento no pudo registrarse.
func (e *Engine) undoCreate(ctx context.Context, records repository.InventoryRecordRepository, rec *entity.InventoryRecord) {
	cctx, cancel := e.compensationContext(ctx)
	defer cancel()
	if err := records.Delete(cctx, rec.ProductID, rec.StoreID, rec.Version); err != nil && !e.gone(ctx, records, err, rec.ProductID, rec.StoreID) {
		e.log.Error().Err(err).Str("product_id", rec.ProductID).Str("store_id", rec.StoreID).
			Msg("compensación: no se pudo eliminar el registro creado")
	}
}

// compensateDelta aplica delta sobre el registro con su propio presupuesto de reintentos
// y sobre un contexto no cancelable.
func (e *Engine) compensateDelta(ctx context.Context, records repository.InventoryRecordRepository, productID, storeID string, delta int64) error {
	cctx, cancel := e.compensationContext(ctx)
	defer cancel()

	err := e.retryOnConflict(cctx, e.cfg.CompensationAttempts, func() error {
		cur, err := records.Get(cctx, productID, storeID)
		if err != nil {
			return err
		}
		if cur == nil {
			return fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, productID, storeID)
		}
		next := cur.Quantity + delta
		if next < 0 {
			return fmt.Errorf("%w: la compensación dejaría %d", domain.ErrInsufficientStock, next)
		}
		candidate := cur.WithQuantity(next, e.now())
		if err := records.UpdateIfVersion(cctx, candidate, cur.Version); err != nil && !e.landed(cctx, records, err, candidate) {
			return err
		}
		return nil
	})
	if err != nil {
		e.log.Error().Err(err).Str("product_id", productID).Str("store_id", storeID).Int64("delta", delta).
			Msg("compensación fallida")
		return err
	}
	e.log.Warn().Str("product_id", productID).Str("store_id", storeID).Int64("delta", delta).Msg("compensación aplicada")
	return nil
}

// landed decide, en el camino no transaccional, si una escritura que devolvió un error
// de infraestructura quedó aplicada igualmente (timeout tras ejecutar el script, conexión
// cortada antes de la respuesta). Relee el registro y compara versión y cantidad.
func (e *Engine) landed(ctx context.Context, records repository.InventoryRecordRepository, err error, want *entity.InventoryRecord) bool {
	if e.runner.Atomic() || !errors.Is(err, domain.ErrStorageUnavailable) {
		return false
	}
	cctx, cancel := e.compensationContext(ctx)
	defer cancel()
	cur, rerr := records.Get(cctx, want.ProductID, want.StoreID)
	if rerr != nil {
		e.log.Error().Err(rerr).AnErr("write_err", err).Str("product_id", want.ProductID).Str("store_id", want.StoreID).
			Msg("no se pudo verificar si la escritura quedó aplicada")
		return false
	}
	if cur == nil || cur.Version != want.Version || cur.Quantity != want.Quantity {
		return false
	}
	e.log.Warn().AnErr("write_err", err).Str("product_id", want.ProductID).Str("store_id", want.StoreID).
		Int64("version", want.Version).Msg("escritura aplicada pese al error del almacén")
	return true
}

// gone equivalente a landed para una eliminación: el registro ya no existe.
func (e *Engine) gone(ctx context.Context, records repository.InventoryRecordRepository, err error, productID, storeID string) bool {
	if e.runner.Atomic() || !errors.Is(err, domain.ErrStorageUnavailable) {
		return false
	}
	cctx, cancel := e.compensationContext(ctx)
	defer cancel()
	cur, rerr := records.Get(cctx, productID, storeID)
	return rerr == nil && cur == nil
}
