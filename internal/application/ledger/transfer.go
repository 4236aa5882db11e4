package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// TransferResult estado final de ambos registros y el movimiento TRANSFER.
type TransferResult struct {
	Source   *entity.InventoryRecord
	Target   *entity.InventoryRecord
	Movement *entity.MovementRecord
}

// TransferStock mueve quantity unidades de sourceStoreID a targetStoreID.
// Si el destino no existe se crea heredando el minStock del origen.
// Un traslado se aplica completo (origen, destino y movimiento) o no se aplica.
func (e *Engine) TransferStock(ctx context.Context, productID, sourceStoreID, targetStoreID string, quantity int64) (res *TransferResult, err error) {
	ctx, span := e.startSpan(ctx, "TransferStock",
		attribute.String("product_id", productID),
		attribute.String("source_store_id", sourceStoreID),
		attribute.String("target_store_id", targetStoreID),
		attribute.Int64("quantity", quantity),
		attribute.Bool("atomic", e.runner.Atomic()))
	defer func() { endSpan(span, err) }()

	productID = strings.TrimSpace(productID)
	sourceStoreID, targetStoreID = strings.TrimSpace(sourceStoreID), strings.TrimSpace(targetStoreID)
	if productID == "" || sourceStoreID == "" || targetStoreID == "" {
		return nil, invalid("productId, sourceStoreId y targetStoreId son obligatorios")
	}
	if quantity <= 0 {
		return nil, invalid("quantity debe ser mayor que cero")
	}
	if sourceStoreID == targetStoreID {
		return nil, invalid("la tienda origen y destino deben ser distintas")
	}

	t := transfer{productID: productID, source: sourceStoreID, target: targetStoreID, quantity: quantity}
	if e.runner.Atomic() {
		res, err = e.transferAtomic(ctx, t)
	} else {
		err = e.inTx(ctx, func(records repository.InventoryRecordRepository, movements repository.MovementRepository) error {
			var terr error
			res, terr = e.transferCompensating(ctx, t, records, movements)
			return terr
		})
	}
	if err != nil {
		return nil, err
	}
	e.publish(ctx, res.Movement)
	e.log.Info().Str("product_id", productID).Str("source", sourceStoreID).Str("target", targetStoreID).
		Int64("quantity", quantity).Msg("traslado aplicado")
	return res, nil
}

type transfer struct {
	productID string
	source    string
	target    string
	quantity  int64
}

// loadSource lee el origen y verifica que alcance el stock.
func (t transfer) loadSource(ctx context.Context, records repository.InventoryRecordRepository) (*entity.InventoryRecord, error) {
	src, err := records.Get(ctx, t.productID, t.source)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, fmt.Errorf("%w: %s/%s", domain.ErrRecordNotFound, t.productID, t.source)
	}
	if src.Quantity < t.quantity {
		return nil, fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, src.Quantity, t.quantity)
	}
	return src, nil
}

// credit suma quantity al destino o lo crea. Devuelve el registro escrito y si fue creado.
// Una inserción concurrente del mismo par se trata como conflicto de versión.
func (e *Engine) credit(ctx context.Context, t transfer, minStock int64, records repository.InventoryRecordRepository) (*entity.InventoryRecord, bool, error) {
	now := e.now()
	cur, err := records.Get(ctx, t.productID, t.target)
	if err != nil {
		return nil, false, err
	}
	if cur == nil {
		created := entity.NewInventoryRecord(t.productID, t.target, t.quantity, minStock, now)
		if err := records.Insert(ctx, created); err != nil {
			if errors.Is(err, domain.ErrDuplicateRecord) {
				return nil, false, fmt.Errorf("%w: destino creado concurrentemente", domain.ErrVersionConflict)
			}
			if !e.landed(ctx, records, err, created) {
				return nil, false, err
			}
		}
		return created, true, nil
	}
	next := cur.WithQuantity(cur.Quantity+t.quantity, now)
	if err := records.UpdateIfVersion(ctx, next, cur.Version); err != nil && !e.landed(ctx, records, err, next) {
		return nil, false, err
	}
	return next, false, nil
}

// transferAtomic un intento = una transacción con ambos registros y el movimiento.
func (e *Engine) transferAtomic(ctx context.Context, t transfer) (*TransferResult, error) {
	var res *TransferResult
	err := e.inTxWithRetry(ctx, func(records repository.InventoryRecordRepository, movements repository.MovementRepository) error {
		src, err := t.loadSource(ctx, records)
		if err != nil {
			return err
		}
		now := e.now()
		debited := src.WithQuantity(src.Quantity-t.quantity, now)
		if err := records.UpdateIfVersion(ctx, debited, src.Version); err != nil {
			return err
		}
		credited, _, err := e.credit(ctx, t, src.MinStock, records)
		if err != nil {
			return err
		}
		mov := entity.NewTransferMovement(e.newID(), t.productID, t.source, t.target, t.quantity, now)
		if err := movements.Append(ctx, mov); err != nil {
			return err
		}
		res = &TransferResult{Source: debited, Target: credited, Movement: mov}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// transferCompensating secuencia de escrituras atómicas por registro:
// descontar origen, acreditar destino, registrar movimiento. Si un paso falla
// (o el llamador cancela) se deshacen los pasos ya aplicados. Una escritura que
// falla con error de infraestructura pero quedó aplicada cuenta como aplicada.
func (e *Engine) transferCompensating(ctx context.Context, t transfer, records repository.InventoryRecordRepository, movements repository.MovementRepository) (*TransferResult, error) {
	// 1. Origen.
	var debited *entity.InventoryRecord
	err := e.retryOnConflict(ctx, e.cfg.MaxAttempts, func() error {
		src, err := t.loadSource(ctx, records)
		if err != nil {
			return err
		}
		next := src.WithQuantity(src.Quantity-t.quantity, e.now())
		if err := records.UpdateIfVersion(ctx, next, src.Version); err != nil && !e.landed(ctx, records, err, next) {
			return err
		}
		debited = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 2. Cancelación del llamador entre pasos.
	if cerr := ctx.Err(); cerr != nil {
		return nil, e.abortTransfer(ctx, t, records, nil, false, cerr)
	}

	// 3. Destino.
	var (
		credited *entity.InventoryRecord
		created  bool
	)
	err = e.retryOnConflict(ctx, e.cfg.MaxAttempts, func() error {
		var cerr error
		credited, created, cerr = e.credit(ctx, t, debited.MinStock, records)
		return cerr
	})
	if err != nil {
		return nil, e.abortTransfer(ctx, t, records, nil, false, err)
	}

	// 4. Movimiento.
	mov := entity.NewTransferMovement(e.newID(), t.productID, t.source, t.target, t.quantity, e.now())
	if err := movements.Append(ctx, mov); err != nil {
		return nil, e.abortTransfer(ctx, t, records, credited, created, err)
	}
	return &TransferResult{Source: debited, Target: credited, Movement: mov}, nil
}

// abortTransfer deshace el destino (si se acreditó) y el origen. Devuelve siempre
// ErrTransferAborted; si la compensación no pudo completarse lo indica en el mensaje.
func (e *Engine) abortTransfer(ctx context.Context, t transfer, records repository.InventoryRecordRepository, credited *entity.InventoryRecord, created bool, cause error) error {
	e.log.Warn().Err(cause).Str("product_id", t.productID).Str("source", t.source).Str("target", t.target).
		Int64("quantity", t.quantity).Msg("traslado fallido, compensando")

	var failures []error
	if credited != nil {
		if err := e.undoCredit(ctx, t, records, credited, created); err != nil {
			failures = append(failures, err)
		}
	}
	if err := e.compensateDelta(ctx, records, t.productID, t.source, t.quantity); err != nil {
		failures = append(failures, err)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%w: compensación incompleta: %v (causa: %v)", domain.ErrTransferAborted, errors.Join(failures...), cause)
	}
	return fmt.Errorf("%w: %v", domain.ErrTransferAborted, cause)
}

// undoCredit elimina el destino si el motor lo creó y nadie lo tocó después;
// en otro caso descuenta la cantidad acreditada.
func (e *Engine) undoCredit(ctx context.Context, t transfer, records repository.InventoryRecordRepository, credited *entity.InventoryRecord, created bool) error {
	if created {
		cctx, cancel := e.compensationContext(ctx)
		err := records.Delete(cctx, t.productID, t.target, credited.Version)
		cancel()
		if err == nil || e.gone(ctx, records, err, t.productID, t.target) {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			e.log.Error().Err(err).Str("product_id", t.productID).Str("store_id", t.target).
				Msg("compensación: eliminar destino creado")
			return err
		}
	}
	return e.compensateDelta(ctx, records, t.productID, t.target, -t.quantity)
}
