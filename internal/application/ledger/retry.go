package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jhoicas/stock-ledger/internal/domain"
)

// retryOnConflict ejecuta op hasta attempts veces mientras devuelva ErrVersionConflict,
// con espera exponencial entre intentos. Cualquier otro error corta de inmediato.
// Agotados los intentos devuelve ErrContention; si ctx termina durante la espera
// devuelve ErrStorageUnavailable.
func (e *Engine) retryOnConflict(ctx context.Context, attempts int, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.cfg.BackoffInitial
	b.MaxInterval = e.cfg.BackoffMax
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	tries := 0
	err := backoff.Retry(func() error {
		tries++
		err := op()
		if err == nil || errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, policy)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrVersionConflict):
		return fmt.Errorf("%w: %d intentos", domain.ErrContention, tries)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return err
}

// compensationContext contexto desacoplado de la cancelación del llamador con
// presupuesto propio: una compensación nunca se abandona porque el cliente se fue.
func (e *Engine) compensationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), e.cfg.CompensationTimeout)
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}
