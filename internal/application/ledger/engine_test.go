package ledger_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// CreateInitialInventory
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateInitialInventory_CreaRegistroYMovimientoIN(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())

		rec, err := f.engine.CreateInitialInventory(context.Background(), productA, "s1", 100, 20)
		require.NoError(t, err)
		assert.Equal(t, int64(100), rec.Quantity)
		assert.Equal(t, int64(20), rec.MinStock)
		assert.Equal(t, int64(0), rec.Version)

		ins := f.movementsOfType(t, entity.MovementTypeIN)
		require.Len(t, ins, 1)
		assert.Equal(t, "s1", ins[0].TargetStoreID)
		assert.Empty(t, ins[0].SourceStoreID)
		assert.Equal(t, int64(100), ins[0].Quantity)
		assert.Equal(t, 1, f.publisher.count())
	})
}

func TestCreateInitialInventory_CantidadCeroSinMovimiento(t *testing.T) {
	f := newFixture(t, true, testConfig())
	f.mustCreate(t, productA, "s1", 0, 5)

	assert.Empty(t, f.movementsOfType(t, entity.MovementTypeIN))
	assert.Equal(t, 0, f.publisher.count())
}

func TestCreateInitialInventory_Duplicado(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 10, 0)

		_, err := f.engine.CreateInitialInventory(context.Background(), productA, "s1", 5, 0)
		assert.ErrorIs(t, err, domain.ErrDuplicateRecord)
		assert.Equal(t, int64(10), f.quantity(t, productA, "s1"))
	})
}

func TestCreateInitialInventory_DuplicadoConcurrente(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		var ok, dup atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.engine.CreateInitialInventory(context.Background(), productA, "s1", 10, 0)
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, domain.ErrDuplicateRecord):
					dup.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), ok.Load())
		assert.Equal(t, int32(9), dup.Load())
		assert.Len(t, f.movementsOfType(t, entity.MovementTypeIN), 1)
	})
}

func TestCreateInitialInventory_Validaciones(t *testing.T) {
	f := newFixture(t, true, testConfig())
	ctx := context.Background()

	_, err := f.engine.CreateInitialInventory(ctx, "no-existe", "s1", 1, 0)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = f.engine.CreateInitialInventory(ctx, productA, "s1", -1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.engine.CreateInitialInventory(ctx, productA, "s1", 1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.engine.CreateInitialInventory(ctx, productA, "  ", 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCreateInitialInventory_FalloDeMovimientoDeshaceCreacion(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.movements.beforeAppend = func(*entity.MovementRecord) error { return errors.New("ledger caído") }

		_, err := f.engine.CreateInitialInventory(context.Background(), productA, "s1", 10, 0)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
		assert.Nil(t, f.record(t, productA, "s1"), "el registro no debe quedar sin su movimiento")
	})
}

func TestCreateInitialInventory_InsercionConErrorDeRed(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.records.afterInsertErr = failOnce(func(*entity.InventoryRecord) bool { return true }, errors.New("i/o timeout"))

		_, err := f.engine.CreateInitialInventory(context.Background(), productA, "s1", 10, 2)
		if tx {
			// La transacción se revierte completa.
			assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
			assert.Nil(t, f.record(t, productA, "s1"))
			assert.Empty(t, f.movementsOfType(t, entity.MovementTypeIN))
			return
		}
		require.NoError(t, err)
		assert.Equal(t, int64(10), f.quantity(t, productA, "s1"))
		assert.Len(t, f.movementsOfType(t, entity.MovementTypeIN), 1)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// AdjustStock
// ──────────────────────────────────────────────────────────────────────────────

func TestAdjustStock_EntradaYSalida(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 10, 0)
		ctx := context.Background()

		rec, err := f.engine.AdjustStock(ctx, productA, "s1", 5)
		require.NoError(t, err)
		assert.Equal(t, int64(15), rec.Quantity)
		assert.Equal(t, int64(1), rec.Version)

		rec, err = f.engine.AdjustStock(ctx, productA, "s1", -15)
		require.NoError(t, err, "dejar exactamente en cero es válido")
		assert.Equal(t, int64(0), rec.Quantity)

		_, err = f.engine.AdjustStock(ctx, productA, "s1", -1)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, int64(0), f.quantity(t, productA, "s1"))

		outs := f.movementsOfType(t, entity.MovementTypeOUT)
		require.Len(t, outs, 1)
		assert.Equal(t, int64(15), outs[0].Quantity)
		assert.Equal(t, "s1", outs[0].SourceStoreID)
		assert.Len(t, f.movementsOfType(t, entity.MovementTypeIN), 2)
	})
}

func TestAdjustStock_Validaciones(t *testing.T) {
	f := newFixture(t, true, testConfig())
	_, err := f.engine.AdjustStock(context.Background(), productA, "s1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.engine.AdjustStock(context.Background(), productA, "s1", 3)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestAdjustStock_DosRetirosConcurrentesSoloUnoGana(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 100, 0)

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.engine.AdjustStock(context.Background(), productA, "s1", -60)
			}(i)
		}
		wg.Wait()

		var success int
		for _, err := range errs {
			if err == nil {
				success++
				continue
			}
			assert.True(t, errors.Is(err, domain.ErrInsufficientStock) || errors.Is(err, domain.ErrContention), "error inesperado: %v", err)
		}
		assert.Equal(t, 1, success)
		assert.Equal(t, int64(40), f.quantity(t, productA, "s1"))
	})
}

func TestAdjustStock_ContencionAgotaReintentos(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 10, 0)

		var calls atomic.Int32
		f.records.beforeUpdate = func(*entity.InventoryRecord) error {
			calls.Add(1)
			return domain.ErrVersionConflict
		}

		_, err := f.engine.AdjustStock(context.Background(), productA, "s1", -1)
		assert.ErrorIs(t, err, domain.ErrContention)
		assert.Equal(t, int32(testConfig().MaxAttempts), calls.Load())
		assert.Equal(t, int64(10), f.quantity(t, productA, "s1"))
	})
}

func TestAdjustStock_TimeoutDelAlmacen(t *testing.T) {
	cfg := testConfig()
	cfg.StoreTimeout = 20 * time.Millisecond
	f := newFixture(t, false, cfg)
	f.mustCreate(t, productA, "s1", 10, 0)

	f.records.beforeGet = func(ctx context.Context, _, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	}
	_, err := f.engine.AdjustStock(context.Background(), productA, "s1", 1)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
}

func TestAdjustStock_FalloDeMovimientoRevierteCantidad(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 10, 0)
		f.movements.beforeAppend = func(*entity.MovementRecord) error { return errors.New("ledger caído") }

		_, err := f.engine.AdjustStock(context.Background(), productA, "s1", -4)
		assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
		assert.Equal(t, int64(10), f.quantity(t, productA, "s1"))
	})
}

func TestAdjustStock_EscrituraAplicadaConErrorDeRed(t *testing.T) {
	f := newFixture(t, false, testConfig())
	f.mustCreate(t, productA, "s1", 10, 0)
	f.records.afterUpdateErr = failOnce(func(*entity.InventoryRecord) bool { return true }, errors.New("i/o timeout"))

	rec, err := f.engine.AdjustStock(context.Background(), productA, "s1", -4)
	require.NoError(t, err)
	assert.Equal(t, int64(6), rec.Quantity)
	assert.Equal(t, int64(6), f.quantity(t, productA, "s1"))
	assert.Len(t, f.movementsOfType(t, entity.MovementTypeOUT), 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// TransferStock
// ──────────────────────────────────────────────────────────────────────────────

func TestTransferStock_CreaDestinoHeredandoMinimo(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 100, 20)

		res, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 30)
		require.NoError(t, err)
		assert.Equal(t, int64(70), res.Source.Quantity)
		assert.Equal(t, int64(30), res.Target.Quantity)
		assert.Equal(t, int64(20), res.Target.MinStock)
		assert.Equal(t, int64(0), res.Target.Version)

		assert.Equal(t, int64(70), f.quantity(t, productA, "s1"))
		assert.Equal(t, int64(30), f.quantity(t, productA, "s2"))

		transfers := f.movementsOfType(t, entity.MovementTypeTRANSFER)
		require.Len(t, transfers, 1)
		assert.Equal(t, "s1", transfers[0].SourceStoreID)
		assert.Equal(t, "s2", transfers[0].TargetStoreID)
		assert.Equal(t, int64(30), transfers[0].Quantity)
		assert.Equal(t, res.Movement.ID, transfers[0].ID)
	})
}

func TestTransferStock_DestinoExistente(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 50, 0)
		f.mustCreate(t, productA, "s2", 5, 7)

		res, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 50)
		require.NoError(t, err)
		assert.Equal(t, int64(0), res.Source.Quantity)
		assert.Equal(t, int64(55), res.Target.Quantity)
		assert.Equal(t, int64(7), res.Target.MinStock, "el mínimo del destino no cambia")
		assert.Equal(t, int64(1), res.Target.Version)
	})
}

func TestTransferStock_StockInsuficienteNoCambiaNada(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 70, 0)

		_, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 1000)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, int64(70), f.quantity(t, productA, "s1"))
		assert.Nil(t, f.record(t, productA, "s2"))
		assert.Empty(t, f.movementsOfType(t, entity.MovementTypeTRANSFER))
	})
}

func TestTransferStock_Validaciones(t *testing.T) {
	f := newFixture(t, true, testConfig())
	ctx := context.Background()

	_, err := f.engine.TransferStock(ctx, productA, "s1", "s1", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.engine.TransferStock(ctx, productA, "s1", "s2", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = f.engine.TransferStock(ctx, productA, "s1", "s2", 1)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestTransferStock_FalloEnDestinoCompensaOrigen(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 100, 0)
		f.records.beforeInsert = func(rec *entity.InventoryRecord) error {
			if rec.StoreID == "s2" {
				return errors.New("redis caído")
			}
			return nil
		}

		_, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 30)
		require.Error(t, err)
		if tx {
			assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
		} else {
			assert.ErrorIs(t, err, domain.ErrTransferAborted)
		}
		assert.Equal(t, int64(100), f.quantity(t, productA, "s1"))
		assert.Nil(t, f.record(t, productA, "s2"))
		assert.Empty(t, f.movementsOfType(t, entity.MovementTypeTRANSFER))
	})
}

func TestTransferStock_FalloDeMovimientoEliminaDestinoCreado(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		f := newFixture(t, tx, testConfig())
		f.mustCreate(t, productA, "s1", 100, 0)
		f.movements.beforeAppend = func(m *entity.MovementRecord) error {
			if m.Type == entity.MovementTypeTRANSFER {
				return errors.New("ledger caído")
			}
			return nil
		}

		_, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 30)
		require.Error(t, err)
		assert.Equal(t, int64(100), f.quantity(t, productA, "s1"))
		assert.Nil(t, f.record(t, productA, "s2"), "el destino creado por el motor se elimina")
		assert.Empty(t, f.movementsOfType(t, entity.MovementTypeTRANSFER))
		assert.Equal(t, 1, f.publisher.count(), "solo el IN de la creación se publica")
	})
}

func TestTransferStock_FalloDeMovimientoDescuentaDestinoExistente(t *testing.T) {
	f := newFixture(t, false, testConfig())
	f.mustCreate(t, productA, "s1", 100, 0)
	f.mustCreate(t, productA, "s2", 10, 0)
	f.movements.beforeAppend = func(m *entity.MovementRecord) error {
		if m.Type == entity.MovementTypeTRANSFER {
			return errors.New("ledger caído")
		}
		return nil
	}

	_, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 30)
	assert.ErrorIs(t, err, domain.ErrTransferAborted)
	assert.Equal(t, int64(100), f.quantity(t, productA, "s1"))
	assert.Equal(t, int64(10), f.quantity(t, productA, "s2"))
}

func TestTransferStock_CancelacionTrasDescontarOrigenCompensa(t *testing.T) {
	f := newFixture(t, false, testConfig())
	f.mustCreate(t, productA, "s1", 100, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.records.afterUpdate = func(rec *entity.InventoryRecord) {
		if rec.StoreID == "s1" {
			cancel()
		}
	}

	_, err := f.engine.TransferStock(ctx, productA, "s1", "s2", 30)
	assert.ErrorIs(t, err, domain.ErrTransferAborted)
	assert.Equal(t, int64(100), f.quantity(t, productA, "s1"))
	assert.Nil(t, f.record(t, productA, "s2"))
	assert.Empty(t, f.movementsOfType(t, entity.MovementTypeTRANSFER))
}

func TestTransferStock_EscrituraAplicadaConErrorDeRedConservaStock(t *testing.T) {
	for _, store := range []string{"s1", "s2"} {
		t.Run(store, func(t *testing.T) {
			f := newFixture(t, false, testConfig())
			f.mustCreate(t, productA, "s1", 100, 0)
			f.mustCreate(t, productA, "s2", 10, 0)
			f.records.afterUpdateErr = failOnce(func(rec *entity.InventoryRecord) bool {
				return rec.StoreID == store
			}, errors.New("i/o timeout"))

			res, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 30)
			require.NoError(t, err)
			assert.Equal(t, int64(70), res.Source.Quantity)
			assert.Equal(t, int64(40), res.Target.Quantity)

			s1, s2 := f.quantity(t, productA, "s1"), f.quantity(t, productA, "s2")
			assert.Equal(t, int64(110), s1+s2)
			assert.Equal(t, int64(70), s1)
			assert.Equal(t, int64(40), s2)
			assert.Len(t, f.movementsOfType(t, entity.MovementTypeTRANSFER), 1)
		})
	}
}

func TestTransferStock_DestinoCreadoConErrorDeRed(t *testing.T) {
	f := newFixture(t, false, testConfig())
	f.mustCreate(t, productA, "s1", 100, 5)
	f.records.afterInsertErr = failOnce(func(rec *entity.InventoryRecord) bool {
		return rec.StoreID == "s2"
	}, errors.New("connection reset by peer"))

	res, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 30)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Target.Version)
	assert.Equal(t, int64(70), f.quantity(t, productA, "s1"))
	assert.Equal(t, int64(30), f.quantity(t, productA, "s2"))
	assert.Equal(t, int64(5), f.record(t, productA, "s2").MinStock)
	assert.Len(t, f.movementsOfType(t, entity.MovementTypeTRANSFER), 1)
}

func TestTransferStock_CompensacionAplicadaConErrorDeRed(t *testing.T) {
	f := newFixture(t, false, testConfig())
	f.mustCreate(t, productA, "s1", 100, 0)
	f.mustCreate(t, productA, "s2", 10, 0)
	f.movements.beforeAppend = func(m *entity.MovementRecord) error {
		if m.Type == entity.MovementTypeTRANSFER {
			return errors.New("ledger caído")
		}
		return nil
	}
	// La compensación del destino (40 -> 10) se aplica pero el cliente recibe timeout.
	f.records.afterUpdateErr = failOnce(func(rec *entity.InventoryRecord) bool {
		return rec.StoreID == "s2" && rec.Quantity == 10
	}, errors.New("i/o timeout"))

	_, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 30)
	require.ErrorIs(t, err, domain.ErrTransferAborted)
	assert.NotContains(t, err.Error(), "compensación incompleta")
	assert.Equal(t, int64(100), f.quantity(t, productA, "s1"))
	assert.Equal(t, int64(10), f.quantity(t, productA, "s2"))
	assert.Empty(t, f.movementsOfType(t, entity.MovementTypeTRANSFER))
}

func TestTransferStock_EliminacionCompensatoriaConErrorDeRed(t *testing.T) {
	f := newFixture(t, false, testConfig())
	f.mustCreate(t, productA, "s1", 100, 0)
	f.movements.beforeAppend = func(m *entity.MovementRecord) error {
		if m.Type == entity.MovementTypeTRANSFER {
			return errors.New("ledger caído")
		}
		return nil
	}
	f.records.afterDeleteErr = func(_, _ string) error { return errors.New("i/o timeout") }

	_, err := f.engine.TransferStock(context.Background(), productA, "s1", "s2", 30)
	require.ErrorIs(t, err, domain.ErrTransferAborted)
	assert.NotContains(t, err.Error(), "compensación incompleta")
	assert.Equal(t, int64(100), f.quantity(t, productA, "s1"))
	assert.Nil(t, f.record(t, productA, "s2"))
}

func TestTransferStock_PropiedadConservacionConcurrente(t *testing.T) {
	runners(t, func(t *testing.T, tx bool) {
		cfg := testConfig()
		cfg.MaxAttempts = 10
		f := newFixture(t, tx, cfg)
		stores := []string{"s1", "s2", "s3"}
		for _, s := range stores {
			f.mustCreate(t, productA, s, 50, 0)
		}

		var success atomic.Int32
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(seed int64) {
				defer wg.Done()
				rnd := rand.New(rand.NewSource(seed))
				for i := 0; i < 40; i++ {
					from := stores[rnd.Intn(len(stores))]
					to := stores[rnd.Intn(len(stores))]
					if from == to {
						continue
					}
					_, err := f.engine.TransferStock(context.Background(), productA, from, to, int64(rnd.Intn(30)+1))
					if err == nil {
						success.Add(1)
					}
				}
			}(int64(w))
		}
		wg.Wait()

		var total int64
		for _, s := range stores {
			q := f.quantity(t, productA, s)
			assert.GreaterOrEqual(t, q, int64(0))
			total += q
		}
		assert.Equal(t, int64(150), total, "el stock total se conserva")
		assert.Len(t, f.movementsOfType(t, entity.MovementTypeTRANSFER), int(success.Load()))
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetLowStockAlerts(t *testing.T) {
	f := newFixture(t, true, testConfig())
	f.mustCreate(t, productA, "s1", 15, 20)
	f.mustCreate(t, productB, "s1", 25, 20)
	f.mustCreate(t, productB, "s2", 20, 20)

	alerts, err := f.engine.GetLowStockAlerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, productA, alerts[0].Record.ProductID)
	assert.Equal(t, int64(5), alerts[0].Deficit)
	require.NotNil(t, alerts[0].Product)
	assert.Equal(t, "SKU-A", alerts[0].Product.SKU)
}

func TestListStoreInventory(t *testing.T) {
	f := newFixture(t, true, testConfig())
	f.mustCreate(t, productB, "s1", 1, 0)
	f.mustCreate(t, productA, "s1", 2, 0)
	f.mustCreate(t, productA, "s2", 3, 0)

	views, err := f.engine.ListStoreInventory(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, productA, views[0].Record.ProductID)
	assert.Equal(t, "Producto A", views[0].Product.Name)

	empty, err := f.engine.ListStoreInventory(context.Background(), "vacia")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestGetProductStock(t *testing.T) {
	f := newFixture(t, true, testConfig())
	f.mustCreate(t, productA, "s1", 15, 0)
	f.mustCreate(t, productA, "s2", 30, 0)

	ps, err := f.engine.GetProductStock(context.Background(), productA)
	require.NoError(t, err)
	assert.Equal(t, int64(45), ps.Total)
	assert.Len(t, ps.Records, 2)

	_, err = f.engine.GetProductStock(context.Background(), "no-existe")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestMovements_ConsultaYFiltros(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	clock := now
	f := newFixture(t, true, testConfig())
	engine, err := ledger.NewEngine(ledger.Deps{
		Runner:    memoryAtomic(f),
		Records:   f.store.Records(),
		Movements: f.store.Movements(),
		Catalog:   f.store.Catalog(),
		Clock:     func() time.Time { return clock },
	}, testConfig())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = engine.CreateInitialInventory(ctx, productA, "s1", 100, 0)
	require.NoError(t, err)
	clock = now.Add(time.Hour)
	_, err = engine.AdjustStock(ctx, productA, "s1", -10)
	require.NoError(t, err)
	clock = now.Add(2 * time.Hour)
	res, err := engine.TransferStock(ctx, productA, "s1", "s2", 5)
	require.NoError(t, err)

	got, err := engine.GetMovement(ctx, res.Movement.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeTRANSFER, got.Type)

	_, err = engine.GetMovement(ctx, "no-existe")
	assert.ErrorIs(t, err, domain.ErrMovementNotFound)

	all, err := engine.ListMovements(ctx, repository.MovementFilter{ProductID: productA})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	from, to := now.Add(time.Hour), now.Add(2*time.Hour)
	ranged, err := engine.ListMovements(ctx, repository.MovementFilter{From: &from, To: &to})
	require.NoError(t, err)
	assert.Len(t, ranged, 2, "el rango es inclusivo en ambos extremos")

	byStore, err := engine.ListMovements(ctx, repository.MovementFilter{StoreID: "s2"})
	require.NoError(t, err)
	assert.Len(t, byStore, 1)

	_, err = engine.ListMovements(ctx, repository.MovementFilter{Type: "BORRADO"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = engine.ListMovements(ctx, repository.MovementFilter{From: &to, To: &from})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestPublicacionFallidaNoAfectaResultado(t *testing.T) {
	f := newFixture(t, true, testConfig())
	f.publisher.fails = errors.New("kafka caído")

	rec, err := f.engine.CreateInitialInventory(context.Background(), productA, "s1", 5, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), rec.Quantity)
	assert.Equal(t, 1, f.publisher.count())
}

func TestNewEngine_DependenciasObligatorias(t *testing.T) {
	_, err := ledger.NewEngine(ledger.Deps{}, ledger.DefaultConfig())
	assert.Error(t, err)
}
