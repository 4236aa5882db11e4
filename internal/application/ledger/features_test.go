package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
)

var errorsByName = map[string]error{
	"InvalidArgument":    domain.ErrInvalidArgument,
	"ProductNotFound":    domain.ErrProductNotFound,
	"RecordNotFound":     domain.ErrRecordNotFound,
	"InsufficientStock":  domain.ErrInsufficientStock,
	"DuplicateRecord":    domain.ErrDuplicateRecord,
	"Contention":         domain.ErrContention,
	"TransferAborted":    domain.ErrTransferAborted,
	"StorageUnavailable": domain.ErrStorageUnavailable,
}

type ledgerTestContext struct {
	store    *memory.Store
	engine   *ledger.Engine
	err      error
}

func (c *ledgerTestContext) reset() {
	c.store = memory.NewStore()
	c.engine = nil
	c.err = nil
}

func (c *ledgerTestContext) productIsInTheCatalog(id string) error {
	c.store.AddProduct(entity.ProductSummary{ID: id, SKU: "SKU-" + id, Name: id, Price: decimal.NewFromInt(1)})
	return nil
}

func (c *ledgerTestContext) aLedger(mode string) error {
	var runner ledger.TxRunner
	switch mode {
	case "atomic":
		runner = memory.NewAtomicRunner(c.store)
	case "compensating":
		runner = ledger.NewDirectRunner(c.store.Records(), c.store.Movements())
	default:
		return fmt.Errorf("modo desconocido %q", mode)
	}
	engine, err := ledger.NewEngine(ledger.Deps{
		Runner:    runner,
		Records:   c.store.Records(),
		Movements: c.store.Movements(),
		Catalog:   c.store.Catalog(),
	}, testConfig())
	c.engine = engine
	return err
}

func (c *ledgerTestContext) storeHasUnitsWithMinimum(store string, qty int64, product string, min int64) error {
	_, err := c.engine.CreateInitialInventory(context.Background(), product, store, qty, min)
	return err
}

func (c *ledgerTestContext) iCreateInventory(product, store string, qty, min int64) error {
	_, c.err = c.engine.CreateInitialInventory(context.Background(), product, store, qty, min)
	return nil
}

func (c *ledgerTestContext) iTransfer(qty int64, product, from, to string) error {
	_, c.err = c.engine.TransferStock(context.Background(), product, from, to, qty)
	return nil
}

func (c *ledgerTestContext) iAdjust(product, store string, delta int64) error {
	_, c.err = c.engine.AdjustStock(context.Background(), product, store, delta)
	return nil
}

func (c *ledgerTestContext) theOperationSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("se esperaba éxito, se obtuvo: %w", c.err)
	}
	return nil
}

func (c *ledgerTestContext) theOperationFailsWith(name string) error {
	want, ok := errorsByName[name]
	if !ok {
		return fmt.Errorf("error desconocido %q", name)
	}
	if !errors.Is(c.err, want) {
		return fmt.Errorf("se esperaba %s, se obtuvo: %v", name, c.err)
	}
	return nil
}

func (c *ledgerTestContext) get(product, store string) (*entity.InventoryRecord, error) {
	return c.store.Records().Get(context.Background(), product, store)
}

func (c *ledgerTestContext) storeHasUnits(store string, qty int64, product string) error {
	rec, err := c.get(product, store)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("no existe registro %s/%s", product, store)
	}
	if rec.Quantity != qty {
		return fmt.Errorf("cantidad %d, se esperaba %d", rec.Quantity, qty)
	}
	return nil
}

func (c *ledgerTestContext) storeHasMinimum(store string, min int64, product string) error {
	rec, err := c.get(product, store)
	if err != nil {
		return err
	}
	if rec == nil || rec.MinStock != min {
		return fmt.Errorf("mínimo esperado %d en %s/%s, registro: %+v", min, product, store, rec)
	}
	return nil
}

func (c *ledgerTestContext) storeHasNoRecord(store, product string) error {
	rec, err := c.get(product, store)
	if err != nil {
		return err
	}
	if rec != nil {
		return fmt.Errorf("no se esperaba registro %s/%s", product, store)
	}
	return nil
}

func (c *ledgerTestContext) theLedgerHasMovements(n int, typ string) error {
	list, err := c.store.Movements().List(context.Background(), repository.MovementFilter{Type: entity.MovementType(typ)})
	if err != nil {
		return err
	}
	if len(list) != n {
		return fmt.Errorf("%d movimientos %s, se esperaban %d", len(list), typ, n)
	}
	return nil
}

func (c *ledgerTestContext) alertsContain(want bool) func(product, store string) error {
	return func(product, store string) error {
		alerts, err := c.engine.GetLowStockAlerts(context.Background())
		if err != nil {
			return err
		}
		found := false
		for _, a := range alerts {
			if a.Record.ProductID == product && a.Record.StoreID == store {
				found = true
			}
		}
		if found != want {
			return fmt.Errorf("alerta %s/%s presente=%v, se esperaba %v", product, store, found, want)
		}
		return nil
	}
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &ledgerTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given
	ctx.Step(`^product "([^"]*)" is in the catalog$`, tc.productIsInTheCatalog)
	ctx.Step(`^a "([^"]*)" ledger$`, tc.aLedger)
	ctx.Step(`^store "([^"]*)" has (\d+) units of "([^"]*)" with minimum (\d+)$`, tc.storeHasUnitsWithMinimum)

	// When
	ctx.Step(`^I create inventory for "([^"]*)" at "([^"]*)" with (\d+) units and minimum (\d+)$`, tc.iCreateInventory)
	ctx.Step(`^I transfer (\d+) units of "([^"]*)" from "([^"]*)" to "([^"]*)"$`, tc.iTransfer)
	ctx.Step(`^I adjust "([^"]*)" at "([^"]*)" by (-?\d+)$`, tc.iAdjust)

	// Then
	ctx.Step(`^the operation succeeds$`, tc.theOperationSucceeds)
	ctx.Step(`^the operation fails with "([^"]*)"$`, tc.theOperationFailsWith)
	ctx.Step(`^store "([^"]*)" has (\d+) units of "([^"]*)"$`, tc.storeHasUnits)
	ctx.Step(`^store "([^"]*)" has minimum (\d+) for "([^"]*)"$`, tc.storeHasMinimum)
	ctx.Step(`^store "([^"]*)" has no record for "([^"]*)"$`, tc.storeHasNoRecord)
	ctx.Step(`^the ledger has (\d+) "([^"]*)" movements?$`, tc.theLedgerHasMovements)
	ctx.Step(`^the low stock alerts contain "([^"]*)" at "([^"]*)"$`, tc.alertsContain(true))
	ctx.Step(`^the low stock alerts do not contain "([^"]*)" at "([^"]*)"$`, tc.alertsContain(false))
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../../../features/stock_ledger.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
