package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/catalogcsv"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/memory"
	mongoinfra "github.com/jhoicas/stock-ledger/internal/infrastructure/mongo"
	"github.com/jhoicas/stock-ledger/internal/infrastructure/postgres"
	redisinfra "github.com/jhoicas/stock-ledger/internal/infrastructure/redis"
	"github.com/jhoicas/stock-ledger/pkg/config"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// storage repositorios y runner del driver elegido, más su cierre.
type storage struct {
	runner    ledger.TxRunner
	records   repository.InventoryRecordRepository
	movements repository.MovementRepository
	catalog   repository.CatalogRepository
	closers   []func(context.Context) error
}

func (s *storage) Close(ctx context.Context) error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, s.closers[i](ctx))
	}
	return err
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverRedis:
		return openRedisMongo(ctx, cfg)
	case config.DriverMemory:
		return openMemory(cfg, log)
	}
	return nil, fmt.Errorf("driver de almacenamiento desconocido: %s", cfg.Storage.Driver)
}

func openPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	st := &storage{
		runner:    postgres.NewTxRunner(pool),
		records:   postgres.NewInventoryRecordRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		catalog:   postgres.NewCatalogRepository(pool),
		closers:   []func(context.Context) error{func(context.Context) error { pool.Close(); return nil }},
	}
	if cfg.Storage.AutoMigrate {
		applied, err := postgres.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		for _, name := range applied {
			log.Info().Str("migration", name).Msg("migración aplicada")
		}
	}
	return st, nil
}

// openRedisMongo registros en Redis; libro de movimientos y catálogo en MongoDB.
// Sin transacciones entre almacenes: el motor usa el camino de compensación.
func openRedisMongo(ctx context.Context, cfg *config.Config) (*storage, error) {
	rdb, err := redisinfra.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}
	mc, err := mongoinfra.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	db := mc.Database(cfg.Mongo.Database)
	if err := mongoinfra.EnsureIndexes(ctx, db); err != nil {
		_ = rdb.Close()
		_ = mc.Disconnect(ctx)
		return nil, err
	}

	records := redisinfra.NewInventoryRecordRepository(rdb)
	movements := mongoinfra.NewMovementRepository(db)
	return &storage{
		runner:    ledger.NewDirectRunner(records, movements),
		records:   records,
		movements: movements,
		catalog:   mongoinfra.NewCatalogRepository(db),
		closers: []func(context.Context) error{
			func(context.Context) error { return rdb.Close() },
			mc.Disconnect,
		},
	}, nil
}

func openMemory(cfg *config.Config, log *logger.Logger) (*storage, error) {
	store := memory.NewStore()
	if path := cfg.Storage.CatalogCSV; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("abrir catálogo: %w", err)
		}
		defer f.Close()
		products, err := catalogcsv.Parse(f, cfg.Storage.CatalogLatin1)
		if err != nil {
			return nil, fmt.Errorf("leer catálogo %s: %w", path, err)
		}
		for _, p := range products {
			store.AddProduct(p.ProductSummary)
		}
		log.Info().Int("productos", len(products)).Str("archivo", path).Msg("catálogo en memoria cargado")
	}
	return &storage{
		runner:    memory.NewAtomicRunner(store),
		records:   store.Records(),
		movements: store.Movements(),
		catalog:   store.Catalog(),
	}, nil
}
