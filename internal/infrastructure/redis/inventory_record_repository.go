// Package redis almacena los registros de inventario en hashes de Redis.
// Cada escritura es un script Lua: atómica por registro, sin transacciones entre
// registros (el motor usa el camino de compensación con este almacén).
package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

const (
	recordKeyPrefix  = "inventory:rec:"
	storeIndexPrefix = "inventory:idx:store:"
	productIdxPrefix = "inventory:idx:product:"
	allIndexKey      = "inventory:idx:all"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

// insertScript crea el hash solo si no existe y lo agrega a los índices.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1],
	'product_id', ARGV[1], 'store_id', ARGV[2],
	'quantity', ARGV[3], 'min_stock', ARGV[4], 'version', ARGV[5],
	'created_at', ARGV[6], 'updated_at', ARGV[7])
redis.call('SADD', KEYS[2], KEYS[1])
redis.call('SADD', KEYS[3], KEYS[1])
redis.call('SADD', KEYS[4], KEYS[1])
return 1
`)

// updateScript -1 no existe, 0 versión distinta, 1 aplicado.
var updateScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if not current then
	return -1
end
if current ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'quantity', ARGV[2], 'version', ARGV[3], 'updated_at', ARGV[4])
return 1
`)

// deleteScript mismos códigos que updateScript.
var deleteScript = redis.NewScript(`
local current = redis.call('HGET', KEYS[1], 'version')
if not current then
	return -1
end
if current ~= ARGV[1] then
	return 0
end
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[2], KEYS[1])
redis.call('SREM', KEYS[3], KEYS[1])
redis.call('SREM', KEYS[4], KEYS[1])
return 1
`)

// InventoryRecordRepo adaptador de registros de inventario sobre Redis.
type InventoryRecordRepo struct {
	client *redis.Client
}

// NewInventoryRecordRepository construye el adaptador con un cliente ya conectado.
func NewInventoryRecordRepository(client *redis.Client) *InventoryRecordRepo {
	return &InventoryRecordRepo{client: client}
}

func recordKey(productID, storeID string) string {
	return recordKeyPrefix + productID + ":" + storeID
}

func indexKeys(productID, storeID string) []string {
	return []string{recordKey(productID, storeID), storeIndexPrefix + storeID, productIdxPrefix + productID, allIndexKey}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func (r *InventoryRecordRepo) Get(ctx context.Context, productID, storeID string) (*entity.InventoryRecord, error) {
	fields, err := r.client.HGetAll(ctx, recordKey(productID, storeID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get inventory record: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return parseRecord(fields)
}

func (r *InventoryRecordRepo) Insert(ctx context.Context, rec *entity.InventoryRecord) error {
	res, err := insertScript.Run(ctx, r.client, indexKeys(rec.ProductID, rec.StoreID),
		rec.ProductID, rec.StoreID, itoa(rec.Quantity), itoa(rec.MinStock), itoa(rec.Version),
		itoa(rec.CreatedAt.UnixNano()), itoa(rec.UpdatedAt.UnixNano())).Int()
	if err != nil {
		return fmt.Errorf("insert inventory record: %w", err)
	}
	if res == 0 {
		return domain.ErrDuplicateRecord
	}
	return nil
}

func (r *InventoryRecordRepo) UpdateIfVersion(ctx context.Context, rec *entity.InventoryRecord, expectedVersion int64) error {
	res, err := updateScript.Run(ctx, r.client, []string{recordKey(rec.ProductID, rec.StoreID)},
		itoa(expectedVersion), itoa(rec.Quantity), itoa(rec.Version), itoa(rec.UpdatedAt.UnixNano())).Int()
	if err != nil {
		return fmt.Errorf("update inventory record: %w", err)
	}
	return scriptResult(res)
}

func (r *InventoryRecordRepo) Delete(ctx context.Context, productID, storeID string, expectedVersion int64) error {
	res, err := deleteScript.Run(ctx, r.client, indexKeys(productID, storeID), itoa(expectedVersion)).Int()
	if err != nil {
		return fmt.Errorf("delete inventory record: %w", err)
	}
	return scriptResult(res)
}

func scriptResult(res int) error {
	switch res {
	case -1:
		return domain.ErrRecordNotFound
	case 0:
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *InventoryRecordRepo) ListByStore(ctx context.Context, storeID string) ([]*entity.InventoryRecord, error) {
	return r.listIndex(ctx, storeIndexPrefix+storeID)
}

func (r *InventoryRecordRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.InventoryRecord, error) {
	return r.listIndex(ctx, productIdxPrefix+productID)
}

func (r *InventoryRecordRepo) ListAll(ctx context.Context) ([]*entity.InventoryRecord, error) {
	return r.listIndex(ctx, allIndexKey)
}

// listIndex lee las claves del índice y luego cada hash en un pipeline.
// Un hash eliminado entre ambas lecturas se omite.
func (r *InventoryRecordRepo) listIndex(ctx context.Context, index string) ([]*entity.InventoryRecord, error) {
	keys, err := r.client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("list inventory index: %w", err)
	}
	out := make([]*entity.InventoryRecord, 0, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	sort.Strings(keys)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGetAll(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("list inventory records: %w", err)
	}
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		rec, err := parseRecord(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StoreID != out[j].StoreID {
			return out[i].StoreID < out[j].StoreID
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

func parseRecord(f map[string]string) (*entity.InventoryRecord, error) {
	ints := make(map[string]int64, 5)
	for _, name := range []string{"quantity", "min_stock", "version", "created_at", "updated_at"} {
		n, err := strconv.ParseInt(f[name], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("registro corrupto (%s): %w", name, err)
		}
		ints[name] = n
	}
	return &entity.InventoryRecord{
		ProductID: f["product_id"],
		StoreID:   f["store_id"],
		Quantity:  ints["quantity"],
		MinStock:  ints["min_stock"],
		Version:   ints["version"],
		CreatedAt: time.Unix(0, ints["created_at"]).UTC(),
		UpdatedAt: time.Unix(0, ints["updated_at"]).UTC(),
	}, nil
}

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
