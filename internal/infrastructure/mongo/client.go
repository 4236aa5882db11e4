// Package mongo guarda el libro de movimientos y lee el catálogo de productos en MongoDB.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	movementsCollection = "movements"
	productsCollection  = "products"
)

// Connect abre el cliente y verifica la conexión.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("conectar mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes índices de consulta del libro de movimientos (idempotente).
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(movementsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "productId", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "timestamp", Value: 1}}},
		{Keys: bson.D{{Key: "timestamp", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("crear índices de movimientos: %w", err)
	}
	return nil
}
