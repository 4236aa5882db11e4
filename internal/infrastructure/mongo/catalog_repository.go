package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.CatalogRepository = (*CatalogRepository)(nil)

// productDoc documento de la colección products (id ObjectId en hex hacia afuera).
type productDoc struct {
	ID    primitive.ObjectID `bson:"_id"`
	Name  string             `bson:"name"`
	SKU   string             `bson:"sku"`
	Price float64            `bson:"price"`
}

func (d productDoc) toEntity() *entity.ProductSummary {
	return &entity.ProductSummary{
		ID:    d.ID.Hex(),
		SKU:   d.SKU,
		Name:  d.Name,
		Price: decimal.NewFromFloat(d.Price).Round(2),
	}
}

// CatalogRepository lectura del catálogo de productos.
type CatalogRepository struct {
	Collection *mongo.Collection
}

// NewCatalogRepository usa la colección "products".
func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{Collection: db.Collection(productsCollection)}
}

var summaryProjection = bson.M{"name": 1, "sku": 1, "price": 1}

// Exists un id que no es ObjectId válido no existe.
func (r *CatalogRepository) Exists(ctx context.Context, productID string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return false, nil
	}
	n, err := r.Collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return n > 0, nil
}

func (r *CatalogRepository) Get(ctx context.Context, productID string) (*entity.ProductSummary, error) {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return nil, nil
	}
	var d productDoc
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}, options.FindOne().SetProjection(summaryProjection)).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return d.toEntity(), nil
}

func (r *CatalogRepository) GetMany(ctx context.Context, productIDs []string) (map[string]*entity.ProductSummary, error) {
	out := make(map[string]*entity.ProductSummary, len(productIDs))
	oids := make([]primitive.ObjectID, 0, len(productIDs))
	for _, id := range productIDs {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return out, nil
	}
	cursor, err := r.Collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for _, d := range docs {
		p := d.toEntity()
		out[p.ID] = p
	}
	return out, nil
}
