package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepository)(nil)

type movementDoc struct {
	ID            string    `bson:"_id"`
	ProductID     string    `bson:"productId"`
	SourceStoreID *string   `bson:"sourceStoreId"`
	TargetStoreID *string   `bson:"targetStoreId"`
	Quantity      int64     `bson:"quantity"`
	Type          string    `bson:"type"`
	Timestamp     time.Time `bson:"timestamp"`
}

func toDoc(m *entity.MovementRecord) movementDoc {
	d := movementDoc{ID: m.ID, ProductID: m.ProductID, Quantity: m.Quantity, Type: string(m.Type), Timestamp: m.Timestamp}
	if m.SourceStoreID != "" {
		s := m.SourceStoreID
		d.SourceStoreID = &s
	}
	if m.TargetStoreID != "" {
		s := m.TargetStoreID
		d.TargetStoreID = &s
	}
	return d
}

func (d movementDoc) toEntity() *entity.MovementRecord {
	m := &entity.MovementRecord{
		ID:        d.ID,
		ProductID: d.ProductID,
		Quantity:  d.Quantity,
		Type:      entity.MovementType(d.Type),
		Timestamp: d.Timestamp.UTC(),
	}
	if d.SourceStoreID != nil {
		m.SourceStoreID = *d.SourceStoreID
	}
	if d.TargetStoreID != nil {
		m.TargetStoreID = *d.TargetStoreID
	}
	return m
}

// MovementRepository libro de movimientos (solo InsertOne, nunca se actualiza).
type MovementRepository struct {
	Collection *mongo.Collection
}

// NewMovementRepository usa la colección "movements".
func NewMovementRepository(db *mongo.Database) *MovementRepository {
	return &MovementRepository{Collection: db.Collection(movementsCollection)}
}

func (r *MovementRepository) Append(ctx context.Context, m *entity.MovementRecord) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	if _, err := r.Collection.InsertOne(ctx, toDoc(m)); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	return nil
}

func (r *MovementRepository) GetByID(ctx context.Context, id string) (*entity.MovementRecord, error) {
	var d movementDoc
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return d.toEntity(), nil
}

func (r *MovementRepository) List(ctx context.Context, f repository.MovementFilter) ([]*entity.MovementRecord, error) {
	// Orden por timestamp para una lectura cronológica del libro.
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}

	cursor, err := r.Collection.Find(ctx, movementFilter(f), opts)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	var docs []movementDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode movements: %w", err)
	}
	out := make([]*entity.MovementRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toEntity())
	}
	return out, nil
}

func movementFilter(f repository.MovementFilter) bson.M {
	filter := bson.M{}
	if f.ProductID != "" {
		filter["productId"] = f.ProductID
	}
	if f.StoreID != "" {
		filter["$or"] = bson.A{bson.M{"sourceStoreId": f.StoreID}, bson.M{"targetStoreId": f.StoreID}}
	}
	if f.Type != "" {
		filter["type"] = string(f.Type)
	}
	if f.From != nil || f.To != nil {
		ts := bson.M{}
		if f.From != nil {
			ts["$gte"] = *f.From
		}
		if f.To != nil {
			ts["$lte"] = *f.To
		}
		filter["timestamp"] = ts
	}
	return filter
}
