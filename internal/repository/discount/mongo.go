package discount

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront-cart/internal/domain"
)

// CollectionName is the Mongo collection holding discount documents.
const CollectionName = "discounts"

type mongoRepo struct {
	collection *mongo.Collection
}

func NewMongo(db *mongo.Database) Repository {
	return &mongoRepo{collection: db.Collection(CollectionName)}
}

func (m *mongoRepo) ListActive(ctx context.Context, discountType domain.DiscountType) ([]domain.Discount, error) {
	filter := bson.M{"type": string(discountType), "isActive": true}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

	cur, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query discounts: %w", err)
	}
	defer cur.Close(ctx)

	var result []domain.Discount
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to decode discounts: %w", err)
	}
	return result, nil
}

func (m *mongoRepo) Upsert(ctx context.Context, d domain.Discount) error {
	filter := bson.M{"_id": d.ID}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, filter, d, opts); err != nil {
		return fmt.Errorf("failed to upsert discount: %w", err)
	}
	return nil
}
