package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FaizanFazal12/shop-backend/internal/domain"
)

type mongoStockStore struct {
	collection *mongo.Collection
}

func NewMongoStockStore(db *mongo.Database) StockStore {
	return &mongoStockStore{collection: db.Collection("products")}
}

func (m *mongoStockStore) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var product domain.Product

	err := m.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &product, nil
}

// AdjustStock applies stock += delta as one conditional update. For a
// negative delta the filter requires enough stock, so the decrement and the
// availability check happen in the same document write and concurrent
// adjustments cannot both pass on the last units.
func (m *mongoStockStore) AdjustStock(ctx context.Context, productID string, delta int) error {
	filter := bson.M{"_id": productID}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}

	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	// Nothing matched: either the product is missing or the guard blocked
	// the decrement. Look the product up to tell the two apart.
	if _, err := m.GetProduct(ctx, productID); err != nil {
		return err
	}
	return ErrInsufficientStock
}
