package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FaizanFazal12/shop-backend/internal/domain"
)

type mongoCartStore struct {
	collection *mongo.Collection
}

func NewMongoCartStore(db *mongo.Database) CartStore {
	return &mongoCartStore{collection: db.Collection("carts")}
}

func (m *mongoCartStore) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart

	err := m.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&cart)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return &cart, nil
}

// SaveCart writes the cart with optimistic concurrency. A cart read at
// version N is written only if the stored document is still at version N;
// the write bumps it to N+1. Version 0 means the cart was never persisted,
// so it is inserted, with the unique user_id index catching a concurrent
// first insert.
func (m *mongoCartStore) SaveCart(ctx context.Context, cart *domain.Cart) error {
	now := time.Now()

	if cart.Version == 0 {
		if cart.ID == "" {
			cart.ID = uuid.NewString()
		}
		cart.CreatedAt = now
		cart.UpdatedAt = now
		cart.Version = 1

		_, err := m.collection.InsertOne(ctx, cart)
		if err != nil {
			cart.Version = 0
			if mongo.IsDuplicateKeyError(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to insert cart: %w", err)
		}
		return nil
	}

	readVersion := cart.Version
	cart.Version = readVersion + 1
	cart.UpdatedAt = now

	filter := bson.M{"user_id": cart.UserID, "version": readVersion}
	result, err := m.collection.ReplaceOne(ctx, filter, cart)
	if err != nil {
		cart.Version = readVersion
		return fmt.Errorf("failed to save cart: %w", err)
	}
	if result.MatchedCount == 0 {
		cart.Version = readVersion
		return ErrConflict
	}
	return nil
}

func (m *mongoCartStore) DeleteCart(ctx context.Context, userID string) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}
	return nil
}

func (m *mongoCartStore) DeleteCartVersioned(ctx context.Context, userID string, version int64) error {
	result, err := m.collection.DeleteOne(ctx, bson.M{"user_id": userID, "version": version})
	if err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	if result.DeletedCount > 0 {
		return nil
	}

	// No match: cart gone or moved past the given version.
	if _, err := m.GetCart(ctx, userID); err != nil {
		return err
	}
	return ErrConflict
}
