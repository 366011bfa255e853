package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/FaizanFazal12/shop-backend/internal/domain"
)

type mongoOrderStore struct {
	collection *mongo.Collection
}

func NewMongoOrderStore(db *mongo.Database) OrderStore {
	return &mongoOrderStore{collection: db.Collection("orders")}
}

func (m *mongoOrderStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now

	_, err := m.collection.InsertOne(ctx, order)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *mongoOrderStore) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	var order domain.Order

	err := m.collection.FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &order, nil
}

func (m *mongoOrderStore) ListUserOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := m.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []domain.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

func (m *mongoOrderStore) SetStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	update := bson.M{
		"$set": bson.M{"status": status, "updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": orderID}, update)
	if err != nil {
		return fmt.Errorf("failed to set order status: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkCancelled is a conditional flip: the filter excludes already-cancelled
// orders, so exactly one caller ever observes the transition. That caller is
// responsible for releasing the order's stock.
func (m *mongoOrderStore) MarkCancelled(ctx context.Context, orderID string) (bool, error) {
	filter := bson.M{
		"_id":    orderID,
		"status": bson.M{"$ne": domain.StatusCancelled},
	}
	update := bson.M{
		"$set": bson.M{"status": domain.StatusCancelled, "updated_at": time.Now()},
	}

	result, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}
	if result.MatchedCount > 0 {
		return true, nil
	}

	// No match: missing order or already cancelled.
	if _, err := m.GetOrder(ctx, orderID); err != nil {
		return false, err
	}
	return false, nil
}
