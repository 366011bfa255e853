package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/FaizanFazal12/shop-backend/internal/config"
	"github.com/FaizanFazal12/shop-backend/internal/domain"
)

func setupTestDB(t *testing.T) *mongo.Database {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, config.MongoConfig{
		URI:            uri,
		Database:       "testdb",
		MaxPoolSize:    16,
		MinPoolSize:    1,
		ConnectTimeout: 10 * time.Second,
	})
	require.NoError(t, err)

	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func seedProduct(t *testing.T, db *mongo.Database, p domain.Product) {
	t.Helper()
	_, err := db.Collection("products").InsertOne(context.Background(), p)
	require.NoError(t, err)
}

func TestMongoStockStore_AdjustStock(t *testing.T) {
	db := setupTestDB(t)
	store := NewMongoStockStore(db)
	ctx := context.Background()

	seedProduct(t, db, domain.Product{ID: "p1", Name: "Widget", Price: 10, Stock: 5})

	require.NoError(t, store.AdjustStock(ctx, "p1", -3))

	p, err := store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	// Guarded decrement: rejected, not clamped.
	assert.ErrorIs(t, store.AdjustStock(ctx, "p1", -3), ErrInsufficientStock)
	p, err = store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)

	// Release path.
	require.NoError(t, store.AdjustStock(ctx, "p1", 3))
	p, err = store.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	assert.ErrorIs(t, store.AdjustStock(ctx, "missing", -1), ErrProductNotFound)
}

func TestMongoCartStore_SaveCart_CAS(t *testing.T) {
	db := setupTestDB(t)
	store := NewMongoCartStore(db)
	ctx := context.Background()

	c := &domain.Cart{
		UserID: "u1",
		Lines:  []domain.CartLine{{ProductID: "p1", Quantity: 1, LineTotal: 10}},
		Total:  10,
	}
	require.NoError(t, store.SaveCart(ctx, c))
	assert.Equal(t, int64(1), c.Version)

	stale, err := store.GetCart(ctx, "u1")
	require.NoError(t, err)
	fresh, err := store.GetCart(ctx, "u1")
	require.NoError(t, err)

	fresh.Lines[0].Quantity = 2
	require.NoError(t, store.SaveCart(ctx, fresh))

	stale.Lines[0].Quantity = 9
	assert.ErrorIs(t, store.SaveCart(ctx, stale), ErrConflict)

	got, err := store.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Lines[0].Quantity)
}

func TestMongoCartStore_DuplicateInsertConflicts(t *testing.T) {
	db := setupTestDB(t)
	store := NewMongoCartStore(db)
	ctx := context.Background()

	require.NoError(t, store.SaveCart(ctx, &domain.Cart{UserID: "u1"}))

	// A second first-insert for the same user trips the unique index.
	err := store.SaveCart(ctx, &domain.Cart{UserID: "u1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMongoCartStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	store := NewMongoCartStore(db)
	ctx := context.Background()

	require.NoError(t, store.SaveCart(ctx, &domain.Cart{UserID: "u1"}))
	require.NoError(t, store.DeleteCart(ctx, "u1"))

	_, err := store.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.ErrorIs(t, store.DeleteCart(ctx, "u1"), ErrCartNotFound)
}

func TestMongoCartStore_DeleteCartVersioned(t *testing.T) {
	db := setupTestDB(t)
	store := NewMongoCartStore(db)
	ctx := context.Background()

	c := &domain.Cart{UserID: "u1", Lines: []domain.CartLine{{ProductID: "p1", Quantity: 1, LineTotal: 10}}}
	require.NoError(t, store.SaveCart(ctx, c))
	staleVersion := c.Version

	// A write after the caller's read moves the cart past the version the
	// delete was aimed at.
	c.Lines[0].Quantity = 2
	require.NoError(t, store.SaveCart(ctx, c))

	assert.ErrorIs(t, store.DeleteCartVersioned(ctx, "u1", staleVersion), ErrConflict)

	got, err := store.GetCart(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Lines[0].Quantity)

	require.NoError(t, store.DeleteCartVersioned(ctx, "u1", got.Version))
	_, err = store.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, ErrCartNotFound)

	assert.ErrorIs(t, store.DeleteCartVersioned(ctx, "u1", got.Version), ErrCartNotFound)
}

func TestMongoOrderStore_CancelOnce(t *testing.T) {
	db := setupTestDB(t)
	store := NewMongoOrderStore(db)
	ctx := context.Background()

	order := &domain.Order{
		ID:     "o1",
		UserID: "u1",
		Lines:  []domain.OrderLine{{ProductID: "p1", Name: "Widget", Quantity: 2, UnitPrice: 10}},
		Total:  20,
		Status: domain.StatusPending,
	}
	require.NoError(t, store.InsertOrder(ctx, order))

	flipped, err := store.MarkCancelled(ctx, "o1")
	require.NoError(t, err)
	assert.True(t, flipped)

	flipped, err = store.MarkCancelled(ctx, "o1")
	require.NoError(t, err)
	assert.False(t, flipped)

	got, err := store.GetOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, got.Status)

	_, err = store.MarkCancelled(ctx, "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMongoOrderStore_ListUserOrders(t *testing.T) {
	db := setupTestDB(t)
	store := NewMongoOrderStore(db)
	ctx := context.Background()

	require.NoError(t, store.InsertOrder(ctx, &domain.Order{ID: "o1", UserID: "u1", Status: domain.StatusPending}))
	require.NoError(t, store.InsertOrder(ctx, &domain.Order{ID: "o2", UserID: "u1", Status: domain.StatusPending}))
	require.NoError(t, store.InsertOrder(ctx, &domain.Order{ID: "o3", UserID: "u2", Status: domain.StatusPending}))

	orders, err := store.ListUserOrders(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, orders, 2)
}
