package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/FaizanFazal12/shop-backend/internal/cache"
	"github.com/FaizanFazal12/shop-backend/internal/cart"
	"github.com/FaizanFazal12/shop-backend/internal/config"
	"github.com/FaizanFazal12/shop-backend/internal/consistency"
	"github.com/FaizanFazal12/shop-backend/internal/events"
	"github.com/FaizanFazal12/shop-backend/internal/httpx"
	"github.com/FaizanFazal12/shop-backend/internal/inventory"
	"github.com/FaizanFazal12/shop-backend/internal/order"
	"github.com/FaizanFazal12/shop-backend/internal/repository"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx := context.Background()

	mongoDB, err := repository.ConnectMongoDB(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoDB.Client().Disconnect(ctx)
	logger.Info("connected to MongoDB", zap.String("uri", cfg.Mongo.URI), zap.String("database", cfg.Mongo.Database))

	stockStore := repository.NewMongoStockStore(mongoDB)
	cartStore := repository.NewMongoCartStore(mongoDB)
	orderStore := repository.NewMongoOrderStore(mongoDB)

	if err := repository.EnsureIndexes(ctx, mongoDB); err != nil {
		logger.Fatal("failed to create indexes", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		logger.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}

	ledger := inventory.NewLedger(stockStore)
	retrier := consistency.NewRetrier()
	cartCache := cache.NewRedisCache(redisClient)

	cartService := cart.NewService(cartStore, stockStore, ledger, cartCache, retrier, logger)
	orderService := order.NewService(orderStore, cartService, stockStore, ledger, publisher, logger)

	cartHandler := httpx.NewCartHandler(cartService, cfg.RequestTimeout)
	orderHandler := httpx.NewOrderHandler(orderService, cfg.RequestTimeout)
	router := httpx.NewRouter(cartHandler, orderHandler, cfg.RequestTimeout)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: otelhttp.NewHandler(router, "shop-backend"),
	}

	go func() {
		logger.Info("http server listening", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("stopped")
}
