package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/benbjohnson/clock"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-cart/internal/config"
	"storefront-cart/internal/db"
	"storefront-cart/internal/events"
	"storefront-cart/internal/httpserver"
	discountrepo "storefront-cart/internal/repository/discount"
	"storefront-cart/internal/repository/kv"
	productrepo "storefront-cart/internal/repository/product"
	cartsvc "storefront-cart/internal/service/cart"
	discountsvc "storefront-cart/internal/service/discount"
	"storefront-cart/internal/service/persistence"
	productsvc "storefront-cart/internal/service/product"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	ready := map[string]httpserver.Pinger{"postgres": dbpool}

	store, err := openCartStorage(ctx, cfg, dbpool, ready)
	if err != nil {
		logger.Fatalf("open cart storage: %v", err)
	}

	discounts, closeDiscounts, err := discountrepo.Open(ctx, cfg.DiscountSource, dbpool, cfg.MongoURI, cfg.MongoDatabase, logger)
	if err != nil {
		logger.Fatalf("open discount source: %v", err)
	}
	defer closeDiscounts(context.Background())

	clk := clock.New()
	persist := persistence.New(store, persistence.Options{
		Key:          cfg.CartStorageKey,
		Debounce:     cfg.CartFlushDebounce,
		WriteTimeout: cfg.CartWriteTimeout,
		Clock:        clk,
		Logger:       log.New(os.Stdout, "[persistence] ", log.LstdFlags|log.LUTC),
	})

	cart := cartsvc.New(persist, log.New(os.Stdout, "[cart] ", log.LstdFlags|log.LUTC))

	reconciler := discountsvc.NewReconciler(cart, discounts, clk, log.New(os.Stdout, "[discount] ", log.LstdFlags|log.LUTC))
	unwatch := reconciler.Watch()
	defer unwatch()

	loaded := persist.Load(ctx)
	cart.Hydrate(loaded)
	logger.Printf("cart restored items=%d subtotal=%d", len(loaded.Items), loaded.ItemsSubtotal)

	if err := reconciler.Refresh(ctx); err != nil {
		logger.Printf("initial discount refresh failed: %v", err)
	}
	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		reconciler.Run(ctx, cfg.DiscountRefreshInterval)
	}()

	if cfg.AMQPURL != "" {
		publisher, closePublisher, err := events.Dial(cfg.AMQPURL, cfg.AMQPQueue, log.New(os.Stdout, "[events] ", log.LstdFlags|log.LUTC))
		if err != nil {
			logger.Fatalf("connect amqp: %v", err)
		}
		defer closePublisher()
		unsubscribe := cart.Subscribe(publisher.Enqueue)
		defer unsubscribe()
		workers.Add(1)
		go func() {
			defer workers.Done()
			publisher.Run(ctx)
		}()
	}

	catalog := productsvc.New(productrepo.NewPostgres(dbpool, logger), discounts, clk)

	srv := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		Cart:        cart,
		Catalog:     catalog,
		Discounts:   reconciler,
		Ready:       ready,
		CORSOrigins: cfg.CORSOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
	// no refresh may touch the cart after the final flush
	stop()
	workers.Wait()

	if err := persist.FlushNow(shutdownCtx, cart.Snapshot()); err != nil {
		logger.Printf("final cart flush failed: %v", err)
	}
}

func openCartStorage(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, ready map[string]httpserver.Pinger) (kv.Store, error) {
	switch cfg.CartStorage {
	case "memory", "":
		return kv.NewMemory(), nil
	case "postgres":
		return kv.NewPostgres(pool), nil
	case "redis":
		client, err := db.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		ready["redis"] = httpserver.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		return kv.NewRedis(client, ""), nil
	default:
		return nil, fmt.Errorf("unknown cart storage %q", cfg.CartStorage)
	}
}
