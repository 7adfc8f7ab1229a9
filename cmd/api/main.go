package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"waiterserver/internal/config"
	"waiterserver/internal/httpx"
	kafkax "waiterserver/internal/kafka"
	"waiterserver/internal/orders"
	"waiterserver/internal/postgres"
	"waiterserver/internal/redisx"
	"waiterserver/internal/stock"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per lifecycle topic. They run on their own
	// context so handlers can still publish while the server drains.
	prodCtx, prodCancel := context.WithCancel(context.Background())
	pOK := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pOK.Start(prodCtx)
	pRJ := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderRejected, 1024)
	pRJ.Start(prodCtx)

	// Stores & placement
	stockStore := &stock.PGStore{DB: db}
	orderStore := &orders.PGStore{DB: db}
	placement := &orders.Placement{Orders: orderStore, Stock: stockStore}

	router := httpx.NewRouter()
	sh := &httpx.StockHandler{Store: stockStore}
	sh.Register(router)
	oh := &httpx.OrdersHandler{
		Placement:      placement,
		Store:          orderStore,
		Cache:          rdb,
		ProducerOK:     pOK,
		ProducerReject: pRJ,
		Service:        cfg.ServiceName,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("shutting down...")
	prodCancel()     // stop producer loops
	pOK.WaitClosed() // drain
	pRJ.WaitClosed()
}
