package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"waiterserver/internal/config"
	kafkax "waiterserver/internal/kafka"
	"waiterserver/internal/notifier"
	"waiterserver/internal/orders"
	"waiterserver/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-notifier",
	}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "4")

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range []string{orders.TopicOrderCreated, orders.TopicOrderRejected} {
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topic, workers)
		topic := topic
		g.Go(func() error {
			log.Printf("notifier consumer started: group=%s topic=%s workers=%d", group, topic, workers)
			return cons.Start(gctx, svc.HandleEvent)
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("consumer exit: %v", err)
	}
	log.Println("notifier stopped")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}
