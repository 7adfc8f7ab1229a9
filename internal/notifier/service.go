// Package notifier consumes order lifecycle events and logs deliveries.
// It is an observer only; placement itself is synchronous in the API.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "waiterserver/internal/kafka"
	"waiterserver/internal/orders"
	"waiterserver/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// Dedup by event id; redelivery after a rebalance is normal.
	if s.Redis != nil {
		dkey := fmt.Sprintf(redisx.KeyDedup, "notifier", env.EventID)
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("%s: order %d placed: %d item(s), total %s", s.ServiceName, p.OrderID, len(p.Items), p.TotalPrice)
	case orders.EventOrderRejected:
		p, err := kafkax.UnwrapPayload[orders.OrderRejectedPayload](env.Payload)
		if err != nil {
			return err
		}
		log.Printf("%s: order rejected (%s): %d item(s) short", s.ServiceName, p.Reason, len(p.Shortages))
	default:
		// Unknown event types are skipped, not retried.
	}
	return nil
}
