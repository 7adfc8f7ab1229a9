package redisx

import "time"

const (
	// Read-through cache for GET /orders/{id}: order:{id} -> order JSON.
	// Invalidated on status update and delete.
	KeyOrder = "order:%d"

	// Dedup for event consumers: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLOrderCache = 5 * time.Minute
	TTLDedup      = 48 * time.Hour
)
