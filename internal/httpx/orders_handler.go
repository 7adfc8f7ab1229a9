package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"waiterserver/internal/filter"
	kafkax "waiterserver/internal/kafka"
	"waiterserver/internal/metrics"
	"waiterserver/internal/orders"
	"waiterserver/internal/redisx"
	"waiterserver/internal/stock"
)

type OrdersHandler struct {
	Placement      *orders.Placement
	Store          orders.Store
	Cache          *redis.Client    // optional
	ProducerOK     *kafkax.Producer // optional, topic order.created
	ProducerReject *kafkax.Producer // optional, topic order.rejected
	Service        string
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Post("/orders", h.create)
	r.Get("/orders/count", h.count)
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Patch("/orders/update-status/{id}", h.updateStatus)
	r.Delete("/orders/{id}", h.del)
}

// create places the order synchronously: the response carries the real
// outcome of the reservation and the insert, never an early 200.
func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req orders.NewOrder
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Pass == "" || req.TotalPrice == "" || len(req.Items) == 0 {
		writeErr(w, http.StatusBadRequest, "missing fields")
		return
	}
	for _, it := range req.Items {
		if it.ID <= 0 || it.Quantity <= 0 {
			writeErr(w, http.StatusBadRequest, "items need a positive id and quantity")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, shortages, err := h.Placement.Place(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, stock.ErrInsufficientStock):
		metrics.OrdersRejected.Inc()
		h.publish(h.ProducerReject, nil, orders.EventOrderRejected, orders.OrderRejectedPayload{
			Reason:    "OUT_OF_STOCK",
			Items:     req.Items,
			Shortages: shortages,
		}, r.Header.Get("X-Request-Id"))
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "insufficient stock",
			"details": shortages,
		})
		return
	case errors.Is(err, stock.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, orders.ErrPersistence):
		writeErr(w, http.StatusInternalServerError, "persistence failure")
		return
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.OrdersPlaced.Inc()
	h.cacheSet(ctx, created)
	h.publish(h.ProducerOK, orders.PartitionKey(created.ID), orders.EventOrderCreated, orders.OrderCreatedPayload{
		OrderID:    created.ID,
		TotalPrice: created.TotalPrice,
		Items:      created.Items,
	}, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, created)
}

func (h *OrdersHandler) count(w http.ResponseWriter, r *http.Request) {
	where, err := filter.ParseWhere(r.URL.Query().Get("where"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	n, err := h.Store.Count(ctx, where)
	if err != nil {
		h.storeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": n})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	f, err := filter.Parse(r.URL.Query().Get("filter"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Store.Find(ctx, f)
	if err != nil {
		h.storeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project(list, f.Fields))
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	f, err := filter.Parse(r.URL.Query().Get("filter"))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	// The by-id filter only carries a field projection; where is excluded.
	if len(f.Where) > 0 {
		writeErr(w, http.StatusBadRequest, "where is not supported on a by-id lookup")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// Cache only serves the unprojected shape.
	if h.Cache != nil && len(f.Fields) == 0 {
		key := fmt.Sprintf(redisx.KeyOrder, id)
		if s, err := h.Cache.Get(ctx, key).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	o, err := h.Store.FindByID(ctx, id)
	if err != nil {
		h.storeErr(w, err)
		return
	}
	h.cacheSet(ctx, o)
	writeJSON(w, http.StatusOK, project(o, f.Fields))
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req struct {
		Finished *bool `json:"finished"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Finished == nil {
		writeErr(w, http.StatusBadRequest, "body must carry finished")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.UpdateStatus(ctx, id, *req.Finished); err != nil {
		h.storeErr(w, err)
		return
	}
	h.cacheDel(ctx, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) del(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErr(w, http.StatusBadRequest, "invalid id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Store.DeleteByID(ctx, id); err != nil {
		h.storeErr(w, err)
		return
	}
	h.cacheDel(ctx, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) storeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, orders.ErrNotFound):
		writeErr(w, http.StatusNotFound, "order not found")
	case filterErr(err):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *OrdersHandler) cacheSet(ctx context.Context, o orders.Order) {
	if h.Cache == nil {
		return
	}
	b, err := json.Marshal(o)
	if err != nil {
		return
	}
	_ = h.Cache.Set(ctx, fmt.Sprintf(redisx.KeyOrder, o.ID), b, redisx.TTLOrderCache).Err()
}

func (h *OrdersHandler) cacheDel(ctx context.Context, id int64) {
	if h.Cache == nil {
		return
	}
	_ = h.Cache.Del(ctx, fmt.Sprintf(redisx.KeyOrder, id)).Err()
}

func (h *OrdersHandler) publish(p *kafkax.Producer, key []byte, eventType string, payload any, trace string) {
	if p == nil {
		return
	}
	ev := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     h.Service,
		TraceID:      trace,
		Payload:      kafkax.MustMarshal(payload),
	}
	if key != nil {
		ev.CorrelationID = string(key)
	}
	p.Publish(key, kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
