package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"waiterserver/internal/filter"
)

type MemStore struct {
	mu     sync.Mutex
	orders map[int64]Order
	nextID int64
}

func NewMemStore() *MemStore {
	return &MemStore{orders: make(map[int64]Order), nextID: 1}
}

func (m *MemStore) Create(_ context.Context, o NewOrder) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	out := Order{
		ID:         m.nextID,
		Pass:       o.Pass,
		Items:      append([]Item(nil), o.Items...),
		TotalPrice: o.TotalPrice,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.orders[out.ID] = out
	m.nextID++
	return out, nil
}

func (m *MemStore) Find(_ context.Context, f filter.Filter) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := f.Where.Validate(orderCols); err != nil {
		return nil, err
	}
	out := []Order{}
	for _, o := range m.orders {
		if f.Where.Match(orderField(o)) {
			out = append(out, o)
		}
	}

	field, desc, err := filter.SortKey(f.Order)
	if err != nil {
		return nil, err
	}
	if field == "" {
		field = "id"
	} else if _, ok := orderCols[field]; !ok {
		return nil, fmt.Errorf("%w: unknown field %q in order", filter.ErrBad, field)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := orderField(out[i])(field)
		b, _ := orderField(out[j])(field)
		if desc {
			return filter.Less(b, a)
		}
		return filter.Less(a, b)
	})

	if f.Skip >= len(out) {
		return []Order{}, nil
	}
	out = out[f.Skip:]
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemStore) FindByID(_ context.Context, id int64) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *MemStore) Count(_ context.Context, w filter.Where) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := w.Validate(orderCols); err != nil {
		return 0, err
	}
	var n int64
	for _, o := range m.orders {
		if w.Match(orderField(o)) {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) UpdateStatus(_ context.Context, id int64, finished bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Finished = finished
	o.UpdatedAt = time.Now().UTC()
	m.orders[id] = o
	return nil
}

func (m *MemStore) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func orderField(o Order) func(string) (any, bool) {
	return func(field string) (any, bool) {
		switch field {
		case "id":
			return o.ID, true
		case "pass":
			return o.Pass, true
		case "totalPrice":
			return o.TotalPrice, true
		case "finished":
			return o.Finished, true
		}
		return nil, false
	}
}
