package stock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"waiterserver/internal/filter"
)

// MemStore is the in-memory Store used by tests. One mutex guards the whole
// map, so ReserveAll is trivially atomic.
type MemStore struct {
	mu     sync.Mutex
	items  map[int64]Stock
	nextID int64
}

func NewMemStore() *MemStore {
	return &MemStore{items: make(map[int64]Stock), nextID: 1}
}

func (m *MemStore) Create(_ context.Context, s NewStock) (Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Stock{ID: m.nextID, Name: s.Name, Description: s.Description, Quantity: s.Quantity}
	m.items[st.ID] = st
	m.nextID++
	return st, nil
}

func (m *MemStore) Find(_ context.Context, f filter.Filter) ([]Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := f.Where.Validate(stockCols); err != nil {
		return nil, err
	}
	out := []Stock{}
	for _, s := range m.items {
		if f.Where.Match(stockField(s)) {
			out = append(out, s)
		}
	}

	field, desc, err := filter.SortKey(f.Order)
	if err != nil {
		return nil, err
	}
	if field == "" {
		field = "id"
	} else if _, ok := stockCols[field]; !ok {
		return nil, fmt.Errorf("%w: unknown field %q in order", filter.ErrBad, field)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := stockField(out[i])(field)
		b, _ := stockField(out[j])(field)
		if desc {
			return filter.Less(b, a)
		}
		return filter.Less(a, b)
	})

	return paginate(out, f.Skip, f.Limit), nil
}

func (m *MemStore) FindByID(_ context.Context, id int64) (Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return Stock{}, ErrNotFound
	}
	return s, nil
}

func (m *MemStore) Count(_ context.Context, w filter.Where) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := w.Validate(stockCols); err != nil {
		return 0, err
	}
	var n int64
	for _, s := range m.items {
		if w.Match(stockField(s)) {
			n++
		}
	}
	return n, nil
}

func (m *MemStore) UpdateAll(_ context.Context, p Patch, w filter.Where) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := w.Validate(stockCols); err != nil {
		return 0, err
	}
	var n int64
	for id, s := range m.items {
		if !w.Match(stockField(s)) {
			continue
		}
		m.items[id] = applyPatch(s, p)
		n++
	}
	return n, nil
}

func (m *MemStore) UpdateByID(_ context.Context, id int64, p Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	m.items[id] = applyPatch(s, p)
	return nil
}

func (m *MemStore) ReplaceByID(_ context.Context, id int64, s NewStock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	m.items[id] = Stock{ID: id, Name: s.Name, Description: s.Description, Quantity: s.Quantity}
	return nil
}

func (m *MemStore) DeleteByID(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *MemStore) ReserveAll(_ context.Context, items []ItemQty) ([]Shortage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check against remaining quantities, not the stored ones, so an
	// order listing the same id twice cannot pass both checks against
	// the same unmodified value and drive the quantity negative.
	remaining := make(map[int64]int, len(items))
	var shortages []Shortage
	for _, it := range items {
		rem, seen := remaining[it.ID]
		if !seen {
			s, ok := m.items[it.ID]
			if !ok {
				return nil, fmt.Errorf("item %d: %w", it.ID, ErrNotFound)
			}
			rem = s.Quantity
		}
		if rem < it.Quantity {
			shortages = append(shortages, Shortage{ID: it.ID, Requested: it.Quantity, Available: rem})
			remaining[it.ID] = rem
			continue
		}
		remaining[it.ID] = rem - it.Quantity
	}
	if len(shortages) > 0 {
		return shortages, ErrInsufficientStock
	}
	for id, rem := range remaining {
		s := m.items[id]
		s.Quantity = rem
		m.items[id] = s
	}
	return nil, nil
}

func (m *MemStore) Release(_ context.Context, items []ItemQty) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if s, ok := m.items[it.ID]; ok {
			s.Quantity += it.Quantity
			m.items[it.ID] = s
		}
	}
	return nil
}

func applyPatch(s Stock, p Patch) Stock {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Quantity != nil {
		s.Quantity = *p.Quantity
	}
	return s
}

func stockField(s Stock) func(string) (any, bool) {
	return func(field string) (any, bool) {
		switch field {
		case "id":
			return s.ID, true
		case "name":
			return s.Name, true
		case "description":
			return s.Description, true
		case "quantity":
			return s.Quantity, true
		}
		return nil, false
	}
}

func paginate[T any](in []T, skip, limit int) []T {
	if skip >= len(in) {
		return []T{}
	}
	in = in[skip:]
	if limit > 0 && limit < len(in) {
		in = in[:limit]
	}
	return in
}
