package stock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waiterserver/internal/filter"
)

func seed(t *testing.T, m *MemStore, quantities ...int) []Stock {
	t.Helper()
	out := make([]Stock, 0, len(quantities))
	for _, q := range quantities {
		s, err := m.Create(context.Background(), NewStock{Name: "item", Quantity: q})
		require.NoError(t, err)
		out = append(out, s)
	}
	return out
}

func TestMemStore_CRUD(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	created, err := m.Create(ctx, NewStock{Name: "milk", Description: "1l", Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)

	got, err := m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	// find-by-id is idempotent without intervening writes
	again, err := m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	name := "oat milk"
	require.NoError(t, m.UpdateByID(ctx, created.ID, Patch{Name: &name}))
	got, err = m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "oat milk", got.Name)
	assert.Equal(t, 10, got.Quantity)

	require.NoError(t, m.ReplaceByID(ctx, created.ID, NewStock{Name: "bread", Quantity: 3}))
	got, err = m.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "bread", got.Name)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, 3, got.Quantity)

	require.NoError(t, m.DeleteByID(ctx, created.ID))
	_, err = m.FindByID(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteByID(ctx, created.ID), ErrNotFound)
	assert.ErrorIs(t, m.UpdateByID(ctx, created.ID, Patch{Name: &name}), ErrNotFound)
	assert.ErrorIs(t, m.ReplaceByID(ctx, created.ID, NewStock{}), ErrNotFound)
}

func TestMemStore_FindAndCount(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	seed(t, m, 2, 5, 9)

	all, err := m.Find(ctx, filter.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1), all[0].ID)

	big, err := m.Find(ctx, filter.Filter{
		Where: filter.Where{"quantity": map[string]any{"gte": float64(5)}},
		Order: "quantity DESC",
	})
	require.NoError(t, err)
	require.Len(t, big, 2)
	assert.Equal(t, 9, big[0].Quantity)
	assert.Equal(t, 5, big[1].Quantity)

	page, err := m.Find(ctx, filter.Filter{Order: "quantity", Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 5, page[0].Quantity)

	n, err := m.Count(ctx, filter.Where{"quantity": map[string]any{"lt": float64(9)}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemStore_UpdateAll(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	seed(t, m, 0, 0, 7)

	q := 1
	n, err := m.UpdateAll(ctx, Patch{Quantity: &q}, filter.Where{"quantity": float64(0)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := m.Count(ctx, filter.Where{"quantity": float64(0)})
	require.NoError(t, err)
	assert.Zero(t, left)
}

func TestReserveAll_Success(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	items := seed(t, m, 10, 4)

	shortages, err := m.ReserveAll(ctx, []ItemQty{
		{ID: items[0].ID, Quantity: 4},
		{ID: items[1].ID, Quantity: 4},
	})
	require.NoError(t, err)
	assert.Empty(t, shortages)

	a, _ := m.FindByID(ctx, items[0].ID)
	b, _ := m.FindByID(ctx, items[1].ID)
	assert.Equal(t, 6, a.Quantity)
	assert.Equal(t, 0, b.Quantity)
}

func TestReserveAll_Shortage_NothingChanges(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	items := seed(t, m, 10, 2)

	shortages, err := m.ReserveAll(ctx, []ItemQty{
		{ID: items[0].ID, Quantity: 4},
		{ID: items[1].ID, Quantity: 5},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.Len(t, shortages, 1)
	assert.Equal(t, Shortage{ID: items[1].ID, Requested: 5, Available: 2}, shortages[0])

	// all-or-nothing: the valid first item is untouched
	a, _ := m.FindByID(ctx, items[0].ID)
	b, _ := m.FindByID(ctx, items[1].ID)
	assert.Equal(t, 10, a.Quantity)
	assert.Equal(t, 2, b.Quantity)
}

func TestReserveAll_UnknownItem(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	items := seed(t, m, 10)

	_, err := m.ReserveAll(ctx, []ItemQty{
		{ID: items[0].ID, Quantity: 1},
		{ID: 999, Quantity: 1},
	})
	assert.ErrorIs(t, err, ErrNotFound)

	a, _ := m.FindByID(ctx, items[0].ID)
	assert.Equal(t, 10, a.Quantity)
}

func TestReserveAll_DuplicateItemIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	items := seed(t, m, 10)

	// two lines of the same id must be checked against the remainder,
	// not each against the stored quantity
	shortages, err := m.ReserveAll(ctx, []ItemQty{
		{ID: items[0].ID, Quantity: 6},
		{ID: items[0].ID, Quantity: 6},
	})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	require.Len(t, shortages, 1)
	assert.Equal(t, Shortage{ID: items[0].ID, Requested: 6, Available: 4}, shortages[0])

	got, err := m.FindByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
	assert.GreaterOrEqual(t, got.Quantity, 0)

	// duplicate lines that fit together still reserve as one batch
	shortages, err = m.ReserveAll(ctx, []ItemQty{
		{ID: items[0].ID, Quantity: 6},
		{ID: items[0].ID, Quantity: 4},
	})
	require.NoError(t, err)
	assert.Empty(t, shortages)
	got, err = m.FindByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	items := seed(t, m, 10)

	_, err := m.ReserveAll(ctx, []ItemQty{{ID: items[0].ID, Quantity: 7}})
	require.NoError(t, err)
	require.NoError(t, m.Release(ctx, []ItemQty{{ID: items[0].ID, Quantity: 7}}))

	a, _ := m.FindByID(ctx, items[0].ID)
	assert.Equal(t, 10, a.Quantity)
}

// N concurrent reservations of q each against quantity Q must succeed at
// most floor(Q/q) times and the quantity can never go negative.
func TestReserveAll_Concurrent_NeverOversells(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	items := seed(t, m, 10)
	const (
		goroutines = 16
		perOrder   = 3
	)

	var wg sync.WaitGroup
	results := make(chan error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.ReserveAll(ctx, []ItemQty{{ID: items[0].ID, Quantity: perOrder}})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientStock)
		}
	}
	assert.Equal(t, 10/perOrder, successes)

	got, err := m.FindByID(ctx, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 10-successes*perOrder, got.Quantity)
	assert.GreaterOrEqual(t, got.Quantity, 0)
}
