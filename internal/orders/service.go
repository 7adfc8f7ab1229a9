package orders

import (
	"context"
	"fmt"

	"waiterserver/internal/stock"
)

// Placement runs the place-order flow: reserve stock, then persist the
// order. The caller gets the real outcome; nothing is fired and forgotten.
type Placement struct {
	Orders Store
	Stock  stock.Store
}

// Place reserves every item of the order and persists it. The reservation
// is all-or-nothing; if the order insert fails afterwards the decrements
// are released again. On shortage the returned slice names each failing
// item and the error wraps stock.ErrInsufficientStock.
func (p *Placement) Place(ctx context.Context, o NewOrder) (Order, []stock.Shortage, error) {
	items := make([]stock.ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, stock.ItemQty{ID: it.ID, Quantity: it.Quantity})
	}

	shortages, err := p.Stock.ReserveAll(ctx, items)
	if err != nil {
		return Order{}, shortages, err
	}

	created, err := p.Orders.Create(ctx, o)
	if err != nil {
		// Give the reserved quantities back, otherwise they leak.
		if relErr := p.Stock.Release(ctx, items); relErr != nil {
			return Order{}, nil, fmt.Errorf("%w: %v (release failed: %v)", ErrPersistence, err, relErr)
		}
		return Order{}, nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return created, nil, nil
}
