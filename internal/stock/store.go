package stock

import (
	"context"
	"errors"

	"waiterserver/internal/filter"
)

var (
	ErrNotFound          = errors.New("stock item not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Store is the capability the rest of the service programs against; the
// Postgres implementation backs production, the in-memory one backs tests.
type Store interface {
	Create(ctx context.Context, s NewStock) (Stock, error)
	Find(ctx context.Context, f filter.Filter) ([]Stock, error)
	FindByID(ctx context.Context, id int64) (Stock, error)
	Count(ctx context.Context, w filter.Where) (int64, error)
	UpdateAll(ctx context.Context, p Patch, w filter.Where) (int64, error)
	UpdateByID(ctx context.Context, id int64, p Patch) error
	ReplaceByID(ctx context.Context, id int64, s NewStock) error
	DeleteByID(ctx context.Context, id int64) error

	// ReserveAll decrements every listed item by its requested quantity,
	// all or nothing. The check and the decrement are a single atomic step
	// per item, so concurrent reservations can never drive a quantity
	// negative. On shortage it returns ErrInsufficientStock together with
	// one Shortage per failing item; no quantities change.
	ReserveAll(ctx context.Context, items []ItemQty) ([]Shortage, error)

	// Release undoes previously applied decrements. Used as compensation
	// when persisting the order fails after a successful reservation.
	Release(ctx context.Context, items []ItemQty) error
}
