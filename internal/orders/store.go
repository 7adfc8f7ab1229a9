package orders

import (
	"context"
	"errors"

	"waiterserver/internal/filter"
)

var (
	ErrNotFound    = errors.New("order not found")
	ErrPersistence = errors.New("order persistence failed")
)

type Store interface {
	Create(ctx context.Context, o NewOrder) (Order, error)
	Find(ctx context.Context, f filter.Filter) ([]Order, error)
	FindByID(ctx context.Context, id int64) (Order, error)
	Count(ctx context.Context, w filter.Where) (int64, error)
	UpdateStatus(ctx context.Context, id int64, finished bool) error
	DeleteByID(ctx context.Context, id int64) error
}
