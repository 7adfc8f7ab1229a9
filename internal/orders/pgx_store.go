package orders

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"waiterserver/internal/filter"
)

// items is JSONB and not filterable; everything scalar is.
var orderCols = map[string]string{
	"id":         "id",
	"pass":       "pass",
	"totalPrice": "total_price",
	"finished":   "finished",
}

type PGStore struct{ DB *pgxpool.Pool }

func (r *PGStore) Create(ctx context.Context, o NewOrder) (Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, err
	}
	var out Order
	err = r.DB.QueryRow(ctx, `
		INSERT INTO orders(pass, items, total_price)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		o.Pass, items, o.TotalPrice).
		Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	out.Pass = o.Pass
	out.Items = o.Items
	out.TotalPrice = o.TotalPrice
	return out, nil
}

func (r *PGStore) Find(ctx context.Context, f filter.Filter) ([]Order, error) {
	q := `SELECT id, pass, items, total_price, finished, created_at, updated_at FROM orders`
	clause, args, err := f.Where.SQL(orderCols, 0)
	if err != nil {
		return nil, err
	}
	if clause != "" {
		q += ` WHERE ` + clause
	}
	order, err := filter.OrderSQL(f.Order, orderCols)
	if err != nil {
		return nil, err
	}
	if order != "" {
		q += ` ORDER BY ` + order
	} else {
		q += ` ORDER BY id`
	}
	if f.Limit > 0 {
		q += ` LIMIT ` + strconv.Itoa(f.Limit)
	}
	if f.Skip > 0 {
		q += ` OFFSET ` + strconv.Itoa(f.Skip)
	}

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PGStore) FindByID(ctx context.Context, id int64) (Order, error) {
	row := r.DB.QueryRow(ctx, `
		SELECT id, pass, items, total_price, finished, created_at, updated_at
		FROM orders WHERE id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *PGStore) Count(ctx context.Context, w filter.Where) (int64, error) {
	q := `SELECT COUNT(*) FROM orders`
	clause, args, err := w.SQL(orderCols, 0)
	if err != nil {
		return 0, err
	}
	if clause != "" {
		q += ` WHERE ` + clause
	}
	var n int64
	if err := r.DB.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *PGStore) UpdateStatus(ctx context.Context, id int64, finished bool) error {
	ct, err := r.DB.Exec(ctx,
		`UPDATE orders SET finished=$2, updated_at=now() WHERE id=$1`, id, finished)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGStore) DeleteByID(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var items []byte
	if err := row.Scan(&o.ID, &o.Pass, &items, &o.TotalPrice, &o.Finished, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, err
	}
	return o, nil
}
