package stock

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"waiterserver/internal/filter"
)

var stockCols = map[string]string{
	"id":          "id",
	"name":        "name",
	"description": "description",
	"quantity":    "quantity",
}

type PGStore struct{ DB *pgxpool.Pool }

func (r *PGStore) Create(ctx context.Context, s NewStock) (Stock, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO stock(name, description, quantity)
		VALUES ($1, $2, $3) RETURNING id`,
		s.Name, s.Description, s.Quantity).Scan(&id)
	if err != nil {
		return Stock{}, err
	}
	return Stock{ID: id, Name: s.Name, Description: s.Description, Quantity: s.Quantity}, nil
}

func (r *PGStore) Find(ctx context.Context, f filter.Filter) ([]Stock, error) {
	q := `SELECT id, name, description, quantity FROM stock`
	clause, args, err := f.Where.SQL(stockCols, 0)
	if err != nil {
		return nil, err
	}
	if clause != "" {
		q += ` WHERE ` + clause
	}
	order, err := filter.OrderSQL(f.Order, stockCols)
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

	out := []Stock{}
	for rows.Next() {
		var s Stock
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Quantity); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGStore) FindByID(ctx context.Context, id int64) (Stock, error) {
	var s Stock
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, description, quantity FROM stock WHERE id=$1`, id).
		Scan(&s.ID, &s.Name, &s.Description, &s.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stock{}, ErrNotFound
	}
	if err != nil {
		return Stock{}, err
	}
	return s, nil
}

func (r *PGStore) Count(ctx context.Context, w filter.Where) (int64, error) {
	q := `SELECT COUNT(*) FROM stock`
	clause, args, err := w.SQL(stockCols, 0)
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

func (r *PGStore) UpdateAll(ctx context.Context, p Patch, w filter.Where) (int64, error) {
	set, args := patchSet(p)
	if set == "" {
		return 0, nil
	}
	q := `UPDATE stock SET ` + set
	clause, whereArgs, err := w.SQL(stockCols, len(args))
	if err != nil {
		return 0, err
	}
	if clause != "" {
		q += ` WHERE ` + clause
		args = append(args, whereArgs...)
	}
	ct, err := r.DB.Exec(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PGStore) UpdateByID(ctx context.Context, id int64, p Patch) error {
	set, args := patchSet(p)
	if set == "" {
		// Nothing to change, but the row must exist.
		_, err := r.FindByID(ctx, id)
		return err
	}
	args = append(args, id)
	ct, err := r.DB.Exec(ctx,
		fmt.Sprintf(`UPDATE stock SET %s WHERE id=$%d`, set, len(args)), args...)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGStore) ReplaceByID(ctx context.Context, id int64, s NewStock) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE stock SET name=$2, description=$3, quantity=$4 WHERE id=$1`,
		id, s.Name, s.Description, s.Quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGStore) DeleteByID(ctx context.Context, id int64) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM stock WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ReserveAll locks each item row (FOR UPDATE), then applies a conditional
// decrement. Any shortage rolls the whole transaction back, so either every
// decrement lands or none does.
func (r *PGStore) ReserveAll(ctx context.Context, items []ItemQty) ([]Shortage, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var shortages []Shortage
	for _, it := range items {
		var available int
		err := tx.QueryRow(ctx, `SELECT quantity FROM stock WHERE id=$1 FOR UPDATE`, it.ID).Scan(&available)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("item %d: %w", it.ID, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		if available < it.Quantity {
			shortages = append(shortages, Shortage{ID: it.ID, Requested: it.Quantity, Available: available})
			continue
		}

		ct, err := tx.Exec(ctx,
			`UPDATE stock SET quantity = quantity - $2 WHERE id=$1 AND quantity >= $2`,
			it.ID, it.Quantity)
		if err != nil {
			return nil, err
		}
		if ct.RowsAffected() != 1 {
			shortages = append(shortages, Shortage{ID: it.ID, Requested: it.Quantity, Available: available})
		}
	}

	if len(shortages) > 0 {
		return shortages, ErrInsufficientStock // rollback via defer
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return nil, nil
}

func (r *PGStore) Release(ctx context.Context, items []ItemQty) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, it := range items {
		if _, err := tx.Exec(ctx,
			`UPDATE stock SET quantity = quantity + $2 WHERE id=$1`, it.ID, it.Quantity); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func patchSet(p Patch) (string, []any) {
	var set string
	var args []any
	add := func(col string, v any) {
		if set != "" {
			set += ", "
		}
		args = append(args, v)
		set += fmt.Sprintf("%s=$%d", col, len(args))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Description != nil {
		add("description", *p.Description)
	}
	if p.Quantity != nil {
		add("quantity", *p.Quantity)
	}
	return set, args
}
