package filter

import (
	"fmt"
	"sort"
)

// SQL compiles the where clause into a parameterized fragment. cols
// whitelists the queryable fields and maps them to column names; anything
// outside it is rejected. argOffset is the index of the first placeholder
// minus one, so callers can prepend their own arguments.
func (w Where) SQL(cols map[string]string, argOffset int) (string, []any, error) {
	if len(w) == 0 {
		return "", nil, nil
	}
	fields := make([]string, 0, len(w))
	for f := range w {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var clause string
	var args []any
	for _, f := range fields {
		col, ok := cols[f]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown field %q in where", ErrBad, f)
		}
		conds, err := conditions(w[f])
		if err != nil {
			return "", nil, fmt.Errorf("field %q: %w", f, err)
		}
		for _, c := range conds {
			if clause != "" {
				clause += " AND "
			}
			args = append(args, c.value)
			clause += fmt.Sprintf("%s %s $%d", col, c.op, argOffset+len(args))
		}
	}
	return clause, args, nil
}

// OrderSQL compiles an order clause like "quantity DESC" against the same
// whitelist.
func OrderSQL(order string, cols map[string]string) (string, error) {
	if order == "" {
		return "", nil
	}
	field, dir, err := splitOrder(order)
	if err != nil {
		return "", err
	}
	col, ok := cols[field]
	if !ok {
		return "", fmt.Errorf("%w: unknown field %q in order", ErrBad, field)
	}
	return col + " " + dir, nil
}

// Validate checks every field and operator against the whitelist without
// compiling SQL. The in-memory stores use it so bad input fails the same
// way it does on Postgres.
func (w Where) Validate(cols map[string]string) error {
	for f, v := range w {
		if _, ok := cols[f]; !ok {
			return fmt.Errorf("%w: unknown field %q in where", ErrBad, f)
		}
		if _, err := conditions(v); err != nil {
			return fmt.Errorf("field %q: %w", f, err)
		}
	}
	return nil
}

type condition struct {
	op    string
	value any
}

func conditions(v any) ([]condition, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return []condition{{op: "=", value: v}}, nil
	}
	names := make([]string, 0, len(obj))
	for name := range obj {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]condition, 0, len(obj))
	for _, name := range names {
		op, ok := ops[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrBad, name)
		}
		out = append(out, condition{op: op, value: obj[name]})
	}
	return out, nil
}
