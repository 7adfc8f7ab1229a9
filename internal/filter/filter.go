// Package filter implements the query-object convention used by the list,
// count and bulk-update endpoints: a JSON document carried in a query
// parameter, with an optional where clause, field projection, ordering and
// pagination.
package filter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrBad marks a malformed or out-of-whitelist filter; the HTTP layer
// turns it into a 400.
var ErrBad = errors.New("invalid filter")

// Where maps a field name to either a scalar (equality) or an operator
// object like {"gte": 3}. Supported operators: gt, gte, lt, lte, neq.
type Where map[string]any

type Filter struct {
	Where  Where    `json:"where,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Order  string   `json:"order,omitempty"`
	Limit  int      `json:"limit,omitempty"`
	Skip   int      `json:"skip,omitempty"`
}

// Parse decodes a filter object from its raw query-parameter value.
// An empty value yields the zero filter.
func Parse(raw string) (Filter, error) {
	var f Filter
	if raw == "" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Filter{}, fmt.Errorf("%w: %v", ErrBad, err)
	}
	if f.Limit < 0 || f.Skip < 0 {
		return Filter{}, fmt.Errorf("%w: negative limit/skip", ErrBad)
	}
	return f, nil
}

// ParseWhere decodes a bare where clause, as used by count and bulk update.
func ParseWhere(raw string) (Where, error) {
	if raw == "" {
		return nil, nil
	}
	var w Where
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBad, err)
	}
	return w, nil
}

var ops = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
	"neq": "<>",
}

// splitOrder breaks "field ASC" / "field DESC" into its parts.
// A bare field name means ascending.
func splitOrder(order string) (field, dir string, err error) {
	parts := strings.Fields(order)
	switch len(parts) {
	case 1:
		return parts[0], "ASC", nil
	case 2:
		d := strings.ToUpper(parts[1])
		if d != "ASC" && d != "DESC" {
			return "", "", fmt.Errorf("%w: order direction %q", ErrBad, parts[1])
		}
		return parts[0], d, nil
	default:
		return "", "", fmt.Errorf("%w: order %q", ErrBad, order)
	}
}
