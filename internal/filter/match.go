package filter

import "fmt"

// Match evaluates the where clause against a single record. get resolves a
// field name to its value; unknown fields never match. Used by the
// in-memory stores, mirroring what SQL does for the Postgres ones.
func (w Where) Match(get func(field string) (any, bool)) bool {
	for f, v := range w {
		val, ok := get(f)
		if !ok {
			return false
		}
		obj, isObj := v.(map[string]any)
		if !isObj {
			if !eq(val, v) {
				return false
			}
			continue
		}
		for name, operand := range obj {
			if !compare(name, val, operand) {
				return false
			}
		}
	}
	return true
}

func compare(op string, val, operand any) bool {
	switch op {
	case "neq":
		return !eq(val, operand)
	case "gt", "gte", "lt", "lte":
		a, aok := toFloat(val)
		b, bok := toFloat(operand)
		if !aok || !bok {
			as, asok := val.(string)
			bs, bsok := operand.(string)
			if !asok || !bsok {
				return false
			}
			return strCompare(op, as, bs)
		}
		return numCompare(op, a, b)
	default:
		return false
	}
}

func numCompare(op string, a, b float64) bool {
	switch op {
	case "gt":
		return a > b
	case "gte":
		return a >= b
	case "lt":
		return a < b
	case "lte":
		return a <= b
	}
	return false
}

func strCompare(op string, a, b string) bool {
	switch op {
	case "gt":
		return a > b
	case "gte":
		return a >= b
	case "lt":
		return a < b
	case "lte":
		return a <= b
	}
	return false
}

func eq(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Less orders two record values for the in-memory sort. Mixed or
// non-comparable types keep their original order.
func Less(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af < bf
		}
		return false
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return as < bs
	}
	return false
}

// SortKey extracts the field and direction from an order clause for the
// in-memory stores. An empty clause yields an empty field.
func SortKey(order string) (field string, desc bool, err error) {
	if order == "" {
		return "", false, nil
	}
	f, dir, err := splitOrder(order)
	if err != nil {
		return "", false, err
	}
	return f, dir == "DESC", nil
}
