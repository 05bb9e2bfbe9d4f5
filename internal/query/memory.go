package query

import (
	"cmp"
	"sort"
	"strings"
	"time"
)

// SortRows sorts rows in memory by keys, reading each key through value.
// Nil values sort last regardless of direction.
func SortRows[T any](rows []T, keys []SortKey, value func(T, Field) any) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			c := compareValues(value(rows[i], k.Field), value(rows[j], k.Field), k.Direction == Desc)
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
}

// Paginate returns the window [offset, offset+limit) of rows; limit <= 0 means no limit.
func Paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func compareValues(a, b any, desc bool) int {
	a, b = deref(a), deref(b)
	an, bn := a == nil, b == nil
	switch {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	c := compareNonNil(a, b)
	if desc {
		return -c
	}
	return c
}

func compareNonNil(a, b any) int {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return cmp.Compare(af, bf)
		}
	}
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return 0
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// deref unwraps nullable pointers; a nil pointer becomes nil.
func deref(v any) any {
	switch x := v.(type) {
	case *int:
		if x == nil {
			return nil
		}
		return *x
	case *int64:
		if x == nil {
			return nil
		}
		return *x
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}
	return v
}
