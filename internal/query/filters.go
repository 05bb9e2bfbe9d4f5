package query

import (
	"fmt"
	"sort"
)

// Filter is a validated equality (one value) or membership (several values) predicate.
type Filter struct {
	Field  Field
	Values []any
}

func (f Filter) Multi() bool { return len(f.Values) > 1 }

// Filters are kept sorted by field so composed SQL is deterministic.
type Filters []Filter

func (fs Filters) Get(field Field) (Filter, bool) {
	for _, f := range fs {
		if f.Field == field {
			return f, true
		}
	}
	return Filter{}, false
}

// PickAndValidateFilters keeps the allowed, present keys of params and
// validates each value against the constraint the mapping resolves for it.
// A nil allowed list means every mapped field may be filtered on.
func PickAndValidateFilters(params Params, m Mapping, allowed []Field) (Filters, error) {
	candidates := allowed
	if candidates == nil {
		candidates = m.Fields()
	}

	var out Filters
	for _, field := range candidates {
		raw := present(params[string(field)])
		if len(raw) == 0 {
			continue
		}
		c, ok := m.Constraint(field)
		if !ok {
			return nil, fmt.Errorf("query: no constraint for field %q", field)
		}
		values := make([]any, 0, len(raw))
		for _, r := range raw {
			v, err := Validate(r, string(field), c)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		out = append(out, Filter{Field: field, Values: values})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out, nil
}

// Presence is an IS NULL / IS NOT NULL predicate on a mapped field.
type Presence struct {
	Field   Field
	Present bool
}

// Spec bundles everything a repository needs to run one list query.
type Spec struct {
	Filters    Filters
	NotFilters Filters
	Presence   []Presence
	Options    ListOptions
}
