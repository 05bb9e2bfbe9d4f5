package query

import (
	"net/url"
	"strings"
)

// Params are raw request parameters. A key with several values is a
// membership filter; a key with one value is a scalar.
type Params = url.Values

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortKey struct {
	Field     Field
	Direction Direction
}

type ListOptions struct {
	Limit  int
	Offset int
	Sort   []SortKey
}

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// DefaultListOptions apply when neither the service nor the request sets a value.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  DefaultLimit,
		Offset: 0,
		Sort:   []SortKey{{Field: "updatedAt", Direction: Asc}},
	}
}

var (
	limitConstraint  = Constraint{Kind: KindInt, Rules: "min=1,max=100"}
	offsetConstraint = Constraint{Kind: KindInt, Rules: "min=0"}
)

// ValidateListOptions merges defaults, service defaults and request values, in
// that order. Only limit, offset and sort are read from params, and an absent
// value never overrides a default. Service defaults are trusted; only request
// input is checked against allowedSort.
func ValidateListOptions(params Params, allowedSort []Field, defaults ListOptions) (ListOptions, error) {
	opts := DefaultListOptions()
	if defaults.Limit > 0 {
		opts.Limit = defaults.Limit
	}
	if defaults.Offset > 0 {
		opts.Offset = defaults.Offset
	}
	if len(defaults.Sort) > 0 {
		opts.Sort = defaults.Sort
	}

	if raw, ok := scalar(params, "limit"); ok {
		v, err := Validate(raw, "limit", limitConstraint)
		if err != nil {
			return ListOptions{}, err
		}
		opts.Limit = int(v.(int64))
	}
	if raw, ok := scalar(params, "offset"); ok {
		v, err := Validate(raw, "offset", offsetConstraint)
		if err != nil {
			return ListOptions{}, err
		}
		opts.Offset = int(v.(int64))
	}

	if tokens := present(params["sort"]); len(tokens) > 0 {
		keys, err := parseSort(tokens, allowedSort)
		if err != nil {
			return ListOptions{}, err
		}
		opts.Sort = keys
	}
	return opts, nil
}

func parseSort(tokens []string, allowed []Field) ([]SortKey, error) {
	keys := make([]SortKey, 0, len(tokens))
	for _, tok := range tokens {
		field, dir, _ := strings.Cut(strings.TrimSpace(tok), ":")
		f := Field(field)
		if !containsField(allowed, f) {
			return nil, invalid("sort", "field %q is not sortable", field)
		}
		d := Direction(strings.ToLower(dir))
		switch d {
		case "":
			d = Asc
		case Asc, Desc:
		default:
			return nil, invalid("sort", "direction for %q must be one of: asc, desc", field)
		}
		keys = append(keys, SortKey{Field: f, Direction: d})
	}
	return keys, nil
}

// scalar returns the single present value of key.
func scalar(params Params, key string) (string, bool) {
	vals := present(params[key])
	if len(vals) == 0 {
		return "", false
	}
	return vals[len(vals)-1], true
}

func present(vals []string) []string {
	out := vals[:0:0]
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsField(fields []Field, f Field) bool {
	for _, x := range fields {
		if x == f {
			return true
		}
	}
	return false
}

// NotParams extracts "not.<field>" parameters as a negated filter set.
func NotParams(params Params) Params {
	out := Params{}
	for k, v := range params {
		if f, ok := strings.CutPrefix(k, "not."); ok && f != "" {
			out[f] = v
		}
	}
	return out
}
