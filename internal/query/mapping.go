package query

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Field is a public (API) field name.
type Field string

// Entity describes one backing table and its constraint table.
type Entity struct {
	Name   string
	Table  string
	Schema Schema
}

// Column points a public field at an attribute of an entity.
type Column struct {
	Entity    *Entity
	Attribute string
}

// Name is the physical column, qualified by the entity table.
func (c Column) Name() string {
	return c.Entity.Table + "." + SnakeCase(c.Attribute)
}

// Mapping is the immutable public field -> column table.
type Mapping struct {
	cols map[Field]Column
}

// NewMapping panics if an entry references an attribute its entity does not declare.
func NewMapping(entries map[Field]Column) Mapping {
	cols := make(map[Field]Column, len(entries))
	for f, c := range entries {
		if c.Entity == nil {
			panic(fmt.Sprintf("query: field %q has no entity", f))
		}
		if _, ok := c.Entity.Schema.Lookup(c.Attribute); !ok {
			panic(fmt.Sprintf("query: field %q maps to undeclared attribute %s.%s", f, c.Entity.Name, c.Attribute))
		}
		cols[f] = c
	}
	return Mapping{cols: cols}
}

// SingleEntity maps each field to the attribute of the same name on e.
func SingleEntity(e *Entity, fields ...Field) Mapping {
	entries := make(map[Field]Column, len(fields))
	for _, f := range fields {
		entries[f] = Column{Entity: e, Attribute: string(f)}
	}
	return NewMapping(entries)
}

func (m Mapping) Column(f Field) (Column, bool) {
	c, ok := m.cols[f]
	return c, ok
}

func (m Mapping) Constraint(f Field) (Constraint, bool) {
	c, ok := m.cols[f]
	if !ok {
		return Constraint{}, false
	}
	return c.Entity.Schema.Lookup(c.Attribute)
}

func (m Mapping) Fields() []Field {
	out := make([]Field, 0, len(m.cols))
	for f := range m.cols {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SnakeCase converts camelCase attribute names to snake_case columns.
func SnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sortedKeys(s Schema) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
