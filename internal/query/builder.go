package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Query is a small SELECT composer. Conditions use ? placeholders which are
// rendered as PostgreSQL $n parameters by SQL.
type Query struct {
	columns []string
	from    string
	joins   []string
	where   []clause
	groupBy []string
	orderBy []string

	paginated bool
	noLimit   bool
	limit     int
	offset    int
}

type clause struct {
	sql  string
	args []any
}

func Select(cols ...string) *Query {
	return &Query{columns: append([]string(nil), cols...)}
}

func (q *Query) From(table string) *Query {
	q.from = table
	return q
}

func (q *Query) LeftJoin(table, on string) *Query {
	q.joins = append(q.joins, "LEFT JOIN "+table+" ON "+on)
	return q
}

func (q *Query) Where(cond string, args ...any) *Query {
	q.where = append(q.where, clause{sql: cond, args: args})
	return q
}

func (q *Query) GroupBy(cols ...string) *Query {
	q.groupBy = append(q.groupBy, cols...)
	return q
}

func (q *Query) Clone() *Query {
	c := *q
	c.columns = append([]string(nil), q.columns...)
	c.joins = append([]string(nil), q.joins...)
	c.where = append([]clause(nil), q.where...)
	c.groupBy = append([]string(nil), q.groupBy...)
	c.orderBy = append([]string(nil), q.orderBy...)
	return &c
}

// ApplyFilters ANDs an equality or IN predicate per filter.
func (q *Query) ApplyFilters(fs Filters, m Mapping) error {
	return q.applyFilters(fs, m, "=", "IN")
}

// ApplyNotFilters ANDs a <> or NOT IN predicate per filter.
func (q *Query) ApplyNotFilters(fs Filters, m Mapping) error {
	return q.applyFilters(fs, m, "<>", "NOT IN")
}

func (q *Query) applyFilters(fs Filters, m Mapping, eq, in string) error {
	for _, f := range fs {
		col, ok := m.Column(f.Field)
		if !ok {
			return fmt.Errorf("query: unmapped filter field %q", f.Field)
		}
		if len(f.Values) == 0 {
			continue
		}
		if !f.Multi() {
			q.Where(col.Name()+" "+eq+" ?", f.Values[0])
			continue
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(f.Values)), ", ")
		q.Where(col.Name()+" "+in+" ("+marks+")", f.Values...)
	}
	return nil
}

// ApplyPresence emits IS NOT NULL / IS NULL predicates.
func (q *Query) ApplyPresence(ps []Presence, m Mapping) error {
	for _, p := range ps {
		col, ok := m.Column(p.Field)
		if !ok {
			return fmt.Errorf("query: unmapped presence field %q", p.Field)
		}
		if p.Present {
			q.Where(col.Name() + " IS NOT NULL")
		} else {
			q.Where(col.Name() + " IS NULL")
		}
	}
	return nil
}

// ApplySort appends ORDER BY terms in list order. Rows that tie on every
// key come back in whatever order the store produces.
func (q *Query) ApplySort(keys []SortKey, m Mapping) error {
	for _, k := range keys {
		col, ok := m.Column(k.Field)
		if !ok {
			return fmt.Errorf("query: unmapped sort field %q", k.Field)
		}
		dir := "ASC"
		if k.Direction == Desc {
			dir = "DESC"
		}
		q.orderBy = append(q.orderBy, col.Name()+" "+dir)
	}
	return nil
}

// ApplyPagination sets LIMIT/OFFSET; disableLimit keeps only the offset.
func (q *Query) ApplyPagination(limit, offset int, disableLimit bool) *Query {
	q.paginated = true
	q.noLimit = disableLimit
	q.limit = limit
	q.offset = offset
	return q
}

func (q *Query) SQL() (string, []any) {
	var b strings.Builder
	var args []any
	n := 0

	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.columns, ", "))
	b.WriteString("\nFROM ")
	b.WriteString(q.from)
	for _, j := range q.joins {
		b.WriteString("\n")
		b.WriteString(j)
	}
	if len(q.where) > 0 {
		conds := make([]string, 0, len(q.where))
		for _, c := range q.where {
			var s string
			s, n = rebind(c.sql, n)
			conds = append(conds, s)
			args = append(args, c.args...)
		}
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	if len(q.groupBy) > 0 {
		b.WriteString("\nGROUP BY ")
		b.WriteString(strings.Join(q.groupBy, ", "))
	}
	if len(q.orderBy) > 0 {
		b.WriteString("\nORDER BY ")
		b.WriteString(strings.Join(q.orderBy, ", "))
	}
	if q.paginated {
		if !q.noLimit {
			n++
			b.WriteString("\nLIMIT $" + strconv.Itoa(n))
			args = append(args, q.limit)
		}
		n++
		b.WriteString("\nOFFSET $" + strconv.Itoa(n))
		args = append(args, q.offset)
	}
	return b.String(), args
}

// CountSQL counts the rows the query matches, ignoring sort and pagination.
func (q *Query) CountSQL() (string, []any) {
	c := q.Clone()
	c.orderBy = nil
	c.paginated = false
	inner, args := c.SQL()
	return "SELECT COUNT(*) FROM (" + inner + ") AS count", args
}

func rebind(s string, n int) (string, int) {
	if !strings.Contains(s, "?") {
		return s, n
	}
	var b strings.Builder
	for _, r := range s {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), n
}
