package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testEvents = &Entity{Name: "event", Table: "events", Schema: Schema{
		"name":       {Kind: KindString, Rules: "min=1,max=100"},
		"categoryId": BigInteger(),
		"creatorId":  StringID(),
		"address":    {Kind: KindString, Rules: "max=500"},
	}}
	testUserEvents = &Entity{Name: "userEvent", Table: "user_events", Schema: Schema{
		"userId":   StringID(),
		"eventId":  BigInteger(),
		"distance": {Kind: KindInt, Rules: "min=0"},
	}}
	testMapping = SingleEntity(testEvents, "id", "name", "categoryId", "creatorId", "address", "updatedAt")
	joinMapping = NewMapping(map[Field]Column{
		"id":         {Entity: testUserEvents, Attribute: "id"},
		"userId":     {Entity: testUserEvents, Attribute: "userId"},
		"distance":   {Entity: testUserEvents, Attribute: "distance"},
		"categoryId": {Entity: testEvents, Attribute: "categoryId"},
	})
)

func TestQuery_FiltersSortPagination(t *testing.T) {
	fs, err := PickAndValidateFilters(url.Values{
		"categoryId": {"3", "4"},
		"creatorId":  {"u1"},
	}, testMapping, nil)
	require.NoError(t, err)

	q := Select("events.id", "events.name").From("events")
	require.NoError(t, q.ApplyFilters(fs, testMapping))
	countSQL, countArgs := q.CountSQL()

	require.NoError(t, q.ApplySort([]SortKey{{Field: "categoryId", Direction: Desc}, {Field: "id"}}, testMapping))
	q.ApplyPagination(10, 20, false)
	sql, args := q.SQL()

	assert.Equal(t, "SELECT events.id, events.name\nFROM events\n"+
		"WHERE events.category_id IN ($1, $2) AND events.creator_id = $3\n"+
		"ORDER BY events.category_id DESC, events.id ASC\n"+
		"LIMIT $4\nOFFSET $5", sql)
	assert.Equal(t, []any{int64(3), int64(4), "u1", 10, 20}, args)

	assert.Equal(t, "SELECT COUNT(*) FROM (SELECT events.id, events.name\nFROM events\n"+
		"WHERE events.category_id IN ($1, $2) AND events.creator_id = $3) AS count", countSQL)
	assert.Equal(t, []any{int64(3), int64(4), "u1"}, countArgs)
}

// Only the requested keys are emitted. Rows equal on all of them come back in
// store order, so callers wanting a stable page append a unique key like id.
func TestQuery_SortHasNoImplicitTiebreak(t *testing.T) {
	q := Select("events.id").From("events")
	require.NoError(t, q.ApplySort([]SortKey{{Field: "categoryId", Direction: Desc}}, testMapping))
	sql, _ := q.SQL()
	assert.Equal(t, "SELECT events.id\nFROM events\nORDER BY events.category_id DESC", sql)
}

func TestQuery_CountIgnoresLaterPagination(t *testing.T) {
	q := Select("events.id").From("events").Where("events.category_id = ?", int64(1))
	q.ApplyPagination(1, 0, false)
	countSQL, args := q.CountSQL()
	assert.NotContains(t, countSQL, "LIMIT")
	assert.NotContains(t, countSQL, "OFFSET")
	assert.Equal(t, []any{int64(1)}, args)
}

func TestQuery_DisableLimit(t *testing.T) {
	q := Select("events.id").From("events").ApplyPagination(10, 5, true)
	sql, args := q.SQL()
	assert.NotContains(t, sql, "LIMIT")
	assert.Contains(t, sql, "OFFSET $1")
	assert.Equal(t, []any{5}, args)
}

func TestQuery_NotFiltersAndPresence(t *testing.T) {
	q := Select("user_events.id").From("user_events").
		LeftJoin("events", "events.id = user_events.event_id")

	require.NoError(t, q.ApplyNotFilters(Filters{
		{Field: "userId", Values: []any{"a"}},
		{Field: "categoryId", Values: []any{int64(1), int64(2)}},
	}, joinMapping))
	require.NoError(t, q.ApplyPresence([]Presence{{Field: "distance", Present: true}}, joinMapping))

	sql, args := q.SQL()
	assert.Equal(t, "SELECT user_events.id\nFROM user_events\n"+
		"LEFT JOIN events ON events.id = user_events.event_id\n"+
		"WHERE user_events.user_id <> $1 AND events.category_id NOT IN ($2, $3) AND user_events.distance IS NOT NULL", sql)
	assert.Equal(t, []any{"a", int64(1), int64(2)}, args)
}

func TestQuery_UnmappedFieldsAreErrors(t *testing.T) {
	q := Select("*").From("events")
	assert.Error(t, q.ApplyFilters(Filters{{Field: "nope", Values: []any{1}}}, testMapping))
	assert.Error(t, q.ApplySort([]SortKey{{Field: "distance"}}, testMapping))
	assert.Error(t, q.ApplyPresence([]Presence{{Field: "nope"}}, testMapping))
}

func TestQuery_CloneIsIndependent(t *testing.T) {
	base := Select("events.id").From("events")
	c := base.Clone().Where("events.id = ?", int64(1))
	sql, _ := base.SQL()
	assert.NotContains(t, sql, "WHERE")
	sql, _ = c.SQL()
	assert.Contains(t, sql, "WHERE events.id = $1")
}

func TestQuery_GroupBy(t *testing.T) {
	q := Select("events.id", "COALESCE(json_agg(user_events.user_id), '[]') AS participants").
		From("events").
		LeftJoin("user_events", "user_events.event_id = events.id").
		GroupBy("events.id")
	sql, _ := q.SQL()
	assert.Contains(t, sql, "\nGROUP BY events.id")
}
