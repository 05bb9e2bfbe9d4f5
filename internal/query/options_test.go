package query

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSortable = []Field{"id", "categoryId", "startTime", "updatedAt"}

func TestValidateListOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := ValidateListOptions(url.Values{}, testSortable, ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, 10, opts.Limit)
		assert.Equal(t, 0, opts.Offset)
		assert.Equal(t, []SortKey{{Field: "updatedAt", Direction: Asc}}, opts.Sort)
	})

	t.Run("service_defaults_then_request", func(t *testing.T) {
		svc := ListOptions{Limit: 25, Sort: []SortKey{{Field: "startTime", Direction: Desc}}}
		opts, err := ValidateListOptions(url.Values{"offset": {"5"}}, testSortable, svc)
		require.NoError(t, err)
		assert.Equal(t, 25, opts.Limit)
		assert.Equal(t, 5, opts.Offset)
		assert.Equal(t, Field("startTime"), opts.Sort[0].Field)
	})

	t.Run("absent_values_do_not_override", func(t *testing.T) {
		opts, err := ValidateListOptions(url.Values{"limit": {""}}, testSortable, ListOptions{Limit: 30})
		require.NoError(t, err)
		assert.Equal(t, 30, opts.Limit)
	})

	t.Run("limit_above_max_names_limit", func(t *testing.T) {
		_, err := ValidateListOptions(url.Values{"limit": {"500"}}, testSortable, ListOptions{})
		require.Error(t, err)
		assert.Equal(t, "limit", fieldOf(t, err))
	})

	t.Run("limit_bounds", func(t *testing.T) {
		for _, raw := range []string{"0", "101", "abc", "1.5"} {
			_, err := ValidateListOptions(url.Values{"limit": {raw}}, testSortable, ListOptions{})
			require.Error(t, err, raw)
		}
		for _, raw := range []string{"1", "100"} {
			_, err := ValidateListOptions(url.Values{"limit": {raw}}, testSortable, ListOptions{})
			require.NoError(t, err, raw)
		}
	})

	t.Run("negative_offset", func(t *testing.T) {
		_, err := ValidateListOptions(url.Values{"offset": {"-1"}}, testSortable, ListOptions{})
		require.Error(t, err)
		assert.Equal(t, "offset", fieldOf(t, err))
	})

	t.Run("multi_key_sort_preserves_order", func(t *testing.T) {
		opts, err := ValidateListOptions(url.Values{"sort": {"categoryId:desc", "id"}}, testSortable, ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, []SortKey{
			{Field: "categoryId", Direction: Desc},
			{Field: "id", Direction: Asc},
		}, opts.Sort)
	})

	t.Run("sort_field_not_allowed", func(t *testing.T) {
		_, err := ValidateListOptions(url.Values{"sort": {"name:asc"}}, testSortable, ListOptions{})
		require.Error(t, err)
		assert.Equal(t, "sort", fieldOf(t, err))
	})

	t.Run("sort_direction_invalid", func(t *testing.T) {
		_, err := ValidateListOptions(url.Values{"sort": {"id:sideways"}}, testSortable, ListOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "asc, desc")
	})

	t.Run("other_keys_ignored", func(t *testing.T) {
		opts, err := ValidateListOptions(url.Values{"name": {"x"}, "page": {"9"}}, testSortable, ListOptions{})
		require.NoError(t, err)
		assert.Equal(t, DefaultListOptions(), opts)
	})
}
