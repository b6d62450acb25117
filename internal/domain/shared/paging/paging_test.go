package paging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	t.Run("no window returns everything", func(t *testing.T) {
		page := Apply(items, Params{})
		assert.Equal(t, items, page.Items)
		assert.Nil(t, page.TotalCount)
	})

	t.Run("second page", func(t *testing.T) {
		page := Apply(items, Params{Page: Int(1), PageSize: Int(3), IncludeTotalCount: true})
		assert.Equal(t, []int{4, 5, 6}, page.Items)
		require.NotNil(t, page.TotalCount)
		assert.Equal(t, 7, *page.TotalCount)
	})

	t.Run("last partial page", func(t *testing.T) {
		page := Apply(items, Params{Page: Int(2), PageSize: Int(3)})
		assert.Equal(t, []int{7}, page.Items)
	})

	t.Run("past the end", func(t *testing.T) {
		page := Apply(items, Params{Page: Int(9), PageSize: Int(3)})
		assert.Empty(t, page.Items)
	})

	t.Run("page far past the end", func(t *testing.T) {
		page := Apply([]int{1, 2, 3}, Params{Page: Int(1 << 62), PageSize: Int(2)})
		assert.Empty(t, page.Items)

		page = Apply(items, Params{Page: Int(math.MaxInt), PageSize: Int(MaxPageSize)})
		assert.Empty(t, page.Items)
	})

	t.Run("negative values are treated as zero", func(t *testing.T) {
		page := Apply(items, Params{Page: Int(-3), PageSize: Int(2)})
		assert.Equal(t, []int{1, 2}, page.Items)

		page = Apply(items, Params{Page: Int(0), PageSize: Int(-1)})
		assert.Empty(t, page.Items)
	})

	t.Run("retrieve all wins over window", func(t *testing.T) {
		page := Apply(items, Params{Page: Int(1), PageSize: Int(2), RetrieveAll: true})
		assert.Len(t, page.Items, 7)
	})
}

func TestMap(t *testing.T) {
	total := 2
	page := Map(Page[int]{Items: []int{1, 2}, TotalCount: &total}, func(v int) string {
		return string(rune('a' + v - 1))
	})
	assert.Equal(t, []string{"a", "b"}, page.Items)
	assert.Equal(t, &total, page.TotalCount)
}

func TestWindow(t *testing.T) {
	offset, limit, ok := Params{Page: Int(2), PageSize: Int(10)}.Window()
	require.True(t, ok)
	assert.Equal(t, 20, offset)
	assert.Equal(t, 10, limit)

	offset, limit, ok = Params{Page: Int(1), PageSize: Int(5000)}.Window()
	require.True(t, ok)
	assert.Equal(t, MaxPageSize, offset)
	assert.Equal(t, MaxPageSize, limit)

	offset, _, ok = Params{Page: Int(math.MaxInt / 2), PageSize: Int(3)}.Window()
	require.True(t, ok)
	assert.Equal(t, math.MaxInt, offset)

	_, _, ok = Params{Page: Int(1)}.Window()
	assert.False(t, ok)
}
