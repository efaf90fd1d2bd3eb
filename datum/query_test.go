package datum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbukum/datumkit/tags"
)

func TestTagValues(t *testing.T) {
	col := CollectOf(
		tagged([]float64{1}, "id", 1),
		tagged([]float64{2}),
		tagged([]float64{3}, "id", 3),
	)
	vals := col.TagValues("id", tags.Int(-1))
	require.Len(t, vals, 3)
	assert.True(t, vals[0].Equal(tags.Int(1)))
	assert.True(t, vals[1].Equal(tags.Int(-1)))
	assert.True(t, vals[2].Equal(tags.Int(3)))
}

func TestGroupByTag(t *testing.T) {
	tg := tags.MustMake(tags.P("set", "x"))
	col := Collect([]Datum[float64]{
		tagged([]float64{1}, "grade", "B"),
		tagged([]float64{2}, "grade", "A"),
		tagged([]float64{3}),
		tagged([]float64{4}, "grade", "B"),
	}, tg)

	groups := col.GroupByTag("grade")
	require.Len(t, groups, 3)

	assert.True(t, groups[0].Value.Equal(tags.String("B")))
	assert.Equal(t, 2, groups[0].Collection.Len())
	assert.Equal(t, 4.0, groups[0].Collection.At(1).At(0))

	assert.True(t, groups[1].Value.Equal(tags.String("A")))
	assert.True(t, groups[2].Missing)
	assert.Equal(t, 3.0, groups[2].Collection.At(0).At(0))

	for _, g := range groups {
		assert.True(t, g.Collection.Tags().Equal(tg))
	}
}

func TestSortByTag(t *testing.T) {
	col := CollectOf(
		tagged([]float64{1}, "n", 3),
		tagged([]float64{2}),
		tagged([]float64{3}, "n", 1),
		tagged([]float64{4}, "n", 3),
	)

	asc := col.SortByTag("n", false)
	got := make([]float64, asc.Len())
	for i := range got {
		got[i] = asc.At(i).At(0)
	}
	assert.Equal(t, []float64{3, 1, 4, 2}, got)

	desc := col.SortByTag("n", true)
	for i := range got {
		got[i] = desc.At(i).At(0)
	}
	assert.Equal(t, []float64{1, 4, 3, 2}, got)

	assert.Equal(t, 1.0, col.At(0).At(0), "source unchanged")
}

func TestZipWith(t *testing.T) {
	a := CollectOf(Of([]int{1}), Of([]int{2}))
	b := CollectOf(Of([]int{10}), Of([]int{20}))

	sums, err := ZipWith(func(entries ...Datum[int]) int {
		s := 0
		for _, d := range entries {
			s += d.At(0)
		}
		return s
	}, a, b)
	require.NoError(t, err)
	assert.Equal(t, []int{11, 22}, sums)

	_, err = ZipWith(func(...Datum[int]) int { return 0 }, a, CollectOf(Of([]int{1})))
	assert.Error(t, err)

	none, err := ZipWith[int, int](func(...Datum[int]) int { return 0 })
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestCompareTags(t *testing.T) {
	a := CollectOf(tagged([]float64{1}, "id", 1, "x", "p"), tagged([]float64{2}, "id", 2))
	b := CollectOf(tagged([]float64{9}, "id", 1, "x", "q"), tagged([]float64{8}, "id", 2))

	assert.True(t, CompareTags([]string{"id"}, a, b))
	assert.False(t, CompareTags([]string{"id", "x"}, a, b))
	assert.False(t, CompareTags([]string{"id"}, a))
	assert.False(t, CompareTags([]string{"id"}, a, CollectOf(tagged([]float64{1}, "id", 1))))
}
