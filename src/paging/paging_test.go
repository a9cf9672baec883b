package paging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptverse/promptfeed/src/apperr"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Request{Page: 1, PageSize: 10}.Validate(0))
	assert.NoError(t, Request{Page: 3, PageSize: 100}.Validate(100))

	assert.NoError(t, Request{Page: MaxPage(4), PageSize: 4}.Validate(0))

	for _, r := range []Request{{0, 10}, {-1, 10}, {1, 0}, {1, 101}, {MaxPage(4) + 1, 4}, {math.MaxInt, 2}} {
		err := r.Validate(100)
		require.Error(t, err, "%+v", r)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		req    Request
		n      int
		lo, hi int
	}{
		{Request{1, 10}, 25, 0, 10},
		{Request{3, 10}, 25, 20, 25},
		{Request{4, 10}, 25, 25, 25},
		{Request{1, 10}, 0, 0, 0},
		{Request{2, 5}, 10, 5, 10},
		{Request{math.MaxInt/4 + 2, 4}, 11, 11, 11},
		{Request{math.MaxInt, 100}, 3, 3, 3},
		{Request{0, 10}, 5, 5, 5},
	}
	for _, tt := range tests {
		lo, hi := tt.req.Window(tt.n)
		assert.Equal(t, tt.lo, lo, "%+v n=%d", tt.req, tt.n)
		assert.Equal(t, tt.hi, hi, "%+v n=%d", tt.req, tt.n)
	}
}

func TestSliceConcatenationCoversEverythingOnce(t *testing.T) {
	items := make([]int, 23)
	for i := range items {
		items[i] = i
	}
	size := 4
	var got []int
	for p := 1; p <= TotalPages(int64(len(items)), size); p++ {
		got = append(got, Slice(items, Request{Page: p, PageSize: size})...)
	}
	assert.Equal(t, items, got)
}

func TestMaxPageOffsetFits(t *testing.T) {
	for _, size := range []int{1, 4, 10, 100} {
		r := Request{Page: MaxPage(size), PageSize: size}
		assert.GreaterOrEqual(t, r.Offset(), 0, "size=%d", size)
		assert.GreaterOrEqual(t, r.Offset()+size, r.Offset(), "size=%d", size)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestSeededShuffleIsReproducible(t *testing.T) {
	perm := func() []int {
		s := []int{1, 2, 3, 4, 5, 6, 7, 8}
		SeededShuffle(42)(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		return s
	}
	a, b := perm(), perm()
	assert.Equal(t, a, b)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, a)
}

func TestNewResultNeverNil(t *testing.T) {
	r := NewResult[int](nil, 0, Request{Page: 1, PageSize: 10})
	assert.NotNil(t, r.Results)
	assert.Empty(t, r.Results)
}
