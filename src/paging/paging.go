// Package paging holds the page-window arithmetic shared by every listing.
package paging

import (
	"math"
	"math/rand/v2"

	"github.com/promptverse/promptfeed/src/apperr"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Request struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Validate rejects page < 1, sizes outside [1, max] and pages whose end
// offset does not fit in an int. max <= 0 means MaxPageSize.
func (r Request) Validate(max int) error {
	if max <= 0 {
		max = MaxPageSize
	}
	if r.Page < 1 {
		return apperr.Invalid("page must be >= 1, got %d", r.Page)
	}
	if r.PageSize < 1 || r.PageSize > max {
		return apperr.Invalid("page_size must be between 1 and %d, got %d", max, r.PageSize)
	}
	if r.Page > MaxPage(r.PageSize) {
		return apperr.Invalid("page must be <= %d for page_size %d, got %d", MaxPage(r.PageSize), r.PageSize, r.Page)
	}
	return nil
}

// MaxPage is the largest page whose [offset, offset+size) window fits in an int.
func MaxPage(size int) int {
	if size < 1 {
		return 0
	}
	return (math.MaxInt-size)/size + 1
}

func (r Request) Offset() int {
	return (r.Page - 1) * r.PageSize
}

// Window returns the [lo, hi) bounds of the requested page inside a
// materialized sequence of length n. Pages past the end are empty.
func (r Request) Window(n int) (lo, hi int) {
	// compare page counts first so the offset is only computed in range
	if r.Page < 1 || r.PageSize < 1 || r.Page > TotalPages(int64(n), r.PageSize) {
		return n, n
	}
	lo = r.Offset()
	hi = min(lo+r.PageSize, n)
	return lo, hi
}

// Slice cuts the page out of an already ordered sequence.
func Slice[T any](items []T, r Request) []T {
	lo, hi := r.Window(len(items))
	return items[lo:hi]
}

type Result[T any] struct {
	Results  []T   `json:"results"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func NewResult[T any](items []T, total int64, r Request) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{Results: items, Total: total, Page: r.Page, PageSize: r.PageSize}
}

// TotalPages is ceil(total / size).
func TotalPages(total int64, size int) int {
	if size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Shuffler permutes n elements in place through swap.
type Shuffler func(n int, swap func(i, j int))

// RandomShuffle draws a fresh permutation on every call.
var RandomShuffle Shuffler = rand.Shuffle

// SeededShuffle returns a reproducible Shuffler.
func SeededShuffle(seed uint64) Shuffler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Shuffle
}
