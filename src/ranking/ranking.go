// Package ranking orders or samples a prompt collection for marketplace
// and trending listings.
package ranking

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/engagement"
	"github.com/promptverse/promptfeed/src/logging"
	"github.com/promptverse/promptfeed/src/paging"
	"github.com/promptverse/promptfeed/src/types"
)

// RecentWindow bounds the "recent" filter.
const RecentWindow = 24 * time.Hour

type Ranker struct {
	db      *gorm.DB
	log     *zap.Logger
	now     func() time.Time
	shuffle paging.Shuffler
	maxPage int
}

type Option func(*Ranker)

func WithClock(now func() time.Time) Option {
	return func(r *Ranker) { r.now = now }
}

func WithShuffler(s paging.Shuffler) Option {
	return func(r *Ranker) { r.shuffle = s }
}

// WithMaxPageSize bounds page_size; 0 keeps paging.MaxPageSize.
func WithMaxPageSize(n int) Option {
	return func(r *Ranker) { r.maxPage = n }
}

func NewRanker(db *gorm.DB, log *zap.Logger, opts ...Option) *Ranker {
	r := &Ranker{db: db, log: logging.OrNop(log), now: time.Now, shuffle: paging.RandomShuffle}
	for _, o := range opts {
		o(r)
	}
	return r
}

// List pages through prompts of class ordered by mode. An empty mode lists
// in insertion order. Total is the eligible count before slicing.
//
// popular materializes every eligible id and reshuffles per call, so the
// same page can differ between calls; pages cut from one shuffle never
// overlap.
func (r *Ranker) List(ctx context.Context, class types.PromptType, mode types.FilterType, req paging.Request) (paging.Result[engagement.PromptLikes], error) {
	if !class.Valid() {
		return paging.Result[engagement.PromptLikes]{}, apperr.Invalid("unknown prompt type %q", class)
	}
	if mode != "" && !mode.Valid() {
		return paging.Result[engagement.PromptLikes]{}, apperr.Invalid("unknown filter type %q", mode)
	}
	if err := req.Validate(r.maxPage); err != nil {
		return paging.Result[engagement.PromptLikes]{}, err
	}

	db := r.db.WithContext(ctx)
	eligible := func() *gorm.DB {
		q := db.Model(&types.Prompt{}).Where("prompts.prompt_type = ?", class)
		if mode == types.FilterRecent {
			q = q.Where("prompts.created_at >= ?", r.now().UTC().Add(-RecentWindow))
		}
		return q
	}

	var total int64
	if err := eligible().Count(&total).Error; err != nil {
		return paging.Result[engagement.PromptLikes]{}, apperr.Storage("count eligible prompts", err)
	}

	if mode == types.FilterPopular {
		return r.popular(db, eligible(), total, req)
	}

	q := engagement.LikeCountQuery(eligible())
	switch mode {
	case types.FilterRecent:
		q = q.Order("prompts.created_at DESC").Order("prompts.id DESC")
	case types.FilterTrending:
		q = q.Order("like_count DESC").Order("prompts.id ASC")
	default:
		q = q.Order("prompts.id ASC")
	}

	rows := []engagement.PromptLikes{}
	if err := q.Offset(req.Offset()).Limit(req.PageSize).Scan(&rows).Error; err != nil {
		return paging.Result[engagement.PromptLikes]{}, apperr.Storage("rank prompts", err)
	}
	return paging.NewResult(rows, total, req), nil
}

func (r *Ranker) popular(db, eligible *gorm.DB, total int64, req paging.Request) (paging.Result[engagement.PromptLikes], error) {
	var ids []uint64
	if err := eligible.Order("prompts.id ASC").Pluck("prompts.id", &ids).Error; err != nil {
		return paging.Result[engagement.PromptLikes]{}, apperr.Storage("materialize popular", err)
	}
	r.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	window := paging.Slice(ids, req)
	if len(window) == 0 {
		return paging.NewResult[engagement.PromptLikes](nil, int64(len(ids)), req), nil
	}

	var rows []engagement.PromptLikes
	err := engagement.LikeCountQuery(db).Where("prompts.id IN ?", window).Scan(&rows).Error
	if err != nil {
		return paging.Result[engagement.PromptLikes]{}, apperr.Storage("load popular page", err)
	}

	byID := make(map[uint64]engagement.PromptLikes, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	out := make([]engagement.PromptLikes, 0, len(window))
	for _, id := range window {
		if row, ok := byID[id]; ok {
			out = append(out, row)
		}
	}

	if int64(len(ids)) != total {
		r.log.Debug("popular set changed between count and materialize",
			zap.Int64("counted", total), zap.Int("materialized", len(ids)))
	}
	return paging.NewResult(out, int64(len(ids)), req), nil
}
