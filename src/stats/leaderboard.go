package stats

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/paging"
	"github.com/promptverse/promptfeed/src/types"
)

// Board names a leaderboard ordering.
type Board string

const (
	BoardXP             Board = "xp"
	BoardStreaks        Board = "streaks"
	BoardGenerations24h Board = "generations-24h"
)

// Leaderboard pages through UserStat rows. Ties fall back to account
// ascending so pages never overlap.
func (l *Ledger) Leaderboard(ctx context.Context, board Board, req paging.Request) (paging.Result[types.UserStat], error) {
	if err := req.Validate(l.maxPage); err != nil {
		return paging.Result[types.UserStat]{}, err
	}

	q := l.db.WithContext(ctx).Model(&types.UserStat{})
	switch board {
	case BoardXP:
		q = q.Order("xp DESC")
	case BoardStreaks:
		q = q.Order("streak_days DESC")
	case BoardGenerations24h:
		since := l.now().UTC().Add(-24 * time.Hour)
		q = q.Where("last_generation >= ?", since).Order("total_generations DESC")
	default:
		return paging.Result[types.UserStat]{}, apperr.Invalid("unknown leaderboard %q", board)
	}
	q = q.Order("user_account ASC")

	return pageStats(q, req)
}

func pageStats(q *gorm.DB, req paging.Request) (paging.Result[types.UserStat], error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return paging.Result[types.UserStat]{}, apperr.Storage("count leaderboard", err)
	}

	var rows []types.UserStat
	if err := q.Offset(req.Offset()).Limit(req.PageSize).Find(&rows).Error; err != nil {
		return paging.Result[types.UserStat]{}, apperr.Storage("page leaderboard", err)
	}
	return paging.NewResult(rows, total, req), nil
}
