package engagement

import (
	"context"

	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/events"
	"github.com/promptverse/promptfeed/src/types"
)

// Follow adds the edge follower -> creator. Self-follow and mutual
// follows are allowed; a repeated edge fails with DuplicateAction.
func (ix *Index) Follow(ctx context.Context, follower, creator string) error {
	if follower == "" || creator == "" {
		return apperr.Invalid("follower and creator accounts are required")
	}

	err := ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		err := tx.Model(&types.Follow{}).
			Where("follower_account = ? AND creator_account = ?", follower, creator).
			Count(&existing).Error
		if err != nil {
			return apperr.Storage("lookup follow", err)
		}
		if existing > 0 {
			return apperr.Duplicate("already following %s", creator)
		}

		edge := types.Follow{FollowerAccount: follower, CreatorAccount: creator}
		if err := tx.Create(&edge).Error; err != nil {
			if apperr.IsDuplicateKey(err) {
				return apperr.Duplicate("already following %s", creator)
			}
			return apperr.Storage("insert follow", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("follow", err)
	}

	ix.metrics.Follow()
	events.Emit(ctx, ix.pub, ix.log, events.Event{Kind: events.KindFollow, Account: follower, Target: creator})
	return nil
}

func (ix *Index) Unfollow(ctx context.Context, follower, creator string) error {
	res := ix.db.WithContext(ctx).
		Where("follower_account = ? AND creator_account = ?", follower, creator).
		Delete(&types.Follow{})
	if res.Error != nil {
		return apperr.Storage("unfollow", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("%s does not follow %s", follower, creator)
	}

	events.Emit(ctx, ix.pub, ix.log, events.Event{Kind: events.KindUnfollow, Account: follower, Target: creator})
	return nil
}

// Following lists the creators account follows, sorted.
func (ix *Index) Following(ctx context.Context, account string) ([]string, error) {
	return FollowingOf(ix.db.WithContext(ctx), account)
}

// Followers lists the accounts following account, sorted.
func (ix *Index) Followers(ctx context.Context, account string) ([]string, error) {
	return FollowersOf(ix.db.WithContext(ctx), account)
}

// FollowingOf runs the Following lookup on db, so callers can read it inside
// their own transaction.
func FollowingOf(db *gorm.DB, account string) ([]string, error) {
	out := []string{}
	err := db.Model(&types.Follow{}).
		Where("follower_account = ?", account).
		Order("creator_account ASC").
		Pluck("creator_account", &out).Error
	if err != nil {
		return nil, apperr.Storage("list following", err)
	}
	return out, nil
}

func FollowersOf(db *gorm.DB, account string) ([]string, error) {
	out := []string{}
	err := db.Model(&types.Follow{}).
		Where("creator_account = ?", account).
		Order("follower_account ASC").
		Pluck("follower_account", &out).Error
	if err != nil {
		return nil, apperr.Storage("list followers", err)
	}
	return out, nil
}
