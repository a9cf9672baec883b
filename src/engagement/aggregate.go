package engagement

import (
	"context"

	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/types"
)

// PromptLikes is a prompt with its live like count.
type PromptLikes struct {
	types.Prompt
	LikeCount int64 `json:"likes"`
}

// LikeCountQuery selects prompts joined with their like totals. Counts
// come from the likes table at query time, never from a cached column.
// Callers add predicates and ordering.
func LikeCountQuery(db *gorm.DB) *gorm.DB {
	return db.Model(&types.Prompt{}).
		Select("prompts.*, COUNT(post_likes.id) AS like_count").
		Joins("LEFT JOIN post_likes ON post_likes.prompt_id = prompts.id").
		Group("prompts.id")
}

// TopLikedItems ranks prompts owned by any of accounts by like count,
// ties broken by id ascending. An empty filter matches nothing.
func (ix *Index) TopLikedItems(ctx context.Context, accounts []string, n int) ([]PromptLikes, error) {
	out := []PromptLikes{}
	if len(accounts) == 0 || n < 1 {
		return out, nil
	}
	err := LikeCountQuery(ix.db.WithContext(ctx)).
		Where("prompts.account_address IN ?", accounts).
		Order("like_count DESC").Order("prompts.id ASC").
		Limit(n).
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Storage("top liked items", err)
	}
	return out, nil
}

type countRow struct {
	PromptID uint64
	N        int64
}

func (ix *Index) countBy(ctx context.Context, model any, ids []uint64) (map[uint64]int64, error) {
	out := make(map[uint64]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []countRow
	err := ix.db.WithContext(ctx).Model(model).
		Select("prompt_id, COUNT(*) AS n").
		Where("prompt_id IN ?", ids).
		Group("prompt_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.PromptID] = r.N
	}
	return out, nil
}

// LikeCounts returns like totals for each id; ids without likes are absent.
func (ix *Index) LikeCounts(ctx context.Context, ids []uint64) (map[uint64]int64, error) {
	m, err := ix.countBy(ctx, &types.PostLike{}, ids)
	if err != nil {
		return nil, apperr.Storage("batch count likes", err)
	}
	return m, nil
}

// CommentCounts returns comment totals for each id; ids without comments are absent.
func (ix *Index) CommentCounts(ctx context.Context, ids []uint64) (map[uint64]int64, error) {
	m, err := ix.countBy(ctx, &types.PostComment{}, ids)
	if err != nil {
		return nil, apperr.Storage("batch count comments", err)
	}
	return m, nil
}

// PreviewComments returns the n newest comments for each prompt.
func (ix *Index) PreviewComments(ctx context.Context, prompts []types.Prompt, n int) (map[uint64][]types.PostComment, error) {
	out := make(map[uint64][]types.PostComment, len(prompts))
	for _, p := range prompts {
		cs, err := ix.TopComments(ctx, p.ID, p.PromptType, n)
		if err != nil {
			return nil, err
		}
		out[p.ID] = cs
	}
	return out, nil
}
