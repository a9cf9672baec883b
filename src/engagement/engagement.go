// Package engagement records likes, comments and follow edges and answers
// the aggregate questions the feed and rankings ask about them.
package engagement

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/events"
	"github.com/promptverse/promptfeed/src/logging"
	"github.com/promptverse/promptfeed/src/metrics"
	"github.com/promptverse/promptfeed/src/types"
)

const MaxCommentLength = 2000

type Index struct {
	db        *gorm.DB
	log       *zap.Logger
	pub       events.Publisher
	metrics   *metrics.Collector
	sanitizer *bluemonday.Policy
}

type Option func(*Index)

func WithPublisher(p events.Publisher) Option {
	return func(ix *Index) { ix.pub = p }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(ix *Index) { ix.metrics = m }
}

func NewIndex(db *gorm.DB, log *zap.Logger, opts ...Option) *Index {
	ix := &Index{
		db:        db,
		log:       logging.OrNop(log),
		pub:       events.Nop{},
		sanitizer: bluemonday.StrictPolicy(),
	}
	for _, o := range opts {
		o(ix)
	}
	return ix
}

// requirePrompt fails with NotFound unless a prompt with this id and
// class exists.
func requirePrompt(tx *gorm.DB, promptID uint64, class types.PromptType) error {
	if !class.Valid() {
		return apperr.Invalid("unknown prompt type %q", class)
	}
	var n int64
	err := tx.Model(&types.Prompt{}).
		Where("id = ? AND prompt_type = ?", promptID, class).
		Count(&n).Error
	if err != nil {
		return apperr.Storage("lookup prompt", err)
	}
	if n == 0 {
		return apperr.NotFound("prompt %d (%s) not found", promptID, class)
	}
	return nil
}

// Like records account's like on a prompt. A second like for the same
// pair fails with DuplicateAction; the unique index on (prompt_id,
// user_account) backs the in-transaction check against concurrent inserts.
func (ix *Index) Like(ctx context.Context, promptID uint64, class types.PromptType, account string) error {
	if account == "" {
		return apperr.Invalid("user_account is required")
	}

	err := ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePrompt(tx, promptID, class); err != nil {
			return err
		}

		var existing int64
		err := tx.Model(&types.PostLike{}).
			Where("prompt_id = ? AND user_account = ?", promptID, account).
			Count(&existing).Error
		if err != nil {
			return apperr.Storage("lookup like", err)
		}
		if existing > 0 {
			return apperr.Duplicate("user has already liked this prompt")
		}

		like := types.PostLike{PromptID: promptID, PromptType: class, UserAccount: account}
		if err := tx.Create(&like).Error; err != nil {
			if apperr.IsDuplicateKey(err) {
				return apperr.Duplicate("user has already liked this prompt")
			}
			return apperr.Storage("insert like", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("like prompt", err)
	}

	ix.metrics.Like()
	events.Emit(ctx, ix.pub, ix.log, events.Event{
		Kind: events.KindLike, Account: account, PromptID: promptID, PromptType: class,
	})
	return nil
}

// Comment adds a comment. Markup is stripped; an empty result is rejected.
func (ix *Index) Comment(ctx context.Context, promptID uint64, class types.PromptType, account, text string) (types.PostComment, error) {
	if account == "" {
		return types.PostComment{}, apperr.Invalid("user_account is required")
	}
	text = strings.TrimSpace(ix.sanitizer.Sanitize(text))
	if text == "" {
		return types.PostComment{}, apperr.Invalid("comment must not be empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return types.PostComment{}, apperr.Invalid("comment exceeds %d characters", MaxCommentLength)
	}

	c := types.PostComment{PromptID: promptID, PromptType: class, UserAccount: account, Comment: text}
	err := ix.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePrompt(tx, promptID, class); err != nil {
			return err
		}
		if err := tx.Create(&c).Error; err != nil {
			return apperr.Storage("insert comment", err)
		}
		return nil
	})
	if err != nil {
		return types.PostComment{}, apperr.Storage("comment prompt", err)
	}

	ix.metrics.Comment()
	events.Emit(ctx, ix.pub, ix.log, events.Event{
		Kind: events.KindComment, Account: account, PromptID: promptID, PromptType: class,
	})
	return c, nil
}

func (ix *Index) CountLikes(ctx context.Context, promptID uint64, class types.PromptType) (int64, error) {
	var n int64
	err := ix.db.WithContext(ctx).Model(&types.PostLike{}).
		Where("prompt_id = ? AND prompt_type = ?", promptID, class).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Storage("count likes", err)
	}
	return n, nil
}

func (ix *Index) CountComments(ctx context.Context, promptID uint64, class types.PromptType) (int64, error) {
	var n int64
	err := ix.db.WithContext(ctx).Model(&types.PostComment{}).
		Where("prompt_id = ? AND prompt_type = ?", promptID, class).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Storage("count comments", err)
	}
	return n, nil
}

// TopComments returns the n most recent comments, newest first.
func (ix *Index) TopComments(ctx context.Context, promptID uint64, class types.PromptType, n int) ([]types.PostComment, error) {
	if n < 1 {
		return []types.PostComment{}, nil
	}
	var out []types.PostComment
	err := ix.db.WithContext(ctx).
		Where("prompt_id = ? AND prompt_type = ?", promptID, class).
		Order("created_at DESC").Order("id DESC").
		Limit(n).
		Find(&out).Error
	if err != nil {
		return nil, apperr.Storage("top comments", err)
	}
	return out, nil
}
