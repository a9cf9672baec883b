// Package feed composes a viewer's page of prompts from the creators they
// follow and from randomized discovery content.
package feed

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/engagement"
	"github.com/promptverse/promptfeed/src/logging"
	"github.com/promptverse/promptfeed/src/metrics"
	"github.com/promptverse/promptfeed/src/paging"
	"github.com/promptverse/promptfeed/src/types"
)

// PreviewComments is how many recent comments decorate each entry.
const PreviewComments = 2

// Stream tags where an entry came from.
type Stream string

const (
	StreamFollowed  Stream = "followed"
	StreamDiscovery Stream = "discovery"
	StreamFollower  Stream = "follower"
)

type CommentPreview struct {
	Account   string    `json:"user_account"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type Entry struct {
	Prompt      types.Prompt     `json:"prompt"`
	Stream      Stream           `json:"stream"`
	Likes       int64            `json:"likes"`
	Comments    int64            `json:"comments"`
	TopComments []CommentPreview `json:"top_comments"`
}

type Composer struct {
	db      *gorm.DB
	ix      *engagement.Index
	log     *zap.Logger
	shuffle paging.Shuffler
	metrics *metrics.Collector
	maxPage int
}

type Option func(*Composer)

// WithShuffler replaces the per-request random permutation.
func WithShuffler(s paging.Shuffler) Option {
	return func(c *Composer) { c.shuffle = s }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Composer) { c.metrics = m }
}

// WithMaxPageSize bounds page_size; 0 keeps paging.MaxPageSize.
func WithMaxPageSize(n int) Option {
	return func(c *Composer) { c.maxPage = n }
}

func NewComposer(db *gorm.DB, ix *engagement.Index, log *zap.Logger, opts ...Option) *Composer {
	c := &Composer{db: db, ix: ix, log: logging.OrNop(log), shuffle: paging.RandomShuffle}
	for _, o := range opts {
		o(c)
	}
	return c
}

// tagged is one slot of the blended sequence.
type tagged struct {
	id     uint64
	stream Stream
}

// blend concatenates followed then discovery, keeping the first occurrence
// of every id. Followed and discovery are disjoint today; the dedupe keeps
// the union a set if either predicate is ever widened.
func blend(followed, discovery []uint64) []tagged {
	out := make([]tagged, 0, len(followed)+len(discovery))
	seen := make(map[uint64]struct{}, cap(out))
	add := func(ids []uint64, s Stream) {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, tagged{id: id, stream: s})
		}
	}
	add(followed, StreamFollowed)
	add(discovery, StreamDiscovery)
	return out
}

func (c *Composer) shuffled(ids []uint64) []uint64 {
	c.shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

// Feed returns page req of viewer's blended feed: prompts by followed
// creators (newest first) followed by every other prompt in a fresh random
// order. Total is the size of the whole blend.
func (c *Composer) Feed(ctx context.Context, viewer string, req paging.Request) (paging.Result[Entry], error) {
	if err := c.validate(viewer, req); err != nil {
		return paging.Result[Entry]{}, err
	}
	c.metrics.Feed("blend")

	var (
		following []string
		slots     []tagged
		prompts   []types.Prompt
	)
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		following, err = engagement.FollowingOf(tx, viewer)
		if err != nil {
			return err
		}

		var followed []uint64
		if len(following) > 0 {
			err := tx.Model(&types.Prompt{}).
				Where("account_address IN ?", following).
				Order("created_at DESC").Order("id DESC").
				Pluck("id", &followed).Error
			if err != nil {
				return apperr.Storage("followed stream", err)
			}
		}

		var discovery []uint64
		q := tx.Model(&types.Prompt{})
		if len(following) > 0 {
			q = q.Where("account_address NOT IN ?", following)
		}
		if err := q.Order("id ASC").Pluck("id", &discovery).Error; err != nil {
			return apperr.Storage("discovery stream", err)
		}

		slots = blend(followed, c.shuffled(discovery))
		prompts, err = loadWindow(tx, slots, req)
		return err
	})
	if err != nil {
		return paging.Result[Entry]{}, apperr.Storage("compose feed", err)
	}

	lo, hi := req.Window(len(slots))
	entries, err := c.decorate(ctx, slots[lo:hi], prompts)
	if err != nil {
		return paging.Result[Entry]{}, err
	}

	c.log.Debug("feed composed",
		zap.String("viewer", viewer),
		zap.Int("following", len(following)),
		zap.Int("total", len(slots)),
		zap.Int("page", req.Page),
	)
	return paging.NewResult(entries, int64(len(slots)), req), nil
}

// FollowingFeed pages through prompts by creators viewer follows, in a
// fresh random order.
func (c *Composer) FollowingFeed(ctx context.Context, viewer string, req paging.Request) (paging.Result[Entry], error) {
	if err := c.validate(viewer, req); err != nil {
		return paging.Result[Entry]{}, err
	}
	c.metrics.Feed("following")
	return c.byAuthors(ctx, viewer, engagement.FollowingOf, StreamFollowed, req)
}

// FollowersFeed pages through prompts by viewer's followers, in a fresh
// random order.
func (c *Composer) FollowersFeed(ctx context.Context, viewer string, req paging.Request) (paging.Result[Entry], error) {
	if err := c.validate(viewer, req); err != nil {
		return paging.Result[Entry]{}, err
	}
	c.metrics.Feed("followers")
	return c.byAuthors(ctx, viewer, engagement.FollowersOf, StreamFollower, req)
}

// authorsOf resolves the accounts whose prompts make up a feed.
type authorsOf func(tx *gorm.DB, viewer string) ([]string, error)

// byAuthors reads the author set and their prompts in one transaction.
func (c *Composer) byAuthors(ctx context.Context, viewer string, lookup authorsOf, stream Stream, req paging.Request) (paging.Result[Entry], error) {
	var (
		slots   []tagged
		prompts []types.Prompt
	)
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts, err := lookup(tx, viewer)
		if err != nil {
			return err
		}
		if len(accounts) == 0 {
			return nil
		}

		var ids []uint64
		err = tx.Model(&types.Prompt{}).
			Where("account_address IN ?", accounts).
			Order("id ASC").
			Pluck("id", &ids).Error
		if err != nil {
			return apperr.Storage("author stream", err)
		}

		c.shuffled(ids)
		slots = make([]tagged, len(ids))
		for i, id := range ids {
			slots[i] = tagged{id: id, stream: stream}
		}
		prompts, err = loadWindow(tx, slots, req)
		return err
	})
	if err != nil {
		return paging.Result[Entry]{}, apperr.Storage("compose feed", err)
	}

	lo, hi := req.Window(len(slots))
	entries, err := c.decorate(ctx, slots[lo:hi], prompts)
	if err != nil {
		return paging.Result[Entry]{}, err
	}
	return paging.NewResult(entries, int64(len(slots)), req), nil
}

func (c *Composer) validate(viewer string, req paging.Request) error {
	if viewer == "" {
		return apperr.Invalid("viewer account is required")
	}
	return req.Validate(c.maxPage)
}

// loadWindow fetches the prompts for the page window of slots.
func loadWindow(tx *gorm.DB, slots []tagged, req paging.Request) ([]types.Prompt, error) {
	lo, hi := req.Window(len(slots))
	if lo == hi {
		return nil, nil
	}
	ids := make([]uint64, 0, hi-lo)
	for _, s := range slots[lo:hi] {
		ids = append(ids, s.id)
	}
	var prompts []types.Prompt
	if err := tx.Where("id IN ?", ids).Find(&prompts).Error; err != nil {
		return nil, apperr.Storage("load feed page", err)
	}
	return prompts, nil
}

// decorate orders prompts to match window and attaches engagement counts
// and comment previews.
func (c *Composer) decorate(ctx context.Context, window []tagged, prompts []types.Prompt) ([]Entry, error) {
	byID := make(map[uint64]types.Prompt, len(prompts))
	for _, p := range prompts {
		byID[p.ID] = p
	}

	ordered := make([]types.Prompt, 0, len(window))
	streams := make([]Stream, 0, len(window))
	ids := make([]uint64, 0, len(window))
	for _, s := range window {
		p, ok := byID[s.id]
		if !ok {
			// deleted between materialization and load
			continue
		}
		ordered = append(ordered, p)
		streams = append(streams, s.stream)
		ids = append(ids, p.ID)
	}

	likes, err := c.ix.LikeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := c.ix.CommentCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	previews, err := c.ix.PreviewComments(ctx, ordered, PreviewComments)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, len(ordered))
	for i, p := range ordered {
		top := make([]CommentPreview, 0, PreviewComments)
		for _, cm := range previews[p.ID] {
			top = append(top, CommentPreview{Account: cm.UserAccount, Comment: cm.Comment, CreatedAt: cm.CreatedAt})
		}
		entries[i] = Entry{
			Prompt:      p,
			Stream:      streams[i],
			Likes:       likes[p.ID],
			Comments:    comments[p.ID],
			TopComments: top,
		}
	}
	return entries, nil
}
