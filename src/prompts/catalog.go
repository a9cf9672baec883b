// Package prompts owns the prompt catalog: creating public and premium
// prompts, listing and filtering them, and deleting them with their
// engagement rows.
package prompts

import (
	"context"
	"errors"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/events"
	"github.com/promptverse/promptfeed/src/logging"
	"github.com/promptverse/promptfeed/src/metrics"
	"github.com/promptverse/promptfeed/src/paging"
	"github.com/promptverse/promptfeed/src/stats"
	"github.com/promptverse/promptfeed/src/types"
)

// TagAll disables the tag filter in FilterPublic.
const TagAll = "all"

// Draft is the caller-supplied part of a new prompt.
type Draft struct {
	IPFSImageURL   string
	Prompt         string
	AccountAddress string
	PostName       string
	Public         bool
	PromptTag      types.PromptTag
	CollectionName *string
	MaxSupply      *int
	PromptNFTPrice *string
}

type Catalog struct {
	db        *gorm.DB
	ledger    *stats.Ledger
	log       *zap.Logger
	pub       events.Publisher
	metrics   *metrics.Collector
	sanitizer *bluemonday.Policy
	maxPage   int
}

type Option func(*Catalog)

func WithPublisher(p events.Publisher) Option {
	return func(c *Catalog) { c.pub = p }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(c *Catalog) { c.metrics = m }
}

func WithMaxPageSize(n int) Option {
	return func(c *Catalog) { c.maxPage = n }
}

func NewCatalog(db *gorm.DB, ledger *stats.Ledger, log *zap.Logger, opts ...Option) *Catalog {
	c := &Catalog{
		db:        db,
		ledger:    ledger,
		log:       logging.OrNop(log),
		pub:       events.Nop{},
		sanitizer: bluemonday.StrictPolicy(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Catalog) clean(s string) string {
	return strings.TrimSpace(c.sanitizer.Sanitize(s))
}

// base validates and sanitizes the fields shared by both classes.
func (c *Catalog) base(d Draft, class types.PromptType) (types.Prompt, error) {
	p := types.Prompt{
		IPFSImageURL:   strings.TrimSpace(d.IPFSImageURL),
		Prompt:         c.clean(d.Prompt),
		AccountAddress: strings.TrimSpace(d.AccountAddress),
		PostName:       c.clean(d.PostName),
		PromptTag:      d.PromptTag,
		PromptType:     class,
	}
	if p.IPFSImageURL == "" {
		return types.Prompt{}, apperr.Invalid("ipfs_image_url is required")
	}
	if p.AccountAddress == "" {
		return types.Prompt{}, apperr.Invalid("account_address is required")
	}
	if p.PromptTag == "" {
		return types.Prompt{}, apperr.Invalid("prompt_tag is required")
	}
	if !p.PromptTag.Valid() {
		return types.Prompt{}, apperr.Invalid("unknown prompt tag %q", p.PromptTag)
	}
	return p, nil
}

// CreatePublic stores a public prompt and credits the owner with a
// generation. Marketplace fields are rejected.
func (c *Catalog) CreatePublic(ctx context.Context, d Draft) (types.Prompt, error) {
	if d.CollectionName != nil || d.MaxSupply != nil || d.PromptNFTPrice != nil {
		return types.Prompt{}, apperr.Invalid("public prompts cannot have collection_name, max_supply, or prompt_nft_price")
	}
	p, err := c.base(d, types.PromptTypePublic)
	if err != nil {
		return types.Prompt{}, err
	}
	p.Public = d.Public
	return c.create(ctx, p)
}

// CreatePremium stores a marketplace prompt. Premium prompts are never
// flagged public regardless of the draft.
func (c *Catalog) CreatePremium(ctx context.Context, d Draft) (types.Prompt, error) {
	p, err := c.base(d, types.PromptTypePremium)
	if err != nil {
		return types.Prompt{}, err
	}
	if d.CollectionName == nil || c.clean(*d.CollectionName) == "" {
		return types.Prompt{}, apperr.Invalid("collection_name is required")
	}
	if d.MaxSupply == nil || *d.MaxSupply < 1 {
		return types.Prompt{}, apperr.Invalid("max_supply must be positive")
	}
	if d.PromptNFTPrice == nil || strings.TrimSpace(*d.PromptNFTPrice) == "" {
		return types.Prompt{}, apperr.Invalid("prompt_nft_price is required")
	}

	collection := c.clean(*d.CollectionName)
	supply := *d.MaxSupply
	price := strings.TrimSpace(*d.PromptNFTPrice)
	p.CollectionName, p.MaxSupply, p.PromptNFTPrice = &collection, &supply, &price
	p.Public = false
	return c.create(ctx, p)
}

// create inserts p and records the generation in one transaction so a
// failed stat update leaves no orphan prompt.
func (c *Catalog) create(ctx context.Context, p types.Prompt) (types.Prompt, error) {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return apperr.Storage("insert prompt", err)
		}
		_, err := c.ledger.RecordGenerationTx(tx, p.AccountAddress)
		return err
	})
	if err != nil {
		return types.Prompt{}, apperr.Storage("create prompt", err)
	}

	c.metrics.Generation(p.PromptType)
	events.Emit(ctx, c.pub, c.log, events.Event{
		Kind: events.KindGeneration, Account: p.AccountAddress, PromptID: p.ID, PromptType: p.PromptType,
	})
	c.log.Info("prompt created",
		zap.Uint64("id", p.ID),
		zap.String("prompt_type", string(p.PromptType)),
		zap.String("account", p.AccountAddress),
	)
	return p, nil
}

func (c *Catalog) page(q *gorm.DB, req paging.Request) (paging.Result[types.Prompt], error) {
	if err := req.Validate(c.maxPage); err != nil {
		return paging.Result[types.Prompt]{}, err
	}
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return paging.Result[types.Prompt]{}, apperr.Storage("count prompts", err)
	}
	var rows []types.Prompt
	if err := q.Order("id ASC").Offset(req.Offset()).Limit(req.PageSize).Find(&rows).Error; err != nil {
		return paging.Result[types.Prompt]{}, apperr.Storage("list prompts", err)
	}
	return paging.NewResult(rows, total, req), nil
}

func (c *Catalog) ofClass(ctx context.Context, class types.PromptType) *gorm.DB {
	return c.db.WithContext(ctx).Model(&types.Prompt{}).Where("prompt_type = ?", class)
}

func (c *Catalog) ListPublic(ctx context.Context, req paging.Request) (paging.Result[types.Prompt], error) {
	return c.page(c.ofClass(ctx, types.PromptTypePublic), req)
}

// FilterPublic narrows public prompts by tag (TagAll or empty for any) and,
// when public is non-nil, by visibility flag.
func (c *Catalog) FilterPublic(ctx context.Context, tag string, public *bool, req paging.Request) (paging.Result[types.Prompt], error) {
	q := c.ofClass(ctx, types.PromptTypePublic)
	if tag != "" && !strings.EqualFold(tag, TagAll) {
		if !types.PromptTag(tag).Valid() {
			return paging.Result[types.Prompt]{}, apperr.Invalid("unknown prompt tag %q", tag)
		}
		q = q.Where("prompt_tag = ?", tag)
	}
	if public != nil {
		q = q.Where("public = ?", *public)
	}
	return c.page(q, req)
}

func (c *Catalog) ListPremium(ctx context.Context, req paging.Request) (paging.Result[types.Prompt], error) {
	return c.page(c.ofClass(ctx, types.PromptTypePremium), req)
}

func (c *Catalog) Get(ctx context.Context, id uint64) (types.Prompt, error) {
	var p types.Prompt
	err := c.db.WithContext(ctx).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Prompt{}, apperr.NotFound("prompt %d not found", id)
	}
	if err != nil {
		return types.Prompt{}, apperr.Storage("get prompt", err)
	}
	return p, nil
}

func (c *Catalog) Tags() []types.PromptTag {
	return append([]types.PromptTag(nil), types.PromptTags...)
}

func (c *Catalog) FilterTypes() []types.FilterType {
	return append([]types.FilterType(nil), types.FilterTypes...)
}

// Delete removes a prompt owned by owner together with its likes and
// comments.
func (c *Catalog) Delete(ctx context.Context, id uint64, owner string) error {
	if owner == "" {
		return apperr.Invalid("account_address is required")
	}
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p types.Prompt
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("prompt %d not found", id)
		}
		if err != nil {
			return apperr.Storage("lock prompt", err)
		}
		if p.AccountAddress != owner {
			return apperr.Invalid("prompt %d is not owned by %s", id, owner)
		}

		if err := tx.Where("prompt_id = ?", id).Delete(&types.PostLike{}).Error; err != nil {
			return apperr.Storage("delete likes", err)
		}
		if err := tx.Where("prompt_id = ?", id).Delete(&types.PostComment{}).Error; err != nil {
			return apperr.Storage("delete comments", err)
		}
		if err := tx.Delete(&types.Prompt{}, id).Error; err != nil {
			return apperr.Storage("delete prompt", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Storage("delete prompt", err)
	}
	c.log.Info("prompt deleted", zap.Uint64("id", id), zap.String("account", owner))
	return nil
}
