package types

import "time"

// PromptType discriminates public posts from marketplace (NFT-backed) ones.
type PromptType string

const (
	PromptTypePublic  PromptType = "public"
	PromptTypePremium PromptType = "premium"
)

func (t PromptType) Valid() bool {
	return t == PromptTypePublic || t == PromptTypePremium
}

type PromptTag string

const (
	PromptTag3DArt       PromptTag = "3D Art"
	PromptTagAnime       PromptTag = "Anime"
	PromptTagPhotography PromptTag = "Photography"
	PromptTagVector      PromptTag = "Vector"
	PromptTagOther       PromptTag = "Other"
)

// PromptTags lists every tag in display order.
var PromptTags = []PromptTag{
	PromptTag3DArt, PromptTagAnime, PromptTagPhotography, PromptTagVector, PromptTagOther,
}

func (t PromptTag) Valid() bool {
	for _, v := range PromptTags {
		if v == t {
			return true
		}
	}
	return false
}

// FilterType selects a marketplace ordering.
type FilterType string

const (
	FilterRecent   FilterType = "recent"
	FilterPopular  FilterType = "popular"
	FilterTrending FilterType = "trending"
)

var FilterTypes = []FilterType{FilterRecent, FilterPopular, FilterTrending}

func (f FilterType) Valid() bool {
	return f == FilterRecent || f == FilterPopular || f == FilterTrending
}

// Prompts (public and premium share one table)
type Prompt struct {
	ID             uint64     `gorm:"primaryKey" json:"id"`
	IPFSImageURL   string     `gorm:"column:ipfs_image_url;size:512;not null" json:"ipfs_image_url"`
	Prompt         string     `gorm:"type:text;not null" json:"prompt"`
	AccountAddress string     `gorm:"size:128;index;not null" json:"account_address"`
	PostName       string     `gorm:"size:255;not null" json:"post_name"`
	Public         bool       `gorm:"not null" json:"public"`
	PromptTag      PromptTag  `gorm:"size:32;not null" json:"prompt_tag"`
	PromptType     PromptType `gorm:"size:16;index;not null" json:"prompt_type"`
	CollectionName *string    `gorm:"size:255" json:"collection_name,omitempty"`
	MaxSupply      *int       `json:"max_supply,omitempty"`
	PromptNFTPrice *string    `gorm:"column:prompt_nft_price;size:64" json:"prompt_nft_price,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
}

// HasMarketplaceFields reports whether any premium-only field is set.
func (p Prompt) HasMarketplaceFields() bool {
	return p.CollectionName != nil || p.MaxSupply != nil || p.PromptNFTPrice != nil
}

// One like per (prompt, account)
type PostLike struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	PromptID    uint64     `gorm:"not null;uniqueIndex:idx_like_pair" json:"prompt_id"`
	PromptType  PromptType `gorm:"size:16;not null" json:"prompt_type"`
	UserAccount string     `gorm:"size:128;not null;uniqueIndex:idx_like_pair" json:"user_account"`
	CreatedAt   time.Time  `json:"created_at"`
}

type PostComment struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	PromptID    uint64     `gorm:"index;not null" json:"prompt_id"`
	PromptType  PromptType `gorm:"size:16;not null" json:"prompt_type"`
	UserAccount string     `gorm:"size:128;not null" json:"user_account"`
	Comment     string     `gorm:"type:text;not null" json:"comment"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
}

// Follow edge: FollowerAccount follows CreatorAccount
type Follow struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	FollowerAccount string    `gorm:"size:128;not null;uniqueIndex:idx_follow_pair;index" json:"follower_account"`
	CreatorAccount  string    `gorm:"size:128;not null;uniqueIndex:idx_follow_pair;index" json:"creator_account"`
	CreatedAt       time.Time `json:"created_at"`
}

// Engagement stats, one row per account
type UserStat struct {
	ID               uint64     `gorm:"primaryKey" json:"-"`
	UserAccount      string     `gorm:"size:128;uniqueIndex;not null" json:"user_account"`
	XP               int64      `gorm:"column:xp;not null;default:0" json:"xp"`
	TotalGenerations int64      `gorm:"not null;default:0" json:"total_generations"`
	StreakDays       int        `gorm:"not null;default:0" json:"streak_days"`
	LastGeneration   *time.Time `json:"last_generation"`
}

// Settings
type Setting struct {
	ID    uint32 `gorm:"primaryKey"`
	Name  string `gorm:"size:64;uniqueIndex;not null"`
	Value string `gorm:"size:512;not null"`
}

// AllModels is the migration set, parents first.
var AllModels = []interface{}{
	&Setting{}, &Prompt{}, &PostLike{}, &PostComment{}, &Follow{}, &UserStat{},
}
