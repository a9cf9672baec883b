package prompts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/data/datatest"
	"github.com/promptverse/promptfeed/src/events"
	"github.com/promptverse/promptfeed/src/paging"
	"github.com/promptverse/promptfeed/src/stats"
	"github.com/promptverse/promptfeed/src/types"
)

var now = time.Date(2024, 7, 4, 9, 30, 0, 0, time.UTC)

func newCatalog(t *testing.T) (*Catalog, *gorm.DB, *events.Recorder) {
	db := datatest.NewDB(t)
	rec := &events.Recorder{}
	ledger := stats.NewLedger(db, nil, stats.WithClock(func() time.Time { return now }))
	return NewCatalog(db, ledger, nil, WithPublisher(rec)), db, rec
}

func publicDraft(owner string, tag types.PromptTag, public bool) Draft {
	return Draft{
		IPFSImageURL:   "ipfs://Qm" + owner,
		Prompt:         "a lighthouse at dusk",
		AccountAddress: owner,
		PostName:       "lighthouse",
		Public:         public,
		PromptTag:      tag,
	}
}

func premiumDraft(owner string) Draft {
	collection, supply, price := "Harbors", 50, "0.25"
	d := publicDraft(owner, types.PromptTagPhotography, true)
	d.CollectionName, d.MaxSupply, d.PromptNFTPrice = &collection, &supply, &price
	return d
}

func TestCreatePublic(t *testing.T) {
	ctx := context.Background()
	c, db, rec := newCatalog(t)

	p, err := c.CreatePublic(ctx, publicDraft("0xowner", types.PromptTagAnime, false))
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, types.PromptTypePublic, p.PromptType)
	assert.False(t, p.Public)
	assert.False(t, p.HasMarketplaceFields())

	var stat types.UserStat
	require.NoError(t, db.Where("user_account = ?", "0xowner").First(&stat).Error)
	assert.Equal(t, int64(stats.XPPerGeneration), stat.XP)
	assert.Equal(t, int64(1), stat.TotalGenerations)
	assert.Equal(t, 1, stat.StreakDays)

	require.Len(t, rec.Events(), 1)
	assert.Equal(t, events.KindGeneration, rec.Events()[0].Kind)
	assert.Equal(t, p.ID, rec.Events()[0].PromptID)
}

func TestCreatePublicRejectsMarketplaceFields(t *testing.T) {
	ctx := context.Background()
	c, db, rec := newCatalog(t)

	d := premiumDraft("0xowner")
	_, err := c.CreatePublic(ctx, d)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	var n int64
	db.Model(&types.Prompt{}).Count(&n)
	assert.Zero(t, n)
	db.Model(&types.UserStat{}).Count(&n)
	assert.Zero(t, n)
	assert.Empty(t, rec.Events())
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCatalog(t)

	tests := []struct {
		name   string
		mutate func(*Draft)
	}{
		{"no image", func(d *Draft) { d.IPFSImageURL = " " }},
		{"no owner", func(d *Draft) { d.AccountAddress = "" }},
		{"no tag", func(d *Draft) { d.PromptTag = "" }},
		{"bad tag", func(d *Draft) { d.PromptTag = "Watercolor" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := publicDraft("0xowner", types.PromptTagOther, true)
			tt.mutate(&d)
			_, err := c.CreatePublic(ctx, d)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}

func TestCreatePremium(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCatalog(t)

	p, err := c.CreatePremium(ctx, premiumDraft("0xartist"))
	require.NoError(t, err)
	assert.Equal(t, types.PromptTypePremium, p.PromptType)
	assert.False(t, p.Public, "premium prompts are never public")
	require.NotNil(t, p.MaxSupply)
	assert.Equal(t, 50, *p.MaxSupply)

	got, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Harbors", *got.CollectionName)
	assert.Equal(t, "0.25", *got.PromptNFTPrice)
	assert.False(t, got.Public)

	tests := []struct {
		name   string
		mutate func(*Draft)
	}{
		{"no collection", func(d *Draft) { d.CollectionName = nil }},
		{"zero supply", func(d *Draft) { zero := 0; d.MaxSupply = &zero }},
		{"no price", func(d *Draft) { empty := ""; d.PromptNFTPrice = &empty }},
		{"no tag", func(d *Draft) { d.PromptTag = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := premiumDraft("0xartist")
			tt.mutate(&d)
			_, err := c.CreatePremium(ctx, d)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		})
	}
}

func TestCreateSanitizesText(t *testing.T) {
	c, _, _ := newCatalog(t)
	d := publicDraft("0xowner", types.PromptTagVector, true)
	d.Prompt = `<script>alert(1)</script>neon <b>city</b>`
	d.PostName = "<i>night</i>"

	p, err := c.CreatePublic(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, "neon city", p.Prompt)
	assert.Equal(t, "night", p.PostName)
}

func TestListAndFilterPublic(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newCatalog(t)

	_, err := c.CreatePublic(ctx, publicDraft("0xa", types.PromptTagAnime, true))
	require.NoError(t, err)
	_, err = c.CreatePublic(ctx, publicDraft("0xb", types.PromptTagAnime, false))
	require.NoError(t, err)
	_, err = c.CreatePublic(ctx, publicDraft("0xc", types.PromptTagVector, true))
	require.NoError(t, err)
	_, err = c.CreatePremium(ctx, premiumDraft("0xd"))
	require.NoError(t, err)

	res, err := c.ListPublic(ctx, paging.Request{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Total)
	assert.Len(t, res.Results, 2)

	yes, no := true, false
	tests := []struct {
		name   string
		tag    string
		public *bool
		want   int64
	}{
		{"all", TagAll, nil, 3},
		{"all uppercase", "ALL", nil, 3},
		{"anime", "Anime", nil, 2},
		{"anime public", "Anime", &yes, 1},
		{"hidden", "", &no, 1},
		{"vector hidden", "Vector", &no, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.FilterPublic(ctx, tt.tag, tt.public, paging.Request{Page: 1, PageSize: 10})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Total)
			assert.Len(t, res.Results, int(tt.want))
		})
	}

	_, err = c.FilterPublic(ctx, "Watercolor", nil, paging.Request{Page: 1, PageSize: 10})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	prem, err := c.ListPremium(ctx, paging.Request{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), prem.Total)
	assert.Equal(t, "0xd", prem.Results[0].AccountAddress)
}

func TestGetMissing(t *testing.T) {
	c, _, _ := newCatalog(t)
	_, err := c.Get(context.Background(), 42)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	c, db, _ := newCatalog(t)

	p, err := c.CreatePublic(ctx, publicDraft("0xowner", types.PromptTagOther, true))
	require.NoError(t, err)
	other, err := c.CreatePublic(ctx, publicDraft("0xother", types.PromptTagOther, true))
	require.NoError(t, err)

	for _, id := range []uint64{p.ID, other.ID} {
		require.NoError(t, db.Create(&types.PostLike{PromptID: id, PromptType: types.PromptTypePublic, UserAccount: "0xfan"}).Error)
		require.NoError(t, db.Create(&types.PostComment{PromptID: id, PromptType: types.PromptTypePublic, UserAccount: "0xfan", Comment: "nice"}).Error)
	}

	err = c.Delete(ctx, p.ID, "0xother")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	require.NoError(t, c.Delete(ctx, p.ID, "0xowner"))

	_, err = c.Get(ctx, p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	var likes, comments int64
	db.Model(&types.PostLike{}).Count(&likes)
	db.Model(&types.PostComment{}).Count(&comments)
	assert.Equal(t, int64(1), likes, "other prompt's like survives")
	assert.Equal(t, int64(1), comments)

	err = c.Delete(ctx, p.ID, "0xowner")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestTagsAndFilterTypes(t *testing.T) {
	c, _, _ := newCatalog(t)
	assert.Equal(t, types.PromptTags, c.Tags())
	assert.Equal(t, []types.FilterType{types.FilterRecent, types.FilterPopular, types.FilterTrending}, c.FilterTypes())

	tags := c.Tags()
	tags[0] = "mutated"
	assert.Equal(t, types.PromptTag3DArt, types.PromptTags[0])
}

func TestListPaging(t *testing.T) {
	ctx := context.Background()
	c, db, _ := newCatalog(t)
	_, err := c.CreatePublic(ctx, publicDraft("0xa", types.PromptTagAnime, true))
	require.NoError(t, err)

	res, err := c.ListPublic(ctx, paging.Request{Page: paging.MaxPage(4), PageSize: 4})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, int64(1), res.Total)

	_, err = c.ListPublic(ctx, paging.Request{Page: paging.MaxPage(4) + 1, PageSize: 4})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = c.ListPublic(ctx, paging.Request{Page: 1, PageSize: 150})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	wide := NewCatalog(db, stats.NewLedger(db, nil), nil, WithMaxPageSize(200))
	res, err = wide.ListPublic(ctx, paging.Request{Page: 1, PageSize: 150})
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
}
