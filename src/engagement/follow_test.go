package engagement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptverse/promptfeed/src/apperr"
	"github.com/promptverse/promptfeed/src/events"
)

func TestFollowGraph(t *testing.T) {
	ctx := context.Background()
	ix, _, rec := newIndex(t)

	require.NoError(t, ix.Follow(ctx, "0xviewer", "0xb"))
	require.NoError(t, ix.Follow(ctx, "0xviewer", "0xa"))
	require.NoError(t, ix.Follow(ctx, "0xa", "0xviewer"))

	err := ix.Follow(ctx, "0xviewer", "0xa")
	assert.Equal(t, apperr.KindDuplicateAction, apperr.KindOf(err))

	following, err := ix.Following(ctx, "0xviewer")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa", "0xb"}, following)

	followers, err := ix.Followers(ctx, "0xviewer")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa"}, followers)

	require.NoError(t, ix.Unfollow(ctx, "0xviewer", "0xb"))
	err = ix.Unfollow(ctx, "0xviewer", "0xb")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	following, err = ix.Following(ctx, "0xviewer")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xa"}, following)

	kinds := map[events.Kind]int{}
	for _, e := range rec.Events() {
		kinds[e.Kind]++
	}
	assert.Equal(t, 3, kinds[events.KindFollow])
	assert.Equal(t, 1, kinds[events.KindUnfollow])
}

func TestSelfFollowAllowed(t *testing.T) {
	ctx := context.Background()
	ix, _, _ := newIndex(t)

	require.NoError(t, ix.Follow(ctx, "0xme", "0xme"))
	following, err := ix.Following(ctx, "0xme")
	require.NoError(t, err)
	assert.Equal(t, []string{"0xme"}, following)
}

func TestFollowRequiresAccounts(t *testing.T) {
	ix, _, _ := newIndex(t)
	err := ix.Follow(context.Background(), "", "0xb")
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestFollowingEmpty(t *testing.T) {
	ix, _, _ := newIndex(t)
	following, err := ix.Following(context.Background(), "0xloner")
	require.NoError(t, err)
	assert.Empty(t, following)
}
