package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/microblog/internal/events"
	"github.com/d60-Lab/microblog/internal/model"
)

func TestFollow_Idempotent(t *testing.T) {
	f := newFixture(t)
	svc := f.relationships()
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	require.NoError(t, svc.Follow(ctx, a.ID, "b"))
	ok, err := svc.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.Follow(ctx, a.ID, "b"))
	ok, err = svc.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	cnt, err := f.follows.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cnt)
	// 第二次关注没有新边，不发事件
	assert.Equal(t, []string{events.FollowCreated}, f.pub.types())
}

func TestFollow_SelfRejected(t *testing.T) {
	f := newFixture(t)
	svc := f.relationships()
	ctx := context.Background()
	a := f.user(t, "a")

	err := svc.Follow(ctx, a.ID, "a")
	assert.ErrorIs(t, err, ErrFollowSelf)

	cnt, err := f.follows.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, cnt)
	assert.Empty(t, f.pub.types())
}

func TestFollow_UnknownAuthor(t *testing.T) {
	f := newFixture(t)
	svc := f.relationships()
	a := f.user(t, "a")

	assert.ErrorIs(t, svc.Follow(context.Background(), a.ID, "ghost"), ErrNotFound)
	assert.ErrorIs(t, svc.Unfollow(context.Background(), a.ID, "ghost"), ErrNotFound)
}

func TestFollow_DeletedFollower(t *testing.T) {
	f := newFixture(t)
	svc := f.relationships()
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")
	require.NoError(t, svc.Follow(ctx, a.ID, "b"))

	err := svc.Follow(ctx, "no-such-user", "b")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, f.db.Delete(&model.User{}, "id = ?", a.ID).Error)
	counts, err := svc.Counts(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowCounts{}, counts)

	page, err := svc.ListFollowers(ctx, "b", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, []string{events.FollowCreated}, f.pub.types())
}

func TestUnfollow_RemovesExactlyOneEdge(t *testing.T) {
	f := newFixture(t)
	svc := f.relationships()
	ctx := context.Background()
	a, b, c := f.user(t, "a"), f.user(t, "b"), f.user(t, "c")
	require.NoError(t, svc.Follow(ctx, c.ID, "b"))

	before, err := f.follows.Count(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.Follow(ctx, a.ID, "b"))
	require.NoError(t, svc.Unfollow(ctx, a.ID, "b"))

	ok, err := svc.IsFollowing(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	after, err := f.follows.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	ok, err = svc.IsFollowing(ctx, c.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUnfollow_AbsentEdgeIsNoop(t *testing.T) {
	f := newFixture(t)
	svc := f.relationships()
	a := f.user(t, "a")
	f.user(t, "b")

	require.NoError(t, svc.Unfollow(context.Background(), a.ID, "b"))
	assert.Empty(t, f.pub.types())
}

func TestFollow_ConcurrentRace(t *testing.T) {
	f := newFixture(t)
	svc := f.relationships()
	ctx := context.Background()
	a := f.user(t, "a")
	f.user(t, "b")

	const n = 50
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Follow(ctx, a.ID, "b")
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	cnt, err := f.follows.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cnt)
	assert.Len(t, f.pub.types(), 1)
}

func TestIsFollowing_Anonymous(t *testing.T) {
	f := newFixture(t)
	b := f.user(t, "b")
	ok, err := f.relationships().IsFollowing(context.Background(), "", b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListFollowingAndFollowers(t *testing.T) {
	f := newFixture(t)
	svc := f.relationships()
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")
	f.user(t, "c")

	require.NoError(t, svc.Follow(ctx, a.ID, "b"))
	require.NoError(t, svc.Follow(ctx, a.ID, "c"))
	require.NoError(t, svc.Follow(ctx, b.ID, "c"))

	following, err := svc.ListFollowing(ctx, "a", 1, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, following.Items)
	assert.EqualValues(t, 2, following.TotalItems)

	followers, err := svc.ListFollowers(ctx, "c", 1, 1)
	require.NoError(t, err)
	assert.Len(t, followers.Items, 1)
	assert.Equal(t, 2, followers.TotalPages)
	assert.True(t, followers.HasNext)

	counts, err := svc.Counts(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, FollowCounts{Following: 2, Followers: 0}, counts)

	_, err = svc.ListFollowers(ctx, "ghost", 1, 10)
	assert.ErrorIs(t, err, ErrNotFound)
}
