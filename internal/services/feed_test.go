package services_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/internal/testutil"
	"github.com/healthtracker/healthtracker/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// seedPosts inserts n posts one minute apart, oldest first.
func seedPosts(t *testing.T, db *gorm.DB, userID uint, n int) []models.Post {
	t.Helper()

	base := time.Now().Add(-24 * time.Hour)
	posts := make([]models.Post, n)
	for i := range posts {
		posts[i] = models.Post{
			UserID:       userID,
			Content:      fmt.Sprintf("post %d", i),
			DateOfCreate: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&posts[i]).Error)
	}
	return posts
}

func TestFeedService_GetPostsPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	viewer := testutil.CreateUser(t, env.db, "Viewer", "V")
	friend := testutil.CreateUser(t, env.db, "Friend", "F")
	stranger := testutil.CreateUser(t, env.db, "Stranger", "S")
	testutil.MakeFriends(t, env.db, viewer.ID, friend.ID)

	posts := seedPosts(t, env.db, friend.ID, 15)
	seedPosts(t, env.db, stranger.ID, 3)

	first, err := env.feed.GetPosts(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, first, 10)
	assert.Equal(t, posts[14].ID, first[0].ID)
	assert.Equal(t, "Friend", first[0].UserFirstName)

	second, err := env.feed.GetPosts(ctx, viewer.ID, 2, 10)
	require.NoError(t, err)
	require.Len(t, second, 5)
	assert.Equal(t, posts[0].ID, second[4].ID)

	for i := 1; i < len(first); i++ {
		assert.False(t, first[i].DateOfCreate.After(first[i-1].DateOfCreate))
	}
	for _, p := range append(first, second...) {
		assert.Equal(t, friend.ID, p.UserID)
	}

	_, err = env.feed.GetPosts(ctx, viewer.ID, 3, 10)
	assert.ErrorIs(t, err, services.ErrNullPage)

	_, err = env.feed.GetPosts(ctx, viewer.ID, 0, 10)
	assert.ErrorIs(t, err, services.ErrInvalidPage)

	_, err = env.feed.GetPosts(ctx, 999, 1, 10)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestFeedService_GetPostsWithoutFriends(t *testing.T) {
	env := newTestEnv(t)

	loner := testutil.CreateUser(t, env.db, "Loner", "L")
	seedPosts(t, env.db, loner.ID, 2)

	_, err := env.feed.GetPosts(context.Background(), loner.ID, 1, 10)
	assert.ErrorIs(t, err, services.ErrNullPage)
}

func TestFeedService_GetPostsUsesVersionedCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	viewer := testutil.CreateUser(t, env.db, "Viewer", "V")
	friend := testutil.CreateUser(t, env.db, "Friend", "F")
	testutil.MakeFriends(t, env.db, viewer.ID, friend.ID)
	seedPosts(t, env.db, friend.ID, 2)

	first, err := env.feed.GetPosts(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, env.cache.Sets)

	// 缓存命中时不会看到新帖子
	seedPosts(t, env.db, friend.ID, 1)
	cached, err := env.feed.GetPosts(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, cached, 2)
	assert.Equal(t, 1, env.cache.Sets)

	require.NoError(t, env.cache.IncrMany(ctx, services.FeedVersionKey(viewer.ID)))
	fresh, err := env.feed.GetPosts(ctx, viewer.ID, 1, 10)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
	assert.Equal(t, 2, env.cache.Sets)
}

func TestFeedService_CreateGetDeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	bob := testutil.CreateUser(t, env.db, "Bob", "B")

	blank := "   "
	post, err := env.feed.CreatePost(ctx, &services.CreatePostRequest{UserID: alice.ID, Content: "morning run", ImageURL: &blank})
	require.NoError(t, err)
	assert.Nil(t, post.ImageURL)
	assert.Equal(t, "Alice", post.UserFirstName)
	assert.NotNil(t, post.Likes)

	root, err := env.comments.CreateComment(ctx, nil, &services.CreateCommentRequest{PostID: post.ID, UserID: bob.ID, Content: "nice"})
	require.NoError(t, err)
	_, err = env.comments.CreateComment(ctx, &root.ID, &services.CreateCommentRequest{PostID: post.ID, UserID: alice.ID, Content: "thanks"})
	require.NoError(t, err)
	_, err = env.likes.CreateLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)

	got, err := env.feed.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.AmountOfComments)
	require.Len(t, got.Likes, 1)
	assert.Equal(t, bob.ID, got.Likes[0].UserID)

	// 动态流只统计顶层评论
	testutil.MakeFriends(t, env.db, alice.ID, bob.ID)
	wall, err := env.feed.GetPosts(ctx, bob.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, wall, 1)
	assert.Equal(t, int64(1), wall[0].AmountOfComments)

	require.NoError(t, env.feed.DeletePost(ctx, post.ID))

	_, err = env.feed.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, services.ErrPostNotFound)

	var remaining int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&remaining).Error)
	assert.Zero(t, remaining)
	require.NoError(t, env.db.Model(&models.Like{}).Count(&remaining).Error)
	assert.Zero(t, remaining)

	err = env.feed.DeletePost(ctx, post.ID)
	assert.ErrorIs(t, err, services.ErrPostNotFound)

	assert.Contains(t, env.publisher.Types(), queue.EventPostDeleted)
}

func TestFeedService_CreatePostUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.feed.CreatePost(context.Background(), &services.CreatePostRequest{UserID: 7, Content: "x"})
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	assert.Empty(t, env.publisher.Events())
}

func TestFeedService_GetUserPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	bob := testutil.CreateUser(t, env.db, "Bob", "B")
	seedPosts(t, env.db, alice.ID, 3)
	seedPosts(t, env.db, bob.ID, 2)

	posts, err := env.feed.GetUserPosts(ctx, alice.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.True(t, strings.HasPrefix(p.Content, "post"))
		assert.Equal(t, alice.ID, p.UserID)
	}

	_, err = env.feed.GetUserPosts(ctx, alice.ID, 3, 2)
	assert.ErrorIs(t, err, services.ErrNullPage)
}

func TestFeedService_PublishFailureDoesNotFailWrite(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.Err = fmt.Errorf("broker down")

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	post, err := env.feed.CreatePost(context.Background(), &services.CreatePostRequest{UserID: alice.ID, Content: "still saved"})
	require.NoError(t, err)

	_, err = env.feed.GetPost(context.Background(), post.ID)
	require.NoError(t, err)
}
