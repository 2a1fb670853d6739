package services_test

import (
	"context"
	"testing"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/services"
	"github.com/healthtracker/healthtracker/internal/testutil"
	"github.com/healthtracker/healthtracker/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_PagesTopLevelComments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	post := seedPosts(t, env.db, alice.ID, 1)[0]

	var roots []*services.CommentDTO
	for i := 0; i < 5; i++ {
		c, err := env.comments.CreateComment(ctx, nil, &services.CreateCommentRequest{PostID: post.ID, UserID: alice.ID, Content: "root"})
		require.NoError(t, err)
		roots = append(roots, c)
	}
	for i := 0; i < 2; i++ {
		_, err := env.comments.CreateComment(ctx, &roots[0].ID, &services.CreateCommentRequest{PostID: post.ID, UserID: alice.ID, Content: "reply"})
		require.NoError(t, err)
	}

	page, err := env.comments.GetCommentsByPostID(ctx, post.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Comments, 2)
	assert.Equal(t, int64(3), page.TotalCommentsLeft)
	assert.Equal(t, post.ID, page.PostID)

	last, err := env.comments.GetCommentsByPostID(ctx, post.ID, 3, 2)
	require.NoError(t, err)
	assert.Len(t, last.Comments, 1)
	assert.Zero(t, last.TotalCommentsLeft)

	_, err = env.comments.GetCommentsByPostID(ctx, post.ID, 4, 2)
	assert.ErrorIs(t, err, services.ErrNullPage)

	_, err = env.comments.GetCommentsByPostID(ctx, 999, 1, 2)
	assert.ErrorIs(t, err, services.ErrPostNotFound)

	got, err := env.comments.GetComment(ctx, roots[0].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.AmountOfChildComments)
	assert.Equal(t, "Alice", got.UserFirstName)

	children, err := env.comments.GetCommentsByParentCommentID(ctx, post.ID, roots[0].ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, roots[0].ID, *children[0].ParentCommentID)

	none, err := env.comments.GetCommentsByParentCommentID(ctx, post.ID, roots[1].ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCommentService_CreateValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	post := seedPosts(t, env.db, alice.ID, 1)[0]

	missingParent := uint(500)
	_, err := env.comments.CreateComment(ctx, &missingParent, &services.CreateCommentRequest{PostID: 999, UserID: 999, Content: "x"})
	assert.ErrorIs(t, err, services.ErrCommentNotFound)

	_, err = env.comments.CreateComment(ctx, nil, &services.CreateCommentRequest{PostID: 999, UserID: 999, Content: "x"})
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	_, err = env.comments.CreateComment(ctx, nil, &services.CreateCommentRequest{PostID: 999, UserID: alice.ID, Content: "x"})
	assert.ErrorIs(t, err, services.ErrPostNotFound)

	created, err := env.comments.CreateComment(ctx, nil, &services.CreateCommentRequest{PostID: post.ID, UserID: alice.ID, Content: "x"})
	require.NoError(t, err)
	assert.Nil(t, created.ParentCommentID)
	assert.Equal(t, []queue.EventType{queue.EventCommentCreated}, env.publisher.Types())
}

func TestCommentService_Deletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	bob := testutil.CreateUser(t, env.db, "Bob", "B")
	post := seedPosts(t, env.db, alice.ID, 1)[0]

	create := func(parent *uint, userID uint) *services.CommentDTO {
		c, err := env.comments.CreateComment(ctx, parent, &services.CreateCommentRequest{PostID: post.ID, UserID: userID, Content: "c"})
		require.NoError(t, err)
		return c
	}

	root := create(nil, alice.ID)
	reply := create(&root.ID, bob.ID)
	create(&reply.ID, alice.ID)
	keep := create(nil, bob.ID)

	require.NoError(t, env.comments.DeleteComment(ctx, root.ID))

	_, err := env.comments.GetComment(ctx, reply.ID)
	assert.ErrorIs(t, err, services.ErrCommentNotFound)
	_, err = env.comments.GetComment(ctx, keep.ID)
	require.NoError(t, err)

	err = env.comments.DeleteComment(ctx, root.ID)
	assert.ErrorIs(t, err, services.ErrCommentNotFound)

	create(nil, bob.ID)
	require.NoError(t, env.comments.DeleteUserComments(ctx, bob.ID))
	var count int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)

	err = env.comments.DeleteUserComments(ctx, 999)
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	create(nil, alice.ID)
	create(nil, bob.ID)
	require.NoError(t, env.comments.DeleteCommentsFromPost(ctx, post.ID))
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&count).Error)
	assert.Zero(t, count)

	err = env.comments.DeleteCommentsFromPost(ctx, 999)
	assert.ErrorIs(t, err, services.ErrPostNotFound)
}

func TestCommentService_DeleteUserCommentsPublishesPerPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	bob := testutil.CreateUser(t, env.db, "Bob", "B")
	posts := seedPosts(t, env.db, alice.ID, 3)

	for _, post := range posts[:2] {
		for i := 0; i < 2; i++ {
			_, err := env.comments.CreateComment(ctx, nil, &services.CreateCommentRequest{PostID: post.ID, UserID: bob.ID, Content: "nice pace"})
			require.NoError(t, err)
		}
	}
	_, err := env.comments.CreateComment(ctx, nil, &services.CreateCommentRequest{PostID: posts[2].ID, UserID: alice.ID, Content: "mine"})
	require.NoError(t, err)

	before := len(env.publisher.Events())
	require.NoError(t, env.comments.DeleteUserComments(ctx, bob.ID))

	events := env.publisher.Events()[before:]
	require.Len(t, events, 2)
	var got []uint
	for _, e := range events {
		assert.Equal(t, queue.EventCommentDeleted, e.Event.Type)
		data, ok := e.Event.Data.(queue.CommentEventData)
		require.True(t, ok)
		assert.Equal(t, bob.ID, data.UserID)
		got = append(got, data.PostID)
	}
	assert.ElementsMatch(t, []uint{posts[0].ID, posts[1].ID}, got)

	// 没有评论时不发布事件
	require.NoError(t, env.comments.DeleteUserComments(ctx, bob.ID))
	assert.Len(t, env.publisher.Events(), before+2)
}

func TestCommentService_RejectsParentFromAnotherPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, env.db, "Alice", "A")
	posts := seedPosts(t, env.db, alice.ID, 2)

	root, err := env.comments.CreateComment(ctx, nil, &services.CreateCommentRequest{PostID: posts[0].ID, UserID: alice.ID, Content: "root"})
	require.NoError(t, err)

	_, err = env.comments.CreateComment(ctx, &root.ID, &services.CreateCommentRequest{PostID: posts[1].ID, UserID: alice.ID, Content: "stray"})
	assert.ErrorIs(t, err, services.ErrCommentNotFound)

	require.NoError(t, env.feed.DeletePost(ctx, posts[0].ID))

	var left int64
	require.NoError(t, env.db.Model(&models.Comment{}).Count(&left).Error)
	assert.Zero(t, left)
}
