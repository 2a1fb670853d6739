package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createPost(t *testing.T, db *gorm.DB, userID uint, at time.Time) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Content: "post", DateOfCreate: at}
	require.NoError(t, repository.NewPostRepository(db).Create(context.Background(), post))
	return post
}

func createComment(t *testing.T, db *gorm.DB, postID, userID uint, parentID *uint) *models.Comment {
	t.Helper()
	comment := &models.Comment{PostID: postID, UserID: userID, ParentCommentID: parentID, Content: "comment", DateOfCreate: time.Now()}
	require.NoError(t, repository.NewCommentRepository(db).Create(context.Background(), comment))
	return comment
}

func commentIDs(t *testing.T, db *gorm.DB) []uint {
	t.Helper()
	var ids []uint
	require.NoError(t, db.Model(&models.Comment{}).Order("id").Pluck("id", &ids).Error)
	return ids
}

func TestCommentRepository_DeleteTree(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCommentRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "Alice", "A")
	post := createPost(t, db, alice.ID, time.Now())

	root := createComment(t, db, post.ID, alice.ID, nil)
	child := createComment(t, db, post.ID, alice.ID, &root.ID)
	createComment(t, db, post.ID, alice.ID, &child.ID)
	createComment(t, db, post.ID, alice.ID, &root.ID)
	other := createComment(t, db, post.ID, alice.ID, nil)

	removed, err := repo.DeleteTree(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.Equal(t, []uint{other.ID}, commentIDs(t, db))
}

func TestCommentRepository_DeleteByUserIDTakesReplies(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCommentRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "Alice", "A")
	bob := testutil.CreateUser(t, db, "Bob", "B")
	post := createPost(t, db, alice.ID, time.Now())

	aliceRoot := createComment(t, db, post.ID, alice.ID, nil)
	bobReply := createComment(t, db, post.ID, bob.ID, &aliceRoot.ID)
	createComment(t, db, post.ID, alice.ID, &bobReply.ID)
	bobRoot := createComment(t, db, post.ID, bob.ID, nil)

	second := createPost(t, db, bob.ID, time.Now())
	createComment(t, db, second.ID, alice.ID, nil)

	removed, postIDs, err := repo.DeleteByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)
	assert.Equal(t, []uint{post.ID, second.ID}, postIDs)
	assert.Equal(t, []uint{bobRoot.ID}, commentIDs(t, db))

	removed, postIDs, err = repo.DeleteByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Empty(t, postIDs)
}

func TestCommentRepository_GroupedCounts(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repository.NewCommentRepository(db)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "Alice", "A")
	first := createPost(t, db, alice.ID, time.Now())
	second := createPost(t, db, alice.ID, time.Now())
	quiet := createPost(t, db, alice.ID, time.Now())

	a := createComment(t, db, first.ID, alice.ID, nil)
	createComment(t, db, first.ID, alice.ID, nil)
	createComment(t, db, first.ID, alice.ID, &a.ID)
	createComment(t, db, first.ID, alice.ID, &a.ID)
	b := createComment(t, db, second.ID, alice.ID, nil)

	topLevel, err := repo.CountTopLevelByPostIDs(ctx, []uint{first.ID, second.ID, quiet.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), topLevel[first.ID])
	assert.Equal(t, int64(1), topLevel[second.ID])
	assert.Zero(t, topLevel[quiet.ID])

	children, err := repo.CountChildren(ctx, []uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), children[a.ID])
	assert.Zero(t, children[b.ID])

	all, err := repo.CountByPostID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), all)

	rows, err := repo.TopLevelByPostID(ctx, first.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].UserFirstName)
	for _, row := range rows {
		assert.Nil(t, row.ParentCommentID)
	}
}
