package repository

import (
	"context"
	"fmt"

	"github.com/healthtracker/healthtracker/internal/models"
	"gorm.io/gorm"
)

// PostQuery selects posts by author set, newest first.
type PostQuery struct {
	AuthorIDs []uint
	Offset    int
	Limit     int
}

// PostRow is a post joined with its author's name.
type PostRow struct {
	models.Post
	UserFirstName string
	UserLastName  string
}

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return writeErr("create post", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id uint) (*PostRow, error) {
	var rows []PostRow
	if err := r.withAuthor(ctx).
		Where("posts.id = ?", id).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *PostRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check post: %w", err)
	}
	return count > 0, nil
}

// Find returns one page of posts. An empty AuthorIDs yields an empty page.
func (r *PostRepository) Find(ctx context.Context, q PostQuery) ([]PostRow, error) {
	rows := make([]PostRow, 0)
	if len(q.AuthorIDs) == 0 {
		return rows, nil
	}
	if err := r.withAuthor(ctx).
		Where("posts.user_id IN ?", q.AuthorIDs).
		Order("posts.date_of_create DESC").
		Order("posts.id DESC").
		Offset(q.Offset).
		Limit(q.Limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find posts: %w", err)
	}
	return rows, nil
}

// DeleteWithDependents removes the post's likes and comments, then the post.
func (r *PostRepository) DeleteWithDependents(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Like{}).Error; err != nil {
			return writeErr("delete post likes", err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return writeErr("delete post comments", err)
		}
		if err := tx.Delete(&models.Post{}, id).Error; err != nil {
			return writeErr("delete post", err)
		}
		return nil
	})
}

func (r *PostRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts").
		Select("posts.*, users.first_name AS user_first_name, users.last_name AS user_last_name").
		Joins("JOIN users ON users.id = posts.user_id")
}
