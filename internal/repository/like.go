package repository

import (
	"context"
	"fmt"

	"github.com/healthtracker/healthtracker/internal/models"
	"gorm.io/gorm"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Create(ctx context.Context, like *models.Like) error {
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		return writeErr("create like", err)
	}
	return nil
}

// Delete reports whether a row was removed.
func (r *LikeRepository) Delete(ctx context.Context, userID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, writeErr("delete like", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *LikeRepository) Get(ctx context.Context, userID, postID uint) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&like).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get like: %w", err)
	}
	return &like, nil
}

func (r *LikeRepository) GetByPostID(ctx context.Context, postID uint) ([]models.Like, error) {
	likes := make([]models.Like, 0)
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("user_id").
		Find(&likes).Error; err != nil {
		return nil, fmt.Errorf("failed to get likes by post: %w", err)
	}
	return likes, nil
}

// GetByPostIDs groups likes per post in one query.
func (r *LikeRepository) GetByPostIDs(ctx context.Context, postIDs []uint) (map[uint][]models.Like, error) {
	grouped := make(map[uint][]models.Like, len(postIDs))
	if len(postIDs) == 0 {
		return grouped, nil
	}
	var likes []models.Like
	if err := r.db.WithContext(ctx).
		Where("post_id IN ?", postIDs).
		Order("post_id, user_id").
		Find(&likes).Error; err != nil {
		return nil, fmt.Errorf("failed to get likes by posts: %w", err)
	}
	for _, like := range likes {
		grouped[like.PostID] = append(grouped[like.PostID], like)
	}
	return grouped, nil
}
