package services

import (
	"context"
	"fmt"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
)

type LikeService struct {
	postRepo *repository.PostRepository
	likeRepo *repository.LikeRepository
	userRepo *repository.UserRepository
	producer EventPublisher
	logger   *logger.Logger
}

func NewLikeService(postRepo *repository.PostRepository, likeRepo *repository.LikeRepository, userRepo *repository.UserRepository, producer EventPublisher, logger *logger.Logger) *LikeService {
	return &LikeService{
		postRepo: postRepo,
		likeRepo: likeRepo,
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

type CreateLikeRequest struct {
	UserID uint `json:"userId" binding:"required"`
	PostID uint `json:"postId" binding:"required"`
}

func (s *LikeService) CreateLike(ctx context.Context, userID, postID uint) (*models.Like, error) {
	// 检查是否已经点赞
	existingLike, err := s.likeRepo.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if existingLike != nil {
		return nil, ErrLikeAlreadyExists
	}

	if err := requireUsers(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}

	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound(ErrPostNotFound, postID)
	}

	like := &models.Like{
		UserID: userID,
		PostID: postID,
	}
	if err := s.likeRepo.Create(ctx, like); err != nil {
		// 并发请求可能在检查之后抢先写入
		if repository.IsDuplicateKey(err) {
			return nil, ErrLikeAlreadyExists
		}
		return nil, err
	}

	publish(ctx, s.producer, s.logger, userID, queue.EventLikeCreated, queue.LikeEventData{
		UserID: userID,
		PostID: postID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"post_id": postID,
	}).Info("Post liked successfully")

	return like, nil
}

func (s *LikeService) GetLike(ctx context.Context, userID, postID uint) (*models.Like, error) {
	like, err := s.likeRepo.Get(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if like == nil {
		return nil, fmt.Errorf("%w: user %d post %d", ErrLikeNotFound, userID, postID)
	}
	return like, nil
}

func (s *LikeService) DeleteLike(ctx context.Context, userID, postID uint) error {
	removed, err := s.likeRepo.Delete(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: user %d post %d", ErrLikeNotFound, userID, postID)
	}

	publish(ctx, s.producer, s.logger, userID, queue.EventLikeDeleted, queue.LikeEventData{
		UserID: userID,
		PostID: postID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"post_id": postID,
	}).Info("Post unliked successfully")

	return nil
}

func (s *LikeService) GetLikesFromPost(ctx context.Context, postID uint) ([]models.Like, error) {
	return s.likeRepo.GetByPostID(ctx, postID)
}
