package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/healthtracker/healthtracker/internal/config"
	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
)

type FeedService struct {
	postRepo       *repository.PostRepository
	commentRepo    *repository.CommentRepository
	likeRepo       *repository.LikeRepository
	userRepo       *repository.UserRepository
	friendshipRepo *repository.FriendshipRepository
	cache          FeedCache
	producer       EventPublisher
	config         *config.FeedConfig
	logger         *logger.Logger
}

func NewFeedService(
	postRepo *repository.PostRepository,
	commentRepo *repository.CommentRepository,
	likeRepo *repository.LikeRepository,
	userRepo *repository.UserRepository,
	friendshipRepo *repository.FriendshipRepository,
	cache FeedCache,
	producer EventPublisher,
	config *config.FeedConfig,
	logger *logger.Logger,
) *FeedService {
	return &FeedService{
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		likeRepo:       likeRepo,
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		cache:          cache,
		producer:       producer,
		config:         config,
		logger:         logger,
	}
}

type CreatePostRequest struct {
	UserID   uint    `json:"userId" binding:"required"`
	Content  string  `json:"content" binding:"required,max=2500"`
	ImageURL *string `json:"imageUrl" binding:"omitempty,max=2048"`
}

type PostDTO struct {
	ID               uint          `json:"id"`
	UserID           uint          `json:"userId"`
	UserFirstName    string        `json:"userFirstName"`
	UserLastName     string        `json:"userLastName"`
	Content          string        `json:"content"`
	ImageURL         *string       `json:"imageUrl"`
	DateOfCreate     time.Time     `json:"dateOfCreate"`
	AmountOfComments int64         `json:"amountOfComments"`
	Likes            []models.Like `json:"likes"`
}

// FeedVersionKey holds a counter that is bumped whenever the user's friend
// feed may have changed. Cached pages embed the counter in their key.
func FeedVersionKey(userID uint) string {
	return fmt.Sprintf("feed:ver:%d", userID)
}

func feedPageKey(userID uint, version string, pageNumber, pageSize int) string {
	return fmt.Sprintf("feed:%d:v%s:%d:%d", userID, version, pageNumber, pageSize)
}

func (s *FeedService) CreatePost(ctx context.Context, req *CreatePostRequest) (*PostDTO, error) {
	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound(ErrUserNotFound, req.UserID)
	}

	post := &models.Post{
		UserID:       user.ID,
		Content:      req.Content,
		ImageURL:     normalizeImageURL(req.ImageURL),
		DateOfCreate: time.Now(),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	publish(ctx, s.producer, s.logger, user.ID, queue.EventPostCreated, queue.PostEventData{
		PostID: post.ID,
		UserID: user.ID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"post_id": post.ID,
	}).Info("Post created successfully")

	return &PostDTO{
		ID:            post.ID,
		UserID:        post.UserID,
		UserFirstName: user.FirstName,
		UserLastName:  user.LastName,
		Content:       post.Content,
		ImageURL:      post.ImageURL,
		DateOfCreate:  post.DateOfCreate,
		Likes:         []models.Like{},
	}, nil
}

// GetPost counts every comment of the post, replies included.
func (s *FeedService) GetPost(ctx context.Context, id uint) (*PostDTO, error) {
	row, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFound(ErrPostNotFound, id)
	}

	likes, err := s.likeRepo.GetByPostID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.CountByPostID(ctx, id)
	if err != nil {
		return nil, err
	}

	dto := toPostDTO(row, comments, likes)
	return &dto, nil
}

func (s *FeedService) DeletePost(ctx context.Context, id uint) error {
	row, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return notFound(ErrPostNotFound, id)
	}

	if err := s.postRepo.DeleteWithDependents(ctx, id); err != nil {
		return err
	}

	publish(ctx, s.producer, s.logger, row.UserID, queue.EventPostDeleted, queue.PostEventData{
		PostID: id,
		UserID: row.UserID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id": row.UserID,
		"post_id": id,
	}).Info("Post deleted successfully")

	return nil
}

// GetPosts pages posts written by the user's accepted friends, newest first.
// An empty page, including the no-friends case, is ErrNullPage.
func (s *FeedService) GetPosts(ctx context.Context, userID uint, pageNumber, pageSize int) ([]PostDTO, error) {
	offset, err := pageOffset(pageNumber, pageSize)
	if err != nil {
		return nil, err
	}
	if err := requireUsers(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}

	// 先查缓存
	key := s.cachedPageKey(ctx, userID, pageNumber, pageSize)
	if key != "" {
		var cached []PostDTO
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	friendIDs, err := s.friendshipRepo.FriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	posts, err := s.page(ctx, friendIDs, offset, pageSize)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.SetJSON(ctx, key, posts, s.config.CacheTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache feed page")
		}
	}
	return posts, nil
}

func (s *FeedService) GetUserPosts(ctx context.Context, userID uint, pageNumber, pageSize int) ([]PostDTO, error) {
	offset, err := pageOffset(pageNumber, pageSize)
	if err != nil {
		return nil, err
	}
	if err := requireUsers(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}
	return s.page(ctx, []uint{userID}, offset, pageSize)
}

func (s *FeedService) page(ctx context.Context, authorIDs []uint, offset, limit int) ([]PostDTO, error) {
	rows, err := s.postRepo.Find(ctx, repository.PostQuery{
		AuthorIDs: authorIDs,
		Offset:    offset,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNullPage
	}

	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	counts, err := s.commentRepo.CountTopLevelByPostIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	likes, err := s.likeRepo.GetByPostIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	posts := make([]PostDTO, len(rows))
	for i := range rows {
		posts[i] = toPostDTO(&rows[i], counts[rows[i].ID], likes[rows[i].ID])
	}
	return posts, nil
}

// cachedPageKey returns "" when caching is off or the version cannot be read.
func (s *FeedService) cachedPageKey(ctx context.Context, userID uint, pageNumber, pageSize int) string {
	if s.cache == nil {
		return ""
	}
	version, err := s.cache.Get(ctx, FeedVersionKey(userID))
	if err != nil {
		if !isCacheMiss(err) {
			s.logger.WithError(err).Warn("Failed to read feed version")
			return ""
		}
		version = "0"
	}
	return feedPageKey(userID, version, pageNumber, pageSize)
}

func toPostDTO(row *repository.PostRow, amountOfComments int64, likes []models.Like) PostDTO {
	if likes == nil {
		likes = []models.Like{}
	}
	return PostDTO{
		ID:               row.ID,
		UserID:           row.UserID,
		UserFirstName:    row.UserFirstName,
		UserLastName:     row.UserLastName,
		Content:          row.Content,
		ImageURL:         row.ImageURL,
		DateOfCreate:     row.DateOfCreate,
		AmountOfComments: amountOfComments,
		Likes:            likes,
	}
}

func normalizeImageURL(url *string) *string {
	if url == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*url)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
