package services

import (
	"context"
	"time"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
)

type CommentService struct {
	postRepo    *repository.PostRepository
	commentRepo *repository.CommentRepository
	userRepo    *repository.UserRepository
	producer    EventPublisher
	logger      *logger.Logger
}

func NewCommentService(postRepo *repository.PostRepository, commentRepo *repository.CommentRepository, userRepo *repository.UserRepository, producer EventPublisher, logger *logger.Logger) *CommentService {
	return &CommentService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		producer:    producer,
		logger:      logger,
	}
}

type CreateCommentRequest struct {
	PostID  uint   `json:"postId" binding:"required"`
	UserID  uint   `json:"userId" binding:"required"`
	Content string `json:"content" binding:"required,max=1000"`
}

type CommentDTO struct {
	ID                    uint      `json:"id"`
	PostID                uint      `json:"postId"`
	UserID                uint      `json:"userId"`
	UserFirstName         string    `json:"userFirstName"`
	UserLastName          string    `json:"userLastName"`
	ParentCommentID       *uint     `json:"parentCommentId"`
	Content               string    `json:"content"`
	DateOfCreate          time.Time `json:"dateOfCreate"`
	AmountOfChildComments int64     `json:"amountOfChildComments"`
}

// CommentsFromPost is one page of top-level comments.
type CommentsFromPost struct {
	Comments          []CommentDTO `json:"comments"`
	PageNr            int          `json:"pageNr"`
	PageSize          int          `json:"pageSize"`
	PostID            uint         `json:"postId"`
	TotalCommentsLeft int64        `json:"totalCommentsLeft"`
}

// CreateComment validates parent, author and post, in that order. A parent
// on another post counts as missing.
func (s *CommentService) CreateComment(ctx context.Context, parentCommentID *uint, req *CreateCommentRequest) (*CommentDTO, error) {
	if parentCommentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *parentCommentID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.PostID != req.PostID {
			return nil, notFound(ErrCommentNotFound, *parentCommentID)
		}
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound(ErrUserNotFound, req.UserID)
	}

	exists, err := s.postRepo.Exists(ctx, req.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound(ErrPostNotFound, req.PostID)
	}

	comment := &models.Comment{
		PostID:          req.PostID,
		UserID:          req.UserID,
		ParentCommentID: parentCommentID,
		Content:         req.Content,
		DateOfCreate:    time.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	publish(ctx, s.producer, s.logger, req.UserID, queue.EventCommentCreated, queue.CommentEventData{
		CommentID:       comment.ID,
		UserID:          comment.UserID,
		PostID:          comment.PostID,
		ParentCommentID: comment.ParentCommentID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":    comment.UserID,
		"post_id":    comment.PostID,
		"comment_id": comment.ID,
	}).Info("Comment created successfully")

	return &CommentDTO{
		ID:              comment.ID,
		PostID:          comment.PostID,
		UserID:          comment.UserID,
		UserFirstName:   user.FirstName,
		UserLastName:    user.LastName,
		ParentCommentID: comment.ParentCommentID,
		Content:         comment.Content,
		DateOfCreate:    comment.DateOfCreate,
	}, nil
}

func (s *CommentService) GetComment(ctx context.Context, id uint) (*CommentDTO, error) {
	row, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFound(ErrCommentNotFound, id)
	}

	counts, err := s.commentRepo.CountChildren(ctx, []uint{id})
	if err != nil {
		return nil, err
	}

	dto := toCommentDTO(row, counts[id])
	return &dto, nil
}

func (s *CommentService) GetCommentsByPostID(ctx context.Context, postID uint, pageNr, pageSize int) (*CommentsFromPost, error) {
	offset, err := pageOffset(pageNr, pageSize)
	if err != nil {
		return nil, err
	}
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	rows, err := s.commentRepo.TopLevelByPostID(ctx, postID, offset, pageSize)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNullPage
	}

	comments, err := s.withChildCounts(ctx, rows)
	if err != nil {
		return nil, err
	}

	total, err := s.commentRepo.CountTopLevelByPostID(ctx, postID)
	if err != nil {
		return nil, err
	}

	return &CommentsFromPost{
		Comments:          comments,
		PageNr:            pageNr,
		PageSize:          pageSize,
		PostID:            postID,
		TotalCommentsLeft: remainingAfter(total, pageNr, pageSize),
	}, nil
}

// GetCommentsByParentCommentID returns every direct reply; no replies is not an error.
func (s *CommentService) GetCommentsByParentCommentID(ctx context.Context, postID, parentCommentID uint) ([]CommentDTO, error) {
	if err := s.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	exists, err := s.commentRepo.Exists(ctx, parentCommentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, notFound(ErrCommentNotFound, parentCommentID)
	}

	rows, err := s.commentRepo.Children(ctx, parentCommentID)
	if err != nil {
		return nil, err
	}
	return s.withChildCounts(ctx, rows)
}

// DeleteComment removes the comment and its whole reply subtree.
func (s *CommentService) DeleteComment(ctx context.Context, id uint) error {
	row, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if row == nil {
		return notFound(ErrCommentNotFound, id)
	}

	removed, err := s.commentRepo.DeleteTree(ctx, id)
	if err != nil {
		return err
	}

	publish(ctx, s.producer, s.logger, row.UserID, queue.EventCommentDeleted, queue.CommentEventData{
		CommentID:       row.ID,
		UserID:          row.UserID,
		PostID:          row.PostID,
		ParentCommentID: row.ParentCommentID,
	})

	s.logger.WithFields(map[string]interface{}{
		"comment_id": id,
		"removed":    removed,
	}).Info("Comment deleted successfully")

	return nil
}

func (s *CommentService) DeleteCommentsFromPost(ctx context.Context, postID uint) error {
	if err := s.requirePost(ctx, postID); err != nil {
		return err
	}

	removed, err := s.commentRepo.DeleteByPostID(ctx, postID)
	if err != nil {
		return err
	}
	if removed > 0 {
		publish(ctx, s.producer, s.logger, postID, queue.EventCommentDeleted, queue.CommentEventData{
			PostID: postID,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"post_id": postID,
		"removed": removed,
	}).Info("Post comments deleted")
	return nil
}

func (s *CommentService) DeleteUserComments(ctx context.Context, userID uint) error {
	if err := requireUsers(ctx, s.userRepo, userID); err != nil {
		return err
	}

	removed, postIDs, err := s.commentRepo.DeleteByUserID(ctx, userID)
	if err != nil {
		return err
	}
	for _, postID := range postIDs {
		publish(ctx, s.producer, s.logger, userID, queue.EventCommentDeleted, queue.CommentEventData{
			UserID: userID,
			PostID: postID,
		})
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"removed": removed,
	}).Info("User comments deleted")
	return nil
}

func (s *CommentService) requirePost(ctx context.Context, postID uint) error {
	exists, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !exists {
		return notFound(ErrPostNotFound, postID)
	}
	return nil
}

// withChildCounts fills AmountOfChildComments with one grouped query.
func (s *CommentService) withChildCounts(ctx context.Context, rows []repository.CommentRow) ([]CommentDTO, error) {
	comments := make([]CommentDTO, len(rows))
	if len(rows) == 0 {
		return comments, nil
	}

	ids := make([]uint, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	counts, err := s.commentRepo.CountChildren(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range rows {
		comments[i] = toCommentDTO(&rows[i], counts[rows[i].ID])
	}
	return comments, nil
}

func toCommentDTO(row *repository.CommentRow, children int64) CommentDTO {
	return CommentDTO{
		ID:                    row.ID,
		PostID:                row.PostID,
		UserID:                row.UserID,
		UserFirstName:         row.UserFirstName,
		UserLastName:          row.UserLastName,
		ParentCommentID:       row.ParentCommentID,
		Content:               row.Content,
		DateOfCreate:          row.DateOfCreate,
		AmountOfChildComments: children,
	}
}
