package repository

import (
	"context"
	"fmt"

	"github.com/healthtracker/healthtracker/internal/models"
	"gorm.io/gorm"
)

const deleteChunkSize = 500

// CommentRow is a comment joined with its author's name.
type CommentRow struct {
	models.Comment
	UserFirstName string
	UserLastName  string
}

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return writeErr("create comment", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id uint) (*CommentRow, error) {
	var rows []CommentRow
	if err := r.withAuthor(ctx).
		Where("comments.id = ?", id).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *CommentRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check comment: %w", err)
	}
	return count > 0, nil
}

func (r *CommentRepository) TopLevelByPostID(ctx context.Context, postID uint, offset, limit int) ([]CommentRow, error) {
	rows := make([]CommentRow, 0)
	if err := r.withAuthor(ctx).
		Where("comments.post_id = ? AND comments.parent_comment_id IS NULL", postID).
		Order("comments.date_of_create DESC").
		Order("comments.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get comments by post: %w", err)
	}
	return rows, nil
}

func (r *CommentRepository) Children(ctx context.Context, parentID uint) ([]CommentRow, error) {
	rows := make([]CommentRow, 0)
	if err := r.withAuthor(ctx).
		Where("comments.parent_comment_id = ?", parentID).
		Order("comments.date_of_create DESC").
		Order("comments.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get child comments: %w", err)
	}
	return rows, nil
}

func (r *CommentRepository) CountByPostID(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ?", postID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

func (r *CommentRepository) CountTopLevelByPostID(ctx context.Context, postID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", postID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count top-level comments: %w", err)
	}
	return count, nil
}

type groupCount struct {
	RefID uint
	Total int64
}

// CountTopLevelByPostIDs runs one grouped query; posts without comments are absent from the map.
func (r *CommentRepository) CountTopLevelByPostIDs(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []groupCount
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("post_id AS ref_id, COUNT(*) AS total").
		Where("post_id IN ? AND parent_comment_id IS NULL", postIDs).
		Group("post_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count top-level comments: %w", err)
	}
	for _, row := range rows {
		counts[row.RefID] = row.Total
	}
	return counts, nil
}

// CountChildren returns the number of direct replies for each id in one grouped query.
func (r *CommentRepository) CountChildren(ctx context.Context, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []groupCount
	if err := r.db.WithContext(ctx).
		Model(&models.Comment{}).
		Select("parent_comment_id AS ref_id, COUNT(*) AS total").
		Where("parent_comment_id IN ?", ids).
		Group("parent_comment_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count child comments: %w", err)
	}
	for _, row := range rows {
		counts[row.RefID] = row.Total
	}
	return counts, nil
}

// DeleteTree removes the comment and all of its descendants.
func (r *CommentRepository) DeleteTree(ctx context.Context, rootID uint) (int, error) {
	var removed int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := collectSubtrees(tx, []uint{rootID})
		if err != nil {
			return err
		}
		removed = len(ids)
		return deleteComments(tx, ids)
	})
	return removed, err
}

func (r *CommentRepository) DeleteByPostID(ctx context.Context, postID uint) (int64, error) {
	result := r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.Comment{})
	if result.Error != nil {
		return 0, writeErr("delete post comments", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteByUserID removes the user's comments together with every reply below
// them, including replies written by other users. It returns the number of
// removed rows and the distinct posts they belonged to.
func (r *CommentRepository) DeleteByUserID(ctx context.Context, userID uint) (int, []uint, error) {
	var removed int
	postIDs := make([]uint, 0)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var roots []uint
		if err := tx.Model(&models.Comment{}).
			Where("user_id = ?", userID).
			Pluck("id", &roots).Error; err != nil {
			return fmt.Errorf("failed to get user comments: %w", err)
		}
		ids, err := collectSubtrees(tx, roots)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Model(&models.Comment{}).
			Distinct("post_id").
			Where("id IN ?", ids).
			Order("post_id").
			Pluck("post_id", &postIDs).Error; err != nil {
			return fmt.Errorf("failed to get commented posts: %w", err)
		}
		removed = len(ids)
		return deleteComments(tx, ids)
	})
	if err != nil {
		return 0, nil, err
	}
	return removed, postIDs, nil
}

// collectSubtrees walks the tree level by level with an explicit queue.
// Parents always precede their children in the result.
func collectSubtrees(tx *gorm.DB, roots []uint) ([]uint, error) {
	seen := make(map[uint]struct{}, len(roots))
	ids := make([]uint, 0, len(roots))
	queue := make([]uint, 0, len(roots))
	for _, id := range roots {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		level := queue
		ids = append(ids, level...)
		queue = nil

		var children []uint
		if err := tx.Model(&models.Comment{}).
			Where("parent_comment_id IN ?", level).
			Pluck("id", &children).Error; err != nil {
			return nil, fmt.Errorf("failed to get child comments: %w", err)
		}
		for _, id := range children {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			queue = append(queue, id)
		}
	}
	return ids, nil
}

// deleteComments deletes deepest ids first so no remaining row points at a removed parent.
func deleteComments(tx *gorm.DB, ids []uint) error {
	for end := len(ids); end > 0; end -= deleteChunkSize {
		start := end - deleteChunkSize
		if start < 0 {
			start = 0
		}
		if err := tx.Where("id IN ?", ids[start:end]).Delete(&models.Comment{}).Error; err != nil {
			return writeErr("delete comments", err)
		}
	}
	return nil
}

func (r *CommentRepository) withAuthor(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("comments").
		Select("comments.*, users.first_name AS user_first_name, users.last_name AS user_last_name").
		Joins("JOIN users ON users.id = comments.user_id")
}
