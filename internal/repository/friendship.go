package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/healthtracker/healthtracker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FriendSummary is the projection returned by friend and request listings.
// UserID is always the peer, never the user the list was asked for.
type FriendSummary struct {
	UserID    uint   `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type FriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func pairScope(a, b uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)", a, b, b, a)
	}
}

// CreateIfAbsent inserts f unless any row already links the unordered pair.
// It reports false when a row was found and nothing was written.
func (r *FriendshipRepository) CreateIfAbsent(ctx context.Context, f *models.Friendship) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Friendship{}).
			Scopes(pairScope(f.UserID, f.FriendID)).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check friendship: %w", err)
		}
		if count > 0 {
			return nil
		}
		if err := tx.Create(f).Error; err != nil {
			return writeErr("create friendship", err)
		}
		created = true
		return nil
	})
	return created, err
}

func (r *FriendshipRepository) GetByID(ctx context.Context, id uint) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).First(&friendship, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return &friendship, nil
}

// GetBetween matches either direction and prefers the row owned by a.
func (r *FriendshipRepository) GetBetween(ctx context.Context, a, b uint) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).
		Scopes(pairScope(a, b)).
		Clauses(clause.OrderBy{Expression: clause.Expr{SQL: "CASE WHEN user_id = ? THEN 0 ELSE 1 END", Vars: []interface{}{a}}}).
		First(&friendship).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get friendship: %w", err)
	}
	return &friendship, nil
}

func (r *FriendshipRepository) GetPending(ctx context.Context, requesterID, targetID uint) (*models.Friendship, error) {
	var friendship models.Friendship
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND friend_id = ? AND status = ?", requesterID, targetID, models.FriendshipRequested).
		First(&friendship).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pending friendship: %w", err)
	}
	return &friendship, nil
}

// Resolve moves a pending request to status and adds the mirrored row owned
// by the target. Both writes share one transaction.
func (r *FriendshipRepository) Resolve(ctx context.Context, pending *models.Friendship, status models.FriendshipStatus, at time.Time) (*models.Friendship, error) {
	mirror := &models.Friendship{
		UserID:    pending.FriendID,
		FriendID:  pending.UserID,
		Status:    status,
		CreatedAt: pending.CreatedAt,
		UpdatedAt: &at,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Friendship{}).
			Where("id = ?", pending.ID).
			Updates(map[string]interface{}{"status": status, "updated_at": at}).Error; err != nil {
			return writeErr("update friendship", err)
		}
		if err := tx.Create(mirror).Error; err != nil {
			return writeErr("create mirrored friendship", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pending.Status = status
	pending.UpdatedAt = &at
	return mirror, nil
}

// DeleteBetween removes every row of the unordered pair and returns how many went.
func (r *FriendshipRepository) DeleteBetween(ctx context.Context, a, b uint) (int64, error) {
	result := r.db.WithContext(ctx).Scopes(pairScope(a, b)).Delete(&models.Friendship{})
	if result.Error != nil {
		return 0, writeErr("delete friendship", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *FriendshipRepository) ListFriends(ctx context.Context, userID uint) ([]FriendSummary, error) {
	friends := make([]FriendSummary, 0)
	if err := r.db.WithContext(ctx).
		Table("friendships").
		Select("users.id AS user_id, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = friendships.friend_id").
		Where("friendships.user_id = ? AND friendships.status = ?", userID, models.FriendshipAccepted).
		Order("users.id").
		Scan(&friends).Error; err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	return friends, nil
}

func (r *FriendshipRepository) ListIncomingRequests(ctx context.Context, userID uint) ([]FriendSummary, error) {
	requests := make([]FriendSummary, 0)
	if err := r.db.WithContext(ctx).
		Table("friendships").
		Select("users.id AS user_id, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = friendships.user_id").
		Where("friendships.friend_id = ? AND friendships.status = ?", userID, models.FriendshipRequested).
		Order("friendships.created_at DESC").
		Scan(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list friendship requests: %w", err)
	}
	return requests, nil
}

// FriendIDs returns accepted peers found in either direction, without duplicates.
func (r *FriendshipRepository) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var rows []models.Friendship
	if err := r.db.WithContext(ctx).
		Select("user_id", "friend_id").
		Where("(user_id = ? OR friend_id = ?) AND status = ?", userID, userID, models.FriendshipAccepted).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get friend ids: %w", err)
	}

	seen := make(map[uint]struct{}, len(rows))
	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		peer := row.FriendID
		if row.FriendID == userID {
			peer = row.UserID
		}
		if _, ok := seen[peer]; ok {
			continue
		}
		seen[peer] = struct{}{}
		ids = append(ids, peer)
	}
	return ids, nil
}
