package repository

import (
	"context"
	"fmt"

	"github.com/healthtracker/healthtracker/internal/models"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return writeErr("create message", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	if err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return &message, nil
}

// Conversation pages both directions between a and b, newest first.
func (r *MessageRepository) Conversation(ctx context.Context, a, b uint, offset, limit int) ([]models.Message, error) {
	messages := make([]models.Message, 0)
	if err := r.db.WithContext(ctx).
		Where("(user_id_from = ? AND user_id_to = ?) OR (user_id_from = ? AND user_id_to = ?)", a, b, b, a).
		Order("send_time DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) CountUnread(ctx context.Context, from, to uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("user_id_from = ? AND user_id_to = ? AND is_readed = ?", from, to, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}

func (r *MessageRepository) MarkRead(ctx context.Context, from, to uint) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("user_id_from = ? AND user_id_to = ? AND is_readed = ?", from, to, false).
		Update("is_readed", true)
	if result.Error != nil {
		return 0, writeErr("mark messages read", result.Error)
	}
	return result.RowsAffected, nil
}
