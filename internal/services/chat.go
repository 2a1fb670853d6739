package services

import (
	"context"
	"strings"
	"time"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
)

type ChatService struct {
	messageRepo *repository.MessageRepository
	userRepo    *repository.UserRepository
	producer    EventPublisher
	logger      *logger.Logger
}

func NewChatService(messageRepo *repository.MessageRepository, userRepo *repository.UserRepository, producer EventPublisher, logger *logger.Logger) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		producer:    producer,
		logger:      logger,
	}
}

type CreateMessageRequest struct {
	UserIDFrom uint   `json:"userIdFrom" binding:"required"`
	UserIDTo   uint   `json:"userIdTo" binding:"required"`
	Text       string `json:"text" binding:"required"`
}

// CreateMessage checks the recipient before the sender, so a request with
// both ids unknown reports the recipient.
func (s *ChatService) CreateMessage(ctx context.Context, req *CreateMessageRequest) (*models.Message, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyMessage
	}
	if err := requireUsers(ctx, s.userRepo, req.UserIDTo, req.UserIDFrom); err != nil {
		return nil, err
	}

	message := &models.Message{
		UserIDFrom: req.UserIDFrom,
		UserIDTo:   req.UserIDTo,
		Text:       req.Text,
		SendTime:   time.Now(),
		IsReaded:   false,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	publish(ctx, s.producer, s.logger, message.UserIDTo, queue.EventMessageCreated, queue.MessageEventData{
		MessageID:  message.ID,
		UserIDFrom: message.UserIDFrom,
		UserIDTo:   message.UserIDTo,
	})

	s.logger.WithFields(map[string]interface{}{
		"message_id": message.ID,
		"from":       message.UserIDFrom,
		"to":         message.UserIDTo,
	}).Info("Message created")

	return message, nil
}

func (s *ChatService) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	message, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, notFound(ErrMessageNotFound, id)
	}
	return message, nil
}

// GetMessages pages the conversation between two users, newest first.
func (s *ChatService) GetMessages(ctx context.Context, userA, userB uint, pageNr, pageSize int) ([]models.Message, error) {
	offset, err := pageOffset(pageNr, pageSize)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.Conversation(ctx, userA, userB, offset, pageSize)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrNullPage
	}
	return messages, nil
}

// GetNumberOfNewMessages counts unread messages sent by userFrom to userTo only.
func (s *ChatService) GetNumberOfNewMessages(ctx context.Context, userFrom, userTo uint) (int64, error) {
	return s.messageRepo.CountUnread(ctx, userFrom, userTo)
}

func (s *ChatService) UpdateMessagesToReaded(ctx context.Context, userFrom, userTo uint) error {
	updated, err := s.messageRepo.MarkRead(ctx, userFrom, userTo)
	if err != nil {
		return err
	}
	if updated == 0 {
		return nil
	}

	publish(ctx, s.producer, s.logger, userTo, queue.EventMessagesRead, queue.MessageEventData{
		UserIDFrom: userFrom,
		UserIDTo:   userTo,
	})

	s.logger.WithFields(map[string]interface{}{
		"from":    userFrom,
		"to":      userTo,
		"updated": updated,
	}).Debug("Messages marked as read")
	return nil
}
