package services

import (
	"context"
	"fmt"
	"time"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
)

type FriendshipService struct {
	friendshipRepo *repository.FriendshipRepository
	userRepo       *repository.UserRepository
	producer       EventPublisher
	logger         *logger.Logger
}

func NewFriendshipService(friendshipRepo *repository.FriendshipRepository, userRepo *repository.UserRepository, producer EventPublisher, logger *logger.Logger) *FriendshipService {
	return &FriendshipService{
		friendshipRepo: friendshipRepo,
		userRepo:       userRepo,
		producer:       producer,
		logger:         logger,
	}
}

type CreateFriendshipRequest struct {
	UserID   uint `json:"userId" binding:"required"`
	FriendID uint `json:"friendId" binding:"required"`
}

func (s *FriendshipService) CreateFriendshipRequest(ctx context.Context, userID, friendID uint) (*models.Friendship, error) {
	if err := requireUsers(ctx, s.userRepo, userID, friendID); err != nil {
		return nil, err
	}
	if userID == friendID {
		return nil, ErrSelfFriendship
	}

	friendship := &models.Friendship{
		UserID:    userID,
		FriendID:  friendID,
		Status:    models.FriendshipRequested,
		CreatedAt: time.Now(),
	}

	created, err := s.friendshipRepo.CreateIfAbsent(ctx, friendship)
	if err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrFriendshipAlreadyExists
		}
		return nil, err
	}
	if !created {
		return nil, ErrFriendshipAlreadyExists
	}

	publish(ctx, s.producer, s.logger, userID, queue.EventFriendshipRequested, queue.FriendshipEventData{
		UserID:   userID,
		FriendID: friendID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":   userID,
		"friend_id": friendID,
	}).Info("Friendship requested")

	return friendship, nil
}

func (s *FriendshipService) GetFriendship(ctx context.Context, id uint) (*models.Friendship, error) {
	friendship, err := s.friendshipRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if friendship == nil {
		return nil, notFound(ErrFriendshipNotFound, id)
	}
	return friendship, nil
}

// GetFriendshipByUsersID matches the pair in either direction.
func (s *FriendshipService) GetFriendshipByUsersID(ctx context.Context, userID, friendID uint) (*models.Friendship, error) {
	if err := requireUsers(ctx, s.userRepo, userID, friendID); err != nil {
		return nil, err
	}

	friendship, err := s.friendshipRepo.GetBetween(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if friendship == nil {
		return nil, fmt.Errorf("%w: between %d and %d", ErrFriendshipNotFound, userID, friendID)
	}
	return friendship, nil
}

func (s *FriendshipService) GetFriendList(ctx context.Context, userID uint) ([]repository.FriendSummary, error) {
	if err := requireUsers(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}
	return s.friendshipRepo.ListFriends(ctx, userID)
}

func (s *FriendshipService) GetFriendshipRequestsForUser(ctx context.Context, userID uint) ([]repository.FriendSummary, error) {
	if err := requireUsers(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}
	return s.friendshipRepo.ListIncomingRequests(ctx, userID)
}

// AcceptFriendship resolves the request friendID sent to userID.
func (s *FriendshipService) AcceptFriendship(ctx context.Context, userID, friendID uint) error {
	return s.resolve(ctx, userID, friendID, models.FriendshipAccepted, queue.EventFriendshipAccepted)
}

func (s *FriendshipService) DeclineFriendship(ctx context.Context, userID, friendID uint) error {
	return s.resolve(ctx, userID, friendID, models.FriendshipDeclined, queue.EventFriendshipDeclined)
}

func (s *FriendshipService) resolve(ctx context.Context, userID, friendID uint, status models.FriendshipStatus, eventType queue.EventType) error {
	if err := requireUsers(ctx, s.userRepo, userID, friendID); err != nil {
		return err
	}

	pending, err := s.friendshipRepo.GetPending(ctx, friendID, userID)
	if err != nil {
		return err
	}
	if pending == nil {
		return fmt.Errorf("%w: no pending request from %d to %d", ErrFriendshipNotFound, friendID, userID)
	}

	if _, err := s.friendshipRepo.Resolve(ctx, pending, status, time.Now()); err != nil {
		if repository.IsDuplicateKey(err) {
			return ErrFriendshipAlreadyExists
		}
		return err
	}

	publish(ctx, s.producer, s.logger, userID, eventType, queue.FriendshipEventData{
		UserID:   userID,
		FriendID: friendID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":   userID,
		"friend_id": friendID,
		"status":    status.String(),
	}).Info("Friendship resolved")

	return nil
}

func (s *FriendshipService) DeleteFriendship(ctx context.Context, userID, friendID uint) error {
	removed, err := s.friendshipRepo.DeleteBetween(ctx, userID, friendID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: between %d and %d", ErrFriendshipNotFound, userID, friendID)
	}

	publish(ctx, s.producer, s.logger, userID, queue.EventFriendshipDeleted, queue.FriendshipEventData{
		UserID:   userID,
		FriendID: friendID,
	})

	s.logger.WithFields(map[string]interface{}{
		"user_id":   userID,
		"friend_id": friendID,
		"rows":      removed,
	}).Info("Friendship deleted")

	return nil
}
