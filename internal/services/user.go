package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/healthtracker/healthtracker/internal/models"
	"github.com/healthtracker/healthtracker/internal/repository"
	"github.com/healthtracker/healthtracker/pkg/logger"
	"github.com/healthtracker/healthtracker/pkg/queue"
	"golang.org/x/crypto/bcrypt"
)

const searchLimit = 10

type UserService struct {
	userRepo *repository.UserRepository
	producer EventPublisher
	logger   *logger.Logger
}

func NewUserService(userRepo *repository.UserRepository, producer EventPublisher, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

type RegisterRequest struct {
	UserName    string     `json:"userName" binding:"required,min=3,max=100"`
	Email       string     `json:"email" binding:"required,email"`
	Password    string     `json:"password" binding:"required,min=6,max=72"`
	FirstName   string     `json:"firstName" binding:"max=100"`
	LastName    string     `json:"lastName" binding:"max=100"`
	PhoneNumber string     `json:"phoneNumber" binding:"max=32"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserSummary is what search results expose about other users.
type UserSummary struct {
	ID             uint   `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	ProfilePicture string `json:"profilePicture"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 检查邮箱是否已存在
	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingUser != nil {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		UserName:     req.UserName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		DateOfBirth:  req.DateOfBirth,
		DateOfCreate: time.Now(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	publish(ctx, s.producer, s.logger, user.ID, queue.EventUserRegistered, queue.UserEventData{
		UserID: user.ID,
		Email:  user.Email,
	})

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, notFound(ErrUserNotFound, id)
	}
	return user, nil
}

// SearchUsers returns at most ten users whose first or last name contains query.
func (s *UserService) SearchUsers(ctx context.Context, userID uint, query string) ([]UserSummary, error) {
	if err := requireUsers(ctx, s.userRepo, userID); err != nil {
		return nil, err
	}

	results := make([]UserSummary, 0)
	query = strings.TrimSpace(query)
	if query == "" {
		return results, nil
	}

	users, err := s.userRepo.Search(ctx, userID, query, searchLimit)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		results = append(results, UserSummary{
			ID:             u.ID,
			FirstName:      u.FirstName,
			LastName:       u.LastName,
			ProfilePicture: u.ProfilePicture,
		})
	}
	return results, nil
}

// requireUsers reports the first missing id in argument order.
func requireUsers(ctx context.Context, users *repository.UserRepository, ids ...uint) error {
	for _, id := range ids {
		exists, err := users.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return notFound(ErrUserNotFound, id)
		}
	}
	return nil
}
