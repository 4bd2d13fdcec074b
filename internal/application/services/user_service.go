package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// UserService handles user management
type UserService struct {
	userRepo ports.UserRepository
	activity *ActivityService
	logger   *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(userRepo ports.UserRepository, activity *ActivityService, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		activity: activity,
		logger:   logger,
	}
}

// CreateUser creates a new account. Managers only.
func (s *UserService) CreateUser(ctx context.Context, actor ports.Actor, req ports.CreateUserRequest) (*entities.User, error) {
	if !actor.IsManager() {
		return nil, entities.ErrForbidden
	}

	if !req.Role.IsValid() {
		return nil, fmt.Errorf("invalid role: %s", req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		IsActive:     true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "create_user", "user", nil,
			entities.Details{"email": req.Email}, err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "create_user", "user", nil,
		entities.Details{"email": user.Email, "role": string(user.Role)})

	s.logger.Infow("User created", "user_id", user.ID, "email", user.Email)

	user.PasswordHash = ""

	return user, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.PasswordHash = ""

	return user, nil
}

// ListUsers retrieves users with filtering
func (s *UserService) ListUsers(ctx context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	users, err := s.userRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		u.PasswordHash = ""
	}

	return users, nil
}
