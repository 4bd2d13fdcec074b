package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/config"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// AuthService handles authentication. Every attempt, successful or not, is
// recorded on the audit trail; failed attempts carry no user id when the
// account could not be resolved.
type AuthService struct {
	userRepo  ports.UserRepository
	activity  *ActivityService
	jwtConfig config.JWTConfig
	logger    *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, activity *ActivityService, jwtConfig config.JWTConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		activity:  activity,
		jwtConfig: jwtConfig,
		logger:    logger,
	}
}

// Login authenticates a user and returns a signed token
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	details := entities.Details{"email": req.Email}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		s.activity.LogFailure(ctx, nil, "login", "auth", nil, details, entities.ErrUnauthorized)
		return nil, entities.ErrUnauthorized
	}

	if !user.IsActive {
		s.activity.LogFailure(ctx, &user.ID, "login", "auth", nil, details, entities.ErrUnauthorized)
		return nil, entities.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.activity.LogFailure(ctx, &user.ID, "login", "auth", nil, details, entities.ErrUnauthorized)
		return nil, entities.ErrUnauthorized
	}

	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.activity.Log(ctx, &user.ID, "login", "auth", nil, details)
	s.logger.Infow("User logged in", "user_id", user.ID, "email", user.Email)

	user.PasswordHash = ""

	return &ports.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

// Logout records the end of a session. Tokens are stateless, so this only
// feeds the audit trail.
func (s *AuthService) Logout(ctx context.Context, actor ports.Actor) {
	s.activity.Log(ctx, &actor.UserID, "logout", "auth", nil, nil)
}

// ChangePassword verifies the current password and stores a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor ports.Actor, oldPassword, newPassword string) error {
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}

	details := entities.Details{"email": user.Email}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		s.activity.LogFailure(ctx, &user.ID, "password_reset", "auth", nil, details, entities.ErrUnauthorized)
		return entities.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hash)); err != nil {
		s.activity.LogFailure(ctx, &user.ID, "password_reset", "auth", nil, details, err)
		return fmt.Errorf("update password: %w", err)
	}

	s.activity.Log(ctx, &user.ID, "password_reset_success", "auth", nil, details)

	return nil
}

// ValidateToken parses and verifies a signed token
func (s *AuthService) ValidateToken(tokenString string) (*ports.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ports.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*ports.Claims)
	if !ok || !token.Valid {
		return nil, entities.ErrUnauthorized
	}

	return claims, nil
}

func (s *AuthService) generateToken(user *entities.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(s.jwtConfig.ExpiresIn)

	claims := &ports.Claims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.jwtConfig.Issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}
