package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// NotificationService manages per-user notification delivery and read-state.
// Creation is triggered by callers (other services or external schedulers);
// this service does not decide when a deadline or critical notification is
// due.
type NotificationService struct {
	repo     ports.NotificationRepository
	userRepo ports.UserRepository
	mailer   ports.Mailer
	logger   *logger.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(repo ports.NotificationRepository, userRepo ports.UserRepository, mailer ports.Mailer, logger *logger.Logger) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		mailer:   mailer,
		logger:   logger,
	}
}

// Create inserts an unread notification and hands a copy to the mailer.
// Mail delivery is best-effort: a failure is logged, never returned.
func (s *NotificationService) Create(ctx context.Context, req ports.CreateNotificationRequest) (*entities.Notification, error) {
	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidNotificationType, req.Type)
	}

	notification := &entities.Notification{
		UserID:      req.UserID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		RelatedType: req.RelatedType,
		RelatedID:   req.RelatedID,
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.deliverMail(ctx, notification)

	return notification, nil
}

func (s *NotificationService) deliverMail(ctx context.Context, n *entities.Notification) {
	if s.mailer == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		s.logger.Warnw("Skipping notification mail, recipient lookup failed",
			"error", err, "user_id", n.UserID)
		return
	}

	if err := s.mailer.Send(user.Email, n.Title, n.Message); err != nil {
		s.logger.Warnw("Failed to send notification mail",
			"error", err, "user_id", n.UserID, "type", n.Type)
	}
}

// List returns the user's notifications newest first.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error) {
	notifications, err := s.repo.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}

	return notifications, nil
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}

	return count, nil
}

// MarkRead marks one notification read. Ownership is enforced in the store:
// marking someone else's notification, or one already read, is a silent
// no-op.
func (s *NotificationService) MarkRead(ctx context.Context, id int, userID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		return fmt.Errorf("mark read: %w", err)
	}

	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("mark all read: %w", err)
	}

	return nil
}

// DeleteRead removes the user's read notifications; unread rows survive.
func (s *NotificationService) DeleteRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.DeleteRead(ctx, userID); err != nil {
		return fmt.Errorf("delete read: %w", err)
	}

	return nil
}
