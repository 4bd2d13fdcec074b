package services

import (
	"context"
	"fmt"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// CommentService handles comments and their attachments. A comment with an
// attachment is created in one transaction; either both rows land or
// neither does.
type CommentService struct {
	commentRepo    ports.CommentRepository
	attachmentRepo ports.AttachmentRepository
	taskRepo       ports.TaskRepository
	bugRepo        ports.BugRepository
	activity       *ActivityService
	logger         *logger.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(commentRepo ports.CommentRepository, attachmentRepo ports.AttachmentRepository, taskRepo ports.TaskRepository, bugRepo ports.BugRepository, activity *ActivityService, logger *logger.Logger) *CommentService {
	return &CommentService{
		commentRepo:    commentRepo,
		attachmentRepo: attachmentRepo,
		taskRepo:       taskRepo,
		bugRepo:        bugRepo,
		activity:       activity,
		logger:         logger,
	}
}

// resolveTarget checks that the commented entity exists. The switch is
// exhaustive over the entity kinds that accept comments.
func (s *CommentService) resolveTarget(ctx context.Context, entityType entities.EntityType, entityID int) error {
	switch entityType {
	case entities.EntityTypeTask:
		_, err := s.taskRepo.GetByID(ctx, entityID)
		return err
	case entities.EntityTypeBug:
		_, err := s.bugRepo.GetByID(ctx, entityID)
		return err
	default:
		return fmt.Errorf("%w: %s", entities.ErrInvalidEntityType, entityType)
	}
}

// Create adds a comment, with an optional attachment, to a task or bug.
func (s *CommentService) Create(ctx context.Context, actor ports.Actor, req ports.CreateCommentRequest) (*entities.Comment, error) {
	if !req.EntityType.CanComment() {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidEntityType, req.EntityType)
	}

	if err := s.resolveTarget(ctx, req.EntityType, req.EntityID); err != nil {
		return nil, err
	}

	comment := &entities.Comment{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		UserID:     actor.UserID,
		Body:       req.Body,
	}

	var attachment *entities.Attachment
	if req.Attachment != nil {
		attachment = &entities.Attachment{
			Filename:     req.Attachment.Filename,
			OriginalName: req.Attachment.OriginalName,
			Path:         req.Attachment.Path,
			Size:         req.Attachment.Size,
			MimeType:     req.Attachment.MimeType,
			UploadedBy:   actor.UserID,
		}
	}

	details := entities.Details{
		"target_type": string(req.EntityType),
		"target_id":   req.EntityID,
	}

	if err := s.commentRepo.Create(ctx, comment, attachment); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "create_comment", string(entities.EntityTypeComment), nil, details, err)
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "create_comment", string(entities.EntityTypeComment), &comment.ID, details)

	return comment, nil
}

// ListByEntity returns comments for a task or bug, oldest first.
func (s *CommentService) ListByEntity(ctx context.Context, entityType entities.EntityType, entityID int) ([]*entities.Comment, error) {
	if !entityType.CanComment() {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidEntityType, entityType)
	}

	return s.commentRepo.ListByEntity(ctx, entityType, entityID)
}

// ListAttachments returns attachment metadata for any attachable entity.
func (s *CommentService) ListAttachments(ctx context.Context, entityType entities.EntityType, entityID int) ([]*entities.Attachment, error) {
	if !entityType.CanAttach() {
		return nil, fmt.Errorf("%w: %s", entities.ErrInvalidEntityType, entityType)
	}

	return s.attachmentRepo.ListByEntity(ctx, entityType, entityID)
}
