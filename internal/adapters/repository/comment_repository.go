package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/ports"
)

// CommentRepositoryImpl implements the CommentRepository interface
type CommentRepositoryImpl struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sqlx.DB) ports.CommentRepository {
	return &CommentRepositoryImpl{db: db}
}

// Create inserts the comment, and the attachment when present, in a single
// transaction. A failure on either insert leaves no partial state behind.
func (r *CommentRepositoryImpl) Create(ctx context.Context, comment *entities.Comment, attachment *entities.Attachment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comment creation: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO comments (entity_type, entity_id, user_id, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		comment.EntityType, comment.EntityID, comment.UserID, comment.Body,
	).Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert comment: %w", err)
	}

	if attachment != nil {
		attachment.EntityType = entities.EntityTypeComment
		attachment.EntityID = comment.ID

		err = tx.QueryRowContext(ctx, `
			INSERT INTO attachments (entity_type, entity_id, filename, original_name, path, size, mime_type, uploaded_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at`,
			attachment.EntityType, attachment.EntityID, attachment.Filename, attachment.OriginalName,
			attachment.Path, attachment.Size, attachment.MimeType, attachment.UploadedBy,
		).Scan(&attachment.ID, &attachment.CreatedAt)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert comment attachment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit comment creation: %w", err)
	}

	return nil
}

func (r *CommentRepositoryImpl) ListByEntity(ctx context.Context, entityType entities.EntityType, entityID int) ([]*entities.Comment, error) {
	query := `
		SELECT id, entity_type, entity_id, user_id, body, created_at
		FROM comments
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC`

	var comments []*entities.Comment
	if err := r.db.SelectContext(ctx, &comments, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return comments, nil
}

func (r *CommentRepositoryImpl) CountByEntity(ctx context.Context, entityType entities.EntityType, entityID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM comments WHERE entity_type = $1 AND entity_id = $2`, entityType, entityID)
	if err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}

	return count, nil
}

// AttachmentRepositoryImpl implements the AttachmentRepository interface
type AttachmentRepositoryImpl struct {
	db *sqlx.DB
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sqlx.DB) ports.AttachmentRepository {
	return &AttachmentRepositoryImpl{db: db}
}

func (r *AttachmentRepositoryImpl) Create(ctx context.Context, attachment *entities.Attachment) error {
	query := `
		INSERT INTO attachments (entity_type, entity_id, filename, original_name, path, size, mime_type, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		attachment.EntityType, attachment.EntityID, attachment.Filename, attachment.OriginalName,
		attachment.Path, attachment.Size, attachment.MimeType, attachment.UploadedBy,
	).Scan(&attachment.ID, &attachment.CreatedAt)

	if err != nil {
		return fmt.Errorf("create attachment: %w", err)
	}

	return nil
}

func (r *AttachmentRepositoryImpl) ListByEntity(ctx context.Context, entityType entities.EntityType, entityID int) ([]*entities.Attachment, error) {
	query := `
		SELECT id, entity_type, entity_id, filename, original_name, path, size, mime_type, uploaded_by, created_at
		FROM attachments
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at ASC`

	var attachments []*entities.Attachment
	if err := r.db.SelectContext(ctx, &attachments, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	return attachments, nil
}
