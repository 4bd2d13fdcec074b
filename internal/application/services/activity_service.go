package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// FailedSuffix tags the audit row written when an operation attempt fails.
const FailedSuffix = "_failed"

// ActivityService records the append-only audit trail and serves its query
// surface. Every state-changing operation produces exactly one row per
// attempt; failures carry the action tag with the failed suffix.
type ActivityService struct {
	repo   ports.ActivityLogRepository
	logger *logger.Logger
}

// NewActivityService creates a new activity service
func NewActivityService(repo ports.ActivityLogRepository, logger *logger.Logger) *ActivityService {
	return &ActivityService{
		repo:   repo,
		logger: logger,
	}
}

// Log appends one audit row. It is best-effort from the caller's point of
// view: a persistence failure is surfaced on the operational log and never
// propagated, so the primary operation the row describes is unaffected.
// userID is nil for unauthenticated events; entityID is nil when the event
// has no subject row (e.g. a failed login).
func (s *ActivityService) Log(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID *int, details entities.Details) {
	entry := &entities.ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Errorw("Failed to append activity log",
			"error", err,
			"action", action,
			"entity_type", entityType,
		)
	}
}

// LogFailure records a failed attempt of an operation, tagging the action
// with the failed suffix and capturing the error in the details payload.
func (s *ActivityService) LogFailure(ctx context.Context, userID *uuid.UUID, action, entityType string, entityID *int, details entities.Details, cause error) {
	if details == nil {
		details = entities.Details{}
	}
	if cause != nil {
		details["error"] = cause.Error()
	}

	s.Log(ctx, userID, action+FailedSuffix, entityType, entityID, details)
}

// List returns audit rows newest first with a rendered summary per row.
func (s *ActivityService) List(ctx context.Context, filter ports.ActivityFilter) ([]ports.ActivityEntry, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}

	entries := make([]ports.ActivityEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ports.ActivityEntry{
			ActivityLog: row,
			Summary:     summarize(row),
		})
	}

	return entries, nil
}

// Actions returns the distinct action tags present in the log.
func (s *ActivityService) Actions(ctx context.Context) ([]string, error) {
	actions, err := s.repo.DistinctActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}

	return actions, nil
}

// ActionCounts returns the top-N most frequent actions within the filter.
func (s *ActivityService) ActionCounts(ctx context.Context, filter ports.ActivityFilter, limit int) ([]ports.ActionCount, error) {
	counts, err := s.repo.ActionCounts(ctx, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("count actions: %w", err)
	}

	return counts, nil
}

// UserActivityCounts returns per-user activity counts over the active
// roster, including zero-activity users.
func (s *ActivityService) UserActivityCounts(ctx context.Context, filter ports.ActivityFilter) ([]ports.UserActivityCount, error) {
	counts, err := s.repo.UserActivityCounts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count user activity: %w", err)
	}

	return counts, nil
}

// summarize renders a human-readable line for the known detail shapes of an
// action tag. The details payload is schemaless, so every key is optional:
// gjson lookups return empty strings instead of failing, and an unknown or
// malformed payload falls back to the bare action tag.
func summarize(row *entities.ActivityLog) string {
	raw, err := json.Marshal(row.Details)
	if err != nil {
		raw = []byte("{}")
	}

	action := strings.TrimSuffix(row.Action, FailedSuffix)
	failed := strings.HasSuffix(row.Action, FailedSuffix)

	var summary string
	switch action {
	case "update_status":
		oldStatus := gjson.GetBytes(raw, "old_status").String()
		newStatus := gjson.GetBytes(raw, "new_status").String()
		if oldStatus != "" && newStatus != "" {
			summary = fmt.Sprintf("status changed from %s to %s", oldStatus, newStatus)
		}
	case "replace_assignees":
		count := gjson.GetBytes(raw, "assignee_count")
		if count.Exists() {
			summary = fmt.Sprintf("assignees replaced (%d users)", count.Int())
		}
	case "create_comment":
		target := gjson.GetBytes(raw, "target_type").String()
		if target != "" {
			summary = fmt.Sprintf("comment added to %s", target)
		}
	case "login", "logout":
		email := gjson.GetBytes(raw, "email").String()
		if email != "" {
			summary = fmt.Sprintf("%s by %s", action, email)
		}
	case "password_reset_success", "password_reset_request":
		email := gjson.GetBytes(raw, "email").String()
		if email != "" {
			summary = fmt.Sprintf("password reset for %s", email)
		}
	}

	if summary == "" {
		summary = strings.ReplaceAll(action, "_", " ")
	}
	if failed {
		reason := gjson.GetBytes(raw, "error").String()
		if reason != "" {
			return summary + " failed: " + reason
		}
		return summary + " failed"
	}

	return summary
}
