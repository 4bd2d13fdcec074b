package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

type stubActivityRepo struct {
	appended  []*entities.ActivityLog
	appendErr error
	listRows  []*entities.ActivityLog
}

func (s *stubActivityRepo) Append(ctx context.Context, entry *entities.ActivityLog) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, entry)
	return nil
}

func (s *stubActivityRepo) List(ctx context.Context, filter ports.ActivityFilter) ([]*entities.ActivityLog, error) {
	return s.listRows, nil
}

func (s *stubActivityRepo) DistinctActions(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *stubActivityRepo) ActionCounts(ctx context.Context, filter ports.ActivityFilter, limit int) ([]ports.ActionCount, error) {
	return nil, nil
}

func (s *stubActivityRepo) UserActivityCounts(ctx context.Context, filter ports.ActivityFilter) ([]ports.UserActivityCount, error) {
	return nil, nil
}

func TestLogAppendsOneRow(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, logger.NewNop())

	userID := uuid.New()
	entityID := 42
	svc.Log(context.Background(), &userID, "create_task", "task", &entityID, entities.Details{"name": "fix login"})

	require.Len(t, repo.appended, 1)
	entry := repo.appended[0]
	assert.Equal(t, "create_task", entry.Action)
	assert.Equal(t, "task", entry.EntityType)
	assert.Equal(t, &userID, entry.UserID)
	assert.Equal(t, &entityID, entry.EntityID)
	assert.Equal(t, "fix login", entry.Details["name"])
}

func TestLogFailureTagsAction(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, logger.NewNop())

	// A failed login has no authenticated user and no subject row.
	svc.LogFailure(context.Background(), nil, "login", "auth", nil,
		entities.Details{"email": "dev@example.com"}, entities.ErrUnauthorized)

	require.Len(t, repo.appended, 1)
	entry := repo.appended[0]
	assert.Equal(t, "login"+FailedSuffix, entry.Action)
	assert.Nil(t, entry.UserID)
	assert.Nil(t, entry.EntityID)
	assert.Equal(t, "dev@example.com", entry.Details["email"])
	assert.Equal(t, entities.ErrUnauthorized.Error(), entry.Details["error"])
}

func TestLogFailureNilDetails(t *testing.T) {
	repo := &stubActivityRepo{}
	svc := NewActivityService(repo, logger.NewNop())

	svc.LogFailure(context.Background(), nil, "delete_task", "task", nil, nil, errors.New("boom"))

	require.Len(t, repo.appended, 1)
	assert.Equal(t, "boom", repo.appended[0].Details["error"])
}

// A persistence failure in the audit trail must never reach the caller.
func TestLogSwallowsRepositoryError(t *testing.T) {
	repo := &stubActivityRepo{appendErr: errors.New("connection refused")}
	svc := NewActivityService(repo, logger.NewNop())

	assert.NotPanics(t, func() {
		svc.Log(context.Background(), nil, "create_task", "task", nil, nil)
	})
	assert.Empty(t, repo.appended)
}

func TestListSummaries(t *testing.T) {
	userID := uuid.New()
	repo := &stubActivityRepo{
		listRows: []*entities.ActivityLog{
			{
				UserID: &userID,
				Action: "update_status",
				Details: entities.Details{
					"old_status": "todo",
					"new_status": "in_progress",
				},
			},
			{
				UserID:  &userID,
				Action:  "replace_assignees",
				Details: entities.Details{"assignee_count": 3},
			},
			{
				Action:  "login" + FailedSuffix,
				Details: entities.Details{"email": "dev@example.com", "error": "unauthorized"},
			},
			{
				UserID:  &userID,
				Action:  "create_project",
				Details: entities.Details{},
			},
			{
				UserID:  &userID,
				Action:  "update_status",
				Details: nil,
			},
		},
	}
	svc := NewActivityService(repo, logger.NewNop())

	entries, err := svc.List(context.Background(), ports.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 5)

	assert.Equal(t, "status changed from todo to in_progress", entries[0].Summary)
	assert.Equal(t, "assignees replaced (3 users)", entries[1].Summary)
	assert.Equal(t, "login by dev@example.com failed: unauthorized", entries[2].Summary)
	// Unknown action falls back to the humanized tag.
	assert.Equal(t, "create project", entries[3].Summary)
	// Known action with a missing payload falls back too.
	assert.Equal(t, "update status", entries[4].Summary)
}
