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

func TestNotificationCreateRejectsUnknownType(t *testing.T) {
	repo := &stubNotificationRepo{}
	svc := NewNotificationService(repo, stubUserRepo{}, &stubMailer{}, logger.NewNop())

	_, err := svc.Create(context.Background(), ports.CreateNotificationRequest{
		UserID: uuid.New(),
		Type:   entities.NotificationType("carrier_pigeon"),
		Title:  "hi",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrInvalidNotificationType)
	assert.Empty(t, repo.created)
}

// Mail delivery is best-effort: a failing relay must not fail the create.
func TestNotificationCreateSurvivesMailerFailure(t *testing.T) {
	repo := &stubNotificationRepo{}
	m := &stubMailer{sendErr: errors.New("relay down")}
	svc := NewNotificationService(repo, stubUserRepo{}, m, logger.NewNop())

	n, err := svc.Create(context.Background(), ports.CreateNotificationRequest{
		UserID:  uuid.New(),
		Type:    entities.NotificationTypeDeadline,
		Title:   "Deadline approaching",
		Message: "Task is due within three days",
	})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	require.Len(t, repo.created, 1)
}

func TestNotificationCreateSendsMail(t *testing.T) {
	repo := &stubNotificationRepo{}
	m := &stubMailer{}
	svc := NewNotificationService(repo, stubUserRepo{}, m, logger.NewNop())

	_, err := svc.Create(context.Background(), ports.CreateNotificationRequest{
		UserID:  uuid.New(),
		Type:    entities.NotificationTypeCritical,
		Title:   "Critical bug",
		Message: "A critical bug was filed",
	})
	require.NoError(t, err)
	require.Len(t, m.sent, 1)
	assert.Equal(t, "dev@example.com", m.sent[0])
}
