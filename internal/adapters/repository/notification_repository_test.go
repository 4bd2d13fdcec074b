package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugtrack/core/internal/domain/entities"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "postgres"), mock
}

func TestNotificationCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO notifications`).
		WithArgs(userID, entities.NotificationTypeAssignment, "Assigned", "You were assigned to a task", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_read", "created_at"}).AddRow(7, false, now))

	n := &entities.Notification{
		UserID:  userID,
		Type:    entities.NotificationTypeAssignment,
		Title:   "Assigned",
		Message: "You were assigned to a task",
	}

	require.NoError(t, repo.Create(context.Background(), n))
	assert.Equal(t, 7, n.ID)
	assert.False(t, n.IsRead)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	userID := uuid.New()

	t.Run("owned notification is updated", func(t *testing.T) {
		mock.ExpectExec(`UPDATE notifications SET is_read = true WHERE id = \$1 AND user_id = \$2`).
			WithArgs(5, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.MarkRead(context.Background(), 5, userID))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign or missing notification is a silent no-op", func(t *testing.T) {
		mock.ExpectExec(`UPDATE notifications SET is_read = true WHERE id = \$1 AND user_id = \$2`).
			WithArgs(999, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		// Zero rows affected must not surface as an error: the caller
		// cannot probe for other users' notification IDs.
		require.NoError(t, repo.MarkRead(context.Background(), 999, userID))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNotificationMarkAllRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	userID := uuid.New()

	mock.ExpectExec(`UPDATE notifications SET is_read = true WHERE user_id = \$1 AND is_read = false`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.MarkAllRead(context.Background(), userID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationDeleteRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	userID := uuid.New()

	mock.ExpectExec(`DELETE FROM notifications WHERE user_id = \$1 AND is_read = true`).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteRead(context.Background(), userID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationUnreadCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	userID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notifications WHERE user_id = \$1 AND is_read = false`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.UnreadCount(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	require.NoError(t, mock.ExpectationsWereMet())
}
