package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/ports"
)

func TestActivityAppend(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityLogRepository(db)

	userID := uuid.New()
	entityID := 7
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO activity_logs`).
		WithArgs(&userID, "update_status", "task", &entityID, entities.Details{
			"old_status": "todo",
			"new_status": "in_progress",
		}).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), now))

	entry := &entities.ActivityLog{
		UserID:     &userID,
		Action:     "update_status",
		EntityType: "task",
		EntityID:   &entityID,
		Details: entities.Details{
			"old_status": "todo",
			"new_status": "in_progress",
		},
	}

	require.NoError(t, repo.Append(context.Background(), entry))
	assert.Equal(t, int64(12), entry.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityLogRepository(db)

	userID := uuid.New()
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	action := "login_failed"
	now := time.Now()

	mock.ExpectQuery(`SELECT id, user_id, action, entity_type, entity_id, details, created_at FROM activity_logs WHERE user_id = \$1 AND action = \$2 AND created_at >= \$3 ORDER BY created_at DESC, id DESC LIMIT 10`).
		WithArgs(userID, action, from).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "action", "entity_type", "entity_id", "details", "created_at",
		}).AddRow(int64(3), userID, action, "auth", nil, []byte(`{"email":"dev@example.com"}`), now))

	entries, err := repo.List(context.Background(), ports.ActivityFilter{
		UserID: &userID,
		Action: &action,
		From:   &from,
		Limit:  10,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, action, entries[0].Action)
	assert.Equal(t, "dev@example.com", entries[0].Details["email"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityActionCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityLogRepository(db)

	mock.ExpectQuery(`SELECT action, COUNT\(\*\) AS count FROM activity_logs GROUP BY action ORDER BY count DESC, action ASC LIMIT 20`).
		WillReturnRows(sqlmock.NewRows([]string{"action", "count"}).
			AddRow("create_task", 14).
			AddRow("login", 9))

	counts, err := repo.ActionCounts(context.Background(), ports.ActivityFilter{}, 0)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "create_task", counts[0].Action)
	assert.Equal(t, 14, counts[0].Count)

	require.NoError(t, mock.ExpectationsWereMet())
}

// The date filter must land in the JOIN condition so zero-activity users
// survive the LEFT JOIN.
func TestActivityUserCountsKeepZeroUsers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityLogRepository(db)

	idle := uuid.New()
	busy := uuid.New()
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT u\.id AS user_id, u\.username, COUNT\(a\.id\) AS count FROM users u LEFT JOIN activity_logs a ON a\.user_id = u\.id AND a\.created_at >= \$1 WHERE u\.is_active = \$2 GROUP BY u\.id, u\.username ORDER BY count DESC, u\.username ASC`).
		WithArgs(from, true).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "username", "count"}).
			AddRow(busy, "busy", 8).
			AddRow(idle, "idle", 0))

	counts, err := repo.UserActivityCounts(context.Background(), ports.ActivityFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "busy", counts[0].Username)
	assert.Equal(t, 8, counts[0].Count)
	assert.Equal(t, "idle", counts[1].Username)
	assert.Equal(t, 0, counts[1].Count)

	require.NoError(t, mock.ExpectationsWereMet())
}
