package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/ports"
)

func TestTaskGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	now := time.Now()
	createdBy := uuid.New()

	t.Run("existing task", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM tasks WHERE id = \$1`).
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "project_id", "name", "description", "priority", "status",
				"start_datetime", "end_datetime", "created_by", "created_at", "updated_at",
			}).AddRow(1, 2, "fix login", nil, "high", "in_progress", nil, nil, createdBy, now, now))

		task, err := repo.GetByID(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, 1, task.ID)
		assert.Equal(t, entities.TaskStatusInProgress, task.Status)
		assert.Equal(t, entities.PriorityHigh, task.Priority)

		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing task maps to sentinel", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .* FROM tasks WHERE id = \$1`).
			WithArgs(99).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), 99)
		assert.ErrorIs(t, err, entities.ErrTaskNotFound)

		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTaskUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	t.Run("existing task", func(t *testing.T) {
		mock.ExpectExec(`UPDATE tasks SET status = \$2, updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs(1, entities.TaskStatusClosed).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateStatus(context.Background(), 1, entities.TaskStatusClosed))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing task maps to sentinel", func(t *testing.T) {
		mock.ExpectExec(`UPDATE tasks SET status = \$2, updated_at = NOW\(\) WHERE id = \$1`).
			WithArgs(99, entities.TaskStatusClosed).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(context.Background(), 99, entities.TaskStatusClosed)
		assert.ErrorIs(t, err, entities.ErrTaskNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTaskList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db)

	now := time.Now()
	createdBy := uuid.New()
	status := entities.TaskStatusInProgress
	projectID := 2

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks t WHERE t\.status = \$1 AND t\.project_id = \$2`).
		WithArgs(string(status), projectID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(`SELECT t\.id, .* FROM tasks t WHERE t\.status = \$1 AND t\.project_id = \$2 ORDER BY t\.created_at DESC LIMIT 50 OFFSET 0`).
		WithArgs(string(status), projectID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "project_id", "name", "description", "priority", "status",
			"start_datetime", "end_datetime", "created_by", "created_at", "updated_at",
		}).AddRow(1, projectID, "fix login", nil, "high", "in_progress", nil, nil, createdBy, now, now))

	tasks, total, err := repo.List(context.Background(), ports.TaskFilter{
		Status:    &status,
		ProjectID: &projectID,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "fix login", tasks[0].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAssignees(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()

	t.Run("replaces the whole set in one transaction", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTaskRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM task_assignments WHERE task_id = \$1`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`INSERT INTO task_assignments \(task_id, user_id\) VALUES \(\$1, \$2\)`).
			WithArgs(1, userA).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO task_assignments \(task_id, user_id\) VALUES \(\$1, \$2\)`).
			WithArgs(1, userB).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ReplaceAssignees(context.Background(), 1, []uuid.UUID{userA, userB})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty set clears all assignees", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTaskRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM task_assignments WHERE task_id = \$1`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		err := repo.ReplaceAssignees(context.Background(), 1, nil)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed insert rolls the delete back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTaskRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM task_assignments WHERE task_id = \$1`).
			WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(`INSERT INTO task_assignments \(task_id, user_id\) VALUES \(\$1, \$2\)`).
			WithArgs(1, userA).
			WillReturnError(errors.New("foreign key violation"))
		mock.ExpectRollback()

		err := repo.ReplaceAssignees(context.Background(), 1, []uuid.UUID{userA, userB})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert task assignee")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
