package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/ports"
)

// psql builds queries with Postgres-style $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const taskColumns = "id, project_id, name, description, priority, status, start_datetime, end_datetime, created_by, created_at, updated_at"

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (project_id, name, description, priority, status, start_datetime, end_datetime, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.ProjectID, task.Name, task.Description, task.Priority, task.Status,
		task.StartDatetime, task.EndDatetime, task.CreatedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET name = $2, description = $3, priority = $4, status = $5,
			start_datetime = $6, end_datetime = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Name, task.Description, task.Priority, task.Status,
		task.StartDatetime, task.EndDatetime,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	base := psql.Select().From("tasks t")

	if filter.Status != nil {
		base = base.Where(sq.Eq{"t.status": *filter.Status})
	}
	if filter.Priority != nil {
		base = base.Where(sq.Eq{"t.priority": *filter.Priority})
	}
	if filter.ProjectID != nil {
		base = base.Where(sq.Eq{"t.project_id": *filter.ProjectID})
	}
	if filter.AssigneeID != nil {
		base = base.Where("t.id IN (SELECT task_id FROM task_assignments WHERE user_id = ?)", *filter.AssigneeID)
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		base = base.Where(sq.Or{sq.ILike{"t.name": pattern}, sq.ILike{"t.description": pattern}})
	}

	countQuery, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build task count query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	listQuery, listArgs, err := base.
		Columns("t.id", "t.project_id", "t.name", "t.description", "t.priority", "t.status",
			"t.start_datetime", "t.end_datetime", "t.created_by", "t.created_at", "t.updated_at").
		OrderBy("t.created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build task list query: %w", err)
	}

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, total, nil
}

func (r *TaskRepositoryImpl) GetByProject(ctx context.Context, projectID int) ([]*entities.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE project_id = $1 ORDER BY created_at DESC`, taskColumns)

	var tasks []*entities.Task
	if err := r.db.SelectContext(ctx, &tasks, query, projectID); err != nil {
		return nil, fmt.Errorf("get tasks by project: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) UpdateStatus(ctx context.Context, id int, status entities.TaskStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update task status rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) GetAssignees(ctx context.Context, taskID int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM task_assignments WHERE task_id = $1 ORDER BY user_id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("get task assignees: %w", err)
	}

	return ids, nil
}

// ReplaceAssignees swaps the assignee set for a task: delete-all-then-insert
// inside one transaction, so a failed insert leaves the previous set intact.
func (r *TaskRepositoryImpl) ReplaceAssignees(ctx context.Context, taskID int, userIDs []uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignee replacement: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM task_assignments WHERE task_id = $1`, taskID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear task assignees: %w", err)
	}

	for _, userID := range userIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO task_assignments (task_id, user_id) VALUES ($1, $2)`, taskID, userID); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert task assignee: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit assignee replacement: %w", err)
	}

	return nil
}
