package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/ports"
)

const bugColumns = "id, task_id, name, description, priority, status, start_datetime, end_datetime, created_by, created_at, updated_at"

// BugRepositoryImpl implements the BugRepository interface
type BugRepositoryImpl struct {
	db *sqlx.DB
}

// NewBugRepository creates a new bug repository
func NewBugRepository(db *sqlx.DB) ports.BugRepository {
	return &BugRepositoryImpl{db: db}
}

func (r *BugRepositoryImpl) Create(ctx context.Context, bug *entities.Bug) error {
	query := `
		INSERT INTO bugs (task_id, name, description, priority, status, start_datetime, end_datetime, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		bug.TaskID, bug.Name, bug.Description, bug.Priority, bug.Status,
		bug.StartDatetime, bug.EndDatetime, bug.CreatedBy,
	).Scan(&bug.ID, &bug.CreatedAt, &bug.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create bug: %w", err)
	}

	return nil
}

func (r *BugRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Bug, error) {
	query := fmt.Sprintf(`SELECT %s FROM bugs WHERE id = $1`, bugColumns)

	var bug entities.Bug
	err := r.db.GetContext(ctx, &bug, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrBugNotFound
		}
		return nil, fmt.Errorf("get bug by id: %w", err)
	}

	return &bug, nil
}

func (r *BugRepositoryImpl) Update(ctx context.Context, bug *entities.Bug) error {
	query := `
		UPDATE bugs
		SET name = $2, description = $3, priority = $4, status = $5,
			start_datetime = $6, end_datetime = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		bug.ID, bug.Name, bug.Description, bug.Priority, bug.Status,
		bug.StartDatetime, bug.EndDatetime,
	).Scan(&bug.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entities.ErrBugNotFound
		}
		return fmt.Errorf("update bug: %w", err)
	}

	return nil
}

func (r *BugRepositoryImpl) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bugs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bug: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete bug rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrBugNotFound
	}

	return nil
}

func (r *BugRepositoryImpl) List(ctx context.Context, filter ports.BugFilter) ([]*entities.Bug, int, error) {
	base := psql.Select().From("bugs")

	if filter.Status != nil {
		base = base.Where(sq.Eq{"status": *filter.Status})
	}
	if filter.Priority != nil {
		base = base.Where(sq.Eq{"priority": *filter.Priority})
	}
	if filter.TaskID != nil {
		base = base.Where(sq.Eq{"task_id": *filter.TaskID})
	}

	countQuery, countArgs, err := base.Columns("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build bug count query: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count bugs: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	listQuery, listArgs, err := base.
		Columns("id", "task_id", "name", "description", "priority", "status",
			"start_datetime", "end_datetime", "created_by", "created_at", "updated_at").
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build bug list query: %w", err)
	}

	var bugs []*entities.Bug
	if err := r.db.SelectContext(ctx, &bugs, listQuery, listArgs...); err != nil {
		return nil, 0, fmt.Errorf("list bugs: %w", err)
	}

	return bugs, total, nil
}

func (r *BugRepositoryImpl) GetByTask(ctx context.Context, taskID int) ([]*entities.Bug, error) {
	query := fmt.Sprintf(`SELECT %s FROM bugs WHERE task_id = $1 ORDER BY created_at DESC`, bugColumns)

	var bugs []*entities.Bug
	if err := r.db.SelectContext(ctx, &bugs, query, taskID); err != nil {
		return nil, fmt.Errorf("get bugs by task: %w", err)
	}

	return bugs, nil
}

func (r *BugRepositoryImpl) UpdateStatus(ctx context.Context, id int, status entities.BugStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bugs SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update bug status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bug status rows affected: %w", err)
	}
	if affected == 0 {
		return entities.ErrBugNotFound
	}

	return nil
}
