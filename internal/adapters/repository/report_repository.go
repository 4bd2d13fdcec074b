package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/bugtrack/core/internal/ports"
)

// ReportRepositoryImpl fetches the raw rows report aggregation runs over.
// Deadline classification and rate math happen in the service layer so the
// same rule backs badges and aggregates; nothing here re-derives it in SQL.
type ReportRepositoryImpl struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &ReportRepositoryImpl{db: db}
}

// scopedTasks builds the FROM/WHERE fragment shared by every task-derived
// aggregate: tasks narrowed to one employee (via assignments), one project,
// or neither, windowed on created_at.
func scopedTasks(scope ports.ReportScope) sq.SelectBuilder {
	b := psql.Select().From("tasks t")

	if scope.EmployeeID != nil {
		b = b.Join("task_assignments ta ON ta.task_id = t.id").
			Where(sq.Eq{"ta.user_id": *scope.EmployeeID})
	}
	if scope.ProjectID != nil {
		b = b.Where(sq.Eq{"t.project_id": *scope.ProjectID})
	}
	if scope.From != nil {
		b = b.Where(sq.GtOrEq{"t.created_at": *scope.From})
	}
	if scope.To != nil {
		b = b.Where(sq.LtOrEq{"t.created_at": *scope.To})
	}

	return b
}

func (r *ReportRepositoryImpl) TaskStatRows(ctx context.Context, scope ports.ReportScope) ([]ports.TaskStatRow, error) {
	query, args, err := scopedTasks(scope).
		Columns("t.status", "t.end_datetime", "t.created_at", "t.updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build task stat query: %w", err)
	}

	var rows []ports.TaskStatRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("fetch task stat rows: %w", err)
	}

	return rows, nil
}

func (r *ReportRepositoryImpl) BugStatusCounts(ctx context.Context, scope ports.ReportScope) ([]ports.StatusCount, error) {
	b := psql.Select("b.status", "COUNT(*) AS count").
		From("bugs b").
		Join("tasks t ON t.id = b.task_id")

	if scope.EmployeeID != nil {
		b = b.Join("task_assignments ta ON ta.task_id = t.id").
			Where(sq.Eq{"ta.user_id": *scope.EmployeeID})
	}
	if scope.ProjectID != nil {
		b = b.Where(sq.Eq{"t.project_id": *scope.ProjectID})
	}
	if scope.From != nil {
		b = b.Where(sq.GtOrEq{"b.created_at": *scope.From})
	}
	if scope.To != nil {
		b = b.Where(sq.LtOrEq{"b.created_at": *scope.To})
	}

	query, args, err := b.GroupBy("b.status").OrderBy("b.status ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bug status query: %w", err)
	}

	var counts []ports.StatusCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count bugs by status: %w", err)
	}

	return counts, nil
}

func (r *ReportRepositoryImpl) PriorityCounts(ctx context.Context, scope ports.ReportScope) ([]ports.PriorityCount, error) {
	query, args, err := scopedTasks(scope).
		Columns("t.priority", "COUNT(*) AS count").
		GroupBy("t.priority").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build priority count query: %w", err)
	}

	var counts []ports.PriorityCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count tasks by priority: %w", err)
	}

	return counts, nil
}

func (r *ReportRepositoryImpl) CommentCount(ctx context.Context, scope ports.ReportScope) (int, error) {
	b := psql.Select("COUNT(*)").From("comments c")

	switch {
	case scope.EmployeeID != nil:
		b = b.Where(sq.Eq{"c.user_id": *scope.EmployeeID})
	case scope.ProjectID != nil:
		b = b.Where(`(
			(c.entity_type = 'task' AND c.entity_id IN (SELECT id FROM tasks WHERE project_id = ?))
			OR (c.entity_type = 'bug' AND c.entity_id IN (
				SELECT b.id FROM bugs b JOIN tasks t ON t.id = b.task_id WHERE t.project_id = ?))
		)`, *scope.ProjectID, *scope.ProjectID)
	}
	if scope.From != nil {
		b = b.Where(sq.GtOrEq{"c.created_at": *scope.From})
	}
	if scope.To != nil {
		b = b.Where(sq.LtOrEq{"c.created_at": *scope.To})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build comment count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}

	return count, nil
}

func (r *ReportRepositoryImpl) AttachmentCount(ctx context.Context, scope ports.ReportScope) (int, error) {
	b := psql.Select("COUNT(*)").From("attachments a")

	switch {
	case scope.EmployeeID != nil:
		b = b.Where(sq.Eq{"a.uploaded_by": *scope.EmployeeID})
	case scope.ProjectID != nil:
		// Attachments land on tasks, bugs, or comments; comments resolve to
		// the project through their own parent task or bug.
		b = b.Where(`(
			(a.entity_type = 'task' AND a.entity_id IN (SELECT id FROM tasks WHERE project_id = ?))
			OR (a.entity_type = 'bug' AND a.entity_id IN (
				SELECT b.id FROM bugs b JOIN tasks t ON t.id = b.task_id WHERE t.project_id = ?))
			OR (a.entity_type = 'comment' AND a.entity_id IN (
				SELECT c.id FROM comments c
				LEFT JOIN tasks ct ON c.entity_type = 'task' AND ct.id = c.entity_id
				LEFT JOIN bugs cb ON c.entity_type = 'bug' AND cb.id = c.entity_id
				LEFT JOIN tasks cbt ON cbt.id = cb.task_id
				WHERE ct.project_id = ? OR cbt.project_id = ?))
		)`, *scope.ProjectID, *scope.ProjectID, *scope.ProjectID, *scope.ProjectID)
	}
	if scope.From != nil {
		b = b.Where(sq.GtOrEq{"a.created_at": *scope.From})
	}
	if scope.To != nil {
		b = b.Where(sq.LtOrEq{"a.created_at": *scope.To})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build attachment count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count attachments: %w", err)
	}

	return count, nil
}

func (r *ReportRepositoryImpl) DistinctProjectCount(ctx context.Context, scope ports.ReportScope) (int, error) {
	query, args, err := scopedTasks(scope).
		Columns("COUNT(DISTINCT t.project_id)").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build project count query: %w", err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count distinct projects: %w", err)
	}

	return count, nil
}

// TrendCounts groups scoped tasks into ISO-week or year-month buckets.
// Buckets come back newest first; the service reverses them for charting.
func (r *ReportRepositoryImpl) TrendCounts(ctx context.Context, scope ports.ReportScope, interval ports.TrendInterval) ([]ports.TrendPoint, error) {
	bucketExpr := `to_char(t.created_at, 'YYYY-MM')`
	if interval == ports.TrendWeekly {
		bucketExpr = `to_char(t.created_at, 'IYYY-"W"IW')`
	}

	query, args, err := scopedTasks(scope).
		Columns(bucketExpr+" AS bucket", "COUNT(*) AS count").
		GroupBy("bucket").
		OrderBy("bucket DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build trend query: %w", err)
	}

	var points []ports.TrendPoint
	if err := r.db.SelectContext(ctx, &points, query, args...); err != nil {
		return nil, fmt.Errorf("fetch trend counts: %w", err)
	}

	return points, nil
}
