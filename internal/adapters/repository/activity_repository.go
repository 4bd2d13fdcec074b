package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/ports"
)

// maxActivityRows caps full listings so a wide-open filter cannot drag the
// whole audit trail into memory.
const maxActivityRows = 1000

// ActivityLogRepositoryImpl implements the ActivityLogRepository interface.
// The table is append-only: no update or delete statements exist here.
type ActivityLogRepositoryImpl struct {
	db *sqlx.DB
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *sqlx.DB) ports.ActivityLogRepository {
	return &ActivityLogRepositoryImpl{db: db}
}

func (r *ActivityLogRepositoryImpl) Append(ctx context.Context, entry *entities.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (user_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID, entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)

	if err != nil {
		return fmt.Errorf("append activity log: %w", err)
	}

	return nil
}

// applyFilter translates an ActivityFilter into WHERE conditions. From/To are
// inclusive bounds on created_at.
func applyFilter(b sq.SelectBuilder, filter ports.ActivityFilter) sq.SelectBuilder {
	if filter.UserID != nil {
		b = b.Where(sq.Eq{"user_id": *filter.UserID})
	}
	if filter.Action != nil && *filter.Action != "" {
		b = b.Where(sq.Eq{"action": *filter.Action})
	}
	if filter.From != nil {
		b = b.Where(sq.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		b = b.Where(sq.LtOrEq{"created_at": *filter.To})
	}

	return b
}

func (r *ActivityLogRepositoryImpl) List(ctx context.Context, filter ports.ActivityFilter) ([]*entities.ActivityLog, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxActivityRows {
		limit = maxActivityRows
	}

	builder := applyFilter(
		psql.Select("id", "user_id", "action", "entity_type", "entity_id", "details", "created_at").
			From("activity_logs"),
		filter,
	).OrderBy("created_at DESC", "id DESC").Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build activity list query: %w", err)
	}

	var entries []*entities.ActivityLog
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}

	return entries, nil
}

func (r *ActivityLogRepositoryImpl) DistinctActions(ctx context.Context) ([]string, error) {
	var actions []string
	err := r.db.SelectContext(ctx, &actions,
		`SELECT DISTINCT action FROM activity_logs ORDER BY action ASC`)
	if err != nil {
		return nil, fmt.Errorf("distinct actions: %w", err)
	}

	return actions, nil
}

func (r *ActivityLogRepositoryImpl) ActionCounts(ctx context.Context, filter ports.ActivityFilter, limit int) ([]ports.ActionCount, error) {
	if limit <= 0 {
		limit = 20
	}

	builder := applyFilter(
		psql.Select("action", "COUNT(*) AS count").From("activity_logs"),
		filter,
	).GroupBy("action").OrderBy("count DESC", "action ASC").Limit(uint64(limit))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build action count query: %w", err)
	}

	var counts []ports.ActionCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count actions: %w", err)
	}

	return counts, nil
}

// UserActivityCounts joins the active user roster against the log so that
// users with zero recorded activity still appear with a zero count. The
// filter goes into the join condition, not the WHERE clause: filtering on
// a.created_at after the join would silently drop the zero-count users.
func (r *ActivityLogRepositoryImpl) UserActivityCounts(ctx context.Context, filter ports.ActivityFilter) ([]ports.UserActivityCount, error) {
	join := "activity_logs a ON a.user_id = u.id"
	var joinArgs []interface{}

	if filter.Action != nil && *filter.Action != "" {
		join += " AND a.action = ?"
		joinArgs = append(joinArgs, *filter.Action)
	}
	if filter.From != nil {
		join += " AND a.created_at >= ?"
		joinArgs = append(joinArgs, *filter.From)
	}
	if filter.To != nil {
		join += " AND a.created_at <= ?"
		joinArgs = append(joinArgs, *filter.To)
	}

	builder := psql.Select("u.id AS user_id", "u.username", "COUNT(a.id) AS count").
		From("users u").
		LeftJoin(join, joinArgs...).
		Where(sq.Eq{"u.is_active": true}).
		GroupBy("u.id", "u.username").
		OrderBy("count DESC", "u.username ASC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build user activity query: %w", err)
	}

	var counts []ports.UserActivityCount
	if err := r.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("count user activity: %w", err)
	}

	return counts, nil
}
