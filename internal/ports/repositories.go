package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bugtrack/core/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// ProjectRepository defines the interface for project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *entities.Project) error
	GetByID(ctx context.Context, id int) (*entities.Project, error)
	Update(ctx context.Context, project *entities.Project) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter ProjectFilter) ([]*entities.Project, error)
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, int, error)
	GetByProject(ctx context.Context, projectID int) ([]*entities.Task, error)
	UpdateStatus(ctx context.Context, id int, status entities.TaskStatus) error
	GetAssignees(ctx context.Context, taskID int) ([]uuid.UUID, error)
	// ReplaceAssignees swaps the whole assignee set for a task inside one
	// transaction: either all rows land or the previous set survives intact.
	ReplaceAssignees(ctx context.Context, taskID int, userIDs []uuid.UUID) error
}

// BugRepository defines the interface for bug data operations
type BugRepository interface {
	Create(ctx context.Context, bug *entities.Bug) error
	GetByID(ctx context.Context, id int) (*entities.Bug, error)
	Update(ctx context.Context, bug *entities.Bug) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter BugFilter) ([]*entities.Bug, int, error)
	GetByTask(ctx context.Context, taskID int) ([]*entities.Bug, error)
	UpdateStatus(ctx context.Context, id int, status entities.BugStatus) error
}

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	// Create inserts the comment and, when attachment is non-nil, the
	// attachment row in the same transaction.
	Create(ctx context.Context, comment *entities.Comment, attachment *entities.Attachment) error
	ListByEntity(ctx context.Context, entityType entities.EntityType, entityID int) ([]*entities.Comment, error)
	CountByEntity(ctx context.Context, entityType entities.EntityType, entityID int) (int, error)
}

// AttachmentRepository defines the interface for attachment metadata
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entities.Attachment) error
	ListByEntity(ctx context.Context, entityType entities.EntityType, entityID int) ([]*entities.Attachment, error)
}

// ActivityLogRepository defines the append-only audit trail and its query
// surface. Rows are never updated or deleted.
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *entities.ActivityLog) error
	List(ctx context.Context, filter ActivityFilter) ([]*entities.ActivityLog, error)
	DistinctActions(ctx context.Context) ([]string, error)
	ActionCounts(ctx context.Context, filter ActivityFilter, limit int) ([]ActionCount, error)
	// UserActivityCounts returns per-user counts joined against the active
	// user roster; users with zero activity appear with count 0.
	UserActivityCounts(ctx context.Context, filter ActivityFilter) ([]UserActivityCount, error)
}

// NotificationRepository defines per-user notification storage
type NotificationRepository interface {
	Create(ctx context.Context, notification *entities.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
	// MarkRead is a no-op when the notification does not belong to userID.
	MarkRead(ctx context.Context, id int, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	DeleteRead(ctx context.Context, userID uuid.UUID) error
}

// ReportRepository fetches the raw rows report aggregation is computed from.
// Deadline classification happens in application code, not in SQL.
type ReportRepository interface {
	TaskStatRows(ctx context.Context, scope ReportScope) ([]TaskStatRow, error)
	BugStatusCounts(ctx context.Context, scope ReportScope) ([]StatusCount, error)
	PriorityCounts(ctx context.Context, scope ReportScope) ([]PriorityCount, error)
	CommentCount(ctx context.Context, scope ReportScope) (int, error)
	AttachmentCount(ctx context.Context, scope ReportScope) (int, error)
	DistinctProjectCount(ctx context.Context, scope ReportScope) (int, error)
	// TrendCounts returns per-bucket task counts newest bucket first.
	TrendCounts(ctx context.Context, scope ReportScope, interval TrendInterval) ([]TrendPoint, error)
}

// Filter types for repository queries

type UserFilter struct {
	Role     *entities.UserRole
	IsActive *bool
	Limit    int
	Offset   int
}

type ProjectFilter struct {
	Search *string
	Limit  int
	Offset int
}

type TaskFilter struct {
	Status     *entities.TaskStatus
	Priority   *entities.Priority
	ProjectID  *int
	AssigneeID *uuid.UUID
	Search     *string
	Limit      int
	Offset     int
}

type BugFilter struct {
	Status   *entities.BugStatus
	Priority *entities.Priority
	TaskID   *int
	Limit    int
	Offset   int
}

// ActivityFilter narrows activity log queries. From/To are inclusive and
// apply to created_at.
type ActivityFilter struct {
	UserID *uuid.UUID
	Action *string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// ReportScope selects the rows a report is computed over: one employee, one
// project, or global when both are nil. From/To window created_at.
type ReportScope struct {
	EmployeeID *uuid.UUID
	ProjectID  *int
	From       *time.Time
	To         *time.Time
}

// TrendInterval picks the time bucket for trend series
type TrendInterval string

const (
	TrendWeekly  TrendInterval = "week"
	TrendMonthly TrendInterval = "month"
)

// Aggregate row types

// TaskStatRow carries the minimum a report needs to classify and time a task
type TaskStatRow struct {
	Status      entities.TaskStatus `db:"status"`
	EndDatetime *time.Time          `db:"end_datetime"`
	CreatedAt   time.Time           `db:"created_at"`
	UpdatedAt   time.Time           `db:"updated_at"`
}

type ActionCount struct {
	Action string `db:"action" json:"action"`
	Count  int    `db:"count" json:"count"`
}

type UserActivityCount struct {
	UserID   uuid.UUID `db:"user_id" json:"user_id"`
	Username string    `db:"username" json:"username"`
	Count    int       `db:"count" json:"count"`
}

type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count" json:"count"`
}

type PriorityCount struct {
	Priority entities.Priority `db:"priority" json:"priority"`
	Count    int               `db:"count" json:"count"`
}

type TrendPoint struct {
	Bucket string `db:"bucket" json:"bucket"`
	Count  int    `db:"count" json:"count"`
}
