package ports

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/bugtrack/core/internal/domain/entities"
)

// Actor is the request-scoped identity every core call receives instead of
// ambient session state. Handlers build it from the auth middleware.
type Actor struct {
	UserID uuid.UUID
	Role   entities.UserRole
}

// IsManager reports whether the actor holds the manager role.
func (a Actor) IsManager() bool {
	return a.Role == entities.UserRoleManager
}

// Mailer delivers notification emails. Delivery mechanics live outside the
// core; implementations must be safe for best-effort use.
type Mailer interface {
	Send(to, subject, body string) error
}

// Claims embedded in JWT tokens
type Claims struct {
	UserID string            `json:"user_id"`
	Email  string            `json:"email"`
	Role   entities.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Auth related types
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

// User related types
type CreateUserRequest struct {
	Email     string            `json:"email" validate:"required,email"`
	Username  string            `json:"username" validate:"required,min=3,max=50"`
	Password  string            `json:"password" validate:"required,min=8"`
	FirstName *string           `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string           `json:"last_name" validate:"omitempty,max=100"`
	Role      entities.UserRole `json:"role" validate:"required"`
}

// Project related types
type CreateProjectRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

// Task related types
type CreateTaskRequest struct {
	ProjectID     int               `json:"project_id" validate:"required"`
	Name          string            `json:"name" validate:"required,min=1,max=255"`
	Description   *string           `json:"description"`
	Priority      entities.Priority `json:"priority" validate:"required"`
	StartDatetime *time.Time        `json:"start_datetime"`
	EndDatetime   *time.Time        `json:"end_datetime"`
}

type UpdateTaskRequest struct {
	Name          *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string            `json:"description"`
	Priority      *entities.Priority `json:"priority"`
	StartDatetime *time.Time         `json:"start_datetime"`
	EndDatetime   *time.Time         `json:"end_datetime"`
}

// Bug related types
type CreateBugRequest struct {
	TaskID        int               `json:"task_id" validate:"required"`
	Name          string            `json:"name" validate:"required,min=1,max=255"`
	Description   *string           `json:"description"`
	Priority      entities.Priority `json:"priority" validate:"required"`
	StartDatetime *time.Time        `json:"start_datetime"`
	EndDatetime   *time.Time        `json:"end_datetime"`
}

type UpdateBugRequest struct {
	Name          *string            `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string            `json:"description"`
	Priority      *entities.Priority `json:"priority"`
	StartDatetime *time.Time         `json:"start_datetime"`
	EndDatetime   *time.Time         `json:"end_datetime"`
}

// Comment related types
type CreateCommentRequest struct {
	EntityType entities.EntityType `json:"entity_type" validate:"required"`
	EntityID   int                 `json:"entity_id" validate:"required"`
	Body       string              `json:"body" validate:"required"`
	Attachment *AttachmentUpload   `json:"attachment"`
}

type AttachmentUpload struct {
	Filename     string `json:"filename" validate:"required"`
	OriginalName string `json:"original_name" validate:"required"`
	Path         string `json:"path" validate:"required"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mime_type"`
}

// Notification related types
type CreateNotificationRequest struct {
	UserID      uuid.UUID                 `json:"user_id" validate:"required"`
	Type        entities.NotificationType `json:"type" validate:"required"`
	Title       string                    `json:"title" validate:"required,max=255"`
	Message     string                    `json:"message" validate:"required"`
	RelatedType *entities.EntityType      `json:"related_type"`
	RelatedID   *int                      `json:"related_id"`
}

// Report result types

// ReportStats is the aggregate record for one employee, one project, or the
// whole system. An empty scope returns the zero value, never nil.
type ReportStats struct {
	TotalTasks         int             `json:"total_tasks"`
	CompletedTasks     int             `json:"completed_tasks"`
	CompletionRate     float64         `json:"completion_rate"`
	OverdueTasks       int             `json:"overdue_tasks"`
	UrgentTasks        int             `json:"urgent_tasks"`
	AvgCompletionHours *float64        `json:"avg_completion_hours"`
	MinCompletionHours *float64        `json:"min_completion_hours"`
	MaxCompletionHours *float64        `json:"max_completion_hours"`
	BugsByStatus       []StatusCount   `json:"bugs_by_status"`
	PriorityBreakdown  []PriorityCount `json:"priority_breakdown"`
	CommentCount       int             `json:"comment_count"`
	AttachmentCount    int             `json:"attachment_count"`
	ProjectCount       int             `json:"project_count"`
	GeneratedAt        time.Time       `json:"generated_at"`
}

// ActivityEntry is an activity log row plus a human-readable summary derived
// from its details payload.
type ActivityEntry struct {
	*entities.ActivityLog
	Summary string `json:"summary"`
}
