package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound            = errors.New("task not found")
	ErrBugNotFound             = errors.New("bug not found")
	ErrProjectNotFound         = errors.New("project not found")
	ErrUserNotFound            = errors.New("user not found")
	ErrCommentNotFound         = errors.New("comment not found")
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidPriority         = errors.New("invalid priority")
	ErrInvalidEntityType       = errors.New("invalid entity type")
	ErrInvalidNotificationType = errors.New("invalid notification type")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
)

// Enums and types
type UserRole string

const (
	UserRoleManager   UserRole = "manager"
	UserRoleDeveloper UserRole = "developer"
	UserRoleQA        UserRole = "qa"
)

type TaskStatus string

const (
	TaskStatusTodo         TaskStatus = "todo"
	TaskStatusReopened     TaskStatus = "reopened"
	TaskStatusInProgress   TaskStatus = "in_progress"
	TaskStatusAwaitRelease TaskStatus = "await_release"
	TaskStatusInReview     TaskStatus = "in_review"
	TaskStatusClosed       TaskStatus = "closed"
)

type BugStatus string

const (
	BugStatusOpen       BugStatus = "open"
	BugStatusInProgress BugStatus = "in_progress"
	BugStatusResolved   BugStatus = "resolved"
	BugStatusClosed     BugStatus = "closed"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// PriorityOrder is the display order for priority breakdowns, regardless of
// how a GROUP BY happens to return rows.
var PriorityOrder = []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// EntityType discriminates polymorphic references (comments, attachments,
// activity log rows, notification links).
type EntityType string

const (
	EntityTypeTask    EntityType = "task"
	EntityTypeBug     EntityType = "bug"
	EntityTypeComment EntityType = "comment"
)

type NotificationType string

const (
	NotificationTypeDeadline   NotificationType = "deadline"
	NotificationTypeBugReport  NotificationType = "bug_report"
	NotificationTypeCritical   NotificationType = "critical"
	NotificationTypeAssignment NotificationType = "assignment"
	NotificationTypeTaskUpdate NotificationType = "task_update"
)

// User represents a user in the system
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    *string   `json:"first_name" db:"first_name"`
	LastName     *string   `json:"last_name" db:"last_name"`
	Role         UserRole  `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Project represents a project owning a set of tasks
type Project struct {
	ID          int       `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description" db:"description"`
	CreatedBy   uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Task represents a unit of work inside a project
type Task struct {
	ID            int         `json:"id" db:"id"`
	ProjectID     int         `json:"project_id" db:"project_id"`
	Name          string      `json:"name" db:"name"`
	Description   *string     `json:"description" db:"description"`
	Priority      Priority    `json:"priority" db:"priority"`
	Status        TaskStatus  `json:"status" db:"status"`
	StartDatetime *time.Time  `json:"start_datetime" db:"start_datetime"`
	EndDatetime   *time.Time  `json:"end_datetime" db:"end_datetime"`
	CreatedBy     uuid.UUID   `json:"created_by" db:"created_by"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
	Assignees     []uuid.UUID `json:"assignees,omitempty"`

	// DeadlineState is derived on read, never stored.
	DeadlineState DeadlineState `json:"deadline_state,omitempty"`
}

// TaskAssignment links a task to an assignee. The whole set for a task is
// replaced atomically when a manager edits assignees.
type TaskAssignment struct {
	TaskID int       `json:"task_id" db:"task_id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`
}

// Bug represents a defect reported against a task
type Bug struct {
	ID            int        `json:"id" db:"id"`
	TaskID        int        `json:"task_id" db:"task_id"`
	Name          string     `json:"name" db:"name"`
	Description   *string    `json:"description" db:"description"`
	Priority      Priority   `json:"priority" db:"priority"`
	Status        BugStatus  `json:"status" db:"status"`
	StartDatetime *time.Time `json:"start_datetime" db:"start_datetime"`
	EndDatetime   *time.Time `json:"end_datetime" db:"end_datetime"`
	CreatedBy     uuid.UUID  `json:"created_by" db:"created_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`

	// DeadlineState is derived on read, never stored.
	DeadlineState DeadlineState `json:"deadline_state,omitempty"`
}

// Comment is an append-only note attached to a task or a bug
type Comment struct {
	ID         int        `json:"id" db:"id"`
	EntityType EntityType `json:"entity_type" db:"entity_type"`
	EntityID   int        `json:"entity_id" db:"entity_id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Body       string     `json:"body" db:"body"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Attachment is append-only file metadata linked to a task, bug or comment
type Attachment struct {
	ID           int        `json:"id" db:"id"`
	EntityType   EntityType `json:"entity_type" db:"entity_type"`
	EntityID     int        `json:"entity_id" db:"entity_id"`
	Filename     string     `json:"filename" db:"filename"`
	OriginalName string     `json:"original_name" db:"original_name"`
	Path         string     `json:"path" db:"path"`
	Size         int64      `json:"size" db:"size"`
	MimeType     string     `json:"mime_type" db:"mime_type"`
	UploadedBy   uuid.UUID  `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// ActivityLog is one row of the append-only audit trail. Rows are never
// updated or deleted by the application. UserID is nil for unauthenticated
// events (e.g. a failed login).
type ActivityLog struct {
	ID         int64      `json:"id" db:"id"`
	UserID     *uuid.UUID `json:"user_id" db:"user_id"`
	Action     string     `json:"action" db:"action"`
	EntityType string     `json:"entity_type" db:"entity_type"`
	EntityID   *int       `json:"entity_id" db:"entity_id"`
	Details    Details    `json:"details" db:"details"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// Notification is a per-user system message with read-state
type Notification struct {
	ID          int              `json:"id" db:"id"`
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	Type        NotificationType `json:"type" db:"type"`
	Title       string           `json:"title" db:"title"`
	Message     string           `json:"message" db:"message"`
	RelatedType *EntityType      `json:"related_type" db:"related_type"`
	RelatedID   *int             `json:"related_id" db:"related_id"`
	IsRead      bool             `json:"is_read" db:"is_read"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

// Business logic methods for Task
func (t *Task) IsClosed() bool {
	return t.Status == TaskStatusClosed
}

// CompletionHours returns the time from creation to close, in hours.
// Only meaningful for closed tasks.
func (t *Task) CompletionHours() float64 {
	return t.UpdatedAt.Sub(t.CreatedAt).Hours()
}

// Business logic methods for Bug
func (b *Bug) IsClosed() bool {
	return b.Status == BugStatusClosed
}

// Utility methods
func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleManager, UserRoleDeveloper, UserRoleQA:
		return true
	default:
		return false
	}
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusTodo, TaskStatusReopened, TaskStatusInProgress,
		TaskStatusAwaitRelease, TaskStatusInReview, TaskStatusClosed:
		return true
	default:
		return false
	}
}

func (bs BugStatus) IsValid() bool {
	switch bs {
	case BugStatusOpen, BugStatusInProgress, BugStatusResolved, BugStatusClosed:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// CanComment reports whether an entity kind accepts comments.
func (et EntityType) CanComment() bool {
	switch et {
	case EntityTypeTask, EntityTypeBug:
		return true
	default:
		return false
	}
}

// CanAttach reports whether an entity kind accepts file attachments.
func (et EntityType) CanAttach() bool {
	switch et {
	case EntityTypeTask, EntityTypeBug, EntityTypeComment:
		return true
	default:
		return false
	}
}

func (nt NotificationType) IsValid() bool {
	switch nt {
	case NotificationTypeDeadline, NotificationTypeBugReport, NotificationTypeCritical,
		NotificationTypeAssignment, NotificationTypeTaskUpdate:
		return true
	default:
		return false
	}
}
