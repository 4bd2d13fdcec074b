package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// TaskService handles task operations. Every state-changing call writes one
// audit row per attempt: the action tag on success, the failed variant
// otherwise. For transactional mutations the success row is written after
// commit, so an audit failure cannot roll back committed work.
type TaskService struct {
	taskRepo      ports.TaskRepository
	projectRepo   ports.ProjectRepository
	userRepo      ports.UserRepository
	activity      *ActivityService
	notifications *NotificationService
	logger        *logger.Logger

	// now stamps deadline states on returned tasks, one instant per call.
	now func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, projectRepo ports.ProjectRepository, userRepo ports.UserRepository, activity *ActivityService, notifications *NotificationService, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:      taskRepo,
		projectRepo:   projectRepo,
		userRepo:      userRepo,
		activity:      activity,
		notifications: notifications,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateTask creates a new task in the actor's name
func (s *TaskService) CreateTask(ctx context.Context, actor ports.Actor, req ports.CreateTaskRequest) (*entities.Task, error) {
	if !req.Priority.IsValid() {
		return nil, entities.ErrInvalidPriority
	}

	if _, err := s.projectRepo.GetByID(ctx, req.ProjectID); err != nil {
		return nil, fmt.Errorf("project not found: %w", err)
	}

	task := &entities.Task{
		ProjectID:     req.ProjectID,
		Name:          req.Name,
		Description:   req.Description,
		Priority:      req.Priority,
		Status:        entities.TaskStatusTodo,
		StartDatetime: req.StartDatetime,
		EndDatetime:   req.EndDatetime,
		CreatedBy:     actor.UserID,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "create_task", string(entities.EntityTypeTask), nil,
			entities.Details{"name": req.Name, "project_id": req.ProjectID}, err)
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "create_task", string(entities.EntityTypeTask), &task.ID,
		entities.Details{"name": task.Name, "project_id": task.ProjectID})

	s.logger.Infow("Task created", "task_id", task.ID, "name", task.Name)

	task.ClassifyAt(s.now())

	return task, nil
}

// GetTask retrieves a task with its assignee set and its deadline state
// stamped for badge rendering.
func (s *TaskService) GetTask(ctx context.Context, id int) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	assignees, err := s.taskRepo.GetAssignees(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Assignees = assignees
	task.ClassifyAt(s.now())

	return task, nil
}

// UpdateTask updates a task's mutable fields
func (s *TaskService) UpdateTask(ctx context.Context, actor ports.Actor, id int, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		task.Name = *req.Name
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, entities.ErrInvalidPriority
		}
		task.Priority = *req.Priority
	}
	if req.StartDatetime != nil {
		task.StartDatetime = req.StartDatetime
	}
	if req.EndDatetime != nil {
		task.EndDatetime = req.EndDatetime
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "update_task", string(entities.EntityTypeTask), &id, nil, err)
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "update_task", string(entities.EntityTypeTask), &id,
		entities.Details{"name": task.Name})

	task.ClassifyAt(s.now())

	return task, nil
}

// DeleteTask removes a task
func (s *TaskService) DeleteTask(ctx context.Context, actor ports.Actor, id int) error {
	if err := s.taskRepo.Delete(ctx, id); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "delete_task", string(entities.EntityTypeTask), &id, nil, err)
		return err
	}

	s.activity.Log(ctx, &actor.UserID, "delete_task", string(entities.EntityTypeTask), &id, nil)

	return nil
}

// ListTasks retrieves tasks with filtering and pagination
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	tasks, total, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	now := s.now()
	for _, task := range tasks {
		task.ClassifyAt(now)
	}

	return tasks, total, nil
}

// UpdateStatus moves a task to any status. Transitions are unconstrained but
// every attempt is audited with the old and new value.
func (s *TaskService) UpdateStatus(ctx context.Context, actor ports.Actor, id int, status entities.TaskStatus) (*entities.Task, error) {
	if !status.IsValid() {
		return nil, entities.ErrInvalidStatus
	}

	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := entities.Details{
		"old_status": string(task.Status),
		"new_status": string(status),
	}

	if err := s.taskRepo.UpdateStatus(ctx, id, status); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "update_status", string(entities.EntityTypeTask), &id, details, err)
		return nil, fmt.Errorf("update task status: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "update_status", string(entities.EntityTypeTask), &id, details)

	updated, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated.ClassifyAt(s.now())

	return updated, nil
}

// ReplaceAssignees swaps the full assignee set for a task. The repository
// runs the swap in one transaction; the audit row and the assignment
// notifications go out only after it commits. Managers only.
func (s *TaskService) ReplaceAssignees(ctx context.Context, actor ports.Actor, taskID int, userIDs []uuid.UUID) error {
	if !actor.IsManager() {
		return entities.ErrForbidden
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return err
	}

	for _, userID := range userIDs {
		if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
			return fmt.Errorf("assignee %s: %w", userID, err)
		}
	}

	previous, err := s.taskRepo.GetAssignees(ctx, taskID)
	if err != nil {
		return err
	}

	details := entities.Details{"assignee_count": len(userIDs)}

	if err := s.taskRepo.ReplaceAssignees(ctx, taskID, userIDs); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "replace_assignees", string(entities.EntityTypeTask), &taskID, details, err)
		return fmt.Errorf("replace assignees: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "replace_assignees", string(entities.EntityTypeTask), &taskID, details)

	relatedType := entities.EntityTypeTask
	for _, userID := range newAssignees(previous, userIDs) {
		_, err := s.notifications.Create(ctx, ports.CreateNotificationRequest{
			UserID:      userID,
			Type:        entities.NotificationTypeAssignment,
			Title:       "New task assignment",
			Message:     fmt.Sprintf("You have been assigned to task %q", task.Name),
			RelatedType: &relatedType,
			RelatedID:   &taskID,
		})
		if err != nil {
			s.logger.Warnw("Failed to create assignment notification",
				"error", err, "task_id", taskID, "user_id", userID)
		}
	}

	return nil
}

// newAssignees returns the ids present in next but not in prev.
func newAssignees(prev, next []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(prev))
	for _, id := range prev {
		seen[id] = struct{}{}
	}

	var added []uuid.UUID
	for _, id := range next {
		if _, ok := seen[id]; !ok {
			added = append(added, id)
		}
	}

	return added
}
