package services

import (
	"context"
	"fmt"
	"time"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// BugService handles bug operations. Bugs are children of tasks and follow
// the same audit discipline as tasks: one activity row per attempt.
type BugService struct {
	bugRepo  ports.BugRepository
	taskRepo ports.TaskRepository
	activity *ActivityService
	logger   *logger.Logger

	// now stamps deadline states on returned bugs, one instant per call.
	now func() time.Time
}

// NewBugService creates a new bug service
func NewBugService(bugRepo ports.BugRepository, taskRepo ports.TaskRepository, activity *ActivityService, logger *logger.Logger) *BugService {
	return &BugService{
		bugRepo:  bugRepo,
		taskRepo: taskRepo,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBug reports a new bug against a task
func (s *BugService) CreateBug(ctx context.Context, actor ports.Actor, req ports.CreateBugRequest) (*entities.Bug, error) {
	if !req.Priority.IsValid() {
		return nil, entities.ErrInvalidPriority
	}

	if _, err := s.taskRepo.GetByID(ctx, req.TaskID); err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	bug := &entities.Bug{
		TaskID:        req.TaskID,
		Name:          req.Name,
		Description:   req.Description,
		Priority:      req.Priority,
		Status:        entities.BugStatusOpen,
		StartDatetime: req.StartDatetime,
		EndDatetime:   req.EndDatetime,
		CreatedBy:     actor.UserID,
	}

	if err := s.bugRepo.Create(ctx, bug); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "create_bug", string(entities.EntityTypeBug), nil,
			entities.Details{"name": req.Name, "task_id": req.TaskID}, err)
		return nil, fmt.Errorf("create bug: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "create_bug", string(entities.EntityTypeBug), &bug.ID,
		entities.Details{"name": bug.Name, "task_id": bug.TaskID, "priority": string(bug.Priority)})

	s.logger.Infow("Bug created", "bug_id", bug.ID, "task_id", bug.TaskID)

	bug.ClassifyAt(s.now())

	return bug, nil
}

// GetBug retrieves a bug with its deadline state stamped for badge rendering.
func (s *BugService) GetBug(ctx context.Context, id int) (*entities.Bug, error) {
	bug, err := s.bugRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	bug.ClassifyAt(s.now())

	return bug, nil
}

// UpdateBug updates a bug's mutable fields
func (s *BugService) UpdateBug(ctx context.Context, actor ports.Actor, id int, req ports.UpdateBugRequest) (*entities.Bug, error) {
	bug, err := s.bugRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		bug.Name = *req.Name
	}
	if req.Description != nil {
		bug.Description = req.Description
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, entities.ErrInvalidPriority
		}
		bug.Priority = *req.Priority
	}
	if req.StartDatetime != nil {
		bug.StartDatetime = req.StartDatetime
	}
	if req.EndDatetime != nil {
		bug.EndDatetime = req.EndDatetime
	}

	if err := s.bugRepo.Update(ctx, bug); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "update_bug", string(entities.EntityTypeBug), &id, nil, err)
		return nil, fmt.Errorf("update bug: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "update_bug", string(entities.EntityTypeBug), &id,
		entities.Details{"name": bug.Name})

	bug.ClassifyAt(s.now())

	return bug, nil
}

// DeleteBug removes a bug
func (s *BugService) DeleteBug(ctx context.Context, actor ports.Actor, id int) error {
	if err := s.bugRepo.Delete(ctx, id); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "delete_bug", string(entities.EntityTypeBug), &id, nil, err)
		return err
	}

	s.activity.Log(ctx, &actor.UserID, "delete_bug", string(entities.EntityTypeBug), &id, nil)

	return nil
}

// ListBugs retrieves bugs with filtering and pagination
func (s *BugService) ListBugs(ctx context.Context, filter ports.BugFilter) ([]*entities.Bug, int, error) {
	bugs, total, err := s.bugRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list bugs: %w", err)
	}

	now := s.now()
	for _, bug := range bugs {
		bug.ClassifyAt(now)
	}

	return bugs, total, nil
}

// GetTaskBugs retrieves all bugs reported against a task
func (s *BugService) GetTaskBugs(ctx context.Context, taskID int) ([]*entities.Bug, error) {
	bugs, err := s.bugRepo.GetByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, bug := range bugs {
		bug.ClassifyAt(now)
	}

	return bugs, nil
}

// UpdateStatus moves a bug to any status, auditing old and new values.
func (s *BugService) UpdateStatus(ctx context.Context, actor ports.Actor, id int, status entities.BugStatus) (*entities.Bug, error) {
	if !status.IsValid() {
		return nil, entities.ErrInvalidStatus
	}

	bug, err := s.bugRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	details := entities.Details{
		"old_status": string(bug.Status),
		"new_status": string(status),
	}

	if err := s.bugRepo.UpdateStatus(ctx, id, status); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "update_status", string(entities.EntityTypeBug), &id, details, err)
		return nil, fmt.Errorf("update bug status: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "update_status", string(entities.EntityTypeBug), &id, details)

	updated, err := s.bugRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated.ClassifyAt(s.now())

	return updated, nil
}
