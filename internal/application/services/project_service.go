package services

import (
	"context"
	"fmt"

	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// ProjectService handles project operations
type ProjectService struct {
	projectRepo ports.ProjectRepository
	taskRepo    ports.TaskRepository
	activity    *ActivityService
	logger      *logger.Logger
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo ports.ProjectRepository, taskRepo ports.TaskRepository, activity *ActivityService, logger *logger.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		taskRepo:    taskRepo,
		activity:    activity,
		logger:      logger,
	}
}

// CreateProject creates a new project. Managers only.
func (s *ProjectService) CreateProject(ctx context.Context, actor ports.Actor, req ports.CreateProjectRequest) (*entities.Project, error) {
	if !actor.IsManager() {
		return nil, entities.ErrForbidden
	}

	project := &entities.Project{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actor.UserID,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "create_project", "project", nil,
			entities.Details{"name": req.Name}, err)
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "create_project", "project", &project.ID,
		entities.Details{"name": project.Name})

	return project, nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(ctx context.Context, id int) (*entities.Project, error) {
	return s.projectRepo.GetByID(ctx, id)
}

// UpdateProject updates a project. Managers only.
func (s *ProjectService) UpdateProject(ctx context.Context, actor ports.Actor, id int, req ports.UpdateProjectRequest) (*entities.Project, error) {
	if !actor.IsManager() {
		return nil, entities.ErrForbidden
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = req.Description
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "update_project", "project", &id, nil, err)
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.activity.Log(ctx, &actor.UserID, "update_project", "project", &id,
		entities.Details{"name": project.Name})

	return project, nil
}

// DeleteProject removes a project and its tasks. Managers only.
func (s *ProjectService) DeleteProject(ctx context.Context, actor ports.Actor, id int) error {
	if !actor.IsManager() {
		return entities.ErrForbidden
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		s.activity.LogFailure(ctx, &actor.UserID, "delete_project", "project", &id, nil, err)
		return err
	}

	s.activity.Log(ctx, &actor.UserID, "delete_project", "project", &id, nil)

	return nil
}

// ListProjects retrieves projects with filtering
func (s *ProjectService) ListProjects(ctx context.Context, filter ports.ProjectFilter) ([]*entities.Project, error) {
	projects, err := s.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

// GetProjectTasks retrieves all tasks belonging to a project
func (s *ProjectService) GetProjectTasks(ctx context.Context, projectID int) ([]*entities.Task, error) {
	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	return s.taskRepo.GetByProject(ctx, projectID)
}
