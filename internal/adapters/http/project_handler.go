package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bugtrack/core/internal/application/services"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// ProjectHandler handles project-related requests
type ProjectHandler struct {
	projectService *services.ProjectService
	logger         *logger.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService, logger *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		logger:         logger,
	}
}

// CreateProject handles project creation
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req ports.CreateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.projectService.CreateProject(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		h.logger.Errorw("Create project failed", "error", err)
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, project)
}

// GetProject handles getting a project by ID
func (h *ProjectHandler) GetProject(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	project, err := h.projectService.GetProject(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// UpdateProject handles updating project fields
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	var req ports.UpdateProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.projectService.UpdateProject(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		h.logger.Errorw("Update project failed", "error", err, "project_id", id)
		return mapError(err)
	}

	return c.JSON(http.StatusOK, project)
}

// DeleteProject handles project deletion
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	if err := h.projectService.DeleteProject(c.Request().Context(), actorFromContext(c), id); err != nil {
		h.logger.Errorw("Delete project failed", "error", err, "project_id", id)
		return mapError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListProjects handles listing projects
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	filter := ports.ProjectFilter{Limit: 50}

	if search := c.QueryParam("search"); search != "" {
		filter.Search = &search
	}

	if err := bindPagination(c, &filter.Limit, &filter.Offset); err != nil {
		return err
	}

	projects, err := h.projectService.ListProjects(c.Request().Context(), filter)
	if err != nil {
		h.logger.Errorw("List projects failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve projects")
	}

	return c.JSON(http.StatusOK, projects)
}

// GetProjectTasks handles listing the tasks of one project
func (h *ProjectHandler) GetProjectTasks(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	tasks, err := h.projectService.GetProjectTasks(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, tasks)
}
