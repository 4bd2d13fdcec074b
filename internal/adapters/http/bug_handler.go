package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bugtrack/core/internal/application/services"
	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// BugHandler handles bug-related requests
type BugHandler struct {
	bugService *services.BugService
	logger     *logger.Logger
}

// NewBugHandler creates a new bug handler
func NewBugHandler(bugService *services.BugService, logger *logger.Logger) *BugHandler {
	return &BugHandler{
		bugService: bugService,
		logger:     logger,
	}
}

// CreateBug handles bug creation
func (h *BugHandler) CreateBug(c echo.Context) error {
	var req ports.CreateBugRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	bug, err := h.bugService.CreateBug(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		h.logger.Errorw("Create bug failed", "error", err)
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, bug)
}

// GetBug handles getting a bug by ID
func (h *BugHandler) GetBug(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid bug ID")
	}

	bug, err := h.bugService.GetBug(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, bug)
}

// UpdateBug handles updating bug fields
func (h *BugHandler) UpdateBug(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid bug ID")
	}

	var req ports.UpdateBugRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	bug, err := h.bugService.UpdateBug(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		h.logger.Errorw("Update bug failed", "error", err, "bug_id", id)
		return mapError(err)
	}

	return c.JSON(http.StatusOK, bug)
}

// DeleteBug handles bug deletion
func (h *BugHandler) DeleteBug(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid bug ID")
	}

	if err := h.bugService.DeleteBug(c.Request().Context(), actorFromContext(c), id); err != nil {
		h.logger.Errorw("Delete bug failed", "error", err, "bug_id", id)
		return mapError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListBugs handles listing bugs with filters
func (h *BugHandler) ListBugs(c echo.Context) error {
	filter := ports.BugFilter{Limit: 50}

	if status := c.QueryParam("status"); status != "" {
		bugStatus := entities.BugStatus(status)
		if !bugStatus.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid status parameter")
		}
		filter.Status = &bugStatus
	}

	if priority := c.QueryParam("priority"); priority != "" {
		p := entities.Priority(priority)
		if !p.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid priority parameter")
		}
		filter.Priority = &p
	}

	if taskStr := c.QueryParam("task_id"); taskStr != "" {
		taskID, err := strconv.Atoi(taskStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid task_id parameter")
		}
		filter.TaskID = &taskID
	}

	if err := bindPagination(c, &filter.Limit, &filter.Offset); err != nil {
		return err
	}

	bugs, total, err := h.bugService.ListBugs(c.Request().Context(), filter)
	if err != nil {
		h.logger.Errorw("List bugs failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve bugs")
	}

	return c.JSON(http.StatusOK, PaginatedResponse[*entities.Bug]{
		Data:   bugs,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetTaskBugs handles listing bugs attached to one task
func (h *BugHandler) GetTaskBugs(c echo.Context) error {
	taskID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task ID")
	}

	bugs, err := h.bugService.GetTaskBugs(c.Request().Context(), taskID)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, bugs)
}

// UpdateStatus handles bug status transitions
func (h *BugHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid bug ID")
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	bug, err := h.bugService.UpdateStatus(c.Request().Context(), actorFromContext(c), id, entities.BugStatus(req.Status))
	if err != nil {
		h.logger.Errorw("Update bug status failed", "error", err, "bug_id", id, "status", req.Status)
		return mapError(err)
	}

	return c.JSON(http.StatusOK, bug)
}
