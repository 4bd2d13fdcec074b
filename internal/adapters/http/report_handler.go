package http

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bugtrack/core/internal/application/services"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// ReportHandler handles reporting and aggregation requests
type ReportHandler struct {
	reportService *services.ReportService
	logger        *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService, logger *logger.Logger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// GetStats handles the aggregate statistics report. The scope narrows to one
// employee, one project, or an explicit time window via query parameters.
func (h *ReportHandler) GetStats(c echo.Context) error {
	scope, err := scopeFromQuery(c)
	if err != nil {
		return err
	}

	stats, err := h.reportService.Stats(c.Request().Context(), scope)
	if err != nil {
		h.logger.Errorw("Report stats failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate report")
	}

	return c.JSON(http.StatusOK, stats)
}

// GetEmployeeStats handles the per-employee report
func (h *ReportHandler) GetEmployeeStats(c echo.Context) error {
	employeeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid employee ID")
	}

	scope, err := scopeFromQuery(c)
	if err != nil {
		return err
	}
	scope.EmployeeID = &employeeID

	stats, err := h.reportService.Stats(c.Request().Context(), scope)
	if err != nil {
		h.logger.Errorw("Employee report failed", "error", err, "employee_id", employeeID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate report")
	}

	return c.JSON(http.StatusOK, stats)
}

// GetProjectStats handles the per-project report
func (h *ReportHandler) GetProjectStats(c echo.Context) error {
	projectID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid project ID")
	}

	scope, err := scopeFromQuery(c)
	if err != nil {
		return err
	}
	scope.ProjectID = &projectID

	stats, err := h.reportService.Stats(c.Request().Context(), scope)
	if err != nil {
		h.logger.Errorw("Project report failed", "error", err, "project_id", projectID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate report")
	}

	return c.JSON(http.StatusOK, stats)
}

// GetTrend handles the task creation trend series
func (h *ReportHandler) GetTrend(c echo.Context) error {
	scope, err := scopeFromQuery(c)
	if err != nil {
		return err
	}

	interval := ports.TrendInterval(c.QueryParam("interval"))

	points, err := h.reportService.Trend(c.Request().Context(), scope, interval)
	if err != nil {
		h.logger.Errorw("Report trend failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate trend")
	}

	return c.JSON(http.StatusOK, points)
}

func scopeFromQuery(c echo.Context) (ports.ReportScope, error) {
	scope := ports.ReportScope{}

	if employeeStr := c.QueryParam("employee_id"); employeeStr != "" {
		employeeID, err := uuid.Parse(employeeStr)
		if err != nil {
			return scope, echo.NewHTTPError(http.StatusBadRequest, "Invalid employee_id parameter")
		}
		scope.EmployeeID = &employeeID
	}

	if projectStr := c.QueryParam("project_id"); projectStr != "" {
		projectID, err := strconv.Atoi(projectStr)
		if err != nil {
			return scope, echo.NewHTTPError(http.StatusBadRequest, "Invalid project_id parameter")
		}
		scope.ProjectID = &projectID
	}

	from, err := parseTimeParam(c, "from")
	if err != nil {
		return scope, err
	}
	scope.From = from

	to, err := parseTimeParam(c, "to")
	if err != nil {
		return scope, err
	}
	scope.To = to

	return scope, nil
}
