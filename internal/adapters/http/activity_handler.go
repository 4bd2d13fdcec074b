package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bugtrack/core/internal/application/services"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// ActivityHandler handles audit trail requests
type ActivityHandler struct {
	activityService *services.ActivityService
	logger          *logger.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityService *services.ActivityService, logger *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// ListActivity handles listing activity log entries with filters
func (h *ActivityHandler) ListActivity(c echo.Context) error {
	filter, err := activityFilterFromQuery(c)
	if err != nil {
		return err
	}

	entries, err := h.activityService.List(c.Request().Context(), filter)
	if err != nil {
		h.logger.Errorw("List activity failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve activity log")
	}

	return c.JSON(http.StatusOK, entries)
}

// ListActions handles listing the distinct action names present in the log
func (h *ActivityHandler) ListActions(c echo.Context) error {
	actions, err := h.activityService.Actions(c.Request().Context())
	if err != nil {
		h.logger.Errorw("List actions failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve actions")
	}

	return c.JSON(http.StatusOK, actions)
}

// ActionCounts handles the per-action frequency breakdown
func (h *ActivityHandler) ActionCounts(c echo.Context) error {
	filter, err := activityFilterFromQuery(c)
	if err != nil {
		return err
	}

	counts, err := h.activityService.ActionCounts(c.Request().Context(), filter, filter.Limit)
	if err != nil {
		h.logger.Errorw("Action counts failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve action counts")
	}

	return c.JSON(http.StatusOK, counts)
}

// UserActivityCounts handles the per-user activity breakdown. Users with no
// matching activity appear with a zero count.
func (h *ActivityHandler) UserActivityCounts(c echo.Context) error {
	filter, err := activityFilterFromQuery(c)
	if err != nil {
		return err
	}

	counts, err := h.activityService.UserActivityCounts(c.Request().Context(), filter)
	if err != nil {
		h.logger.Errorw("User activity counts failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve user activity")
	}

	return c.JSON(http.StatusOK, counts)
}

func activityFilterFromQuery(c echo.Context) (ports.ActivityFilter, error) {
	filter := ports.ActivityFilter{}

	if userStr := c.QueryParam("user_id"); userStr != "" {
		userID, err := uuid.Parse(userStr)
		if err != nil {
			return filter, echo.NewHTTPError(http.StatusBadRequest, "Invalid user_id parameter")
		}
		filter.UserID = &userID
	}

	if action := c.QueryParam("action"); action != "" {
		filter.Action = &action
	}

	from, err := parseTimeParam(c, "from")
	if err != nil {
		return filter, err
	}
	filter.From = from

	to, err := parseTimeParam(c, "to")
	if err != nil {
		return filter, err
	}
	filter.To = to

	var offset int
	if err := bindPagination(c, &filter.Limit, &offset); err != nil {
		return filter, err
	}

	return filter, nil
}
