package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/bugtrack/core/internal/application/services"
	"github.com/bugtrack/core/internal/infrastructure/logger"
	"github.com/bugtrack/core/internal/ports"
)

// NotificationHandler handles notification requests. All reads and state
// changes are scoped to the authenticated user.
type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationService *services.NotificationService, logger *logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// CreateNotification handles manual notification creation
func (h *NotificationHandler) CreateNotification(c echo.Context) error {
	var req ports.CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	notification, err := h.notificationService.Create(c.Request().Context(), req)
	if err != nil {
		h.logger.Errorw("Create notification failed", "error", err)
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, notification)
}

// ListNotifications handles listing the caller's notifications
func (h *NotificationHandler) ListNotifications(c echo.Context) error {
	actor := actorFromContext(c)

	limit := 50
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 || n > 500 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit parameter")
		}
		limit = n
	}

	notifications, err := h.notificationService.List(c.Request().Context(), actor.UserID, limit)
	if err != nil {
		h.logger.Errorw("List notifications failed", "error", err, "user_id", actor.UserID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve notifications")
	}

	return c.JSON(http.StatusOK, notifications)
}

// UnreadCount handles polling for the caller's unread notification count
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	actor := actorFromContext(c)

	count, err := h.notificationService.UnreadCount(c.Request().Context(), actor.UserID)
	if err != nil {
		h.logger.Errorw("Unread count failed", "error", err, "user_id", actor.UserID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve unread count")
	}

	return c.JSON(http.StatusOK, map[string]int{"unread": count})
}

// MarkRead marks one of the caller's notifications as read. Marking a
// notification that does not exist or belongs to someone else succeeds
// without changing anything.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	actor := actorFromContext(c)
	if err := h.notificationService.MarkRead(c.Request().Context(), id, actor.UserID); err != nil {
		h.logger.Errorw("Mark notification read failed", "error", err, "notification_id", id)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update notification")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "Notification marked as read"})
}

// MarkAllRead marks all of the caller's notifications as read
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	actor := actorFromContext(c)

	if err := h.notificationService.MarkAllRead(c.Request().Context(), actor.UserID); err != nil {
		h.logger.Errorw("Mark all notifications read failed", "error", err, "user_id", actor.UserID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update notifications")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: "All notifications marked as read"})
}

// DeleteRead deletes all of the caller's read notifications
func (h *NotificationHandler) DeleteRead(c echo.Context) error {
	actor := actorFromContext(c)

	if err := h.notificationService.DeleteRead(c.Request().Context(), actor.UserID); err != nil {
		h.logger.Errorw("Delete read notifications failed", "error", err, "user_id", actor.UserID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete notifications")
	}

	return c.NoContent(http.StatusNoContent)
}
