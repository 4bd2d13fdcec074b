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

// CommentHandler handles comment and attachment requests
type CommentHandler struct {
	commentService *services.CommentService
	logger         *logger.Logger
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(commentService *services.CommentService, logger *logger.Logger) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		logger:         logger,
	}
}

// CreateComment handles comment creation, optionally with an attachment
func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req ports.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.commentService.Create(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		h.logger.Errorw("Create comment failed", "error", err)
		return mapError(err)
	}

	return c.JSON(http.StatusCreated, comment)
}

// ListComments handles listing comments on a task or bug
func (h *CommentHandler) ListComments(c echo.Context) error {
	entityType, entityID, err := targetFromParams(c)
	if err != nil {
		return err
	}

	comments, err := h.commentService.ListByEntity(c.Request().Context(), entityType, entityID)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, comments)
}

// ListAttachments handles listing attachments on a task, bug, or comment
func (h *CommentHandler) ListAttachments(c echo.Context) error {
	entityType, entityID, err := targetFromParams(c)
	if err != nil {
		return err
	}

	attachments, err := h.commentService.ListAttachments(c.Request().Context(), entityType, entityID)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, attachments)
}

func targetFromParams(c echo.Context) (entities.EntityType, int, error) {
	entityType := entities.EntityType(c.Param("type"))
	entityID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return "", 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid entity ID")
	}
	return entityType, entityID, nil
}
