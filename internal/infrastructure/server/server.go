package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpHandlers "github.com/bugtrack/core/internal/adapters/http"
	"github.com/bugtrack/core/internal/adapters/mailer"
	"github.com/bugtrack/core/internal/adapters/repository"
	"github.com/bugtrack/core/internal/application/services"
	"github.com/bugtrack/core/internal/domain/entities"
	"github.com/bugtrack/core/internal/infrastructure/config"
	"github.com/bugtrack/core/internal/infrastructure/database"
	"github.com/bugtrack/core/internal/infrastructure/logger"
)

// Server represents the HTTP server
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *logger.Logger
	db     *database.Database
}

// CustomValidator wraps the validator
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates structs
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// New creates a new server instance
func New(cfg *config.Config, db *database.Database, appLogger *logger.Logger) (*Server, error) {
	e := echo.New()

	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = customErrorHandler(appLogger)

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	projectRepo := repository.NewProjectRepository(db.DB)
	taskRepo := repository.NewTaskRepository(db.DB)
	bugRepo := repository.NewBugRepository(db.DB)
	commentRepo := repository.NewCommentRepository(db.DB)
	attachmentRepo := repository.NewAttachmentRepository(db.DB)
	activityRepo := repository.NewActivityLogRepository(db.DB)
	notificationRepo := repository.NewNotificationRepository(db.DB)
	reportRepo := repository.NewReportRepository(db.DB)

	// Services
	activityService := services.NewActivityService(activityRepo, appLogger)
	notificationService := services.NewNotificationService(
		notificationRepo, userRepo, mailer.NewSMTPMailer(&cfg.SMTP, appLogger), appLogger)
	authService := services.NewAuthService(userRepo, activityService, cfg.JWT, appLogger)
	userService := services.NewUserService(userRepo, activityService, appLogger)
	projectService := services.NewProjectService(projectRepo, taskRepo, activityService, appLogger)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, activityService, notificationService, appLogger)
	bugService := services.NewBugService(bugRepo, taskRepo, activityService, appLogger)
	commentService := services.NewCommentService(commentRepo, attachmentRepo, taskRepo, bugRepo, activityService, appLogger)
	reportService := services.NewReportService(reportRepo, appLogger)

	// Handlers
	handlers := routeHandlers{
		auth:         httpHandlers.NewAuthHandler(authService, appLogger),
		user:         httpHandlers.NewUserHandler(userService, appLogger),
		project:      httpHandlers.NewProjectHandler(projectService, appLogger),
		task:         httpHandlers.NewTaskHandler(taskService, appLogger),
		bug:          httpHandlers.NewBugHandler(bugService, appLogger),
		comment:      httpHandlers.NewCommentHandler(commentService, appLogger),
		notification: httpHandlers.NewNotificationHandler(notificationService, appLogger),
		activity:     httpHandlers.NewActivityHandler(activityService, appLogger),
		report:       httpHandlers.NewReportHandler(reportService, appLogger),
	}

	server := &Server{
		echo:   e,
		config: cfg,
		logger: appLogger,
		db:     db,
	}

	server.setupMiddleware()
	server.setupRoutes(handlers, authService)

	if cfg.Metrics.Enabled {
		server.setupMetrics()
	}

	return server, nil
}

type routeHandlers struct {
	auth         *httpHandlers.AuthHandler
	user         *httpHandlers.UserHandler
	project      *httpHandlers.ProjectHandler
	task         *httpHandlers.TaskHandler
	bug          *httpHandlers.BugHandler
	comment      *httpHandlers.CommentHandler
	notification *httpHandlers.NotificationHandler
	activity     *httpHandlers.ActivityHandler
	report       *httpHandlers.ReportHandler
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.Recover())

	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRemoteIP:  true,
		LogUserAgent: true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", values.Method,
				"uri", values.URI,
				"status", values.Status,
				"latency_ms", float64(values.Latency.Nanoseconds()) / 1000000,
				"remote_ip", values.RemoteIP,
				"user_agent", values.UserAgent,
			}

			if values.Error != nil {
				fields = append(fields, "error", values.Error.Error())
				s.logger.Errorw("HTTP request failed", fields...)
			} else {
				s.logger.Infow("HTTP request", fields...)
			}

			return nil
		},
	}))

	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: strings.Split(s.config.Security.CORSAllowedOrigins, ","),
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.PATCH, echo.POST, echo.DELETE},
	}))

	s.echo.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(s.config.Security.RateLimitRequests),
				Burst:     s.config.Security.RateLimitRequests,
				ExpiresIn: s.config.Security.RateLimitWindow,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return c.JSON(http.StatusForbidden, map[string]string{"message": "rate limit exceeded"})
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"message": "rate limit exceeded"})
		},
	}))

	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
	}))

	s.echo.Use(middleware.RequestID())

	s.echo.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: 30 * time.Second,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(h routeHandlers, authService *services.AuthService) {
	// Health check routes
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/health/detailed", s.detailedHealthCheck)
	s.echo.GET("/ready", s.readinessCheck)

	v1 := s.echo.Group("/api/v1")
	auth := s.authMiddleware(authService)
	managerOnly := s.requireRole(entities.UserRoleManager)

	// Auth routes
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/logout", h.auth.Logout, auth)
	authGroup.POST("/password", h.auth.ChangePassword, auth)

	// User routes
	userGroup := v1.Group("/users", auth)
	userGroup.GET("/me", h.user.GetCurrentUser)
	userGroup.GET("", h.user.ListUsers)
	userGroup.POST("", h.user.CreateUser, managerOnly)
	userGroup.GET("/:id", h.user.GetUser)

	// Project routes
	projectGroup := v1.Group("/projects", auth)
	projectGroup.GET("", h.project.ListProjects)
	projectGroup.POST("", h.project.CreateProject, managerOnly)
	projectGroup.GET("/:id", h.project.GetProject)
	projectGroup.PUT("/:id", h.project.UpdateProject, managerOnly)
	projectGroup.DELETE("/:id", h.project.DeleteProject, managerOnly)
	projectGroup.GET("/:id/tasks", h.project.GetProjectTasks)
	projectGroup.GET("/:id/report", h.report.GetProjectStats)

	// Task routes
	taskGroup := v1.Group("/tasks", auth)
	taskGroup.GET("", h.task.ListTasks)
	taskGroup.POST("", h.task.CreateTask)
	taskGroup.GET("/:id", h.task.GetTask)
	taskGroup.PUT("/:id", h.task.UpdateTask)
	taskGroup.DELETE("/:id", h.task.DeleteTask)
	taskGroup.PUT("/:id/status", h.task.UpdateStatus)
	taskGroup.PUT("/:id/assignees", h.task.ReplaceAssignees, managerOnly)
	taskGroup.GET("/:id/bugs", h.bug.GetTaskBugs)

	// Bug routes
	bugGroup := v1.Group("/bugs", auth)
	bugGroup.GET("", h.bug.ListBugs)
	bugGroup.POST("", h.bug.CreateBug)
	bugGroup.GET("/:id", h.bug.GetBug)
	bugGroup.PUT("/:id", h.bug.UpdateBug)
	bugGroup.DELETE("/:id", h.bug.DeleteBug)
	bugGroup.PUT("/:id/status", h.bug.UpdateStatus)

	// Comment and attachment routes
	commentGroup := v1.Group("/comments", auth)
	commentGroup.POST("", h.comment.CreateComment)
	commentGroup.GET("/:type/:id", h.comment.ListComments)
	v1.GET("/attachments/:type/:id", h.comment.ListAttachments, auth)

	// Notification routes
	notificationGroup := v1.Group("/notifications", auth)
	notificationGroup.GET("", h.notification.ListNotifications)
	notificationGroup.POST("", h.notification.CreateNotification, managerOnly)
	notificationGroup.GET("/unread", h.notification.UnreadCount)
	notificationGroup.PUT("/:id/read", h.notification.MarkRead)
	notificationGroup.PUT("/read-all", h.notification.MarkAllRead)
	notificationGroup.DELETE("/read", h.notification.DeleteRead)

	// Activity log routes
	activityGroup := v1.Group("/activity", auth, managerOnly)
	activityGroup.GET("", h.activity.ListActivity)
	activityGroup.GET("/actions", h.activity.ListActions)
	activityGroup.GET("/actions/counts", h.activity.ActionCounts)
	activityGroup.GET("/users", h.activity.UserActivityCounts)

	// Report routes
	reportGroup := v1.Group("/reports", auth, managerOnly)
	reportGroup.GET("/stats", h.report.GetStats)
	reportGroup.GET("/trend", h.report.GetTrend)
	reportGroup.GET("/employees/:id", h.report.GetEmployeeStats)
}

// setupMetrics configures Prometheus metrics
func (s *Server) setupMetrics() {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	registry.MustRegister(requestsTotal, requestDuration)

	s.echo.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	})

	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	s.echo.GET("/metrics", echo.WrapHandler(metricsHandler))
}

// authMiddleware validates JWT tokens
func (s *Server) authMiddleware(authService *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			claims, err := authService.ValidateToken(parts[1])
			if err != nil {
				s.logger.Warnw("Invalid token", "error", err, "ip", c.RealIP())
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set("user", claims.UserID)
			c.Set("user_email", claims.Email)
			c.Set("user_role", claims.Role)

			return next(c)
		}
	}
}

// requireRole middleware checks if the user has one of the required roles
func (s *Server) requireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userRole, ok := c.Get("user_role").(entities.UserRole)
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden, "Role information not found")
			}

			for _, required := range roles {
				if userRole == required {
					return next(c)
				}
			}

			s.logger.Warnw("Insufficient permissions",
				"user", c.Get("user"),
				"role", userRole,
				"endpoint", c.Request().URL.Path,
			)

			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
	}
}

// Health check handlers
func (s *Server) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) detailedHealthCheck(c echo.Context) error {
	status := "ok"
	checks := make(map[string]interface{})

	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		status = "error"
		checks["database"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	} else {
		checks["database"] = map[string]interface{}{
			"status": "ok",
			"stats":  s.db.Stats(),
		}
	}

	response := map[string]interface{}{
		"status":  status,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"checks":  checks,
		"version": s.config.App.Version,
	}

	if status == "ok" {
		return c.JSON(http.StatusOK, response)
	}
	return c.JSON(http.StatusServiceUnavailable, response)
}

func (s *Server) readinessCheck(c echo.Context) error {
	if err := s.db.HealthCheck(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "database_not_ready",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the HTTP server
func (s *Server) Start(address string) error {
	s.logger.Infow("Starting server", "address", address)
	return s.echo.Start(address)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.echo.Shutdown(ctx)
}

// customErrorHandler handles HTTP errors
func customErrorHandler(log *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var (
			code = http.StatusInternalServerError
			msg  interface{}
		)

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			msg = he.Message
			if he.Internal != nil {
				err = fmt.Errorf("%v, %v", err, he.Internal)
			}
		} else if ve, ok := err.(validator.ValidationErrors); ok {
			code = http.StatusBadRequest
			msg = map[string]string{"message": "validation failed", "details": ve.Error()}
		} else {
			msg = map[string]string{"message": http.StatusText(code)}
		}

		if m, ok := msg.(string); ok {
			msg = map[string]string{"message": m}
		}

		if code == http.StatusInternalServerError {
			log.Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		if !c.Response().Committed {
			if c.Request().Method == echo.HEAD {
				err = c.NoContent(code)
			} else {
				err = c.JSON(code, msg)
			}
			if err != nil {
				log.Errorw("Error sending response", "error", err)
			}
		}
	}
}
