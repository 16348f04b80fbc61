// Package api exposes the HTTP surface: session intake, pipeline runs,
// draft editing, and the publish/undo transitions.
package api

import (
	"crypto/rand"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/patrickmn/go-cache"

	"github.com/jkoskela/vocalis/internal/conf"
	"github.com/jkoskela/vocalis/internal/datastore"
	"github.com/jkoskela/vocalis/internal/errors"
	"github.com/jkoskela/vocalis/internal/logging"
	"github.com/jkoskela/vocalis/internal/observability"
	"github.com/jkoskela/vocalis/internal/pipeline"
	"github.com/jkoskela/vocalis/internal/publish"
)

const managerHeader = "X-Manager-ID"

// Controller manages the API routes and handlers.
type Controller struct {
	Echo      *echo.Echo
	Group     *echo.Group
	DS        datastore.Interface
	Settings  *conf.Settings
	Processor *pipeline.Processor
	Publisher *publish.Manager

	metrics       *observability.Metrics
	feedbackCache *cache.Cache // read-side cache for feedback lookups
	apiLogger     *slog.Logger
	startTime     time.Time
}

// New creates the API controller and registers all routes on e.
func New(e *echo.Echo, ds datastore.Interface, settings *conf.Settings,
	processor *pipeline.Processor, publisher *publish.Manager,
	metrics *observability.Metrics) *Controller {

	c := &Controller{
		Echo:          e,
		DS:            ds,
		Settings:      settings,
		Processor:     processor,
		Publisher:     publisher,
		metrics:       metrics,
		feedbackCache: cache.New(5*time.Minute, 10*time.Minute),
		apiLogger:     logging.ForService("api"),
		startTime:     time.Now(),
	}

	c.Group = e.Group("/api/v1", c.tokenAuthMiddleware, c.managerMiddleware)
	c.initRoutes()
	return c
}

func (c *Controller) initRoutes() {
	c.Group.POST("/sessions", c.CreateSession)
	c.Group.GET("/sessions/:id", c.GetSession)
	c.Group.PUT("/sessions/:id/status", c.AdvanceSession)
	c.Group.POST("/sessions/:id/process", c.ProcessSession)

	c.Group.GET("/feedback/:id", c.GetFeedback)
	c.Group.PUT("/feedback/:id", c.SaveDraft)
	c.Group.POST("/feedback/:id/publish", c.PublishFeedback)
	c.Group.POST("/audit/:id/undo", c.UndoPublish)

	// Unauthenticated operational endpoints.
	c.Echo.GET("/healthz", c.Health)
	if c.metrics != nil {
		c.Echo.GET("/metrics", echo.WrapHandler(c.metrics.Handler()))
	}
}

// tokenAuthMiddleware enforces the static API token when one is configured.
func (c *Controller) tokenAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := c.Settings.Server.APIToken
		if token == "" {
			return next(ctx)
		}
		header := ctx.Request().Header.Get(echo.HeaderAuthorization)
		presented, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			return c.unauthenticated(ctx, "invalid or missing API token")
		}
		return next(ctx)
	}
}

// managerMiddleware requires the caller to identify as a manager. Every
// authorization decision downstream keys off this identity, so requests
// without it fail closed before any handler runs.
func (c *Controller) managerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		managerID := ctx.Request().Header.Get(managerHeader)
		if managerID == "" {
			return c.unauthenticated(ctx, "missing "+managerHeader+" header")
		}
		ctx.Set("manager_id", managerID)
		return next(ctx)
	}
}

func managerID(ctx echo.Context) string {
	id, _ := ctx.Get("manager_id").(string)
	return id
}

// Health reports liveness plus a datastore probe.
func (c *Controller) Health(ctx echo.Context) error {
	status := "ok"
	code := http.StatusOK
	if _, err := c.DS.GetSession("healthcheck-probe"); err != nil && !errors.IsNotFound(err) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, map[string]any{
		"status":  status,
		"uptime":  time.Since(c.startTime).String(),
		"service": "vocalis",
	})
}

// unauthenticated writes a 401. Missing credentials are distinguished from
// a known manager acting on someone else's session, which is a 403.
func (c *Controller) unauthenticated(ctx echo.Context, msg string) error {
	resp := &ErrorResponse{
		Error:         msg,
		Code:          http.StatusUnauthorized,
		CorrelationID: generateCorrelationID(),
	}
	c.apiLogger.Warn("unauthenticated request",
		"correlation_id", resp.CorrelationID,
		"path", ctx.Request().URL.Path,
		"ip", ctx.RealIP())
	return ctx.JSON(http.StatusUnauthorized, resp)
}

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"`
}

// generateCorrelationID creates a short identifier for error tracking.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "ERR-RAND"
	}
	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// statusForError maps error categories onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryAuthorization):
		return http.StatusForbidden
	case errors.IsCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryState),
		errors.IsCategory(err, errors.CategoryConflict):
		return http.StatusConflict
	case errors.IsCategory(err, errors.CategoryProviderQuota):
		return http.StatusTooManyRequests
	case errors.IsCategory(err, errors.CategoryProvider):
		return http.StatusBadGateway
	case errors.IsCategory(err, errors.CategoryTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// HandleError maps err to a status code and writes the error response.
func (c *Controller) HandleError(ctx echo.Context, err error) error {
	code := statusForError(err)
	resp := &ErrorResponse{
		Error:         err.Error(),
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}

	c.apiLogger.Error("request failed",
		"correlation_id", resp.CorrelationID,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
		"error", err)

	return ctx.JSON(code, resp)
}

// RegisterMiddleware attaches the standard echo middleware stack. Kept
// separate from New so tests can skip it.
func RegisterMiddleware(e *echo.Echo) {
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(ctx echo.Context) bool {
			return strings.HasPrefix(ctx.Path(), "/metrics")
		},
	}))
}
