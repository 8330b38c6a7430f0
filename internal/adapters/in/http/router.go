package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"freight/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"
)

// HTTPMetrics records request metrics and exposes the scrape handler.
type HTTPMetrics interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
	Handler() http.Handler
}

// RouterConfig holds what the router needs besides the server itself.
// Spec is the OpenAPI document in YAML or JSON.
type RouterConfig struct {
	Spec    []byte
	Metrics HTTPMetrics
}

// NewRouter builds the echo instance: request ids, metrics, OpenAPI
// validation, the API routes, /health, /health/catalog, /metrics and the
// Swagger UI.
func NewRouter(server *Server, cfg RouterConfig) (*echo.Echo, error) {
	validator, err := NewOpenAPIValidator(cfg.Spec)
	if err != nil {
		return nil, err
	}
	if err = registerSwaggerDoc(validator); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = server.HTTPErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:    uuid.NewString,
		TargetHeader: HeaderRequestID,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(requestIDContextKey, id)
		},
	}))
	e.Use(requestMetrics(cfg.Metrics))
	e.Use(validator.Middleware())

	RegisterHandlers(e, server)

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy")
	})
	e.GET("/health/catalog", server.CatalogHealth)
	e.GET("/metrics", echo.WrapHandler(cfg.Metrics.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// HTTPErrorHandler renders every error returned by a handler as a failure
// envelope. Unknown routes under /api are UNKNOWN_ACTION.
func (s *Server) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	path := c.Request().URL.Path
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if !strings.HasPrefix(path, apiPrefix) {
			_ = c.JSON(he.Code, map[string]any{"message": he.Message})
			return
		}
		switch he.Code {
		case http.StatusNotFound, http.StatusMethodNotAllowed:
			err = unknownAction(c.Request().Method, path)
		case http.StatusInternalServerError:
			err = errs.NewInternalError(genericInternalMessage, he)
		default:
			err = errs.NewInputError(errs.CodeInputInvalid, fmt.Sprint(he.Message), nil)
		}
	}

	appErr := classify(err)
	if appErr.Category == errs.CategoryInternal {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", path,
			"request_id", requestID(c),
			"error", err,
		)
	}
	if writeErr := respondError(c, appErr); writeErr != nil {
		s.logger.ErrorContext(c.Request().Context(), "failed to write error response", "error", writeErr)
	}
}

func requestMetrics(m HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
			return nil
		}
	}
}

// swaggerDoc serves the API document to the Swagger UI.
type swaggerDoc struct {
	json string
}

func (d swaggerDoc) ReadDoc() string {
	return d.json
}

var swaggerOnce sync.Once

// registerSwaggerDoc registers the document once per process; swag panics
// on a second registration under the same name.
func registerSwaggerDoc(v *OpenAPIValidator) error {
	raw, err := v.Document().MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to render OpenAPI document: %w", err)
	}
	swaggerOnce.Do(func() {
		swag.Register(swag.Name, swaggerDoc{json: string(raw)})
	})
	return nil
}
