package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"mailtriage/internal/metrics"
)

// ReadinessChecker reports whether the processing engine can take requests.
type ReadinessChecker interface {
	EngineReady() bool
}

// RequireEngine rejects requests with 503 while the AI engine is not
// initialized. The rest of the dashboard keeps working.
func RequireEngine(checker ReadinessChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !checker.EngineReady() {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"error": "AI engine is not initialized",
				})
			}
			return next(c)
		}
	}
}

// Metrics records request duration by route pattern.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			metrics.RecordHTTPRequest(c.Request().Method, path, strconv.Itoa(status), time.Since(start))
			return err
		}
	}
}
