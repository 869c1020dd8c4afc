package middleware

import (
	"time"

	"rategate/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs one line per HTTP request.
func RequestLogging(l *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			if l != nil {
				l.Info("http request",
					logger.String("method", c.Request().Method),
					logger.String("path", c.Request().RequestURI),
					logger.String("remote", c.RealIP()),
					logger.Int("status", c.Response().Status),
					logger.Duration("duration_ms", time.Since(start)),
				)
			}

			return err
		}
	}
}
