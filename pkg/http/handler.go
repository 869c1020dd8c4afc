package http

import "github.com/labstack/echo/v4"

// Handler is implemented by API handlers that attach their routes to the
// server's echo instance, such as the rate-limit check and health endpoints.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}
