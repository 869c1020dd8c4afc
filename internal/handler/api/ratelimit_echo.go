package api

import (
	"errors"

	"rategate/internal/domain/models"
	"rategate/internal/limiter"
	xhttp "rategate/pkg/http"
	xlogger "rategate/pkg/logger"

	"github.com/labstack/echo/v4"
)

// headerAPIKey identifies the caller; it takes precedence over the network
// origin when extracting the bucket identity.
const headerAPIKey = "X-API-Key"

// RateLimitEchoHandler exposes the limiter over HTTP.
type RateLimitEchoHandler struct {
	logger  *xlogger.Logger
	limiter limiter.Limiter
}

func NewRateLimitEchoHandler(logger *xlogger.Logger, l limiter.Limiter) *RateLimitEchoHandler {
	return &RateLimitEchoHandler{logger: logger, limiter: l}
}

func (h *RateLimitEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/check", h.Check)
	e.GET("/health", h.Health)
}

// Check decides one request for the calling identity.
func (h *RateLimitEchoHandler) Check(c echo.Context) error {
	req := &models.CheckRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	clientID := extractClientID(c)
	burst := req.BurstOrDefault()

	h.logger.Info("rate limit check",
		xlogger.String("client_id", clientID),
		xlogger.Int64("limit", req.Limit),
		xlogger.Int64("burst", burst),
	)

	dec, err := h.limiter.Check(c.Request().Context(), clientID, req.Limit, burst)
	if err != nil {
		if errors.Is(err, limiter.ErrInvalidLimit) {
			return xhttp.BadRequestResponse(c, xhttp.BadRequestError(err.Error()))
		}
		h.logger.Error("limiter check failed",
			xlogger.String("client_id", clientID),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, xhttp.InternalError("rate limit check failed").WithError(err))
	}

	body := models.CheckResponse{
		Allowed:      dec.Allowed,
		Remaining:    dec.Remaining,
		RetryAfterMS: dec.RetryAfter.Milliseconds(),
	}
	if !dec.Allowed {
		return xhttp.TooManyRequestsResponse(c, body)
	}
	return xhttp.SuccessResponse(c, body)
}

// Health probes the backing store.
func (h *RateLimitEchoHandler) Health(c echo.Context) error {
	if err := h.limiter.Ping(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.ServiceUnavailableResponse(c, models.HealthResponse{Status: "unhealthy"})
	}
	return xhttp.SuccessResponse(c, models.HealthResponse{Status: "ok"})
}

// extractClientID picks the bucket identity: explicit API key first, then
// the observed network origin, then a shared fallback bucket.
func extractClientID(c echo.Context) string {
	if key := c.Request().Header.Get(headerAPIKey); key != "" {
		return key
	}
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown"
}
