package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dnlabs/credit-gateway/internal/api/metrics"
	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		metrics.RequestErrorsTotal.WithLabelValues(strconv.Itoa(code)).Inc()
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404/405 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code == http.StatusMethodNotAllowed {
			return he.Code, "Method Not Allowed"
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ve.Reason
	}

	// Auth failures stay coarse so callers cannot tell which factor failed.
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrDuplicateAccount):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Invalid API Key"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "Forbidden: Invalid Admin Key"
	case errors.Is(err, domain.ErrInsufficientCredit):
		return http.StatusPaymentRequired, "Insufficient credits. Please recharge."
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests, "Rate limit exceeded. Please slow down."
	case errors.Is(err, domain.ErrTransientStore):
		log.Warn().Err(err).Str("path", c.Path()).Msg("transient store failure")
		return http.StatusServiceUnavailable, "Service temporarily unavailable. Please retry."
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
