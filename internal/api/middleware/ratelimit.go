package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dnlabs/credit-gateway/internal/api/metrics"
	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

// Limiter admits or rejects one call for an account.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit throttles metered calls per account. It must run after APIKey so
// only authenticated callers reach the limiter. Limiter errors fail open.
func RateLimit(limiter Limiter, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, _ := c.Get(ContextAccount).(*domain.Account)
			if account == nil {
				return next(c)
			}

			ok, err := limiter.Allow(c.Request().Context(), account.ID)
			if err != nil {
				log.Warn().Err(err).Str("account_id", account.ID).Msg("rate limiter unavailable, admitting request")
				return next(c)
			}
			if !ok {
				metrics.MeteredCallsTotal.WithLabelValues("rate_limited").Inc()
				return domain.ErrRateLimited
			}
			return next(c)
		}
	}
}
