package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

// HeaderAPIKey carries the machine credential on metered routes.
const HeaderAPIKey = "x-api-key"

// APIKey resolves the x-api-key header to an account and injects it into context.
func APIKey(metering ports.MeteringService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(HeaderAPIKey)
			if key == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing x-api-key header")
			}

			account, err := metering.AuthenticateByKey(c.Request().Context(), key)
			if err != nil {
				return err
			}

			c.Set(ContextAccount, account)
			return next(c)
		}
	}
}
