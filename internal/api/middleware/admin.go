package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

// HeaderAdminKey carries the operator secret on admin routes.
const HeaderAdminKey = "x-admin-key"

// AdminSecret rejects requests whose x-admin-key does not match secret.
// An empty secret rejects everything.
func AdminSecret(secret string) echo.MiddlewareFunc {
	want := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := []byte(c.Request().Header.Get(HeaderAdminKey))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
