package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dnlabs/credit-gateway/internal/api/middleware"
	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

// ctxAccountID returns the account id injected by the Session middleware.
// An empty value means the middleware did not run: reject with 401.
func ctxAccountID(c echo.Context) (string, error) {
	id, _ := c.Get(middleware.ContextAccountID).(string)
	if id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "No token provided")
	}
	return id, nil
}

// ctxAccount returns the account resolved by the APIKey middleware.
func ctxAccount(c echo.Context) (*domain.Account, error) {
	acc, _ := c.Get(middleware.ContextAccount).(*domain.Account)
	if acc == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "Missing x-api-key header")
	}
	return acc, nil
}
