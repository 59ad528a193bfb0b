package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dnlabs/credit-gateway/internal/api/metrics"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

type APIKeyHandler struct {
	accounts ports.AccountService
}

func NewAPIKeyHandler(accounts ports.AccountService) *APIKeyHandler {
	return &APIKeyHandler{accounts: accounts}
}

type apiKeyResponse struct {
	APIKey string `json:"apiKey"`
}

// Generate issues a fresh API key, revoking the previous one.
//
// @Summary      Issue or rotate the API key
// @Tags         keys
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  apiKeyResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/generate-api-key [post]
func (h *APIKeyHandler) Generate(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	key, err := h.accounts.IssueAPIKey(c.Request().Context(), accountID)
	if err != nil {
		return err
	}

	metrics.APIKeysIssuedTotal.Inc()
	return c.JSON(http.StatusOK, apiKeyResponse{APIKey: key})
}
