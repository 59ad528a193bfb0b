package handler

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/dnlabs/credit-gateway/internal/api/metrics"
	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

const adjustRequiredMsg = "Email and credits (number) required"

type AdminHandler struct {
	admin ports.AdminService
}

func NewAdminHandler(admin ports.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type adjustCreditsRequest struct {
	Email   string          `json:"email"`
	Credits json.RawMessage `json:"credits" swaggertype:"number"`
}

type adjustedUser struct {
	Email   string `json:"email"`
	Credits int64  `json:"credits"`
}

type adjustCreditsResponse struct {
	Message string       `json:"message"`
	User    adjustedUser `json:"user"`
}

// UpdateCredits applies a signed credit adjustment to an account.
//
// @Summary      Adjust an account's credits
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        x-admin-key  header    string                true  "Operator secret"
// @Param        body         body      adjustCreditsRequest  true  "Target email and signed delta"
// @Success      200          {object}  adjustCreditsResponse
// @Failure      400          {object}  map[string]string
// @Failure      403          {object}  map[string]string
// @Failure      404          {object}  map[string]string
// @Router       /api/admin-update-credits [post]
func (h *AdminHandler) UpdateCredits(c echo.Context) error {
	var req adjustCreditsRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid(adjustRequiredMsg)
	}
	if req.Email == "" {
		return domain.Invalid(adjustRequiredMsg)
	}

	delta, err := wholeCredits(req.Credits)
	if err != nil {
		return err
	}

	res, err := h.admin.AdjustCredit(c.Request().Context(), req.Email, delta)
	if err != nil {
		return err
	}

	direction := "credit"
	if delta < 0 {
		direction = "debit"
	}
	metrics.AdminAdjustmentsTotal.WithLabelValues(direction).Inc()

	return c.JSON(http.StatusOK, adjustCreditsResponse{
		Message: "Credits updated successfully",
		User:    adjustedUser{Email: res.Email, Credits: res.Credits},
	})
}

// wholeCredits accepts only a JSON number holding a whole delta within
// domain.MaxCreditAdjustment. Strings and null are rejected.
func wholeCredits(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return 0, domain.Invalid(adjustRequiredMsg)
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return 0, domain.Invalid(adjustRequiredMsg)
	}
	if d.Abs().GreaterThan(decimal.NewFromInt(domain.MaxCreditAdjustment)) {
		return 0, domain.Invalid("credits out of range")
	}
	n := d.IntPart()
	if !d.Equal(decimal.NewFromInt(n)) {
		return 0, domain.Invalid("credits must be a whole number")
	}
	return n, nil
}
