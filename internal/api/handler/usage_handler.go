package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dnlabs/credit-gateway/internal/api/metrics"
	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

// meteredCallCost is the price of one simulated call.
const meteredCallCost int64 = 1

type UsageHandler struct {
	metering ports.MeteringService
}

func NewUsageHandler(metering ports.MeteringService) *UsageHandler {
	return &UsageHandler{metering: metering}
}

type usageResponse struct {
	Success          bool   `json:"success"`
	RemainingCredits int64  `json:"remaining_credits"`
	Message          string `json:"message"`
}

// Simulate charges one credit against the caller's balance.
//
// @Summary      Metered call
// @Tags         usage
// @Produce      json
// @Param        x-api-key  header    string  true  "API key"
// @Success      200        {object}  usageResponse
// @Failure      401        {object}  map[string]string
// @Failure      402        {object}  map[string]string
// @Failure      429        {object}  map[string]string
// @Router       /api/simulate-usage [post]
func (h *UsageHandler) Simulate(c echo.Context) error {
	account, err := ctxAccount(c)
	if err != nil {
		return err
	}

	remaining, err := h.metering.ChargeAndLog(c.Request().Context(), account, domain.MeteredEndpoint, meteredCallCost)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredit) {
			metrics.MeteredCallsTotal.WithLabelValues("insufficient_credit").Inc()
		} else {
			metrics.MeteredCallsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.MeteredCallsTotal.WithLabelValues("charged").Inc()
	metrics.CreditsDebitedTotal.Add(float64(meteredCallCost))
	return c.JSON(http.StatusOK, usageResponse{
		Success:          true,
		RemainingCredits: remaining,
		Message:          "Usage simulated. 1 credit deducted.",
	})
}
