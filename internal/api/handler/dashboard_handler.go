package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

type DashboardHandler struct {
	accounts ports.AccountService
}

func NewDashboardHandler(accounts ports.AccountService) *DashboardHandler {
	return &DashboardHandler{accounts: accounts}
}

type dashboardResponse struct {
	User      domain.DashboardProfile `json:"user"`
	UsageLogs []domain.UsageLogEntry  `json:"usageLogs"`
}

type usageSeriesResponse struct {
	Days    int                  `json:"days"`
	Buckets []domain.UsageBucket `json:"buckets"`
}

// Get returns the caller's profile and recent usage trail.
//
// @Summary      Dashboard data
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/get-dashboard-data [get]
func (h *DashboardHandler) Get(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	res, err := h.accounts.Dashboard(c.Request().Context(), accountID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dashboardResponse{User: res.Profile, UsageLogs: res.UsageLogs})
}

// Series returns daily usage buckets for charting.
//
// @Summary      Daily usage series
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        days  query     int  false  "Window length in days (1-365, default 30)"
// @Success      200   {object}  usageSeriesResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/usage-series [get]
func (h *DashboardHandler) Series(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	days := domain.DefaultUsageWindowDays
	if raw := c.QueryParam("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			return domain.Invalid("days must be an integer")
		}
	}

	buckets, err := h.accounts.UsageSeries(c.Request().Context(), accountID, days)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, usageSeriesResponse{Days: days, Buckets: buckets})
}
