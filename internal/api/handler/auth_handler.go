package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dnlabs/credit-gateway/internal/api/metrics"
	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

type AuthHandler struct {
	accounts ports.AccountService
}

func NewAuthHandler(accounts ports.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

type registerRequest struct {
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,maxbytes=72"`
	Name     string `json:"name"`
	Company  string `json:"company,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string         `json:"token"`
	User  domain.Profile `json:"user"`
}

// Register creates a new account with the signup bonus and returns a session token.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Signup details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/auth-signup [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	res, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Company:  req.Company,
	})
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("signup", "failure").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("signup", "success").Inc()
	return c.JSON(http.StatusCreated, authResponse{Token: res.Token, User: res.Profile})
}

// Login authenticates an account and returns a session token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/auth-login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return domain.Invalid("invalid payload")
	}

	res, err := h.accounts.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("login", "failure").Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", "success").Inc()
	return c.JSON(http.StatusOK, authResponse{Token: res.Token, User: res.Profile})
}
