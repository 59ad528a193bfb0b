package ports

import (
	"context"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

// RegisterInput carries the signup form.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Company  string
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token   string
	Profile domain.Profile
}

// DashboardResult is the account view plus its recent usage trail.
type DashboardResult struct {
	Profile   domain.DashboardProfile
	UsageLogs []domain.UsageLogEntry
}

// AccountService covers human-facing account operations.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	IssueAPIKey(ctx context.Context, accountID string) (string, error)
	Dashboard(ctx context.Context, accountID string) (*DashboardResult, error)
	UsageSeries(ctx context.Context, accountID string, windowDays int) ([]domain.UsageBucket, error)
}

// SessionVerifier resolves a bearer token to an account ID.
type SessionVerifier interface {
	VerifyToken(token string) (string, error)
}

// MeteringService authenticates machine callers and charges their balance.
type MeteringService interface {
	AuthenticateByKey(ctx context.Context, key string) (*domain.Account, error)
	ChargeAndLog(ctx context.Context, account *domain.Account, endpoint string, cost int64) (int64, error)
}

// AdjustResult reports the outcome of an admin credit adjustment.
type AdjustResult struct {
	Email   string
	Credits int64
}

// AdminService performs privileged ledger operations.
type AdminService interface {
	AdjustCredit(ctx context.Context, email string, delta int64) (*AdjustResult, error)
}
