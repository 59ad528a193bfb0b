package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

const (
	apiKeyAttempts   = 3
	maxWindowDays    = 365
	maxPasswordBytes = 72 // bcrypt input limit
)

// AccountService implements signup, login, API key issuance and the
// dashboard reads.
type AccountService struct {
	accounts ports.AccountRepository
	usage    ports.UsageLogRepository
	creds    *Credentials
	clock    ports.Clock
	location *time.Location
	log      zerolog.Logger
}

func NewAccountService(
	accounts ports.AccountRepository,
	usage ports.UsageLogRepository,
	creds *Credentials,
	clock ports.Clock,
	location *time.Location,
	log zerolog.Logger,
) *AccountService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if location == nil {
		location = time.UTC
	}
	return &AccountService{
		accounts: accounts,
		usage:    usage,
		creds:    creds,
		clock:    clock,
		location: location,
		log:      log,
	}
}

var _ ports.AccountService = (*AccountService)(nil)

func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthResult, error) {
	if in.Email == "" || in.Password == "" || in.Name == "" {
		return nil, domain.Invalid("Email, password, and name are required")
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, domain.Invalid(fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}

	existing, err := s.accounts.FindByEmail(ctx, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrDuplicateAccount
	case err != nil && !errors.Is(err, domain.ErrAccountNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hash, err := s.creds.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	company := strings.TrimSpace(in.Company)
	if company == "" {
		company = domain.DefaultCompany
	}

	created, err := s.accounts.Create(ctx, &domain.Account{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
		Company:      company,
		Credits:      domain.SignupBonus,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, err
		}
		return nil, fmt.Errorf("register: %w", err)
	}

	token, err := s.creds.IssueToken(created.ID)
	if err != nil {
		return nil, fmt.Errorf("register: issue token: %w", err)
	}

	s.log.Info().Str("account_id", created.ID).Msg("account registered")
	return &ports.AuthResult{Token: token, Profile: created.Profile()}, nil
}

// Login never tells the caller whether the email exists.
func (s *AccountService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.Invalid("Email and password required")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			s.creds.burnVerify(password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !s.creds.VerifyPassword(password, account.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.creds.IssueToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}
	return &ports.AuthResult{Token: token, Profile: account.Profile()}, nil
}

// IssueAPIKey generates a fresh key and replaces any previous one.
func (s *AccountService) IssueAPIKey(ctx context.Context, accountID string) (string, error) {
	if _, err := s.accounts.FindByID(ctx, accountID); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return "", err
		}
		return "", fmt.Errorf("issue api key: %w", err)
	}

	for attempt := 1; attempt <= apiKeyAttempts; attempt++ {
		key, err := generateAPIKey()
		if err != nil {
			return "", fmt.Errorf("issue api key: %w", err)
		}

		err = s.accounts.SetAPIKey(ctx, accountID, key)
		switch {
		case err == nil:
			s.log.Info().Str("account_id", accountID).Msg("api key issued")
			return key, nil
		case errors.Is(err, domain.ErrDuplicateAPIKey):
			s.log.Warn().Str("account_id", accountID).Int("attempt", attempt).Msg("api key collision, regenerating")
		case errors.Is(err, domain.ErrAccountNotFound):
			return "", err
		default:
			return "", fmt.Errorf("issue api key: %w", err)
		}
	}
	return "", fmt.Errorf("issue api key: %w", domain.ErrDuplicateAPIKey)
}

func (s *AccountService) Dashboard(ctx context.Context, accountID string) (*ports.DashboardResult, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	logs, err := s.usage.ListByAccount(ctx, account.ID, domain.DashboardLogLimit)
	if err != nil {
		return nil, fmt.Errorf("dashboard: usage logs: %w", err)
	}
	if logs == nil {
		logs = []domain.UsageLogEntry{}
	}

	return &ports.DashboardResult{Profile: account.DashboardProfile(), UsageLogs: logs}, nil
}

// UsageSeries bucketizes the dashboard usage trail into daily totals.
// A zero windowDays selects the default 30-day window.
func (s *AccountService) UsageSeries(ctx context.Context, accountID string, windowDays int) ([]domain.UsageBucket, error) {
	if windowDays == 0 {
		windowDays = domain.DefaultUsageWindowDays
	}
	if windowDays < 1 || windowDays > maxWindowDays {
		return nil, domain.Invalid(fmt.Sprintf("days must be between 1 and %d", maxWindowDays))
	}

	dash, err := s.Dashboard(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return Bucketize(dash.UsageLogs, BucketOptions{
		WindowDays: windowDays,
		Now:        s.clock.Now(),
		Location:   s.location,
	}), nil
}

// generateAPIKey returns "dn_" followed by 24 hex-encoded random bytes.
func generateAPIKey() (string, error) {
	b := make([]byte, domain.APIKeyRandomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return domain.APIKeyPrefix + hex.EncodeToString(b), nil
}
