package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

// AdminService applies privileged credit adjustments. The admin secret is
// checked by the transport before any call reaches it.
type AdminService struct {
	accounts ports.AccountRepository
	usage    ports.UsageLogRepository
	clock    ports.Clock
	log      zerolog.Logger
}

func NewAdminService(accounts ports.AccountRepository, usage ports.UsageLogRepository, clock ports.Clock, log zerolog.Logger) *AdminService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &AdminService{accounts: accounts, usage: usage, clock: clock, log: log}
}

var _ ports.AdminService = (*AdminService)(nil)

// AdjustCredit adds delta (possibly negative) to the account's balance and
// records it with cost = -delta.
func (s *AdminService) AdjustCredit(ctx context.Context, email string, delta int64) (*ports.AdjustResult, error) {
	if email == "" {
		return nil, domain.Invalid("Email and credits (number) required")
	}
	if delta > domain.MaxCreditAdjustment || delta < -domain.MaxCreditAdjustment {
		return nil, domain.Invalid("credits out of range")
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("adjust credit: %w", err)
	}

	balance, err := s.accounts.AddCredits(ctx, account.ID, delta)
	if err != nil {
		return nil, fmt.Errorf("adjust credit: %w", err)
	}

	entry := &domain.UsageLogEntry{
		AccountID: account.ID,
		Endpoint:  domain.AdminCreditEndpoint,
		Cost:      -delta,
		Timestamp: s.clock.Now(),
	}
	if err := s.usage.Append(ctx, entry); err != nil {
		if _, revertErr := s.accounts.AddCredits(context.WithoutCancel(ctx), account.ID, -delta); revertErr != nil {
			s.log.Error().Err(revertErr).AnErr("cause", err).
				Str("account_id", account.ID).
				Int64("delta", delta).
				Msg("ledger gap: admin adjustment applied without usage entry and revert failed")
		}
		return nil, fmt.Errorf("adjust credit: append usage: %w", err)
	}

	s.log.Info().
		Str("account_id", account.ID).
		Int64("delta", delta).
		Int64("balance", balance).
		Msg("credits adjusted by admin")

	return &ports.AdjustResult{Email: account.Email, Credits: balance}, nil
}
