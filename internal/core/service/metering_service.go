package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

// MeteringService guards metered calls: it resolves API keys and debits the
// caller's balance once per call.
type MeteringService struct {
	accounts ports.AccountRepository
	usage    ports.UsageLogRepository
	clock    ports.Clock
	log      zerolog.Logger
}

func NewMeteringService(accounts ports.AccountRepository, usage ports.UsageLogRepository, clock ports.Clock, log zerolog.Logger) *MeteringService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &MeteringService{accounts: accounts, usage: usage, clock: clock, log: log}
}

var _ ports.MeteringService = (*MeteringService)(nil)

// AuthenticateByKey returns domain.ErrUnauthorized for a missing key, an
// unknown key and a failed lookup alike.
func (s *MeteringService) AuthenticateByKey(ctx context.Context, key string) (*domain.Account, error) {
	if key == "" {
		return nil, domain.ErrUnauthorized
	}
	account, err := s.accounts.FindByAPIKey(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrAccountNotFound) {
			s.log.Warn().Err(err).Msg("api key lookup failed")
		}
		return nil, domain.ErrUnauthorized
	}
	return account, nil
}

// ChargeAndLog debits cost from the account and appends a usage entry.
// The debit is a conditional atomic update at the store, so concurrent calls
// cannot overdraw the balance.
func (s *MeteringService) ChargeAndLog(ctx context.Context, account *domain.Account, endpoint string, cost int64) (int64, error) {
	if cost <= 0 {
		return 0, domain.Invalid("cost must be positive")
	}
	if account.Credits <= 0 {
		return 0, domain.ErrInsufficientCredit
	}

	remaining, err := s.accounts.DebitCredits(ctx, account.ID, cost)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredit) {
			return 0, err
		}
		return 0, fmt.Errorf("charge: debit: %w", err)
	}

	entry := &domain.UsageLogEntry{
		AccountID: account.ID,
		Endpoint:  endpoint,
		Cost:      cost,
		Timestamp: s.clock.Now(),
	}
	if err := s.usage.Append(ctx, entry); err != nil {
		s.compensate(ctx, account.ID, cost, err)
		return 0, fmt.Errorf("charge: append usage: %w", err)
	}

	account.Credits = remaining
	return remaining, nil
}

// compensate returns a debit whose usage entry could not be written, so the
// balance stays reconstructible from the ledger.
func (s *MeteringService) compensate(ctx context.Context, accountID string, cost int64, cause error) {
	if _, err := s.accounts.AddCredits(context.WithoutCancel(ctx), accountID, cost); err != nil {
		s.log.Error().Err(err).AnErr("cause", cause).
			Str("account_id", accountID).
			Int64("cost", cost).
			Msg("ledger gap: debit applied without usage entry and refund failed")
		return
	}
	s.log.Warn().Err(cause).Str("account_id", accountID).Msg("usage append failed, debit refunded")
}
