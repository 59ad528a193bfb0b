package ports

import (
	"context"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

// AccountRepository defines persistence for accounts. Implementations must
// enforce uniqueness of email and API key at the store.
type AccountRepository interface {
	// Create inserts a new account and returns it with its store-assigned ID.
	// Returns domain.ErrDuplicateAccount when the email is taken.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)

	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByAPIKey(ctx context.Context, key string) (*domain.Account, error)

	// SetAPIKey replaces the account's key. Returns domain.ErrDuplicateAPIKey
	// when another account already holds the key.
	SetAPIKey(ctx context.Context, id, key string) error

	// DebitCredits atomically subtracts cost only if the current balance is
	// at least cost, and returns the new balance. A failed condition returns
	// domain.ErrInsufficientCredit and leaves the balance untouched.
	DebitCredits(ctx context.Context, id string, cost int64) (int64, error)

	// AddCredits atomically adds delta (which may be negative) and returns
	// the new balance.
	AddCredits(ctx context.Context, id string, delta int64) (int64, error)
}

// UsageLogRepository is the append-only usage ledger.
type UsageLogRepository interface {
	Append(ctx context.Context, entry *domain.UsageLogEntry) error

	// ListByAccount returns the most recent limit entries for the account in
	// ascending timestamp order. A limit <= 0 returns every entry.
	ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.UsageLogEntry, error)
}
