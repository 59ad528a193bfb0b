package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

type AccountRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewAccountRepository(pool *pgxpool.Pool, timeout time.Duration) *AccountRepository {
	return &AccountRepository{pool: pool, timeout: opTimeout(timeout)}
}

var _ ports.AccountRepository = (*AccountRepository)(nil)

const accountColumns = `id, email, password, name, company, credits, COALESCE(api_key, ''), created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a  domain.Account
		id uuid.UUID
	)
	if err := row.Scan(&id, &a.Email, &a.PasswordHash, &a.Name, &a.Company, &a.Credits, &a.APIKey, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.ID = id.String()
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var apiKey *string
	if account.APIKey != "" {
		apiKey = &account.APIKey
	}

	created, err := scanAccount(r.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, password, name, company, credits, api_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+accountColumns,
		uuid.New(), account.Email, account.PasswordHash, account.Name, account.Company,
		account.Credits, apiKey, account.CreatedAt.UTC(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, storeError("insert account", err)
	}
	return created, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, uid)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email)
}

func (r *AccountRepository) FindByAPIKey(ctx context.Context, key string) (*domain.Account, error) {
	if key == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, `SELECT `+accountColumns+` FROM users WHERE api_key = $1`, key)
}

func (r *AccountRepository) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, storeError("find account", err)
	}
	return a, nil
}

func (r *AccountRepository) SetAPIKey(ctx context.Context, id, key string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE users SET api_key = $2 WHERE id = $1`, uid, key)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAPIKey
		}
		return storeError("set api key", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// DebitCredits decrements only while the balance covers cost; the WHERE
// clause makes the check and the write a single statement.
func (r *AccountRepository) DebitCredits(ctx context.Context, id string, cost int64) (int64, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return 0, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var balance int64
	err = r.pool.QueryRow(ctx, `
		UPDATE users SET credits = credits - $2
		WHERE id = $1 AND credits >= $2
		RETURNING credits
	`, uid, cost).Scan(&balance)
	if err != nil {
		if isNoRows(err) {
			return 0, domain.ErrInsufficientCredit
		}
		return 0, storeError("debit credits", err)
	}
	return balance, nil
}

func (r *AccountRepository) AddCredits(ctx context.Context, id string, delta int64) (int64, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return 0, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var balance int64
	err = r.pool.QueryRow(ctx, `
		UPDATE users SET credits = credits + $2
		WHERE id = $1
		RETURNING credits
	`, uid, delta).Scan(&balance)
	if err != nil {
		if isNoRows(err) {
			return 0, domain.ErrAccountNotFound
		}
		if isOutOfRange(err) {
			return 0, domain.ErrCreditOverflow
		}
		return 0, storeError("add credits", err)
	}
	return balance, nil
}
