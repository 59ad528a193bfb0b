package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

// UsageRepository implements ports.UsageLogRepository on the usage_logs table.
type UsageRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewUsageRepository(pool *pgxpool.Pool, timeout time.Duration) *UsageRepository {
	return &UsageRepository{pool: pool, timeout: opTimeout(timeout)}
}

var _ ports.UsageLogRepository = (*UsageRepository)(nil)

func (r *UsageRepository) Append(ctx context.Context, entry *domain.UsageLogEntry) error {
	uid, err := uuid.Parse(entry.AccountID)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	id := uuid.New()

	_, err = r.pool.Exec(ctx, `
		INSERT INTO usage_logs (id, user_id, endpoint, cost, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, id, uid, entry.Endpoint, entry.Cost, ts.UTC())
	if err != nil {
		return storeError("insert usage", err)
	}

	entry.ID = id.String()
	entry.Timestamp = ts.UTC()
	return nil
}

func (r *UsageRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.UsageLogEntry, error) {
	uid, err := uuid.Parse(accountID)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	// LIMIT NULL returns every row.
	var lim any
	if limit > 0 {
		lim = limit
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, endpoint, cost, timestamp FROM (
			SELECT id, user_id, endpoint, cost, timestamp
			FROM usage_logs WHERE user_id = $1
			ORDER BY timestamp DESC LIMIT $2
		) recent ORDER BY timestamp ASC
	`, uid, lim)
	if err != nil {
		return nil, storeError("list usage", err)
	}
	defer rows.Close()

	var out []domain.UsageLogEntry
	for rows.Next() {
		var (
			e         domain.UsageLogEntry
			id, owner uuid.UUID
		)
		if err := rows.Scan(&id, &owner, &e.Endpoint, &e.Cost, &e.Timestamp); err != nil {
			return nil, storeError("scan usage", err)
		}
		e.ID = id.String()
		e.AccountID = owner.String()
		e.Timestamp = e.Timestamp.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list usage", err)
	}
	return out, nil
}
