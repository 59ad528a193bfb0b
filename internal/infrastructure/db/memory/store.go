// Package memory is an in-process account and usage store. It backs local
// development (STORE_DRIVER=memory) and the service-level tests.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

// Store implements ports.AccountRepository and ports.UsageLogRepository.
type Store struct {
	mu sync.RWMutex

	accounts map[string]*domain.Account // key: id
	byEmail  map[string]string          // email -> id
	byAPIKey map[string]string          // api key -> id
	logs     []domain.UsageLogEntry
}

// New creates an empty store.
func New() *Store {
	return &Store{
		accounts: make(map[string]*domain.Account),
		byEmail:  make(map[string]string),
		byAPIKey: make(map[string]string),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func cloneAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func (s *Store) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[account.Email]; exists {
		return nil, domain.ErrDuplicateAccount
	}

	a := cloneAccount(account)
	a.ID = uuid.NewString()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	s.accounts[a.ID] = a
	s.byEmail[a.Email] = a.ID
	if a.APIKey != "" {
		s.byAPIKey[a.APIKey] = a.ID
	}
	return cloneAccount(a), nil
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(a), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *Store) FindByAPIKey(_ context.Context, key string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byAPIKey[key]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return cloneAccount(s.accounts[id]), nil
}

func (s *Store) SetAPIKey(_ context.Context, id, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if owner, taken := s.byAPIKey[key]; taken && owner != id {
		return domain.ErrDuplicateAPIKey
	}
	if a.APIKey != "" {
		delete(s.byAPIKey, a.APIKey)
	}
	a.APIKey = key
	s.byAPIKey[key] = id
	return nil
}

func (s *Store) DebitCredits(_ context.Context, id string, cost int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if a.Credits < cost {
		return 0, domain.ErrInsufficientCredit
	}
	a.Credits -= cost
	return a.Credits, nil
}

func (s *Store) AddCredits(_ context.Context, id string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return 0, domain.ErrAccountNotFound
	}
	if (delta > 0 && a.Credits > math.MaxInt64-delta) || (delta < 0 && a.Credits < math.MinInt64-delta) {
		return 0, domain.ErrCreditOverflow
	}
	a.Credits += delta
	return a.Credits, nil
}

func (s *Store) Append(_ context.Context, entry *domain.UsageLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := *entry
	e.ID = uuid.NewString()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	s.logs = append(s.logs, e)
	entry.ID = e.ID
	entry.Timestamp = e.Timestamp
	return nil
}

func (s *Store) ListByAccount(_ context.Context, accountID string, limit int) ([]domain.UsageLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.UsageLogEntry
	for _, e := range s.logs {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}
