package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	other := &pgconn.PgError{Code: "23503"}

	if !isUniqueViolation(dup) {
		t.Fatalf("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(other) || isUniqueViolation(errors.New("boom")) {
		t.Fatalf("unexpected unique violation match")
	}
}

func TestIsOutOfRange(t *testing.T) {
	if !isOutOfRange(fmt.Errorf("add: %w", &pgconn.PgError{Code: "22003"})) {
		t.Fatalf("expected wrapped 22003 to be out of range")
	}
	if isOutOfRange(&pgconn.PgError{Code: "23505"}) || isOutOfRange(errors.New("boom")) {
		t.Fatalf("unexpected out-of-range match")
	}
}

func TestStoreError(t *testing.T) {
	if err := storeError("op", context.DeadlineExceeded); !errors.Is(err, domain.ErrTransientStore) {
		t.Fatalf("deadline should be transient, got %v", err)
	}
	if err := storeError("op", &pgconn.PgError{Code: "42P01"}); errors.Is(err, domain.ErrTransientStore) {
		t.Fatalf("schema errors are not transient: %v", err)
	}
}

func TestIsNoRows(t *testing.T) {
	if !isNoRows(fmt.Errorf("scan: %w", pgx.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to match")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := embedMigrations.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatalf("no migrations embedded")
	}
}
