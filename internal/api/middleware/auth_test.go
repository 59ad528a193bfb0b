package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
)

type stubVerifier struct {
	accountID string
	err       error
}

func (s stubVerifier) VerifyToken(string) (string, error) { return s.accountID, s.err }

type stubMetering struct {
	account *domain.Account
	err     error
}

func (s stubMetering) AuthenticateByKey(context.Context, string) (*domain.Account, error) {
	return s.account, s.err
}

func (s stubMetering) ChargeAndLog(context.Context, *domain.Account, string, int64) (int64, error) {
	return 0, errors.New("not used")
}

type stubLimiter struct {
	allow bool
	err   error
	calls int
	key   string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.calls++
	s.key = key
	return s.allow, s.err
}

func withAccount(c echo.Context) echo.Context {
	c.Set(ContextAccount, &domain.Account{ID: "acc-1"})
	return c
}

func newCtx(header, value string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestSession_ValidToken(t *testing.T) {
	c, rec := newCtx(echo.HeaderAuthorization, "Bearer good")

	called := false
	handler := Session(stubVerifier{accountID: "acc_1"})(func(c echo.Context) error {
		called = true
		if c.Get(ContextAccountID) != "acc_1" {
			t.Fatalf("account id not set")
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestSession_MissingHeader(t *testing.T) {
	c, _ := newCtx("", "")

	handler := Session(stubVerifier{accountID: "acc_1"})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if code := httpCode(t, handler(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestSession_InvalidHeaderFormat(t *testing.T) {
	c, _ := newCtx(echo.HeaderAuthorization, "Token abc")

	handler := Session(stubVerifier{accountID: "acc_1"})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if code := httpCode(t, handler(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestSession_InvalidToken(t *testing.T) {
	c, _ := newCtx(echo.HeaderAuthorization, "Bearer not-a-token")

	handler := Session(stubVerifier{err: domain.ErrInvalidToken})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	err := handler(c)
	if code := httpCode(t, err); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
	if err.(*echo.HTTPError).Message != "Invalid token" {
		t.Fatalf("unexpected message: %v", err.(*echo.HTTPError).Message)
	}
}

func TestAPIKey_Missing(t *testing.T) {
	c, _ := newCtx("", "")

	handler := APIKey(stubMetering{})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if code := httpCode(t, handler(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAPIKey_Unknown(t *testing.T) {
	c, _ := newCtx(HeaderAPIKey, "dn_nope")

	handler := APIKey(stubMetering{err: domain.ErrUnauthorized})(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})

	if err := handler(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAPIKey_Valid(t *testing.T) {
	c, _ := newCtx(HeaderAPIKey, "dn_good")
	acc := &domain.Account{ID: "acc_1", Credits: 5}

	handler := APIKey(stubMetering{account: acc})(func(c echo.Context) error {
		if c.Get(ContextAccount) != acc {
			t.Fatalf("account not set")
		}
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAdminSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		pass   bool
	}{
		{"match", "s3cret", "s3cret", true},
		{"mismatch", "s3cret", "wrong", false},
		{"missing header", "s3cret", "", false},
		{"empty secret rejects all", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newCtx(HeaderAdminKey, tt.header)
			called := false
			err := AdminSecret(tt.secret)(func(c echo.Context) error {
				called = true
				return nil
			})(c)

			if tt.pass {
				if err != nil || !called {
					t.Fatalf("expected pass, got err=%v called=%v", err, called)
				}
				return
			}
			if !errors.Is(err, domain.ErrForbidden) || called {
				t.Fatalf("expected ErrForbidden, got err=%v called=%v", err, called)
			}
		})
	}
}

func TestRateLimit_Rejects(t *testing.T) {
	c, _ := newCtx(HeaderAPIKey, "dn_key")
	limiter := &stubLimiter{allow: false}

	err := RateLimit(limiter, zerolog.Nop())(func(c echo.Context) error {
		t.Fatalf("should not reach next")
		return nil
	})(withAccount(c))

	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if limiter.key != "acc-1" {
		t.Fatalf("expected limiter keyed by account id, got %q", limiter.key)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	c, _ := newCtx(HeaderAPIKey, "dn_key")
	limiter := &stubLimiter{err: errors.New("redis down")}

	called := false
	err := RateLimit(limiter, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return nil
	})(withAccount(c))

	if err != nil || !called {
		t.Fatalf("expected request admitted, got err=%v called=%v", err, called)
	}
}

func TestRateLimit_SkipsWithoutAccount(t *testing.T) {
	c, _ := newCtx(HeaderAPIKey, "dn_key")
	limiter := &stubLimiter{allow: false}

	called := false
	_ = RateLimit(limiter, zerolog.Nop())(func(c echo.Context) error {
		called = true
		return nil
	})(c)

	if !called || limiter.calls != 0 {
		t.Fatalf("expected limiter skipped, called=%v calls=%d", called, limiter.calls)
	}
}

func TestAPIKeyThenRateLimit_UnknownKeyNeverCounted(t *testing.T) {
	c, _ := newCtx(HeaderAPIKey, "dn_forged")
	limiter := &stubLimiter{allow: true}
	chain := APIKey(stubMetering{err: domain.ErrUnauthorized})(RateLimit(limiter, zerolog.Nop())(func(echo.Context) error {
		t.Fatalf("should not reach handler")
		return nil
	}))

	if err := chain(c); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if limiter.calls != 0 {
		t.Fatalf("limiter counted an unauthenticated key: %d calls", limiter.calls)
	}
}
