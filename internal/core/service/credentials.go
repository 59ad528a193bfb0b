package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dnlabs/credit-gateway/internal/core/domain"
	"github.com/dnlabs/credit-gateway/internal/core/ports"
)

const (
	passwordCost = 10
	sessionTTL   = 7 * 24 * time.Hour
)

// Credentials hashes passwords and issues HS256 session tokens.
type Credentials struct {
	secret []byte
	clock  ports.Clock
	cost   int

	dummyOnce sync.Once
	dummyHash []byte
}

type sessionClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// NewCredentials fails with domain.ErrConfiguration when secret is empty:
// without a key no token can be issued or verified.
func NewCredentials(secret string, clock ports.Clock) (*Credentials, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: token signing key is not set", domain.ErrConfiguration)
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &Credentials{secret: []byte(secret), clock: clock, cost: passwordCost}, nil
}

func (c *Credentials) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrHashing, err)
	}
	return string(hash), nil
}

func (c *Credentials) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// burnVerify spends the same bcrypt work as a real comparison so that an
// unknown email takes as long to reject as a wrong password.
func (c *Credentials) burnVerify(plaintext string) {
	c.dummyOnce.Do(func() {
		c.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), c.cost)
	})
	_ = bcrypt.CompareHashAndPassword(c.dummyHash, []byte(plaintext))
}

// IssueToken signs a session token for accountID that expires in 7 days.
func (c *Credentials) IssueToken(accountID string) (string, error) {
	now := c.clock.Now()
	claims := sessionClaims{
		UserID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// VerifyToken returns the account ID embedded in a valid token. Every parse,
// signature or expiry failure collapses into domain.ErrInvalidToken.
func (c *Credentials) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", domain.ErrInvalidToken
	}
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.UserID, nil
}
