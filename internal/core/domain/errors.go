package domain

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("invalid api key")
	ErrForbidden          = errors.New("forbidden")
	ErrInsufficientCredit = errors.New("insufficient credits")
	ErrAccountNotFound    = errors.New("user not found")
	ErrDuplicateAccount   = errors.New("user already exists")
	ErrDuplicateAPIKey    = errors.New("api key collision")
	ErrTransientStore     = errors.New("store temporarily unavailable")
	ErrConfiguration      = errors.New("configuration error")
	ErrHashing            = errors.New("password hashing failed")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

// ValidationError carries a client-facing reason and matches ErrValidation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ErrCreditOverflow is returned by stores when an adjustment would push a
// balance outside the int64 range.
var ErrCreditOverflow error = &ValidationError{Reason: "credit balance out of range"}

// Invalid builds a ValidationError.
func Invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
