package idtoken

import (
	"errors"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
)

// Validation failure kinds, checked in this order.
var (
	ErrMissingIssuer           = errors.New("id token issuer missing")
	ErrIncorrectIssuer         = errors.New("id token issuer incorrect")
	ErrMissingAudience         = errors.New("id token audience missing")
	ErrUntrustedAudiences      = errors.New("id token contains untrusted audiences")
	ErrAuthorizedPartyMissing  = errors.New("id token authorized party missing")
	ErrAuthorizedPartyMismatch = errors.New("id token authorized party mismatch")
	ErrExpirationTimeMissing   = errors.New("id token expiration time missing")
	ErrExpired                 = autherrors.Wrapf(autherrors.ErrTokenExpired, "id token")
	ErrMissingIssueTime        = errors.New("id token issue time missing")
)

var (
	ErrMalformedToken = autherrors.Wrapf(autherrors.ErrInvalidToken, "malformed id token")
	ErrNonceMismatch  = errors.New("id token nonce mismatch")
)

// ValidationError reports which rule an id token failed. Kind is one of the
// ErrXxx validation sentinels above and errors.Is matches against it.
type ValidationError struct {
	Kind   error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *ValidationError) Unwrap() error { return e.Kind }

func invalid(kind error, detail string) *ValidationError {
	return &ValidationError{Kind: kind, Detail: detail}
}
