package auth

import (
	"context"

	"github.com/jrsteele09/go-auth-client/idtoken"
	"github.com/pkg/errors"
)

// The Async variants run the blocking operation on a new goroutine and report
// through completion. Abandoned or superseded authorizations never call
// completion; the caller retries RequestAccess.

// RequestAccessAsync calls completion synchronously when a valid access token
// is cached.
func (f *Flow) RequestAccessAsync(ctx context.Context, completion func(accessToken string, err error)) {
	if f.session.IsAccessTokenValid() {
		f.record(OpRequestAccess, OutcomeCached)
		completion(f.session.AccessToken(), nil)
		return
	}
	go func() {
		token, err := f.RequestAccess(ctx)
		if silenced(err) {
			return
		}
		completion(token, err)
	}()
}

func (f *Flow) RefreshAccessTokenAsync(ctx context.Context, completion func(accessToken string, err error)) {
	go func() {
		completion(f.RefreshAccessToken(ctx))
	}()
}

func (f *Flow) ExchangeAuthorizationCodeAsync(ctx context.Context, code string, completion func(accessToken string, err error)) {
	go func() {
		completion(f.ExchangeAuthorizationCode(ctx, code))
	}()
}

func (f *Flow) LoginAsync(ctx context.Context, completion func(accessToken string, claims *idtoken.IdentityClaims, err error)) {
	go func() {
		token, claims, err := f.Login(ctx)
		if silenced(err) {
			return
		}
		completion(token, claims, err)
	}()
}

// RevokeAccessAsync never calls completion when there is nothing to revoke.
func (f *Flow) RevokeAccessAsync(ctx context.Context, completion func(err error)) {
	if !f.canRevoke() {
		f.record(OpRevoke, OutcomeSkipped)
		return
	}
	go func() {
		_, err := f.RevokeAccess(ctx)
		completion(err)
	}()
}

func silenced(err error) bool {
	return errors.Is(err, ErrAuthorizationAbandoned) || errors.Is(err, ErrAuthorizationSuperseded)
}
