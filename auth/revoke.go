package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/pkg/errors"
)

// RevokeAccess revokes the cached tokens at the provider and clears the
// session. Without an access token or a revocation endpoint there is nothing
// to do and it returns false with no network traffic.
func (f *Flow) RevokeAccess(ctx context.Context) (bool, error) {
	if !f.canRevoke() {
		f.record(OpRevoke, OutcomeSkipped)
		return false, nil
	}

	if f.adapter.LogoutBeforeRevoke {
		f.logout(ctx)
	}

	// logout may have refreshed the tokens
	tokens := f.session.Tokens()
	if tokens.AccessToken == "" {
		f.record(OpRevoke, OutcomeSkipped)
		return false, nil
	}

	for _, req := range f.adapter.BuildRevokeRequests(f.cfg, tokens) {
		if _, err := f.transport.Do(ctx, req); err != nil {
			if !f.adapter.RevokeBestEffort {
				f.record(OpRevoke, OutcomeError)
				return false, err
			}
			f.logger.Warn().Err(err).Msg("best effort revocation failed")
		}
	}

	if err := f.session.ClearTokens(ctx); err != nil {
		f.record(OpRevoke, OutcomeError)
		return false, errors.Wrap(err, "[Flow.RevokeAccess] clear session")
	}
	f.record(OpRevoke, OutcomeSuccess)
	f.logger.Info().Msg("access revoked")
	return true, nil
}

func (f *Flow) canRevoke() bool {
	return f.session.AccessToken() != "" && f.cfg.RevocationEndpoint != ""
}

// logout ends the provider's SSO session. It needs a valid access token, so an
// expired one is refreshed first; failures are logged and skipped.
func (f *Flow) logout(ctx context.Context) {
	if f.cfg.LogoutEndpoint == "" || f.session.RefreshToken() == "" {
		return
	}

	accessToken := f.session.AccessToken()
	if !f.session.IsAccessTokenValid() {
		refreshed, err := f.RefreshAccessToken(ctx)
		if err != nil {
			f.logger.Warn().Err(err).Msg("skipping logout, refresh failed")
			return
		}
		accessToken = refreshed
	}

	req := (&transport.Request{Method: http.MethodPost, Endpoint: f.cfg.LogoutEndpoint}).Bearer(accessToken)
	if _, err := f.transport.Do(ctx, req); err != nil {
		f.logger.Warn().Err(err).Msg("logout failed")
	}
}
