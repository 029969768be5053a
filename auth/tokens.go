package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-client/idtoken"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/pkg/errors"
)

// RefreshAccessToken trades the stored refresh token for a new access token.
// Concurrent calls share one request. A 400 response clears the session, so
// the next RequestAccess starts a new authorization; the transport error is
// returned unchanged either way.
func (f *Flow) RefreshAccessToken(ctx context.Context) (string, error) {
	v, err, shared := f.refreshGroup.Do("refresh", func() (any, error) {
		return f.refresh(ctx)
	})
	if shared {
		f.logger.Debug().Msg("joined in-flight refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (f *Flow) refresh(ctx context.Context) (string, error) {
	refreshToken := f.session.RefreshToken()
	if refreshToken == "" {
		f.record(OpRefresh, OutcomeError)
		return "", ErrMissingRefreshToken
	}

	resp, err := f.transport.Do(ctx, f.adapter.BuildRefreshRequest(f.cfg, refreshToken))
	if err != nil {
		var statusErr *transport.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
			event := f.logger.Warn()
			if oauthErr, ok := statusErr.OAuthError(); ok {
				event = event.Str("error", oauthErr.Code)
			}
			event.Msg("refresh rejected, clearing session")
			if clearErr := f.session.ClearTokens(ctx); clearErr != nil {
				f.logger.Error().Err(clearErr).Msg("failed to clear session after rejected refresh")
			}
		}
		f.record(OpRefresh, OutcomeError)
		return "", err
	}

	tr, err := f.parseTokenResponse(resp)
	if err != nil {
		f.record(OpRefresh, OutcomeError)
		return "", err
	}

	// The id token is left as is: refresh responses are not validated.
	err = f.session.Save(ctx, sessions.SaveParams{
		AccessToken:           *tr.AccessToken,
		AccessTokenExpiresIn:  tr.AccessTokenLifetime(),
		RefreshToken:          utils.Value(tr.RefreshToken),
		RefreshTokenExpiresIn: tr.RefreshTokenLifetime(),
	})
	if err != nil {
		f.record(OpRefresh, OutcomeError)
		return "", errors.Wrap(err, "[Flow.refresh] save session")
	}

	f.record(OpRefresh, OutcomeSuccess)
	f.logger.Info().Msg("access token refreshed")
	return *tr.AccessToken, nil
}

// ExchangeAuthorizationCode trades an authorization code for tokens. Any id
// token in the response must pass validation before anything is stored.
func (f *Flow) ExchangeAuthorizationCode(ctx context.Context, code string) (string, error) {
	return f.exchange(ctx, code, "", "")
}

// exchange checks, in order: transport error, response shape, id token.
func (f *Flow) exchange(ctx context.Context, code, codeVerifier, nonce string) (string, error) {
	resp, err := f.transport.Do(ctx, f.adapter.BuildExchangeRequest(f.cfg, code, codeVerifier))
	if err != nil {
		f.record(OpExchange, OutcomeError)
		return "", err
	}

	tr, err := f.parseTokenResponse(resp)
	if err != nil {
		f.record(OpExchange, OutcomeError)
		return "", err
	}

	rawIDToken := utils.Value(tr.IdToken)
	if rawIDToken != "" {
		if err := f.validateIDToken(ctx, rawIDToken, resp, nonce); err != nil {
			f.record(OpExchange, OutcomeRejected)
			f.logger.Warn().Err(err).Msg("id token rejected")
			return "", err
		}
	}

	err = f.session.Save(ctx, sessions.SaveParams{
		AccessToken:           *tr.AccessToken,
		AccessTokenExpiresIn:  tr.AccessTokenLifetime(),
		RefreshToken:          utils.Value(tr.RefreshToken),
		RefreshTokenExpiresIn: tr.RefreshTokenLifetime(),
		IDToken:               rawIDToken,
	})
	if err != nil {
		f.record(OpExchange, OutcomeError)
		return "", errors.Wrap(err, "[Flow.exchange] save session")
	}

	f.record(OpExchange, OutcomeSuccess)
	f.logger.Info().Msg("authorization code exchanged")
	return *tr.AccessToken, nil
}

func (f *Flow) validateIDToken(ctx context.Context, raw string, resp *transport.Response, nonce string) error {
	claims, err := f.verifier.Claims(ctx, raw)
	if err != nil {
		return err
	}
	serverTime := resp.Date
	if serverTime == nil {
		now := f.now()
		serverTime = &now
	}
	if err := idtoken.Validate(claims, f.cfg.ExpectedIssuer(), f.cfg.ClientID, serverTime); err != nil {
		return err
	}
	return idtoken.CheckNonce(claims, nonce)
}

func (f *Flow) parseTokenResponse(resp *transport.Response) (*oauth2.TokenResponse, error) {
	tr, err := f.adapter.ParseTokenResponse(resp)
	if err != nil {
		return nil, &UnexpectedResponseError{Body: resp.Body, Err: err}
	}
	if tr == nil || utils.Value(tr.AccessToken) == "" {
		return nil, &UnexpectedResponseError{Body: resp.Body, Err: errors.New("access_token missing")}
	}
	return tr, nil
}

// IDTokenClaims decodes and validates the stored id token against the local
// clock. It returns nil claims and no error when no id token is stored.
func (f *Flow) IDTokenClaims(ctx context.Context) (map[string]any, error) {
	raw := f.session.IDToken()
	if raw == "" {
		return nil, nil
	}
	claims, err := f.verifier.Claims(ctx, raw)
	if err != nil {
		return nil, err
	}
	now := f.now()
	if err := idtoken.Validate(claims, f.cfg.ExpectedIssuer(), f.cfg.ClientID, &now); err != nil {
		return nil, err
	}
	return claims, nil
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrAuthorizationCancelled):
		return OutcomeCancelled
	case errors.Is(err, ErrAuthorizationAbandoned), errors.Is(err, ErrAuthorizationSuperseded):
		return OutcomeAbandoned
	case errors.Is(err, ErrUnequalStateParameter):
		return OutcomeRejected
	}
	return OutcomeError
}
