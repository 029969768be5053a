package auth

import (
	"context"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/pkg/errors"
	xoauth2 "golang.org/x/oauth2"
)

// pendingAuthorization correlates one launched authorization with the
// redirect that completes it. result is buffered so delivery never blocks.
type pendingAuthorization struct {
	state        string
	codeVerifier string
	nonce        string
	result       chan authorizationResult
}

type authorizationResult struct {
	code string
	err  error
}

// reservedParams are set by the flow and cannot be overridden by OptionalParams.
var reservedParams = map[string]bool{
	oauth2.ParamState:               true,
	oauth2.ParamClientID:            true,
	oauth2.ParamRedirectURI:         true,
	oauth2.ParamResponseType:        true,
	oauth2.ParamScope:               true,
	oauth2.ParamCodeChallenge:       true,
	oauth2.ParamCodeChallengeMethod: true,
}

// RequestAccess returns a usable access token: the cached one when still
// valid, a refreshed one when the refresh token is valid, otherwise the result
// of an interactive authorization.
func (f *Flow) RequestAccess(ctx context.Context) (string, error) {
	if f.session.IsAccessTokenValid() {
		f.record(OpRequestAccess, OutcomeCached)
		return f.session.AccessToken(), nil
	}
	if f.session.IsRefreshTokenValid() {
		f.logger.Debug().Msg("access token expired, refreshing")
		return f.RefreshAccessToken(ctx)
	}
	f.logger.Debug().Msg("no valid tokens, starting authorization")
	return f.RequestAuthorizationCode(ctx)
}

// RequestAuthorizationCode presents the authorization page and waits for the
// redirect. Public clients get the exchanged access token; confidential
// clients get the raw authorization code.
//
// A second call while one is pending supersedes it: the earlier call returns
// ErrAuthorizationSuperseded. Resumed abandons the attempt with
// ErrAuthorizationAbandoned.
func (f *Flow) RequestAuthorizationCode(ctx context.Context) (string, error) {
	p := &pendingAuthorization{
		state:  f.newState(),
		result: make(chan authorizationResult, 1),
	}
	if f.cfg.UsePKCE {
		p.codeVerifier = xoauth2.GenerateVerifier()
	}
	if f.cfg.UseNonce {
		p.nonce = f.newState()
	}

	authURL, err := f.AuthorizationURL(p.state, p.codeVerifier, p.nonce)
	if err != nil {
		f.record(OpAuthorize, OutcomeError)
		return "", err
	}

	f.begin(p)
	err = f.presenter.Present(ctx, Presentation{URL: authURL, State: p.state, WebView: f.cfg.IsWebView})
	if err != nil {
		f.finish(p, StateUnknown)
		f.record(OpAuthorize, OutcomeError)
		return "", errors.Wrap(err, "[Flow.RequestAuthorizationCode] present")
	}

	var res authorizationResult
	select {
	case res = <-p.result:
	case <-ctx.Done():
		f.finish(p, StateUnknown)
		f.record(OpAuthorize, OutcomeAbandoned)
		return "", ctx.Err()
	}

	if res.err != nil {
		f.recordErr(OpAuthorize, res.err)
		return "", res.err
	}
	f.record(OpAuthorize, OutcomeSuccess)

	if !f.cfg.IsPublicClient {
		f.logger.Debug().Msg("confidential client, returning authorization code")
		return res.code, nil
	}

	token, err := f.exchange(ctx, res.code, p.codeVerifier, p.nonce)
	if err != nil {
		f.clearApproval()
		return "", err
	}
	return token, nil
}

// begin installs p as the only pending authorization.
func (f *Flow) begin(p *pendingAuthorization) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if old := f.pending; old != nil {
		f.logger.Debug().Msg("superseding pending authorization")
		old.result <- authorizationResult{err: ErrAuthorizationSuperseded}
	}
	f.pending = p
	f.state = StatePendingExternalApproval
	f.logger.Debug().Str("state", f.state.String()).Msg("authorization presented")
}

// finish tears p down if it is still the pending authorization.
func (f *Flow) finish(p *pendingAuthorization, next AuthorizationState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == p {
		f.pending = nil
		f.state = next
	}
}

// clearApproval drops an approved state unless a newer attempt is pending.
func (f *Flow) clearApproval() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil && f.state == StateApproved {
		f.state = StateUnknown
	}
}

// HandleRedirect delivers the redirect URL to the pending authorization. It
// returns false when nothing is pending or the URL is not this flow's
// redirect URL. Only the first matching redirect is honoured.
func (f *Flow) HandleRedirect(u *url.URL) bool {
	if !f.IsRedirect(u) {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	p := f.pending
	if p == nil {
		return false
	}
	f.pending = nil

	query := u.Query()
	code := query.Get(oauth2.ParamCode)
	switch {
	case code == "":
		f.state = StateUnknown
		p.result <- authorizationResult{err: &CancelledError{
			Code:        query.Get(oauth2.ParamError),
			Description: query.Get(oauth2.ParamErrorDescription),
		}}
		f.logger.Info().Msg("authorization cancelled")
	case query.Get(oauth2.ParamState) != p.state:
		f.state = StateUnknown
		p.result <- authorizationResult{err: &StateMismatchError{Received: query.Get(oauth2.ParamState)}}
		f.logger.Warn().Msg("redirect state does not match request")
	default:
		f.state = StateApproved
		p.result <- authorizationResult{code: code}
		f.logger.Debug().Msg("authorization approved")
	}
	return true
}

// PendingState returns the state nonce of the authorization awaiting its
// redirect.
func (f *Flow) PendingState() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		return "", false
	}
	return f.pending.state, true
}

// IsRedirect reports whether u targets this flow's redirect URL.
func (f *Flow) IsRedirect(u *url.URL) bool {
	return u != nil && f.matchesRedirect(u)
}

// Resumed reports that the application returned to the foreground. A pending
// authorization that has not received its redirect is abandoned.
func (f *Flow) Resumed() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StatePendingExternalApproval || f.pending == nil {
		return
	}
	f.pending.result <- authorizationResult{err: ErrAuthorizationAbandoned}
	f.pending = nil
	f.state = StateUnknown
	f.logger.Info().Msg("authorization abandoned on resume")
}

func (f *Flow) matchesRedirect(u *url.URL) bool {
	want, err := url.Parse(f.cfg.RedirectURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(want.Scheme, u.Scheme) &&
		strings.EqualFold(want.Host, u.Host) &&
		strings.TrimSuffix(want.Path, "/") == strings.TrimSuffix(u.Path, "/")
}

// AuthorizationURL builds the authorization endpoint URL carrying state. A
// non-empty codeVerifier adds the S256 PKCE challenge and a non-empty nonce
// adds the OpenID Connect nonce.
func (f *Flow) AuthorizationURL(state, codeVerifier, nonce string) (string, error) {
	endpoint, err := transport.ResolveURL(f.cfg.BaseURL, f.cfg.AuthorizationEndpoint)
	if err != nil {
		return "", errors.Wrap(err, "[Flow.AuthorizationURL]")
	}

	conf := xoauth2.Config{
		ClientID:    f.cfg.ClientID,
		RedirectURL: f.cfg.RedirectURL,
		Scopes:      f.cfg.Scopes,
		Endpoint:    xoauth2.Endpoint{AuthURL: endpoint},
	}

	var opts []xoauth2.AuthCodeOption
	for k, v := range f.cfg.OptionalParams {
		if reservedParams[k] {
			f.logger.Warn().Str("param", k).Msg("ignoring reserved optional parameter")
			continue
		}
		opts = append(opts, xoauth2.SetAuthURLParam(k, v))
	}
	claims, err := oauth2.ClaimsRequest(f.cfg.Claims)
	if err != nil {
		return "", errors.Wrap(err, "[Flow.AuthorizationURL] claims")
	}
	if claims != "" {
		opts = append(opts, xoauth2.SetAuthURLParam(oauth2.ParamClaims, claims))
	}
	if codeVerifier != "" {
		opts = append(opts, xoauth2.S256ChallengeOption(codeVerifier))
	}
	if nonce != "" {
		opts = append(opts, xoauth2.SetAuthURLParam(oauth2.ParamNonce, nonce))
	}
	return conf.AuthCodeURL(state, opts...), nil
}
