package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-auth-client/idtoken"
	"github.com/jrsteele09/go-auth-client/providers"
	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/pkg/errors"
)

// Login obtains an access token and the user's identity claims. Where the
// claims come from is decided by the adapter: the userinfo endpoint, the
// access token itself or the stored id token.
func (f *Flow) Login(ctx context.Context) (string, *idtoken.IdentityClaims, error) {
	if f.adapter.Identity == providers.IdentityRemote && f.cfg.UserInfoEndpoint == "" {
		f.record(OpLogin, OutcomeError)
		return "", nil, ErrMissingUserInfoEndpoint
	}

	accessToken, err := f.RequestAccess(ctx)
	if err != nil {
		f.recordErr(OpLogin, err)
		return "", nil, err
	}

	raw, err := f.identityClaims(ctx, accessToken)
	if err != nil {
		f.record(OpLogin, OutcomeError)
		return "", nil, err
	}
	f.record(OpLogin, OutcomeSuccess)
	return accessToken, f.adapter.MapClaims(raw), nil
}

func (f *Flow) identityClaims(ctx context.Context, accessToken string) (map[string]any, error) {
	switch f.adapter.Identity {
	case providers.IdentityAccessToken:
		return idtoken.Decode(accessToken)
	case providers.IdentityIDToken:
		raw := f.session.IDToken()
		if raw == "" {
			return nil, ErrMissingIDToken
		}
		return idtoken.Decode(raw)
	default:
		return f.userInfo(ctx, accessToken)
	}
}

func (f *Flow) userInfo(ctx context.Context, accessToken string) (map[string]any, error) {
	req := (&transport.Request{
		Method:   http.MethodGet,
		Endpoint: f.cfg.UserInfoEndpoint,
		Encoding: transport.EncodingQuery,
	}).Bearer(accessToken)

	resp, err := f.transport.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	claims := map[string]any{}
	if err := resp.JSON(&claims); err != nil {
		return nil, &UnexpectedResponseError{Body: resp.Body, Err: errors.Wrap(err, "userinfo")}
	}
	return claims, nil
}
