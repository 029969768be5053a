package providers

import (
	"fmt"
	"net/http"
	"net/url"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/transport"
)

// IdProvider selects the telco identity service.
type IdProvider int

const (
	ConnectID IdProvider = iota
	TelenorID
)

func (p IdProvider) String() string {
	switch p {
	case ConnectID:
		return "connect_id"
	case TelenorID:
		return "telenor_id"
	}
	return fmt.Sprintf("IdProvider(%d)", int(p))
}

// BaseURL returns the OAuth base URL of the provider.
func (p IdProvider) BaseURL(staging bool) (string, error) {
	switch {
	case p == ConnectID && staging:
		return "https://connect.staging.telenordigital.com/oauth", nil
	case p == ConnectID:
		return "https://connect.telenordigital.com/oauth", nil
	case p == TelenorID && staging:
		return "https://staging.telenorid.com/oauth", nil
	case p == TelenorID:
		return "", autherrors.Wrapf(autherrors.ErrUnsupported, "%s has no production environment", p)
	}
	return "", autherrors.Wrapf(autherrors.ErrUnsupported, "unknown id provider %d", int(p))
}

// TelenorConnect ends the SSO session through the logout endpoint and then
// revokes both tokens without waiting on the outcome.
func TelenorConnect() Adapter {
	return Adapter{
		Name:                "telenor_connect",
		BuildRevokeRequests: telenorRevokeRequests,
		RevokeBestEffort:    true,
		LogoutBeforeRevoke:  true,
		Identity:            IdentityRemote,
	}.WithDefaults()
}

// TelenorConnectConfig returns an OpenID Connect public client registration
// at the given telco provider.
func TelenorConnectConfig(provider IdProvider, staging bool, clientID, redirectURL string, opts ...ConfigOption) (Config, error) {
	base, err := provider.BaseURL(staging)
	if err != nil {
		return Config{}, err
	}
	cfg := applyOptions(Config{
		BaseURL:                        base,
		AuthorizationEndpoint:          "authorize",
		TokenEndpoint:                  "token",
		RevocationEndpoint:             "revoke",
		UserInfoEndpoint:               "userinfo",
		LogoutEndpoint:                 "logout",
		WellKnownConfigurationEndpoint: ".well-known/openid-configuration",
		JWKSURL:                        base + "/jwks",
		RedirectURL:                    redirectURL,
		ClientID:                       clientID,
		IsOpenIDConnect:                true,
		IsPublicClient:                 true,
	}, opts)
	cfg.Scopes = appendMissing(cfg.Scopes, "openid", "profile")
	return cfg, nil
}

func telenorRevokeRequests(cfg Config, tokens sessions.Tokens) []*transport.Request {
	var reqs []*transport.Request
	for _, token := range []string{tokens.AccessToken, tokens.RefreshToken} {
		if token == "" {
			continue
		}
		reqs = append(reqs, &transport.Request{
			Method:   http.MethodPost,
			Endpoint: cfg.RevocationEndpoint,
			Params: url.Values{
				oauth2.ParamClientID: {cfg.ClientID},
				oauth2.ParamToken:    {token},
			},
		})
	}
	return reqs
}
