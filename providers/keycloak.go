package providers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/transport"
)

const offlineAccessScope = "offline_access"

// Keycloak reads identity from the access token JWT and revokes by logging the
// refresh token out.
func Keycloak() Adapter {
	return Adapter{
		Name:                "keycloak",
		BuildRevokeRequests: keycloakRevokeRequests,
		Identity:            IdentityAccessToken,
		DefaultParams: func(cfg Config) map[string]string {
			if cfg.HasScope(offlineAccessScope) {
				return map[string]string{oauth2.ParamPrompt: "login consent"}
			}
			return nil
		},
	}.WithDefaults()
}

// KeycloakConfig returns a public client registration in a realm on host. The
// realm defaults to "<clientID>-realm".
func KeycloakConfig(clientID, host, realm, redirectURL string, opts ...ConfigOption) Config {
	if realm == "" {
		realm = clientID + "-realm"
	}
	base := strings.TrimSuffix(host, "/") + "/auth"
	realmPath := fmt.Sprintf("realms/%s/protocol/openid-connect", realm)
	return applyOptions(Config{
		BaseURL:                        base,
		AuthorizationEndpoint:          realmPath + "/auth",
		TokenEndpoint:                  realmPath + "/token",
		RevocationEndpoint:             realmPath + "/logout",
		UserInfoEndpoint:               realmPath + "/userinfo",
		JWKSURL:                        base + "/" + realmPath + "/certs",
		WellKnownConfigurationEndpoint: fmt.Sprintf("realms/%s/.well-known/openid-configuration", realm),
		Issuer:                         fmt.Sprintf("%s/realms/%s", base, realm),
		RedirectURL:                    redirectURL,
		ClientID:                       clientID,
		IsPublicClient:                 true,
	}, opts)
}

func keycloakRevokeRequests(cfg Config, tokens sessions.Tokens) []*transport.Request {
	params := url.Values{oauth2.ParamClientID: {cfg.ClientID}}
	if tokens.RefreshToken != "" {
		params.Set(oauth2.ParamRefreshToken, tokens.RefreshToken)
	}
	if cfg.ClientSecret != "" {
		params.Set(oauth2.ParamClientSecret, cfg.ClientSecret)
	}
	return []*transport.Request{{
		Method:   http.MethodPost,
		Endpoint: cfg.RevocationEndpoint,
		Params:   params,
	}}
}
