// Package providers describes identity providers: their configuration presets
// and the small set of request and response differences between them. The
// authorization flow is shared; an Adapter only supplies these differences.
package providers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/jrsteele09/go-auth-client/idtoken"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/transport"
)

// IdentitySource is where Login reads the user's claims from.
type IdentitySource int

const (
	// IdentityRemote calls the userinfo endpoint with the access token.
	IdentityRemote IdentitySource = iota
	// IdentityAccessToken decodes the access token, which is a JWT.
	IdentityAccessToken
	// IdentityIDToken decodes the stored id token.
	IdentityIDToken
)

func (s IdentitySource) String() string {
	switch s {
	case IdentityRemote:
		return "userinfo"
	case IdentityAccessToken:
		return "access_token"
	case IdentityIDToken:
		return "id_token"
	}
	return fmt.Sprintf("IdentitySource(%d)", int(s))
}

// Adapter is the capability table of one provider. Nil functions fall back to
// the generic OAuth2 behaviour.
type Adapter struct {
	Name string

	BuildRefreshRequest  func(cfg Config, refreshToken string) *transport.Request
	BuildExchangeRequest func(cfg Config, code, codeVerifier string) *transport.Request
	ParseTokenResponse   func(resp *transport.Response) (*oauth2.TokenResponse, error)
	BuildRevokeRequests  func(cfg Config, tokens sessions.Tokens) []*transport.Request

	// RevokeBestEffort ignores revocation request failures and clears the
	// session regardless.
	RevokeBestEffort bool
	// LogoutBeforeRevoke ends the provider SSO session through LogoutEndpoint
	// before revoking tokens.
	LogoutBeforeRevoke bool

	Identity  IdentitySource
	MapClaims func(map[string]any) *idtoken.IdentityClaims

	// DefaultParams returns authorization parameters added when the caller has
	// not set them.
	DefaultParams func(cfg Config) map[string]string
}

// WithDefaults fills every nil capability with the generic one.
func (a Adapter) WithDefaults() Adapter {
	if a.Name == "" {
		a.Name = "generic"
	}
	if a.BuildRefreshRequest == nil {
		a.BuildRefreshRequest = GenericRefreshRequest
	}
	if a.BuildExchangeRequest == nil {
		a.BuildExchangeRequest = GenericExchangeRequest
	}
	if a.ParseTokenResponse == nil {
		a.ParseTokenResponse = ParseJSONTokenResponse
	}
	if a.BuildRevokeRequests == nil {
		a.BuildRevokeRequests = GenericRevokeRequests
	}
	if a.MapClaims == nil {
		a.MapClaims = idtoken.ClaimsFrom
	}
	if a.DefaultParams == nil {
		a.DefaultParams = func(Config) map[string]string { return nil }
	}
	return a
}

// Generic is plain RFC 6749 behaviour with userinfo lookups.
func Generic() Adapter {
	return Adapter{Name: "generic"}.WithDefaults()
}

// GenericRefreshRequest posts grant_type=refresh_token to the refresh endpoint.
func GenericRefreshRequest(cfg Config, refreshToken string) *transport.Request {
	params := url.Values{
		oauth2.ParamRefreshToken: {refreshToken},
		oauth2.ParamClientID:     {cfg.ClientID},
		oauth2.ParamGrantType:    {string(oauth2.RefreshTokenGrant)},
	}
	if cfg.ClientSecret != "" {
		params.Set(oauth2.ParamClientSecret, cfg.ClientSecret)
	}
	return &transport.Request{Method: http.MethodPost, Endpoint: cfg.RefreshURL(), Params: params}
}

// GenericExchangeRequest posts grant_type=authorization_code to the token endpoint.
func GenericExchangeRequest(cfg Config, code, codeVerifier string) *transport.Request {
	params := url.Values{
		oauth2.ParamCode:        {code},
		oauth2.ParamClientID:    {cfg.ClientID},
		oauth2.ParamRedirectURI: {cfg.RedirectURL},
		oauth2.ParamGrantType:   {string(oauth2.AuthorizationCodeGrant)},
	}
	if cfg.ClientSecret != "" {
		params.Set(oauth2.ParamClientSecret, cfg.ClientSecret)
	}
	if cfg.Audience != "" {
		params.Set(oauth2.ParamAudience, cfg.Audience)
	}
	if codeVerifier != "" {
		params.Set(oauth2.ParamCodeVerifier, codeVerifier)
	}
	return &transport.Request{Method: http.MethodPost, Endpoint: cfg.TokenEndpoint, Params: params}
}

// GenericRevokeRequests posts the access token to the revocation endpoint.
func GenericRevokeRequests(cfg Config, tokens sessions.Tokens) []*transport.Request {
	return []*transport.Request{{
		Method:   http.MethodPost,
		Endpoint: cfg.RevocationEndpoint,
		Params:   url.Values{oauth2.ParamToken: {tokens.AccessToken}},
	}}
}

// ParseJSONTokenResponse decodes a JSON token endpoint body.
func ParseJSONTokenResponse(resp *transport.Response) (*oauth2.TokenResponse, error) {
	var tr oauth2.TokenResponse
	if err := resp.JSON(&tr); err != nil {
		return nil, err
	}
	return &tr, nil
}
