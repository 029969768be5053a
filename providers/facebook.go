package providers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-auth-client/idtoken"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/transport"
)

const (
	facebookAuthzURL    = "https://www.facebook.com/dialog/oauth"
	facebookTokenURL    = "https://graph.facebook.com/oauth/access_token"
	facebookRevokeURL   = "https://www.facebook.com/me/permissions"
	facebookUserInfoURL = "https://graph.facebook.com/v2.2/me"
)

// Facebook answers token requests with either JSON or a form encoded body,
// revokes with DELETE on the permissions edge and names profile fields its
// own way.
func Facebook() Adapter {
	return Adapter{
		Name:                "facebook",
		ParseTokenResponse:  parseFacebookTokenResponse,
		BuildRevokeRequests: facebookRevokeRequests,
		Identity:            IdentityRemote,
		MapClaims:           idtoken.FacebookClaimsFrom,
	}.WithDefaults()
}

// FacebookConfig returns a public client registration for Facebook. The
// redirect URL defaults to fb<clientID>://authorize/.
func FacebookConfig(clientID, redirectURL string, opts ...ConfigOption) Config {
	if redirectURL == "" {
		redirectURL = fmt.Sprintf("fb%s://authorize/", clientID)
	}
	cfg := applyOptions(Config{
		AuthorizationEndpoint: facebookAuthzURL,
		TokenEndpoint:         facebookTokenURL,
		RevocationEndpoint:    facebookRevokeURL,
		UserInfoEndpoint:      facebookUserInfoURL,
		RedirectURL:           redirectURL,
		ClientID:              clientID,
		IsPublicClient:        true,
	}, opts)
	if cfg.IsOpenIDConnect {
		cfg.Scopes = appendMissing(cfg.Scopes, "public_profile")
	}
	return cfg
}

func parseFacebookTokenResponse(resp *transport.Response) (*oauth2.TokenResponse, error) {
	body := strings.TrimSpace(string(resp.Body))
	if strings.HasPrefix(body, "{") {
		return ParseJSONTokenResponse(resp)
	}

	form, err := resp.Form()
	if err != nil {
		return nil, err
	}
	tr := &oauth2.TokenResponse{}
	if v := form.Get(oauth2.ParamAccessToken); v != "" {
		tr.AccessToken = &v
	}
	for _, key := range []string{"expires", "expires_in"} {
		if v := form.Get(key); v != "" {
			var s oauth2.Seconds
			if err := s.UnmarshalJSON([]byte(v)); err != nil {
				return nil, err
			}
			tr.ExpiresIn = &s
			break
		}
	}
	return tr, nil
}

func facebookRevokeRequests(cfg Config, tokens sessions.Tokens) []*transport.Request {
	return []*transport.Request{{
		Method:   http.MethodDelete,
		Endpoint: cfg.RevocationEndpoint,
		Params:   url.Values{oauth2.ParamAccessToken: {tokens.AccessToken}},
		Encoding: transport.EncodingQuery,
	}}
}
