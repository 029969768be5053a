package providers

const (
	googleBaseURL      = "https://accounts.google.com"
	googleUserInfoURL  = "https://www.googleapis.com/plus/v1/people/me/openIdConnect"
	googleAuthzPath    = "o/oauth2/v2/auth"
	googleTokenPath    = "o/oauth2/token"
	googleRevokePath   = "o/oauth2/revoke"
	googleWellKnownURL = "https://accounts.google.com/.well-known/openid-configuration"
)

// Google uses the generic protocol and reads identity from userinfo.
func Google() Adapter {
	return Adapter{Name: "google", Identity: IdentityRemote}.WithDefaults()
}

// GoogleConfig returns a public client registration for Google. OpenID Connect
// registrations get the openid, email and profile scopes.
func GoogleConfig(clientID, redirectURL string, opts ...ConfigOption) Config {
	cfg := applyOptions(Config{
		BaseURL:                        googleBaseURL,
		AuthorizationEndpoint:          googleAuthzPath,
		TokenEndpoint:                  googleTokenPath,
		RevocationEndpoint:             googleRevokePath,
		WellKnownConfigurationEndpoint: googleWellKnownURL,
		UserInfoEndpoint:               googleUserInfoURL,
		Issuer:                         googleBaseURL,
		RedirectURL:                    redirectURL,
		ClientID:                       clientID,
		IsPublicClient:                 true,
	}, opts)
	if cfg.IsOpenIDConnect {
		cfg.Scopes = appendMissing(cfg.Scopes, "openid", "email", "profile")
	}
	return cfg
}
