package providers

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const defaultAccountIDPrefix = "ACCOUNT_FOR_CLIENTID_"

var ErrInvalidConfig = errors.New("invalid provider config")

// Config describes one OAuth2 / OpenID Connect client registration at a provider.
//
// Endpoints may be absolute or relative to BaseURL. A zero IsPublicClient means
// a confidential client: the authorization code is handed back to the caller
// instead of being exchanged on the device.
type Config struct {
	BaseURL                        string
	AuthorizationEndpoint          string
	TokenEndpoint                  string
	RefreshEndpoint                string // defaults to TokenEndpoint
	RevocationEndpoint             string
	WellKnownConfigurationEndpoint string
	UserInfoEndpoint               string
	LogoutEndpoint                 string
	JWKSURL                        string
	Issuer                         string // defaults to BaseURL

	RedirectURL  string
	ClientID     string
	ClientSecret string
	Audience     string

	Scopes         []string
	Claims         []string
	OptionalParams map[string]string
	AccountID      string

	IsOpenIDConnect bool
	IsPublicClient  bool
	IsWebView       bool
	UsePKCE         bool
	UseNonce        bool
}

// DefaultAccountID is the account id used when a config does not name one.
func DefaultAccountID(clientID string) string {
	return defaultAccountIDPrefix + clientID
}

// Validate reports the first missing required field.
func (c Config) Validate() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("%w: client id is required", ErrInvalidConfig)
	case c.AuthorizationEndpoint == "":
		return fmt.Errorf("%w: authorization endpoint is required", ErrInvalidConfig)
	case c.TokenEndpoint == "":
		return fmt.Errorf("%w: token endpoint is required", ErrInvalidConfig)
	case c.RedirectURL == "":
		return fmt.Errorf("%w: redirect url is required", ErrInvalidConfig)
	}
	return nil
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	c.Scopes = slices.Clone(c.Scopes)
	c.Claims = slices.Clone(c.Claims)
	c.OptionalParams = maps.Clone(c.OptionalParams)
	return c
}

// RefreshURL is the endpoint used for the refresh_token grant.
func (c Config) RefreshURL() string {
	if c.RefreshEndpoint != "" {
		return c.RefreshEndpoint
	}
	return c.TokenEndpoint
}

// ExpectedIssuer is the iss value id tokens must carry.
func (c Config) ExpectedIssuer() string {
	if c.Issuer != "" {
		return c.Issuer
	}
	return c.BaseURL
}

// ScopeString joins the scopes with spaces as sent on the wire.
func (c Config) ScopeString() string {
	return strings.Join(c.Scopes, " ")
}

// HasScope reports whether scope was requested.
func (c Config) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// ConfigOption adjusts a provider preset.
type ConfigOption func(*Config)

func WithScopes(scopes ...string) ConfigOption {
	return func(c *Config) {
		c.Scopes = append(c.Scopes, scopes...)
	}
}

func WithClaims(claims ...string) ConfigOption {
	return func(c *Config) {
		c.Claims = append(c.Claims, claims...)
	}
}

func WithClientSecret(secret string) ConfigOption {
	return func(c *Config) {
		c.ClientSecret = secret
		c.IsPublicClient = false
	}
}

func WithAccountID(accountID string) ConfigOption {
	return func(c *Config) {
		c.AccountID = accountID
	}
}

func WithAudience(audience string) ConfigOption {
	return func(c *Config) {
		c.Audience = audience
	}
}

// WithOptionalParam adds an extra authorization query parameter such as
// prompt, max_age, ui_locales, login_hint or acr_values.
func WithOptionalParam(key, value string) ConfigOption {
	return func(c *Config) {
		if c.OptionalParams == nil {
			c.OptionalParams = map[string]string{}
		}
		c.OptionalParams[key] = value
	}
}

// WithOpenIDConnect marks the registration as OpenID Connect.
func WithOpenIDConnect() ConfigOption {
	return func(c *Config) {
		c.IsOpenIDConnect = true
	}
}

func WithWebView() ConfigOption {
	return func(c *Config) {
		c.IsWebView = true
	}
}

func WithPKCE() ConfigOption {
	return func(c *Config) {
		c.UsePKCE = true
	}
}

func WithNonce() ConfigOption {
	return func(c *Config) {
		c.UseNonce = true
	}
}

func applyOptions(c Config, opts []ConfigOption) Config {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func appendMissing(scopes []string, add ...string) []string {
	for _, s := range add {
		if !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	return scopes
}
