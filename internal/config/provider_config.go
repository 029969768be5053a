package config

import (
	"fmt"
	"slices"

	"github.com/pkg/errors"
)

// Provider names accepted in AUTH_PROVIDER.
const (
	ProviderGeneric  = "generic"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
	ProviderKeycloak = "keycloak"
	ProviderConnect  = "connectid"
	ProviderTelenor  = "telenorid"
)

var providerNames = []string{ProviderGeneric, ProviderGoogle, ProviderFacebook, ProviderKeycloak, ProviderConnect, ProviderTelenor}

type Provider struct {
	Name             string   `env:"AUTH_PROVIDER" envDefault:"generic"`
	BaseURL          string   `env:"AUTH_BASE_URL"`
	Issuer           string   `env:"AUTH_ISSUER"`
	ClientID         string   `env:"AUTH_CLIENT_ID"`
	ClientSecret     string   `env:"AUTH_CLIENT_SECRET"`
	RedirectURL      string   `env:"AUTH_REDIRECT_URL" envDefault:"http://127.0.0.1:8085/callback"`
	Scopes           []string `env:"AUTH_SCOPES" envSeparator:" "`
	Claims           []string `env:"AUTH_CLAIMS" envSeparator:","`
	KeycloakHost     string   `env:"KEYCLOAK_HOST"`
	KeycloakRealm    string   `env:"KEYCLOAK_REALM"`
	Staging          bool     `env:"AUTH_STAGING" envDefault:"true"`
	Discover         bool     `env:"AUTH_DISCOVER"`
	UsePKCE          bool     `env:"AUTH_PKCE" envDefault:"true"`
	VerifySignatures bool     `env:"AUTH_VERIFY_SIGNATURES"`
}

var _ ProviderConfig = Provider{}

func (p Provider) validate() error {
	if !slices.Contains(providerNames, p.Name) {
		return fmt.Errorf("[config.Provider] unknown provider %q", p.Name)
	}
	if p.ClientID == "" {
		return errors.New("[config.Provider] AUTH_CLIENT_ID is required")
	}
	if p.Name == ProviderGeneric && p.BaseURL == "" && p.Issuer == "" {
		return errors.New("[config.Provider] AUTH_BASE_URL or AUTH_ISSUER is required for the generic provider")
	}
	if p.Name == ProviderKeycloak && p.KeycloakHost == "" {
		return errors.New("[config.Provider] KEYCLOAK_HOST is required")
	}
	return nil
}

func (p Provider) GetProvider() string { return p.Name }

func (p Provider) GetBaseURL() string { return p.BaseURL }

func (p Provider) GetIssuer() string { return p.Issuer }

func (p Provider) GetClientID() string { return p.ClientID }

func (p Provider) GetClientSecret() string { return p.ClientSecret }

func (p Provider) GetRedirectURL() string { return p.RedirectURL }

func (p Provider) GetScopes() []string { return slices.Clone(p.Scopes) }

func (p Provider) GetClaims() []string { return slices.Clone(p.Claims) }

func (p Provider) GetKeycloakHost() string { return p.KeycloakHost }

func (p Provider) GetKeycloakRealm() string { return p.KeycloakRealm }

// GetStaging selects the staging environment of the telco providers.
func (p Provider) GetStaging() bool { return p.Staging }

// GetDiscover fills missing endpoints from the issuer's discovery document.
func (p Provider) GetDiscover() bool { return p.Discover }

func (p Provider) GetUsePKCE() bool { return p.UsePKCE }

func (p Provider) GetVerifySignatures() bool { return p.VerifySignatures }
