package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-auth-client/transport"
)

const wellKnownSuffix = "/.well-known/openid-configuration"

// discoveryClaims are the metadata fields go-oidc does not expose directly.
type discoveryClaims struct {
	Issuer             string `json:"issuer"`
	RevocationEndpoint string `json:"revocation_endpoint"`
	EndSessionEndpoint string `json:"end_session_endpoint"`
	JWKSURI            string `json:"jwks_uri"`
}

// Discover reads the provider's OpenID configuration document and fills every
// endpoint the config leaves empty. Endpoints already set are kept.
//
// The document is read from WellKnownConfigurationEndpoint, resolved against
// BaseURL, when set and from the issuer otherwise. The issuer defaults to the
// document location without its well-known suffix; an explicit Issuer may
// differ from that location but must match the issuer the document reports.
func Discover(ctx context.Context, cfg Config) (Config, error) {
	location, err := discoveryLocation(cfg)
	if err != nil {
		return cfg, err
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = location
	}
	if issuer != location {
		ctx = oidc.InsecureIssuerURLContext(ctx, issuer)
	}

	provider, err := oidc.NewProvider(ctx, location)
	if err != nil {
		return cfg, fmt.Errorf("[Discover] %s: %w", location, err)
	}

	var extra discoveryClaims
	if err := provider.Claims(&extra); err != nil {
		return cfg, fmt.Errorf("[Discover] metadata: %w", err)
	}
	if extra.Issuer != issuer {
		return cfg, fmt.Errorf("[Discover] document issuer %q, expected %q", extra.Issuer, issuer)
	}

	out := cfg.Clone()
	endpoint := provider.Endpoint()
	fill(&out.AuthorizationEndpoint, endpoint.AuthURL)
	fill(&out.TokenEndpoint, endpoint.TokenURL)
	fill(&out.UserInfoEndpoint, provider.UserInfoEndpoint())
	fill(&out.RevocationEndpoint, extra.RevocationEndpoint)
	fill(&out.LogoutEndpoint, extra.EndSessionEndpoint)
	fill(&out.JWKSURL, extra.JWKSURI)
	fill(&out.Issuer, issuer)
	return out, nil
}

// discoveryLocation returns the URL the configuration document hangs off.
func discoveryLocation(cfg Config) (string, error) {
	if cfg.WellKnownConfigurationEndpoint == "" {
		location := cfg.ExpectedIssuer()
		if location == "" {
			return "", errors.New("[Discover] issuer or base url is required")
		}
		return location, nil
	}
	doc, err := transport.ResolveURL(cfg.BaseURL, cfg.WellKnownConfigurationEndpoint)
	if err != nil {
		return "", fmt.Errorf("[Discover] well-known endpoint: %w", err)
	}
	if !strings.HasSuffix(doc, wellKnownSuffix) {
		return "", fmt.Errorf("[Discover] %s is not an openid configuration document", doc)
	}
	return strings.TrimSuffix(doc, wellKnownSuffix), nil
}

func fill(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
