package main

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/internal/config"
	"github.com/jrsteele09/go-auth-client/providers"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// openStore opens the configured token store. The returned closer is never nil.
func openStore(ctx context.Context, c config.StoreConfig) (tokenstore.Store, io.Closer, error) {
	if c.GetStore() == config.StoreMemory {
		return tokenstore.NewMemoryStore(), io.NopCloser(nil), nil
	}

	sealer, err := tokenstore.NewPassphraseSealer(c.GetPassphrase(), []byte(c.GetSalt()))
	if err != nil {
		return nil, nil, errors.Wrap(err, "[openStore] sealer")
	}

	switch c.GetStore() {
	case config.StoreSQLite:
		if err := os.MkdirAll(filepath.Dir(c.GetSQLitePath()), 0o700); err != nil {
			return nil, nil, errors.Wrap(err, "[openStore] data folder")
		}
		store, err := tokenstore.OpenSQLite(c.GetSQLitePath(), sealer)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: c.GetRedisAddr()})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, errors.Wrap(err, "[openStore] redis ping")
		}
		store, err := tokenstore.NewRedisStore(client, sealer)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client, nil
	}
	return nil, nil, errors.Errorf("[openStore] unknown token store %q", c.GetStore())
}

// providerConfig builds the registration and adapter for the configured provider.
func providerConfig(ctx context.Context, c config.ProviderConfig) (providers.Config, providers.Adapter, error) {
	var opts []providers.ConfigOption
	if scopes := c.GetScopes(); len(scopes) > 0 {
		opts = append(opts, providers.WithScopes(scopes...))
	}
	if claims := c.GetClaims(); len(claims) > 0 {
		opts = append(opts, providers.WithClaims(claims...))
	}
	if secret := c.GetClientSecret(); secret != "" {
		opts = append(opts, providers.WithClientSecret(secret))
	}
	if c.GetUsePKCE() {
		opts = append(opts, providers.WithPKCE())
	}

	var (
		cfg     providers.Config
		adapter providers.Adapter
		err     error
	)
	switch c.GetProvider() {
	case config.ProviderGoogle:
		cfg, adapter = providers.GoogleConfig(c.GetClientID(), c.GetRedirectURL(), append(opts, providers.WithOpenIDConnect())...), providers.Google()
	case config.ProviderFacebook:
		cfg, adapter = providers.FacebookConfig(c.GetClientID(), c.GetRedirectURL(), opts...), providers.Facebook()
	case config.ProviderKeycloak:
		cfg, adapter = providers.KeycloakConfig(c.GetClientID(), c.GetKeycloakHost(), c.GetKeycloakRealm(), c.GetRedirectURL(), opts...), providers.Keycloak()
	case config.ProviderConnect:
		cfg, err = providers.TelenorConnectConfig(providers.ConnectID, c.GetStaging(), c.GetClientID(), c.GetRedirectURL(), opts...)
		adapter = providers.TelenorConnect()
	case config.ProviderTelenor:
		cfg, err = providers.TelenorConnectConfig(providers.TelenorID, c.GetStaging(), c.GetClientID(), c.GetRedirectURL(), opts...)
		adapter = providers.TelenorConnect()
	default:
		cfg = providers.Config{
			RedirectURL:    c.GetRedirectURL(),
			ClientID:       c.GetClientID(),
			IsPublicClient: true,
		}
		for _, opt := range opts {
			opt(&cfg)
		}
		adapter = providers.Generic()
	}
	if err != nil {
		return providers.Config{}, providers.Adapter{}, err
	}

	if c.GetBaseURL() != "" {
		cfg.BaseURL = c.GetBaseURL()
	}
	if c.GetIssuer() != "" {
		cfg.Issuer = c.GetIssuer()
	}
	if c.GetDiscover() || cfg.AuthorizationEndpoint == "" {
		if cfg, err = providers.Discover(ctx, cfg); err != nil {
			return providers.Config{}, providers.Adapter{}, err
		}
	}
	return cfg, adapter, nil
}

// flowOptions adds signature verification when requested.
func flowOptions(c config.ProviderConfig, cfg providers.Config) []auth.Option {
	if c.GetVerifySignatures() && cfg.JWKSURL != "" {
		return []auth.Option{auth.WithRemoteKeySet()}
	}
	return nil
}
