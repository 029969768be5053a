// Package config loads the authclient command's settings from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	ProviderConfig
	StoreConfig
}

type EnvConfig interface {
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetListenAddr() string
}

type ProviderConfig interface {
	GetProvider() string
	GetBaseURL() string
	GetIssuer() string
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetScopes() []string
	GetClaims() []string
	GetKeycloakHost() string
	GetKeycloakRealm() string
	GetStaging() bool
	GetDiscover() bool
	GetUsePKCE() bool
	GetVerifySignatures() bool
}

type StoreConfig interface {
	GetStore() string
	GetSQLitePath() string
	GetRedisAddr() string
	GetPassphrase() string
	GetSalt() string
}

type mainConfig struct {
	EnvVars
	Provider
	Store
}

// New reads every setting from the environment.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, errors.Wrap(err, "[config.New] parse env")
	}
	if err := c.Provider.validate(); err != nil {
		return nil, err
	}
	if err := c.Store.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
