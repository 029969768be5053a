package config

import (
	"fmt"

	"github.com/pkg/errors"
)

// Token store backends accepted in TOKEN_STORE.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type Store struct {
	Kind       string `env:"TOKEN_STORE" envDefault:"sqlite"`
	SQLitePath string `env:"TOKEN_STORE_PATH" envDefault:"./data/tokens.db"`
	RedisAddr  string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Passphrase string `env:"TOKEN_STORE_PASSPHRASE"`
	Salt       string `env:"TOKEN_STORE_SALT" envDefault:"authclient-token-store"`
}

var _ StoreConfig = Store{}

func (s Store) validate() error {
	switch s.Kind {
	case StoreMemory:
		return nil
	case StoreSQLite, StoreRedis:
		if s.Passphrase == "" {
			return errors.New("[config.Store] TOKEN_STORE_PASSPHRASE is required for durable stores")
		}
		return nil
	}
	return fmt.Errorf("[config.Store] unknown token store %q", s.Kind)
}

func (s Store) GetStore() string { return s.Kind }

func (s Store) GetSQLitePath() string { return s.SQLitePath }

func (s Store) GetRedisAddr() string { return s.RedisAddr }

// GetPassphrase seals stored tokens; see tokenstore.NewPassphraseSealer.
func (s Store) GetPassphrase() string { return s.Passphrase }

func (s Store) GetSalt() string { return s.Salt }
