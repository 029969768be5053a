package tokenstore

import (
	"context"
	"errors"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "authclient:tokens:"

// RedisStore keeps sealed token values in redis so several processes can share
// one account's session.
type RedisStore struct {
	client redis.UniversalClient
	sealer *Sealer
	prefix string
}

var (
	_ Store   = (*RedisStore)(nil)
	_ Batcher = (*RedisStore)(nil)
)

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix overrides the prefix added to every key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

// NewRedisStore creates a RedisStore on an existing client. The caller owns the
// client and closes it.
func NewRedisStore(client redis.UniversalClient, sealer *Sealer, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("[NewRedisStore] redis client is required")
	}
	if sealer == nil {
		return nil, errors.New("[NewRedisStore] sealer is required")
	}
	r := &RedisStore{client: client, sealer: sealer, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *RedisStore) key(accountID string, kind Kind) string {
	return r.prefix + accountID + ":" + string(kind)
}

func (r *RedisStore) Read(ctx context.Context, accountID string, kind Kind) (string, bool, error) {
	if err := validateKey(accountID, kind); err != nil {
		return "", false, err
	}

	sealed, err := r.client.Get(ctx, r.key(accountID, kind)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, autherrors.Wrapf(err, "[RedisStore.Read] %s", kind)
	}

	value, err := r.sealer.Open(accountID, kind, sealed)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *RedisStore) Write(ctx context.Context, accountID string, kind Kind, value string) error {
	return r.Apply(ctx, accountID, []Change{Set(kind, value)})
}

func (r *RedisStore) Delete(ctx context.Context, accountID string, kind Kind) error {
	return r.Apply(ctx, accountID, []Change{Remove(kind)})
}

// Apply implements Batcher with a MULTI/EXEC pipeline.
func (r *RedisStore) Apply(ctx context.Context, accountID string, changes []Change) error {
	if err := validateChanges(accountID, changes); err != nil {
		return err
	}

	sealed := make([]string, len(changes))
	for i, c := range changes {
		if c.Delete {
			continue
		}
		v, err := r.sealer.Seal(accountID, c.Kind, c.Value)
		if err != nil {
			return err
		}
		sealed[i] = v
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, c := range changes {
			if c.Delete {
				pipe.Del(ctx, r.key(accountID, c.Kind))
				continue
			}
			pipe.Set(ctx, r.key(accountID, c.Kind), sealed[i], 0)
		}
		return nil
	})
	if err != nil {
		return autherrors.Wrapf(err, "[RedisStore.Apply] exec")
	}
	return nil
}
