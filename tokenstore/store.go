// Package tokenstore persists OAuth token material keyed by account identifier and
// token kind. The session layer is written against the Store interface only; the
// backend (volatile memory, encrypted sqlite file, shared redis) is chosen by the
// application at construction time.
package tokenstore

import (
	"context"
	"fmt"
)

// Kind identifies one piece of token material stored for an account.
type Kind string

const (
	AccessToken            Kind = "access_token"
	RefreshToken           Kind = "refresh_token"
	AccessTokenExpiration  Kind = "access_token_expiration"
	RefreshTokenExpiration Kind = "refresh_token_expiration"
	IDToken                Kind = "id_token"
)

// Kinds returns every kind a store must be able to hold.
func Kinds() []Kind {
	return []Kind{AccessToken, RefreshToken, AccessTokenExpiration, RefreshTokenExpiration, IDToken}
}

// Valid reports whether k belongs to the closed set returned by Kinds.
func (k Kind) Valid() bool {
	switch k {
	case AccessToken, RefreshToken, AccessTokenExpiration, RefreshTokenExpiration, IDToken:
		return true
	}
	return false
}

// Store is a key-value store for token material.
// Read reports ok=false (and no error) when nothing is stored for the key.
// Delete of a missing key is not an error.
type Store interface {
	Read(ctx context.Context, accountID string, kind Kind) (value string, ok bool, err error)
	Write(ctx context.Context, accountID string, kind Kind, value string) error
	Delete(ctx context.Context, accountID string, kind Kind) error
}

// Change is a single write or delete applied as part of a batch.
type Change struct {
	Kind   Kind
	Value  string
	Delete bool
}

// Set returns a change that writes value for kind.
func Set(kind Kind, value string) Change {
	return Change{Kind: kind, Value: value}
}

// Remove returns a change that deletes kind.
func Remove(kind Kind) Change {
	return Change{Kind: kind, Delete: true}
}

// Batcher is implemented by stores that can apply several changes to one account
// atomically.
type Batcher interface {
	Apply(ctx context.Context, accountID string, changes []Change) error
}

// Apply writes changes to s. Stores implementing Batcher apply them atomically,
// other stores get them one at a time in order.
func Apply(ctx context.Context, s Store, accountID string, changes []Change) error {
	if b, ok := s.(Batcher); ok {
		return b.Apply(ctx, accountID, changes)
	}
	for _, c := range changes {
		var err error
		if c.Delete {
			err = s.Delete(ctx, accountID, c.Kind)
		} else {
			err = s.Write(ctx, accountID, c.Kind, c.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func validateKey(accountID string, kind Kind) error {
	if accountID == "" {
		return fmt.Errorf("%w: account id cannot be empty", ErrInvalidKey)
	}
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown token kind %q", ErrInvalidKey, kind)
	}
	return nil
}

func validateChanges(accountID string, changes []Change) error {
	for _, c := range changes {
		if err := validateKey(accountID, c.Kind); err != nil {
			return err
		}
	}
	return nil
}
