// Package sessions holds the per-account token state used by an authorization
// flow. Every mutation is written through a tokenstore.Store before it becomes
// visible in memory.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/tokenstore"
)

var ErrMissingAccessToken = errors.New("access token is required")

// Tokens is a snapshot of the token material held for an account.
// A nil expiration means the token never expires.
type Tokens struct {
	AccessToken            string
	AccessTokenExpiration  *time.Time
	RefreshToken           string
	RefreshTokenExpiration *time.Time
	IDToken                string
}

// SaveParams describes a token endpoint result to persist.
//
// Expirations are lifetimes relative to the moment Save is called. A nil
// access lifetime stores no expiration. An empty RefreshToken or IDToken keeps
// the stored value.
type SaveParams struct {
	AccessToken           string
	AccessTokenExpiresIn  *time.Duration
	RefreshToken          string
	RefreshTokenExpiresIn *time.Duration
	IDToken               string
}

// Session is the token state of one account.
type Session struct {
	mu        sync.Mutex
	store     tokenstore.Store
	accountID string
	tokens    Tokens
	nowTime   func() time.Time
}

// Option defines a function type to modify the Session instance.
type Option func(*Session)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Session) {
		s.nowTime = nowFunc
	}
}

// Load creates the session for accountID from whatever the store already holds.
func Load(ctx context.Context, store tokenstore.Store, accountID string, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, errors.New("[sessions.Load] token store is required")
	}
	if accountID == "" {
		return nil, errors.New("[sessions.Load] account id is required")
	}

	s := &Session{
		store:     store,
		accountID: accountID,
		nowTime:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory view with the store contents. Useful when
// another process shares the store.
func (s *Session) Reload(ctx context.Context) error {
	tokens, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.tokens = tokens
	s.mu.Unlock()
	return nil
}

func (s *Session) read(ctx context.Context) (Tokens, error) {
	var t Tokens
	texts := map[tokenstore.Kind]*string{
		tokenstore.AccessToken:  &t.AccessToken,
		tokenstore.RefreshToken: &t.RefreshToken,
		tokenstore.IDToken:      &t.IDToken,
	}
	for kind, dst := range texts {
		v, _, err := s.store.Read(ctx, s.accountID, kind)
		if err != nil {
			return Tokens{}, autherrors.Wrapf(err, "[Session.read] %s", kind)
		}
		*dst = v
	}

	times := map[tokenstore.Kind]**time.Time{
		tokenstore.AccessTokenExpiration:  &t.AccessTokenExpiration,
		tokenstore.RefreshTokenExpiration: &t.RefreshTokenExpiration,
	}
	for kind, dst := range times {
		v, ok, err := s.store.Read(ctx, s.accountID, kind)
		if err != nil {
			return Tokens{}, autherrors.Wrapf(err, "[Session.read] %s", kind)
		}
		if !ok {
			continue
		}
		ts, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return Tokens{}, fmt.Errorf("[Session.read] %s: %w: %v", kind, autherrors.ErrCorruptRecord, err)
		}
		*dst = &ts
	}
	return t, nil
}

func (s *Session) AccountID() string { return s.accountID }

// Tokens returns a copy of the current token state.
func (s *Session) Tokens() Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyTokens(s.tokens)
}

func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.AccessToken
}

func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.RefreshToken
}

func (s *Session) IDToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens.IDToken
}

// IsAccessTokenValid reports whether an access token is held and has not expired.
func (s *Session) IsAccessTokenValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid(s.tokens.AccessToken, s.tokens.AccessTokenExpiration)
}

// IsRefreshTokenValid reports whether a refresh token is held and has not expired.
func (s *Session) IsRefreshTokenValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.valid(s.tokens.RefreshToken, s.tokens.RefreshTokenExpiration)
}

func (s *Session) valid(token string, expiration *time.Time) bool {
	if token == "" {
		return false
	}
	return expiration == nil || expiration.After(s.nowTime())
}

// Save persists a token response. See SaveParams for the update rules.
func (s *Session) Save(ctx context.Context, p SaveParams) error {
	if p.AccessToken == "" {
		return ErrMissingAccessToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowTime()
	next := copyTokens(s.tokens)
	changes := []tokenstore.Change{tokenstore.Set(tokenstore.AccessToken, p.AccessToken)}
	next.AccessToken = p.AccessToken

	if p.AccessTokenExpiresIn != nil {
		exp := now.Add(*p.AccessTokenExpiresIn)
		next.AccessTokenExpiration = &exp
		changes = append(changes, tokenstore.Set(tokenstore.AccessTokenExpiration, formatTime(exp)))
	} else {
		next.AccessTokenExpiration = nil
		changes = append(changes, tokenstore.Remove(tokenstore.AccessTokenExpiration))
	}

	if p.RefreshToken != "" {
		next.RefreshToken = p.RefreshToken
		changes = append(changes, tokenstore.Set(tokenstore.RefreshToken, p.RefreshToken))
	}
	switch {
	case p.RefreshTokenExpiresIn != nil:
		exp := now.Add(*p.RefreshTokenExpiresIn)
		next.RefreshTokenExpiration = &exp
		changes = append(changes, tokenstore.Set(tokenstore.RefreshTokenExpiration, formatTime(exp)))
	case p.RefreshToken != "":
		// a rotated refresh token without a lifetime does not inherit the old one
		next.RefreshTokenExpiration = nil
		changes = append(changes, tokenstore.Remove(tokenstore.RefreshTokenExpiration))
	}

	if p.IDToken != "" {
		next.IDToken = p.IDToken
		changes = append(changes, tokenstore.Set(tokenstore.IDToken, p.IDToken))
	}

	if err := tokenstore.Apply(ctx, s.store, s.accountID, changes); err != nil {
		return autherrors.Wrapf(err, "[Session.Save] persist")
	}
	s.tokens = next
	return nil
}

// ClearTokens removes every token kind for the account.
func (s *Session) ClearTokens(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kinds := tokenstore.Kinds()
	changes := make([]tokenstore.Change, 0, len(kinds))
	for _, k := range kinds {
		changes = append(changes, tokenstore.Remove(k))
	}
	if err := tokenstore.Apply(ctx, s.store, s.accountID, changes); err != nil {
		return autherrors.Wrapf(err, "[Session.ClearTokens] persist")
	}
	s.tokens = Tokens{}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func copyTokens(t Tokens) Tokens {
	out := t
	if t.AccessTokenExpiration != nil {
		exp := *t.AccessTokenExpiration
		out.AccessTokenExpiration = &exp
	}
	if t.RefreshTokenExpiration != nil {
		exp := *t.RefreshTokenExpiration
		out.RefreshTokenExpiration = &exp
	}
	return out
}
