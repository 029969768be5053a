// Package auth drives the OAuth2 authorization code flow for one account: it
// reuses a cached access token, refreshes it, or runs an interactive
// authorization and exchanges the returned code. Provider differences come
// from a providers.Adapter; token state lives in a sessions.Session.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-auth-client/idtoken"
	"github.com/jrsteele09/go-auth-client/providers"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// AuthorizationState tracks the single interactive attempt a flow may have in flight.
type AuthorizationState int

const (
	StateUnknown AuthorizationState = iota
	StatePendingExternalApproval
	StateApproved
)

func (s AuthorizationState) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StatePendingExternalApproval:
		return "pending_external_approval"
	case StateApproved:
		return "approved"
	}
	return fmt.Sprintf("AuthorizationState(%d)", int(s))
}

// Dependencies holds the collaborators a Flow requires.
type Dependencies struct {
	Store     tokenstore.Store // Token persistence, shared across flows
	Transport transport.Client // HTTP exchanges with the provider
	Presenter Presenter        // Shows the authorization page
}

// Flow is the authorization state machine of one account.
type Flow struct {
	cfg       providers.Config
	adapter   providers.Adapter
	session   *sessions.Session
	transport transport.Client
	presenter Presenter
	verifier  *idtoken.Verifier
	keySet    oidc.KeySet
	remoteKey bool
	logger    zerolog.Logger
	recorder  Recorder
	nowTime   func() time.Time
	newState  func() string

	mu      sync.Mutex
	state   AuthorizationState
	pending *pendingAuthorization

	refreshGroup singleflight.Group
}

// Option defines a function type to modify the Flow instance.
type Option func(*Flow)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(f *Flow) {
		f.nowTime = nowFunc
	}
}

// WithLogger replaces the global zerolog logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Flow) {
		f.logger = logger
	}
}

// WithRecorder reports operation outcomes, e.g. to metrics.
func WithRecorder(r Recorder) Option {
	return func(f *Flow) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithKeySet verifies id token signatures against keySet.
func WithKeySet(keySet oidc.KeySet) Option {
	return func(f *Flow) {
		f.keySet = keySet
	}
}

// WithRemoteKeySet verifies id token signatures against the config's JWKS URL.
func WithRemoteKeySet() Option {
	return func(f *Flow) {
		f.remoteKey = true
	}
}

// WithStateGenerator overrides the state nonce generator (primarily for testing)
func WithStateGenerator(gen func() string) Option {
	return func(f *Flow) {
		f.newState = gen
	}
}

// New creates the flow for cfg and loads the account's stored session.
// Missing account ids default to providers.DefaultAccountID and adapter
// default parameters are merged into cfg.OptionalParams without overriding
// caller values. The caller's cfg is not modified.
func New(ctx context.Context, cfg providers.Config, adapter providers.Adapter, deps Dependencies, opts ...Option) (*Flow, error) {
	if deps.Store == nil {
		return nil, errors.New("[auth.New] token store is required")
	}
	if deps.Transport == nil {
		return nil, errors.New("[auth.New] transport is required")
	}
	if deps.Presenter == nil {
		return nil, errors.New("[auth.New] presenter is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "[auth.New]")
	}

	cfg = cfg.Clone()
	if cfg.AccountID == "" {
		cfg.AccountID = providers.DefaultAccountID(cfg.ClientID)
	}
	adapter = adapter.WithDefaults()
	for k, v := range adapter.DefaultParams(cfg) {
		if cfg.OptionalParams == nil {
			cfg.OptionalParams = map[string]string{}
		}
		if _, ok := cfg.OptionalParams[k]; !ok {
			cfg.OptionalParams[k] = v
		}
	}

	f := &Flow{
		cfg:       cfg,
		adapter:   adapter,
		transport: deps.Transport,
		presenter: deps.Presenter,
		logger:    log.Logger,
		recorder:  nopRecorder{},
		nowTime:   time.Now,
		newState:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}

	if f.remoteKey && f.keySet == nil {
		if cfg.JWKSURL == "" {
			return nil, errors.New("[auth.New] remote key set requires a JWKS URL")
		}
		f.keySet = oidc.NewRemoteKeySet(context.WithoutCancel(ctx), cfg.JWKSURL)
	}
	f.verifier = idtoken.NewVerifier(f.keySet)
	f.logger = f.logger.With().
		Str("account_id", cfg.AccountID).
		Str("provider", adapter.Name).
		Logger()

	session, err := sessions.Load(ctx, deps.Store, cfg.AccountID, sessions.WithNowTime(f.now))
	if err != nil {
		return nil, errors.Wrap(err, "[auth.New] load session")
	}
	f.session = session
	return f, nil
}

func (f *Flow) now() time.Time { return f.nowTime() }

// Config returns a copy of the effective configuration.
func (f *Flow) Config() providers.Config { return f.cfg.Clone() }

func (f *Flow) AccountID() string { return f.cfg.AccountID }

func (f *Flow) Adapter() providers.Adapter { return f.adapter }

// Session exposes the account's token state.
func (f *Flow) Session() *sessions.Session { return f.session }

// State returns the interactive authorization state.
func (f *Flow) State() AuthorizationState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// IsAuthorized reports whether a non-expired access token is cached.
func (f *Flow) IsAuthorized() bool {
	return f.session.IsAccessTokenValid()
}

// AuthorizationFields returns the bearer header for the cached access token,
// or nil when none is cached.
func (f *Flow) AuthorizationFields() map[string]string {
	token := f.session.AccessToken()
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

func (f *Flow) record(operation, outcome string) {
	f.recorder.RecordOperation(f.adapter.Name, operation, outcome)
}

func (f *Flow) recordErr(operation string, err error) {
	f.record(operation, outcomeOf(err))
}
