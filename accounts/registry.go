// Package accounts keeps the authorization flows of several provider accounts
// and routes redirects and app lifecycle events to them.
package accounts

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"sync"

	"github.com/jrsteele09/go-auth-client/auth"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/jrsteele09/go-auth-client/oauth2"
	"github.com/jrsteele09/go-auth-client/providers"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/jrsteele09/go-auth-client/transport"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	ErrAccountExists   = errors.New("account already registered")
	ErrAccountNotFound = autherrors.Wrapf(autherrors.ErrNotFound, "account")
)

// TransportFactory builds the transport for a provider base URL.
type TransportFactory func(baseURL string) transport.Client

// Registry is a thread-safe set of flows keyed by account id. All flows share
// one token store and presenter.
type Registry struct {
	store        tokenstore.Store
	presenter    auth.Presenter
	newTransport TransportFactory
	flowOpts     []auth.Option

	mu    sync.RWMutex
	flows map[string]*auth.Flow
}

// Option configures a Registry.
type Option func(*Registry)

// WithTransport replaces the default net/http transport.
func WithTransport(factory TransportFactory) Option {
	return func(r *Registry) {
		r.newTransport = factory
	}
}

// WithFlowOptions applies opts to every flow the registry creates.
func WithFlowOptions(opts ...auth.Option) Option {
	return func(r *Registry) {
		r.flowOpts = append(r.flowOpts, opts...)
	}
}

// New creates an empty registry.
func New(store tokenstore.Store, presenter auth.Presenter, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, pkgerrors.New("[accounts.New] token store is required")
	}
	if presenter == nil {
		return nil, pkgerrors.New("[accounts.New] presenter is required")
	}
	r := &Registry{
		store:     store,
		presenter: presenter,
		newTransport: func(baseURL string) transport.Client {
			return transport.NewHTTPClient(baseURL)
		},
		flows: make(map[string]*auth.Flow),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Add creates the flow for cfg and registers it under its account id.
func (r *Registry) Add(ctx context.Context, cfg providers.Config, adapter providers.Adapter, opts ...auth.Option) (*auth.Flow, error) {
	accountID := accountIDOf(cfg)
	if _, ok := r.ByConfig(cfg); ok {
		return nil, pkgerrors.Wrapf(ErrAccountExists, "[Registry.Add] %s", accountID)
	}

	flow, err := auth.New(ctx, cfg, adapter, auth.Dependencies{
		Store:     r.store,
		Transport: r.newTransport(cfg.BaseURL),
		Presenter: r.presenter,
	}, append(append([]auth.Option{}, r.flowOpts...), opts...)...)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Registry.Add]")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.flows[flow.AccountID()]; exists {
		return nil, pkgerrors.Wrapf(ErrAccountExists, "[Registry.Add] %s", accountID)
	}
	r.flows[flow.AccountID()] = flow
	log.Debug().Str("account_id", flow.AccountID()).Str("provider", adapter.Name).Msg("account registered")
	return flow, nil
}

// Get returns the flow of accountID.
func (r *Registry) Get(accountID string) (*auth.Flow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[accountID]
	if !ok {
		return nil, pkgerrors.Wrapf(ErrAccountNotFound, "[Registry.Get] %s", accountID)
	}
	return flow, nil
}

// ByClientID returns the first flow, in account id order, registered for clientID.
func (r *Registry) ByClientID(clientID string) (*auth.Flow, bool) {
	for _, flow := range r.List() {
		if flow.Config().ClientID == clientID {
			return flow, true
		}
	}
	return nil, false
}

// ByConfig returns the flow cfg would be registered under.
func (r *Registry) ByConfig(cfg providers.Config) (*auth.Flow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	flow, ok := r.flows[accountIDOf(cfg)]
	return flow, ok
}

// Remove unregisters accountID. Stored tokens are left in place; revoke first
// to drop them.
func (r *Registry) Remove(accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flows[accountID]; !ok {
		return pkgerrors.Wrapf(ErrAccountNotFound, "[Registry.Remove] %s", accountID)
	}
	delete(r.flows, accountID)
	return nil
}

// List returns the registered flows ordered by account id.
func (r *Registry) List() []*auth.Flow {
	r.mu.RLock()
	ids := make([]string, 0, len(r.flows))
	for id := range r.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	flows := make([]*auth.Flow, len(ids))
	for i, id := range ids {
		flows[i] = r.flows[id]
	}
	r.mu.RUnlock()
	return flows
}

// HandleRedirect delivers u to the pending flow whose state nonce it carries
// and reports whether one accepted it. A redirect matching no nonce goes to
// the single flow pending on its URL, if there is exactly one.
func (r *Registry) HandleRedirect(u *url.URL) bool {
	if u == nil {
		return false
	}
	state := u.Query().Get(oauth2.ParamState)

	var candidates []*auth.Flow
	for _, flow := range r.List() {
		if !flow.IsRedirect(u) {
			continue
		}
		pending, ok := flow.PendingState()
		if !ok {
			continue
		}
		if state != "" && pending == state {
			return flow.HandleRedirect(u)
		}
		candidates = append(candidates, flow)
	}

	switch len(candidates) {
	case 0:
		return false
	case 1:
		return candidates[0].HandleRedirect(u)
	}
	log.Warn().Int("pending", len(candidates)).Msg("redirect state matches no pending account")
	return false
}

// Resumed forwards app foregrounding to every flow.
func (r *Registry) Resumed() {
	for _, flow := range r.List() {
		flow.Resumed()
	}
}

func accountIDOf(cfg providers.Config) string {
	if cfg.AccountID != "" {
		return cfg.AccountID
	}
	return providers.DefaultAccountID(cfg.ClientID)
}
