package auth_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/auth"
	"github.com/jrsteele09/go-auth-client/idtoken/idtokentest"
	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/providers"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/jrsteele09/go-auth-client/transport"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	testClientID    = "X"
	testRedirectURL = "com.example.app://oauth2callback"
	testCode        = "CODE"
	waitTimeout     = 2 * time.Second
)

// Provider endpoints recorded by the fake provider.
const (
	callExchange = "exchange"
	callRefresh  = "refresh"
	callRevoke   = "revoke"
	callLogout   = "logout"
	callUserInfo = "userinfo"
)

type fakeResponse struct {
	status      int
	body        string
	contentType string
}

// fakeProvider is an httptest identity provider recording every call.
type fakeProvider struct {
	srv *httptest.Server

	mu        sync.Mutex
	calls     map[string]int
	forms     map[string][]url.Values
	auth      map[string][]string
	responses map[string]fakeResponse
	held      string // call that waits on gate
	gate      chan struct{}
	started   chan struct{}
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{
		calls:     map[string]int{},
		forms:     map[string][]url.Values{},
		auth:      map[string][]string{},
		responses: map[string]fakeResponse{},
	}
	p.srv = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.srv.Close)
	return p
}

func (p *fakeProvider) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	form, _ := url.ParseQuery(string(body))
	for k, v := range r.URL.Query() {
		form[k] = v
	}

	var call string
	switch r.URL.Path {
	case "/token":
		call = callExchange
		if form.Get("grant_type") == "refresh_token" {
			call = callRefresh
		}
	case "/revoke":
		call = callRevoke
	case "/logout":
		call = callLogout
	case "/userinfo":
		call = callUserInfo
	default:
		http.NotFound(w, r)
		return
	}

	p.mu.Lock()
	p.calls[call]++
	p.forms[call] = append(p.forms[call], form)
	p.auth[call] = append(p.auth[call], r.Header.Get("Authorization"))
	resp, ok := p.responses[call]
	var gate, started chan struct{}
	if call == p.held && p.gate != nil {
		gate, started = p.gate, p.started
		p.held, p.gate, p.started = "", nil, nil
	}
	p.mu.Unlock()

	if gate != nil {
		close(started)
		<-gate
	}

	if !ok {
		resp = fakeResponse{status: http.StatusOK, body: `{}`}
	}
	ct := resp.contentType
	if ct == "" {
		ct = "application/json"
	}
	w.Header().Set("Content-Type", ct)
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func (p *fakeProvider) respond(call string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[call] = fakeResponse{status: status, body: body}
}

// hold blocks the next request for call until release is called. started is
// closed once the request arrives.
func (p *fakeProvider) hold(call string) (started <-chan struct{}, release func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	gate, arrived := make(chan struct{}), make(chan struct{})
	p.held, p.gate, p.started = call, gate, arrived
	return arrived, func() { close(gate) }
}

func (p *fakeProvider) count(call string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[call]
}

func (p *fakeProvider) totalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		n += c
	}
	return n
}

func (p *fakeProvider) lastForm(call string) url.Values {
	p.mu.Lock()
	defer p.mu.Unlock()
	forms := p.forms[call]
	if len(forms) == 0 {
		return nil
	}
	return forms[len(forms)-1]
}

func (p *fakeProvider) lastAuth(call string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	a := p.auth[call]
	if len(a) == 0 {
		return ""
	}
	return a[len(a)-1]
}

// fakePresenter hands every presentation to the test.
type fakePresenter struct {
	presented chan auth.Presentation
	err       error
}

func (p *fakePresenter) Present(_ context.Context, pr auth.Presentation) error {
	if p.err != nil {
		return p.err
	}
	p.presented <- pr
	return nil
}

type recordedOp struct {
	provider, operation, outcome string
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (r *fakeRecorder) RecordOperation(provider, operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{provider, operation, outcome})
}

func (r *fakeRecorder) has(operation, outcome string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, op := range r.ops {
		if op.operation == operation && op.outcome == outcome {
			return true
		}
	}
	return false
}

// testFixture holds all test dependencies
type testFixture struct {
	provider  *fakeProvider
	store     *tokenstore.MemoryStore
	presenter *fakePresenter
	recorder  *fakeRecorder
	now       time.Time
	clockMu   sync.Mutex
	cfg       providers.Config
	adapter   providers.Adapter
	flow      *auth.Flow
}

type fixtureOption func(*testFixture)

func withConfig(mutate func(*providers.Config)) fixtureOption {
	return func(f *testFixture) { mutate(&f.cfg) }
}

func withAdapter(a providers.Adapter) fixtureOption {
	return func(f *testFixture) { f.adapter = a }
}

// setupTestFixture creates a flow against a fresh fake provider
func setupTestFixture(t *testing.T, opts ...fixtureOption) *testFixture {
	t.Helper()

	provider := newFakeProvider(t)
	f := &testFixture{
		provider:  provider,
		store:     tokenstore.NewMemoryStore(),
		presenter: &fakePresenter{presented: make(chan auth.Presentation, 4)},
		recorder:  &fakeRecorder{},
		now:       time.Now(),
		adapter:   providers.Generic(),
		cfg: providers.Config{
			BaseURL:               provider.srv.URL,
			AuthorizationEndpoint: "authorize",
			TokenEndpoint:         "token",
			RevocationEndpoint:    "revoke",
			UserInfoEndpoint:      "userinfo",
			LogoutEndpoint:        "logout",
			RedirectURL:           testRedirectURL,
			ClientID:              testClientID,
			Scopes:                []string{"openid", "profile"},
			IsPublicClient:        true,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.flow = f.newFlow(t)
	return f
}

func (f *testFixture) newFlow(t *testing.T, opts ...auth.Option) *auth.Flow {
	t.Helper()
	opts = append([]auth.Option{
		auth.WithNowTime(f.clock),
		auth.WithRecorder(f.recorder),
		auth.WithLogger(zerolog.Nop()),
	}, opts...)
	flow, err := auth.New(context.Background(), f.cfg, f.adapter, auth.Dependencies{
		Store:     f.store,
		Transport: transport.NewHTTPClient(f.cfg.BaseURL),
		Presenter: f.presenter,
	}, opts...)
	require.NoError(t, err)
	return flow
}

func (f *testFixture) clock() time.Time {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	return f.now
}

func (f *testFixture) advance(d time.Duration) {
	f.clockMu.Lock()
	defer f.clockMu.Unlock()
	f.now = f.now.Add(d)
}

// seed stores tokens for the flow's account.
func (f *testFixture) seed(t *testing.T, p sessions.SaveParams) {
	t.Helper()
	require.NoError(t, f.flow.Session().Save(context.Background(), p))
}

func (f *testFixture) storedTokens(t *testing.T) sessions.Tokens {
	t.Helper()
	s, err := sessions.Load(context.Background(), f.store, f.flow.AccountID(), sessions.WithNowTime(f.clock))
	require.NoError(t, err)
	return s.Tokens()
}

// awaitPresentation waits for the flow to show the authorization page.
func (f *testFixture) awaitPresentation(t *testing.T) auth.Presentation {
	t.Helper()
	select {
	case p := <-f.presenter.presented:
		return p
	case <-time.After(waitTimeout):
		t.Fatal("authorization was never presented")
		return auth.Presentation{}
	}
}

// redirect builds the provider's redirect back to the app.
func redirect(params map[string]string) *url.URL {
	u, _ := url.Parse(testRedirectURL)
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u
}

type result struct {
	token string
	err   error
}

// start runs op on a goroutine and returns its result channel.
func start(op func() (string, error)) <-chan result {
	ch := make(chan result, 1)
	go func() {
		token, err := op()
		ch <- result{token, err}
	}()
	return ch
}

func await(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(waitTimeout):
		t.Fatal("operation did not complete")
		return result{}
	}
}

func (f *testFixture) idToken(t *testing.T, mutate func(map[string]any)) string {
	t.Helper()
	claims := idtokentest.Claims(f.cfg.BaseURL, testClientID, time.Now())
	if mutate != nil {
		mutate(claims)
	}
	raw, err := idtokentest.NewHMACSigner("test-secret").Sign(claims)
	require.NoError(t, err)
	return raw
}

func seconds(n int) *time.Duration {
	return utils.Ptr(time.Duration(n) * time.Second)
}

// newAPIServer returns the URL of a resource server recording the
// Authorization header it receives.
func newAPIServer(t *testing.T, gotAuth *string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}
