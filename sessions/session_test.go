package sessions_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/utils"
	"github.com/jrsteele09/go-auth-client/sessions"
	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/stretchr/testify/require"
)

const testAccountID = "ACCOUNT_FOR_CLIENTID_client-1"

type testFixture struct {
	store   *tokenstore.MemoryStore
	now     time.Time
	session *sessions.Session
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		store: tokenstore.NewMemoryStore(),
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	var err error
	f.session, err = sessions.Load(context.Background(), f.store, testAccountID, sessions.WithNowTime(f.clock))
	require.NoError(t, err)
	return f
}

func (f *testFixture) clock() time.Time { return f.now }

func (f *testFixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *testFixture) stored(t *testing.T, kind tokenstore.Kind) (string, bool) {
	t.Helper()
	v, ok, err := f.store.Read(context.Background(), testAccountID, kind)
	require.NoError(t, err)
	return v, ok
}

func seconds(n int) *time.Duration {
	return utils.Ptr(time.Duration(n) * time.Second)
}

func TestValidityPredicates(t *testing.T) {
	t.Run("empty session is not valid", func(t *testing.T) {
		f := setupTestFixture(t)
		require.False(t, f.session.IsAccessTokenValid())
		require.False(t, f.session.IsRefreshTokenValid())
	})

	t.Run("token without expiration never expires", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.session.Save(context.Background(), sessions.SaveParams{AccessToken: "CAAK4k", RefreshToken: "RT"}))
		f.advance(100 * 365 * 24 * time.Hour)
		require.True(t, f.session.IsAccessTokenValid())
		require.True(t, f.session.IsRefreshTokenValid())
	})

	t.Run("expiration is strict", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.session.Save(context.Background(), sessions.SaveParams{
			AccessToken:           "AT",
			AccessTokenExpiresIn:  seconds(60),
			RefreshToken:          "RT",
			RefreshTokenExpiresIn: seconds(120),
		}))

		f.advance(59 * time.Second)
		require.True(t, f.session.IsAccessTokenValid())

		f.advance(time.Second)
		require.False(t, f.session.IsAccessTokenValid(), "expiry equal to now is expired")
		require.True(t, f.session.IsRefreshTokenValid())

		f.advance(60 * time.Second)
		require.False(t, f.session.IsRefreshTokenValid())
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("missing access token is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.session.Save(ctx, sessions.SaveParams{RefreshToken: "RT"})
		require.ErrorIs(t, err, sessions.ErrMissingAccessToken)
	})

	t.Run("expirations are anchored to the call time", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.session.Save(ctx, sessions.SaveParams{AccessToken: "AT", AccessTokenExpiresIn: seconds(23)}))

		tokens := f.session.Tokens()
		require.NotNil(t, tokens.AccessTokenExpiration)
		require.True(t, tokens.AccessTokenExpiration.Equal(f.now.Add(23*time.Second)))

		v, ok := f.stored(t, tokenstore.AccessTokenExpiration)
		require.True(t, ok)
		require.Equal(t, "2024-05-01T12:00:23Z", v)
	})

	t.Run("absent refresh and id tokens are kept", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.session.Save(ctx, sessions.SaveParams{
			AccessToken:           "AT1",
			AccessTokenExpiresIn:  seconds(10),
			RefreshToken:          "RT1",
			RefreshTokenExpiresIn: seconds(1000),
			IDToken:               "ID1",
		}))
		require.NoError(t, f.session.Save(ctx, sessions.SaveParams{AccessToken: "AT2"}))

		tokens := f.session.Tokens()
		require.Equal(t, "AT2", tokens.AccessToken)
		require.Nil(t, tokens.AccessTokenExpiration, "access expiration is always overwritten")
		require.Equal(t, "RT1", tokens.RefreshToken)
		require.NotNil(t, tokens.RefreshTokenExpiration)
		require.Equal(t, "ID1", tokens.IDToken)

		_, ok := f.stored(t, tokenstore.AccessTokenExpiration)
		require.False(t, ok)
		v, _ := f.stored(t, tokenstore.RefreshToken)
		require.Equal(t, "RT1", v)
	})

	t.Run("rotated refresh token without lifetime drops old expiration", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.session.Save(ctx, sessions.SaveParams{
			AccessToken: "AT1", RefreshToken: "RT1", RefreshTokenExpiresIn: seconds(5),
		}))
		require.NoError(t, f.session.Save(ctx, sessions.SaveParams{AccessToken: "AT2", RefreshToken: "RT2"}))

		f.advance(time.Hour)
		require.Equal(t, "RT2", f.session.RefreshToken())
		require.True(t, f.session.IsRefreshTokenValid())
	})

	t.Run("refresh lifetime without new token updates expiration", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.session.Save(ctx, sessions.SaveParams{AccessToken: "AT1", RefreshToken: "RT1"}))
		require.NoError(t, f.session.Save(ctx, sessions.SaveParams{AccessToken: "AT2", RefreshTokenExpiresIn: seconds(30)}))

		require.Equal(t, "RT1", f.session.RefreshToken())
		f.advance(31 * time.Second)
		require.False(t, f.session.IsRefreshTokenValid())
	})
}

func TestClearTokens(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	require.NoError(t, f.session.Save(ctx, sessions.SaveParams{
		AccessToken:           "AT",
		AccessTokenExpiresIn:  seconds(60),
		RefreshToken:          "RT",
		RefreshTokenExpiresIn: seconds(600),
		IDToken:               "ID",
	}))

	for i := 0; i < 2; i++ {
		require.NoError(t, f.session.ClearTokens(ctx))
		require.Equal(t, sessions.Tokens{}, f.session.Tokens())
		for _, kind := range tokenstore.Kinds() {
			_, ok := f.stored(t, kind)
			require.False(t, ok, kind)
		}
	}
	require.Empty(t, f.store.Accounts())
}

func TestLoadRestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	require.NoError(t, f.session.Save(ctx, sessions.SaveParams{
		AccessToken:          "AT",
		AccessTokenExpiresIn: seconds(60),
		RefreshToken:         "RT",
		IDToken:              "ID",
	}))

	restored, err := sessions.Load(ctx, f.store, testAccountID, sessions.WithNowTime(f.clock))
	require.NoError(t, err)
	want, got := f.session.Tokens(), restored.Tokens()
	require.Equal(t, want.AccessToken, got.AccessToken)
	require.Equal(t, want.RefreshToken, got.RefreshToken)
	require.Equal(t, want.IDToken, got.IDToken)
	require.NotNil(t, got.AccessTokenExpiration)
	require.True(t, want.AccessTokenExpiration.Equal(*got.AccessTokenExpiration))
	require.Nil(t, got.RefreshTokenExpiration)
	require.True(t, restored.IsAccessTokenValid())
	require.Equal(t, testAccountID, restored.AccountID())
}

func TestLoadRejectsCorruptExpiration(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	require.NoError(t, store.Write(ctx, testAccountID, tokenstore.AccessTokenExpiration, "tomorrow"))

	_, err := sessions.Load(ctx, store, testAccountID)
	require.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	_, err := sessions.Load(context.Background(), nil, testAccountID)
	require.Error(t, err)
	_, err = sessions.Load(context.Background(), tokenstore.NewMemoryStore(), "")
	require.Error(t, err)
}

// failingStore rejects every write after construction.
type failingStore struct {
	*tokenstore.MemoryStore
	fail bool
}

var errStoreDown = errors.New("store unavailable")

func (s *failingStore) Apply(ctx context.Context, accountID string, changes []tokenstore.Change) error {
	if s.fail {
		return errStoreDown
	}
	return s.MemoryStore.Apply(ctx, accountID, changes)
}

func TestFailedWriteLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryStore: tokenstore.NewMemoryStore()}
	session, err := sessions.Load(ctx, store, testAccountID)
	require.NoError(t, err)
	require.NoError(t, session.Save(ctx, sessions.SaveParams{AccessToken: "AT1", RefreshToken: "RT1"}))

	store.fail = true
	err = session.Save(ctx, sessions.SaveParams{AccessToken: "AT2"})
	require.ErrorIs(t, err, errStoreDown)
	require.Equal(t, "AT1", session.AccessToken())

	err = session.ClearTokens(ctx)
	require.ErrorIs(t, err, errStoreDown)
	require.Equal(t, "RT1", session.RefreshToken())
}
