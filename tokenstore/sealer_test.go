package tokenstore_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-auth-client/tokenstore"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) *tokenstore.Sealer {
	t.Helper()
	key, err := tokenstore.GenerateKey()
	require.NoError(t, err)
	sealer, err := tokenstore.NewSealer(key)
	require.NoError(t, err)
	return sealer
}

func TestSealer(t *testing.T) {
	sealer := newTestSealer(t)

	t.Run("round trip", func(t *testing.T) {
		sealed, err := sealer.Seal(testAccountID, tokenstore.RefreshToken, "RT1")
		require.NoError(t, err)
		require.NotContains(t, sealed, "RT1")

		plain, err := sealer.Open(testAccountID, tokenstore.RefreshToken, sealed)
		require.NoError(t, err)
		require.Equal(t, "RT1", plain)
	})

	t.Run("values are bound to their key", func(t *testing.T) {
		sealed, err := sealer.Seal(testAccountID, tokenstore.RefreshToken, "RT1")
		require.NoError(t, err)

		_, err = sealer.Open(testAccountID, tokenstore.AccessToken, sealed)
		require.ErrorIs(t, err, tokenstore.ErrSealedValue)

		_, err = sealer.Open("another-account", tokenstore.RefreshToken, sealed)
		require.ErrorIs(t, err, tokenstore.ErrSealedValue)
	})

	t.Run("sealing twice gives different ciphertexts", func(t *testing.T) {
		a, err := sealer.Seal(testAccountID, tokenstore.AccessToken, "same")
		require.NoError(t, err)
		b, err := sealer.Seal(testAccountID, tokenstore.AccessToken, "same")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("wrong key fails to open", func(t *testing.T) {
		sealed, err := sealer.Seal(testAccountID, tokenstore.AccessToken, "AT")
		require.NoError(t, err)
		_, err = newTestSealer(t).Open(testAccountID, tokenstore.AccessToken, sealed)
		require.ErrorIs(t, err, tokenstore.ErrSealedValue)
	})

	t.Run("garbage fails to open", func(t *testing.T) {
		_, err := sealer.Open(testAccountID, tokenstore.AccessToken, "not base64!")
		require.ErrorIs(t, err, tokenstore.ErrSealedValue)
		_, err = sealer.Open(testAccountID, tokenstore.AccessToken, "AAAA")
		require.ErrorIs(t, err, tokenstore.ErrSealedValue)
	})
}

func TestNewSealerValidation(t *testing.T) {
	_, err := tokenstore.NewSealer([]byte("short"))
	require.ErrorIs(t, err, tokenstore.ErrInvalidSecret)

	_, err = tokenstore.NewPassphraseSealer("", []byte(strings.Repeat("s", 16)))
	require.ErrorIs(t, err, tokenstore.ErrInvalidSecret)

	_, err = tokenstore.NewPassphraseSealer("hunter2", []byte("salt"))
	require.ErrorIs(t, err, tokenstore.ErrInvalidSecret)
}

func TestPassphraseSealerIsDeterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a, err := tokenstore.NewPassphraseSealer("correct horse", salt)
	require.NoError(t, err)
	b, err := tokenstore.NewPassphraseSealer("correct horse", salt)
	require.NoError(t, err)

	sealed, err := a.Seal(testAccountID, tokenstore.IDToken, "jwt")
	require.NoError(t, err)
	plain, err := b.Open(testAccountID, tokenstore.IDToken, sealed)
	require.NoError(t, err)
	require.Equal(t, "jwt", plain)
}
