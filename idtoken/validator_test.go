package idtoken_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-client/idtoken"
	autherrors "github.com/jrsteele09/go-auth-client/internal/errors"
	"github.com/stretchr/testify/require"
)

const (
	issuer   = "https://accounts.example.com"
	clientID = "X"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func validClaims() map[string]any {
	return map[string]any{
		"iss": issuer,
		"aud": []any{clientID},
		"exp": float64(now.Add(time.Hour).Unix()),
		"iat": float64(now.Unix()),
	}
}

func with(overrides map[string]any, remove ...string) map[string]any {
	c := validClaims()
	for k, v := range overrides {
		c[k] = v
	}
	for _, k := range remove {
		delete(c, k)
	}
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		claims map[string]any
		want   error
	}{
		{name: "valid", claims: validClaims()},
		{name: "valid with string slice audience", claims: with(map[string]any{"aud": []string{clientID}})},
		{name: "valid multi audience with azp", claims: with(map[string]any{"aud": []any{clientID, clientID}, "azp": clientID})},
		{name: "exp as numeric string", claims: with(map[string]any{"exp": "1714568400"})},
		{name: "exp as json number", claims: with(map[string]any{"exp": json.Number("1714568400")})},
		{name: "missing iss", claims: with(nil, "iss"), want: idtoken.ErrMissingIssuer},
		{name: "empty iss", claims: with(map[string]any{"iss": ""}), want: idtoken.ErrIncorrectIssuer},
		{name: "non string iss", claims: with(map[string]any{"iss": 42.0}), want: idtoken.ErrMissingIssuer},
		{name: "wrong iss", claims: with(map[string]any{"iss": "https://evil.example.com"}), want: idtoken.ErrIncorrectIssuer},
		{name: "missing aud", claims: with(nil, "aud"), want: idtoken.ErrMissingAudience},
		{name: "aud not a list", claims: with(map[string]any{"aud": clientID}), want: idtoken.ErrMissingAudience},
		{name: "aud without expected", claims: with(map[string]any{"aud": []any{"other"}}), want: idtoken.ErrMissingAudience},
		{name: "extra audience", claims: with(map[string]any{"aud": []any{clientID, "Y"}}), want: idtoken.ErrUntrustedAudiences},
		{name: "non string audience member", claims: with(map[string]any{"aud": []any{clientID, 7.0}}), want: idtoken.ErrUntrustedAudiences},
		{name: "multi audience without azp", claims: with(map[string]any{"aud": []any{clientID, clientID}}), want: idtoken.ErrAuthorizedPartyMissing},
		{name: "multi audience wrong azp", claims: with(map[string]any{"aud": []any{clientID, clientID}, "azp": "Y"}), want: idtoken.ErrAuthorizedPartyMismatch},
		{name: "missing exp", claims: with(nil, "exp"), want: idtoken.ErrExpirationTimeMissing},
		{name: "unparseable exp", claims: with(map[string]any{"exp": "soon"}), want: idtoken.ErrExpirationTimeMissing},
		{name: "expired", claims: with(map[string]any{"exp": float64(now.Add(-time.Second).Unix())}), want: idtoken.ErrExpired},
		{name: "fractional exp ahead of now", claims: with(map[string]any{"exp": float64(now.Unix()) + 0.5})},
		{name: "fractional exp behind now", claims: with(map[string]any{"exp": float64(now.Unix()) - 0.5}), want: idtoken.ErrExpired},
		{name: "expires exactly now", claims: with(map[string]any{"exp": float64(now.Unix())}), want: idtoken.ErrExpired},
		{name: "missing iat", claims: with(nil, "iat"), want: idtoken.ErrMissingIssueTime},
		{name: "first failure wins", claims: with(map[string]any{"aud": []any{"other"}}, "exp", "iat"), want: idtoken.ErrMissingAudience},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := idtoken.Validate(tt.claims, issuer, clientID, &now)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.want)

			var verr *idtoken.ValidationError
			require.ErrorAs(t, err, &verr)
			require.Equal(t, tt.want, verr.Kind)
		})
	}
}

func TestValidateExpiredIsTokenExpired(t *testing.T) {
	err := idtoken.Validate(with(map[string]any{"exp": float64(now.Unix())}), issuer, clientID, &now)
	require.ErrorIs(t, err, autherrors.ErrTokenExpired)
}

func TestValidateUsesServerTime(t *testing.T) {
	claims := validClaims()

	later := now.Add(2 * time.Hour)
	require.ErrorIs(t, idtoken.Validate(claims, issuer, clientID, &later), idtoken.ErrExpired)

	earlier := now.Add(-time.Hour)
	require.NoError(t, idtoken.Validate(claims, issuer, clientID, &earlier))
}

func TestValidateFallsBackToLocalClock(t *testing.T) {
	claims := with(map[string]any{"exp": float64(time.Now().Add(-time.Minute).Unix())})
	require.ErrorIs(t, idtoken.Validate(claims, issuer, clientID, nil), idtoken.ErrExpired)

	claims = with(map[string]any{"exp": float64(time.Now().Add(time.Minute).Unix())})
	require.NoError(t, idtoken.Validate(claims, issuer, clientID, nil))
}

func TestCheckNonce(t *testing.T) {
	require.NoError(t, idtoken.CheckNonce(map[string]any{}, ""))
	require.NoError(t, idtoken.CheckNonce(map[string]any{"nonce": "n-1"}, "n-1"))
	require.ErrorIs(t, idtoken.CheckNonce(map[string]any{"nonce": "n-2"}, "n-1"), idtoken.ErrNonceMismatch)
	require.ErrorIs(t, idtoken.CheckNonce(map[string]any{}, "n-1"), idtoken.ErrNonceMismatch)
}
