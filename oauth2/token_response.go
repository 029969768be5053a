package oauth2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// TokenResponse is the body returned by a token endpoint for the
// authorization_code and refresh_token grants (RFC 6749 section 5.1).
// Pointer fields are nil when the provider omitted them.
type TokenResponse struct {
	// AccessToken is the bearer credential. A response without it is unusable.
	AccessToken *string `json:"access_token,omitempty"`

	// IdToken is the OpenID Connect identity token, present when openid was requested.
	IdToken *string `json:"id_token,omitempty"`

	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the access token lifetime in seconds. Absent means it does not expire.
	ExpiresIn *Seconds `json:"expires_in,omitempty"`

	// RefreshToken is only sent when the provider issues or rotates one.
	RefreshToken *string `json:"refresh_token,omitempty"`

	// RefreshExpiresIn is the refresh token lifetime in seconds (Keycloak).
	RefreshExpiresIn *Seconds `json:"refresh_expires_in,omitempty"`

	Scope string `json:"scope,omitempty"`
}

// AccessTokenLifetime returns ExpiresIn as a duration, nil when absent.
func (t *TokenResponse) AccessTokenLifetime() *time.Duration {
	return t.ExpiresIn.Duration()
}

// RefreshTokenLifetime returns RefreshExpiresIn as a duration, nil when absent.
func (t *TokenResponse) RefreshTokenLifetime() *time.Duration {
	return t.RefreshExpiresIn.Duration()
}

// Seconds is a lifetime that providers send either as a JSON number or as a
// numeric string.
type Seconds int64

// maxSeconds is the longest lifetime a time.Duration can hold.
const maxSeconds = Seconds(math.MaxInt64 / int64(time.Second))

func (s *Seconds) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		b = []byte(str)
	}
	n, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid lifetime %q: %w", b, err)
	}
	switch {
	case n > float64(maxSeconds):
		*s = maxSeconds + 1
	case n < -float64(maxSeconds):
		*s = -maxSeconds
	default:
		*s = Seconds(n)
	}
	return nil
}

// Duration converts s, returning nil for a nil receiver or a lifetime too long
// to represent.
func (s *Seconds) Duration() *time.Duration {
	if s == nil || *s > maxSeconds {
		return nil
	}
	d := time.Duration(max(*s, -maxSeconds)) * time.Second
	return &d
}
