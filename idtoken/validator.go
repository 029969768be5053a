// Package idtoken decodes OpenID Connect identity tokens and validates their
// issuer, audience and lifetime claims.
package idtoken

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/jrsteele09/go-auth-client/internal/utils"
)

// Validate checks decoded id token claims. Rules run in a fixed order and the
// first failure is returned as a *ValidationError. When serverTime is nil the
// local clock decides expiry.
func Validate(claims map[string]any, expectedIssuer, expectedAudience string, serverTime *time.Time) error {
	now := time.Now()
	if serverTime != nil {
		now = *serverTime
	}

	iss, ok := claims["iss"].(string)
	if !ok {
		return invalid(ErrMissingIssuer, "")
	}
	if iss != expectedIssuer {
		return invalid(ErrIncorrectIssuer, fmt.Sprintf("got %q, want %q", iss, expectedIssuer))
	}

	aud, ok := audience(claims["aud"])
	if !ok {
		return invalid(ErrMissingAudience, "aud is not a list")
	}
	if !slices.Contains(aud, expectedAudience) {
		return invalid(ErrMissingAudience, fmt.Sprintf("%q not in aud", expectedAudience))
	}
	for _, a := range aud {
		if a != expectedAudience {
			return invalid(ErrUntrustedAudiences, fmt.Sprintf("untrusted audience %q", a))
		}
	}

	if len(aud) > 1 {
		azp, ok := utils.String(claims["azp"])
		if !ok {
			return invalid(ErrAuthorizedPartyMissing, "")
		}
		if azp != expectedAudience {
			return invalid(ErrAuthorizedPartyMismatch, fmt.Sprintf("got %q", azp))
		}
	}

	exp, ok := utils.Float64(claims["exp"])
	if !ok || math.IsNaN(exp) || math.IsInf(exp, 0) {
		return invalid(ErrExpirationTimeMissing, "")
	}
	sec, frac := math.Modf(exp)
	if expiry := time.Unix(int64(sec), int64(frac*1e9)); !expiry.After(now) {
		return invalid(ErrExpired, fmt.Sprintf("expired at %s", expiry.UTC().Format(time.RFC3339)))
	}

	if _, ok := claims["iat"]; !ok || claims["iat"] == nil {
		return invalid(ErrMissingIssueTime, "")
	}
	return nil
}

// audience accepts only JSON arrays. Non-string members are kept in printed
// form so they count as untrusted.
func audience(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, len(list))
		for i, a := range list {
			if s, ok := a.(string); ok {
				out[i] = s
				continue
			}
			out[i] = fmt.Sprint(a)
		}
		return out, true
	}
	return nil, false
}

// CheckNonce compares the nonce claim with the value sent in the authorization
// request. An empty expected nonce skips the check.
func CheckNonce(claims map[string]any, expected string) error {
	if expected == "" {
		return nil
	}
	if got, _ := claims["nonce"].(string); got != expected {
		return ErrNonceMismatch
	}
	return nil
}
