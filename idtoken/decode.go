package idtoken

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
)

// Decode returns the payload claims of a JWT without checking its signature.
func Decode(raw string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}

// Verifier decodes id tokens, checking the signature first when a key set is
// configured.
type Verifier struct {
	keySet oidc.KeySet
}

// NewVerifier creates a Verifier. A nil keySet decodes without signature checks.
func NewVerifier(keySet oidc.KeySet) *Verifier {
	return &Verifier{keySet: keySet}
}

// Claims returns the verified payload of raw.
func (v *Verifier) Claims(ctx context.Context, raw string) (map[string]any, error) {
	if v == nil || v.keySet == nil {
		return Decode(raw)
	}

	payload, err := v.keySet.VerifySignature(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("[Verifier.Claims] signature: %w", err)
	}
	claims := map[string]any{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}
