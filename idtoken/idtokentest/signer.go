// Package idtokentest mints identity tokens for tests.
package idtokentest

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer creates signed JWTs from claims
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)
}

// HMACSigner signs with HS256. go-oidc key sets cannot verify it, so it suits
// tests that decode without signature checks.
type HMACSigner struct {
	secret []byte
}

func NewHMACSigner(secret string) *HMACSigner {
	return &HMACSigner{secret: []byte(secret)}
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signed, nil
}

// RSASigner signs with RS256 using a freshly generated key.
type RSASigner struct {
	key   *rsa.PrivateKey
	keyID string
}

func NewRSASigner(keyID string) (*RSASigner, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate RSA key")
	}
	return &RSASigner{key: key, keyID: keyID}, nil
}

func (r *RSASigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = r.keyID
	signed, err := token.SignedString(r.key)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with RSA key")
	}
	return signed, nil
}

// PublicKey is the verification key, usable in an oidc.StaticKeySet.
func (r *RSASigner) PublicKey() crypto.PublicKey {
	return &r.key.PublicKey
}

// Claims returns a claim set that passes validation for issuer and audience at now.
func Claims(issuer, audience string, now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":   issuer,
		"aud":   []string{audience},
		"sub":   "user-123",
		"email": "john.doe@example.com",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}
