// Package token issues and verifies the RS256 bearer tokens that carry
// identity between services. Only the auth service holds the private key;
// every other service verifies with the public half.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails verification:
// bad signature, expired, malformed encoding, or invalid identity claims.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the payload carried by every token.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// validateIdentity guards against nonsensical identity values ending up in
// (or being accepted from) a signed token.
func (c *Claims) validateIdentity() error {
	if c.UserID <= 0 {
		return fmt.Errorf("user_id must be a positive integer")
	}
	if strings.TrimSpace(c.Username) == "" {
		return fmt.Errorf("username must be a non-empty string")
	}
	return nil
}

// Issuer signs tokens with an RSA private key.
type Issuer struct {
	key *rsa.PrivateKey
	ttl time.Duration
}

// NewIssuer builds an issuer with the given signing key and token lifetime.
func NewIssuer(key *rsa.PrivateKey, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{key: key, ttl: ttl}
}

// Issue builds and signs a token for the user. Timestamps are UTC epoch
// seconds per RFC 7519 NumericDate.
func (i *Issuer) Issue(userID int64, username string) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if err := claims.validateIdentity(); err != nil {
		return "", time.Time{}, err
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(i.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verifier validates tokens with the paired RSA public key. Verification is
// pure computation: no I/O, no side effects, identical claims on every call.
type Verifier struct {
	key       *rsa.PublicKey
	clockSkew time.Duration
}

// NewVerifier builds a verifier. clockSkew is the leeway applied to expiry
// and issued-at checks to absorb drift between issuing and verifying hosts.
func NewVerifier(key *rsa.PublicKey, clockSkew time.Duration) *Verifier {
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Verifier{key: key, clockSkew: clockSkew}
}

// Verify checks the signature, expiry, and identity claims of a token.
// All failure modes surface as ErrInvalidToken so callers can map them to a
// single authentication error without leaking the reason.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		// Pinning the method prevents algorithm-confusion attacks.
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.IssuedAt == nil {
		return nil, ErrInvalidToken
	}
	if err := claims.validateIdentity(); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// FromAuthorizationHeader extracts the raw token from a
// "Bearer <token>" header value. Returns "" when the header is absent,
// malformed, or empty after trimming.
func FromAuthorizationHeader(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
