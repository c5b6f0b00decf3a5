package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrInvalidToken covers bad signature, wrong algorithm, malformed input and
// expiry. Expired tokens are rejected here, not downstream.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified payload of a token.
type Claims struct {
	Subject   string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Codec signs and verifies claim sets with the RS256 key pair matching the
// token kind. It holds no state beyond the key material and is safe for
// concurrent use.
type Codec struct {
	keys *KeyStore
	now  func() time.Time
}

func NewCodec(keys *KeyStore) *Codec {
	return &Codec{keys: keys, now: time.Now}
}

// Issue signs a fresh claim set for subject. Every call generates a new
// unique token id (jti), which is the revocation key for this token.
func (c *Codec) Issue(subject string, kind Kind, ttl time.Duration) (string, *Claims, error) {
	key, err := c.keys.signingKey(kind)
	if err != nil {
		return "", nil, err
	}

	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", nil, err
	}

	return signed, &Claims{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// Verify checks the signature against the public key for kind and validates
// expiry. Any failure is reported as ErrInvalidToken.
func (c *Codec) Verify(tokenString string, kind Kind) (*Claims, error) {
	key, err := c.keys.verifyKey(kind)
	if err != nil {
		return nil, err
	}

	parsed := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		Subject: parsed.Subject,
		TokenID: parsed.ID,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	return claims, nil
}
