package tokens

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoVerificationKey = errors.New("no session verification key configured")

// SessionClaims are the claims of a session token issued by the identity provider.
type SessionClaims struct {
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks session tokens. RS256 is used when a public key is set,
// otherwise HS256 with the shared secret.
type Verifier struct {
	secret    []byte
	publicKey *rsa.PublicKey
	leeway    time.Duration
}

func NewVerifier(secret []byte, publicKeyPEM string) (*Verifier, error) {
	v := &Verifier{secret: secret, leeway: 5 * time.Second}
	if publicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse session public key: %w", err)
		}
		v.publicKey = key
	}
	if v.publicKey == nil && len(v.secret) == 0 {
		return nil, ErrNoVerificationKey
	}
	return v, nil
}

func (v *Verifier) Parse(tokenStr string) (*SessionClaims, error) {
	var claims SessionClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if v.publicKey != nil {
			if t.Method.Alg() != jwt.SigningMethodRS256.Alg() {
				return nil, errors.New("unexpected sign method")
			}
			return v.publicKey, nil
		}
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return v.secret, nil
	}, jwt.WithLeeway(v.leeway), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &claims, nil
}

// SignHS256 issues a session token with the shared secret. Used by local tooling and tests.
func SignHS256(secret []byte, userID, role string, exp time.Time) (string, error) {
	claims := SessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
