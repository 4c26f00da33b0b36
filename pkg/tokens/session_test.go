package tokens

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifier_HS256RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	v, err := NewVerifier(secret, "")
	require.NoError(t, err)

	tok, err := SignHS256(secret, "user_1", "admin", time.Now().Add(time.Minute))
	require.NoError(t, err)

	claims, err := v.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	secret := []byte("test-secret")
	v, err := NewVerifier(secret, "")
	require.NoError(t, err)

	expired, err := SignHS256(secret, "user_1", "", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	wrongKey, err := SignHS256([]byte("other"), "user_1", "", time.Now().Add(time.Minute))
	require.NoError(t, err)
	noSubject, err := SignHS256(secret, "", "", time.Now().Add(time.Minute))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "expired", token: expired},
		{name: "wrong key", token: wrongKey},
		{name: "no subject", token: noSubject},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := v.Parse(tt.token)
			assert.Error(t, err)
		})
	}
}

func TestVerifier_RS256(t *testing.T) {
	t.Parallel()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	v, err := NewVerifier([]byte("ignored"), string(pemKey))
	require.NoError(t, err)

	claims := SessionClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user_rsa",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	got, err := v.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user_rsa", got.Subject)

	hsTok, err := SignHS256([]byte("ignored"), "user_rsa", "", time.Now().Add(time.Minute))
	require.NoError(t, err)
	_, err = v.Parse(hsTok)
	assert.Error(t, err)
}

func TestNewVerifier_NeedsKey(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier(nil, "")
	assert.ErrorIs(t, err, ErrNoVerificationKey)

	_, err = NewVerifier(nil, "not pem")
	assert.Error(t, err)
}
