package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"folio/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyID = "test-key"

func newTestVerifier(t *testing.T) (*rsa.PrivateKey, JWTVerifier) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks, err := json.Marshal(map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKeyID,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	verifier, err := NewStaticJWTVerifier(jwks, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = verifier.Close() })
	return key, verifier
}

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(method, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestVerifyToken(t *testing.T) {
	key, verifier := newTestVerifier(t)
	exp := time.Now().Add(time.Hour).Unix()

	claims, err := verifier.VerifyToken(sign(t, jwt.SigningMethodRS256, key, jwt.MapClaims{
		"sub":   "alice",
		"email": "alice@example.com",
		"exp":   exp,
	}))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.GetUserID())
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyTokenRejects(t *testing.T) {
	key, verifier := newTestVerifier(t)
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"expired", sign(t, jwt.SigningMethodRS256, key, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no expiry", sign(t, jwt.SigningMethodRS256, key, jwt.MapClaims{"sub": "alice"})},
		{"no subject", sign(t, jwt.SigningMethodRS256, key, jwt.MapClaims{"exp": future})},
		{"symmetric algorithm", sign(t, jwt.SigningMethodHS256, []byte("secret"), jwt.MapClaims{"sub": "alice", "exp": future})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.VerifyToken(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
