// ABOUTME: Unit tests for JWT token verification and generation
// ABOUTME: Tests valid tokens, invalid tokens, expired tokens and weak secrets

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing!!"

func newTestVerifier(t *testing.T) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier([]byte(testSecret))
	require.NoError(t, err)
	return v
}

func TestNewJWTVerifier_WeakSecret(t *testing.T) {
	_, err := NewJWTVerifier([]byte("short"))
	assert.ErrorIs(t, err, ErrWeakSecret)
}

func TestJWTVerifier_ValidToken(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("alice", time.Hour)
	require.NoError(t, err)

	sub, err := verifier.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestJWTVerifier_InvalidToken(t *testing.T) {
	verifier := newTestVerifier(t)

	otherToken := func() string {
		other, err := NewJWTVerifier([]byte("a-completely-different-secret-value"))
		require.NoError(t, err)
		token, err := other.Generate("alice", time.Hour)
		require.NoError(t, err)
		return token
	}()

	noneToken := func() string {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "alice"})
		s, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		return s
	}()

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage token", token: "not-a-jwt-token"},
		{name: "malformed JWT", token: "header.payload.signature"},
		{name: "wrong secret", token: otherToken},
		{name: "alg none", token: noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestJWTVerifier_ExpiredToken(t *testing.T) {
	verifier := newTestVerifier(t)

	token, err := verifier.Generate("alice", -time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTVerifier_MissingSubject(t *testing.T) {
	verifier := newTestVerifier(t)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = verifier.Verify(signed)
	assert.ErrorIs(t, err, ErrMissingClaim)
}

func TestJWTVerifier_DifferentSubjects(t *testing.T) {
	verifier := newTestVerifier(t)

	for _, subject := range []string{"user-1", "user-2", "user-3"} {
		token, err := verifier.Generate(subject, time.Hour)
		require.NoError(t, err)

		got, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, subject, got)
	}
}
