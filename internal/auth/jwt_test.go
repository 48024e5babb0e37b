package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTVerifier_Verify(t *testing.T) {
	v := NewJWTVerifier("test-secret", "")

	token := signToken(t, "test-secret", Claims{
		Email: "alice@example.com",
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	ident, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.Equal(t, "alice@example.com", ident.Email)
	assert.Equal(t, "authenticated", ident.Role)
}

func TestJWTVerifier_DefaultsRole(t *testing.T) {
	v := NewJWTVerifier("test-secret", "")
	token := signToken(t, "test-secret", Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	ident, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "authenticated", ident.Role)
}

func TestJWTVerifier_Rejects(t *testing.T) {
	v := NewJWTVerifier("test-secret", "authenticated")

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "wrong secret",
			token: signToken(t, "other-secret", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u", Audience: jwt.ClaimStrings{"authenticated"}}}),
		},
		{
			name: "missing subject",
			token: signToken(t, "test-secret", Claims{RegisteredClaims: jwt.RegisteredClaims{
				Audience:  jwt.ClaimStrings{"authenticated"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}}),
		},
		{
			name: "wrong audience",
			token: signToken(t, "test-secret", Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u",
				Audience:  jwt.ClaimStrings{"other"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}}),
		},
		{
			name: "expired",
			token: signToken(t, "test-secret", Claims{RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "u",
				Audience:  jwt.ClaimStrings{"authenticated"},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			}}),
		},
		{
			name:  "garbage",
			token: "not.a.token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			assert.Error(t, err)
		})
	}
}
