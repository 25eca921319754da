package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hilthontt/townhall/domain/model"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func claimsFor(name, role string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "townhall",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
		Role: role,
	}
}

func TestVerify(t *testing.T) {
	a := NewAuthenticator(testSecret, "townhall")

	t.Run("valid", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("minh", "manager", time.Hour))
		identity, err := a.Verify(token)
		require.NoError(t, err)
		require.Equal(t, &model.Identity{Name: "minh", Role: model.RoleManager}, identity)
	})

	t.Run("expired", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("minh", "admin", -time.Minute))
		_, err := a.Verify(token)
		require.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte("other"), claimsFor("minh", "admin", time.Hour))
		_, err := a.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS512, []byte(testSecret), claimsFor("minh", "admin", time.Hour))
		_, err := a.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		claims := claimsFor("minh", "admin", time.Hour)
		claims.Issuer = "elsewhere"
		_, err := a.Verify(sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claimsFor("minh", "root", time.Hour))
		_, err := a.Verify(token)
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := a.Verify("")
		require.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", BearerToken("Bearer abc"))
	require.Equal(t, "abc", BearerToken("bearer  abc "))
	require.Empty(t, BearerToken("Basic abc"))
	require.Empty(t, BearerToken("abc"))
	require.Empty(t, BearerToken(""))
}
