package jwt

import (
	"testing"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_GenerateAccessToken(t *testing.T) {
	t.Parallel()

	svc := NewJWTService("test-secret", "15m")

	tokenString, expiresAt, err := svc.GenerateAccessToken("user-1", "org-1")
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
	require.NoError(t, err)

	claims := token.PrivateClaims()
	assert.Equal(t, "org-1", claims["organization_id"])
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "access", claims["type"])
	assert.Equal(t, expiresAt, token.Expiration().Unix())
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), token.Expiration(), time.Minute)
}

func TestJWTService_GenerateAccessToken_InvalidExpiration(t *testing.T) {
	t.Parallel()

	svc := NewJWTService("test-secret", "not-a-duration")

	_, _, err := svc.GenerateAccessToken("user-1", "org-1")
	assert.Error(t, err)
}

func TestJWTService_GenerateAccessToken_RejectedByOtherSecret(t *testing.T) {
	t.Parallel()

	issuer := NewJWTService("secret-a", "15m")
	verifier := NewJWTService("secret-b", "15m")

	tokenString, _, err := issuer.GenerateAccessToken("user-1", "org-1")
	require.NoError(t, err)

	_, err = jwtauth.VerifyToken(verifier.JWTAuth(), tokenString)
	assert.Error(t, err)
}
