package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "tripfellows"})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "tripfellows", claims.Issuer)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	issued := time.Now().Add(-48 * time.Hour)
	issuer, err := NewJWTService(JWTConfig{
		Secret: "test-secret",
		Issuer: "tripfellows",
		Clock:  func() time.Time { return issued },
	})
	require.NoError(t, err)

	token, err := issuer.GenerateAccessToken("user-1")
	require.NoError(t, err)

	validator, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "tripfellows"})
	require.NoError(t, err)

	_, err = validator.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceRejectsWrongSecretAndIssuer(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "tripfellows"})
	require.NoError(t, err)

	token, err := svc.GenerateAccessToken("user-1")
	require.NoError(t, err)

	other, err := NewJWTService(JWTConfig{Secret: "other-secret", Issuer: "tripfellows"})
	require.NoError(t, err)
	_, err = other.ValidateAccessToken(token)
	require.Error(t, err)

	strict, err := NewJWTService(JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
	require.NoError(t, err)
	_, err = strict.ValidateAccessToken(token)
	require.Error(t, err)
}

func TestJWTServiceConfig(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	require.Error(t, err)

	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)
	require.Equal(t, DefaultAccessTokenTTL, svc.ttl)

	_, err = svc.GenerateAccessToken("")
	require.Error(t, err)

	_, err = svc.ValidateAccessToken("")
	require.Error(t, err)
}
