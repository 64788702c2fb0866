package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/artshin/app-log-service/internal/config"
)

func testConfig() config.AuthConfig {
	return config.AuthConfig{
		Secret:         "test-secret-please-rotate",
		TokenIssuer:    "app-log-service",
		AccessTokenTTL: time.Hour,
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	manager := NewManager(testConfig())
	userID := uuid.New()

	token, expiresIn, err := manager.IssueAccessToken(userID, "developer")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, int64(3600), expiresIn)

	claims, err := manager.ParseAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, userID, claims.UserID)
	require.Equal(t, "developer", claims.Role)
	require.Equal(t, "access", claims.TokenType)
	require.Equal(t, "app-log-service", claims.Issuer)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, _, err := NewManager(testConfig()).IssueAccessToken(uuid.New(), "developer")
	require.NoError(t, err)

	other := testConfig()
	other.Secret = "different-secret"
	_, err = NewManager(other).ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.AccessTokenTTL = -time.Minute
	token, _, err := NewManager(cfg).IssueAccessToken(uuid.New(), "developer")
	require.NoError(t, err)

	_, err = NewManager(testConfig()).ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseRejectsWrongTokenType(t *testing.T) {
	cfg := testConfig()
	claims := Claims{
		UserID:    uuid.New(),
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
	require.NoError(t, err)

	_, err = NewManager(cfg).ParseAccessToken(token)
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := NewManager(testConfig()).ParseAccessToken("not.a.token")
	require.Error(t, err)
}
