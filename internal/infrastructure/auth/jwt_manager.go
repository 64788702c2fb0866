package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/artshin/app-log-service/internal/config"
)

// Claims extends JWT registered claims with app metadata.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	TokenType string    `json:"type"`
	jwt.RegisteredClaims
}

// Manager issues and validates access tokens for the protected
// log-request endpoints. Tokens are HS256 against a shared secret;
// there is no refresh flow, a dev tool re-mints on expiry.
type Manager struct {
	cfg config.AuthConfig
}

// NewManager builds Manager.
func NewManager(cfg config.AuthConfig) *Manager {
	return &Manager{cfg: cfg}
}

// IssueAccessToken mints a bearer token for the given user.
func (m *Manager) IssueAccessToken(userID uuid.UUID, role string) (string, int64, error) {
	now := time.Now().UTC()
	expires := now.Add(m.cfg.AccessTokenTTL)
	claims := Claims{
		UserID:    userID,
		Role:      role,
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.TokenIssuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	encoded, err := tkn.SignedString([]byte(m.cfg.Secret))
	if err != nil {
		return "", 0, err
	}
	return encoded, int64(m.cfg.AccessTokenTTL.Seconds()), nil
}

// ParseAccessToken validates and extracts claims.
func (m *Manager) ParseAccessToken(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(m.cfg.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.TokenType != "access" {
		return nil, errors.New("not an access token")
	}
	return claims, nil
}
