package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-tracker/logging"
	"task-tracker/models"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID   string      `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and checks HS256 tokens carrying an identity.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (m *TokenManager) GenerateToken(identity models.Identity) (string, error) {
	now := m.now()
	claims := &Claims{
		UserID:   identity.ID,
		Username: identity.Username,
		Role:     identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken checks signature, algorithm and expiry, and that the token
// names a complete identity with a known role.
func (m *TokenManager) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" || claims.Username == "" || !claims.Role.Valid() {
		return nil, errors.New("token does not carry a complete identity")
	}
	return claims, nil
}

// Verify resolves a token to the identity it carries. Any failure yields
// false; the reason is only logged.
func (m *TokenManager) Verify(ctx context.Context, credential string) (models.Identity, bool) {
	claims, err := m.ValidateToken(credential)
	if err != nil {
		logging.Logger.Debugf("Event ID: TOKEN_REJECTED, Description: %v", err)
		return models.Identity{}, false
	}
	return models.Identity{ID: claims.UserID, Username: claims.Username, Role: claims.Role}, true
}
