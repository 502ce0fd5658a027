package mockapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"skyrace/console/internal/models"
)

// Claims identify the administrator behind a bearer token.
type Claims struct {
	UserID    string
	Role      models.Role
	TokenID   string
	ExpiresAt time.Time
}

// TokenIssuer signs and validates HS256 bearer tokens.
type TokenIssuer struct {
	secretKey []byte
	ttl       time.Duration
}

func NewTokenIssuer(secretKey []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secretKey: secretKey, ttl: ttl}
}

func (t *TokenIssuer) Issue(userID string, role models.Role) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"jti":     uuid.New().String(),
		"exp":     now.Add(t.ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (t *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, ok := (*claims)["user_id"].(string)
	if !ok {
		return nil, errors.New("missing or invalid user_id claim")
	}
	role, _ := (*claims)["role"].(string)
	tokenID, _ := (*claims)["jti"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("missing or invalid exp claim")
	}

	return &Claims{UserID: userID, Role: models.Role(role), TokenID: tokenID, ExpiresAt: exp.Time}, nil
}
