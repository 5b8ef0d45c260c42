package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/stockroom/stockroom/internal/core/domain"
)

var (
	// ErrTokenExpired signals that the access token has expired.
	ErrTokenExpired = errors.New("auth: access token expired")
	// ErrTokenInvalid signals that the access token is malformed or failed
	// verification for any other reason.
	ErrTokenInvalid = errors.New("auth: access token invalid")
)

const tokenType = "access"

type claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 access tokens carrying the user id
// and role claims the authorization middleware needs.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed access token for the given user.
func (t *TokenIssuer) Issue(userID string, role domain.Role) (string, error) {
	now := time.Now()
	c := claims{
		UserID:    userID,
		Role:      string(role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token and returns the Actor it describes.
func (t *TokenIssuer) Verify(tokenString string) (domain.Actor, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, ErrTokenExpired
		}
		return domain.Actor{}, ErrTokenInvalid
	}
	if !token.Valid || c.TokenType != tokenType {
		return domain.Actor{}, ErrTokenInvalid
	}

	role := domain.Role(c.Role)
	if c.UserID == "" || !role.Valid() {
		return domain.Actor{}, ErrTokenInvalid
	}
	return domain.Actor{UserID: c.UserID, Role: role}, nil
}
