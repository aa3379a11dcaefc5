package reviews

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the authenticated reviewer's identity.
type Claims struct {
	UserID string `json:"uid"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SignToken mints an HS256 bearer token for the given user.
func SignToken(secret []byte, userID, name string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Name:   name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("reviews: sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates an HS256 bearer token and returns its claims.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("reviews: unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("reviews: parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("reviews: invalid token")
	}
	return claims, nil
}

// JWTGuard builds a GuardFunc that requires a valid bearer token on every
// request.
func JWTGuard(secret []byte) GuardFunc {
	return func(r *http.Request) error {
		header := r.Header.Get("Authorization")
		if header == "" {
			return StatusError{Code: http.StatusUnauthorized, Err: errors.New("missing authorization header")}
		}
		raw := strings.TrimPrefix(header, "Bearer ")
		if raw == header {
			return StatusError{Code: http.StatusUnauthorized, Err: errors.New("authorization header is not a bearer token")}
		}
		if _, err := ParseToken(secret, raw); err != nil {
			return StatusError{Code: http.StatusUnauthorized, Err: err}
		}
		return nil
	}
}
