package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/orientis/orientis/internal/domain"
)

// Claims are the JWT claims carried by bearer tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTService issues and validates HS256 bearer tokens.
type JWTService struct {
	secret   []byte
	lifetime time.Duration
}

// NewJWTService constructs a JWTService from the shared secret and token lifetime.
func NewJWTService(secret string, lifetime time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), lifetime: lifetime}
}

// IssueToken signs a token for the given user id.
func (s *JWTService) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("op=auth.IssueToken: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token string and returns its claims.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("op=auth.ValidateToken: empty token: %w", domain.ErrUnauthorized)
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("op=auth.ValidateToken: %v: %w", err, domain.ErrUnauthorized)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("op=auth.ValidateToken: %w", domain.ErrUnauthorized)
	}
	return claims, nil
}

type userIDKey struct{}

// AuthMiddleware validates the bearer token and injects the user id into
// the request context.
func AuthMiddleware(jwtSvc *JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, r, fmt.Errorf("missing bearer token: %w", domain.ErrUnauthorized), nil)
				return
			}
			claims, err := jwtSvc.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				writeError(w, r, err, nil)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey{}, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFrom extracts the authenticated user id from the request context.
func UserIDFrom(r *http.Request) (string, error) {
	id, ok := r.Context().Value(userIDKey{}).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("op=auth.UserIDFrom: %w", domain.ErrUnauthorized)
	}
	return id, nil
}
