// Package auth guards the one mutating route of this domain, DELETE
// /resume/:id, with a bearer JWT. There is no login flow here: tokens are
// expected to be minted out-of-band by an operator tool and verified
// against a shared secret.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ContextKey avoids collisions in request contexts.
type ContextKey string

const SubjectContextKey ContextKey = "subject"

// Claims identifies the caller permitted to delete a resume.
type Claims struct {
	jwt.RegisteredClaims
}

var authConfig *AuthConfig

type AuthConfig struct {
	JwtSecret []byte
	Enabled   bool
}

// InitializeAuth sets up the auth configuration (spec.md's Non-goals
// exclude login/signup features, not the ambient guard on deletion).
func InitializeAuth(jwtSecret string, enabled bool) {
	authConfig = &AuthConfig{JwtSecret: []byte(jwtSecret), Enabled: enabled}
}

// IsAuthEnabled returns whether the DELETE route requires a bearer JWT.
func IsAuthEnabled() bool {
	if authConfig == nil {
		return false
	}
	return authConfig.Enabled
}

// GenerateJWT mints a short-lived token for subject (an operator identity).
func GenerateJWT(subject string) (string, error) {
	if authConfig == nil {
		return "", errors.New("auth not initialized")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(authConfig.JwtSecret)
}

// ValidateJWT validates and parses a bearer token, returning its subject.
func ValidateJWT(tokenString string) (string, error) {
	if authConfig == nil {
		return "", errors.New("auth not initialized")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return authConfig.JwtSecret, nil
	})
	if err != nil {
		return "", err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("invalid token")
}

// RequireAuth extracts and validates a bearer JWT. When auth is disabled it
// passes every request through unchanged.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !IsAuthEnabled() {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subject, err := ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "invalid authentication token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), SubjectContextKey, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// SubjectFromContext extracts the authenticated subject from a request
// context, if any.
func SubjectFromContext(r *http.Request) (string, bool) {
	s, ok := r.Context().Value(SubjectContextKey).(string)
	return s, ok
}
