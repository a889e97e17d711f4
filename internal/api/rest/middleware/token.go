// Package middleware provides various middleware functionality.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/savlev/go-savings/internal/models/modelclaims"
	"github.com/savlev/go-savings/internal/models/modelstorage"
	"github.com/savlev/go-savings/internal/service/secretary"
)

type contextKey int

const claimsContextKey contextKey = 0

// TokenHandler sets object structure.
type TokenHandler struct {
	sec *secretary.Secretary
}

// NewTokenHandler initializes a new token handler.
func NewTokenHandler(sec *secretary.Secretary) (*TokenHandler, error) {
	if sec == nil {
		return nil, errors.New("nil secretary object was found")
	}
	return &TokenHandler{sec: sec}, nil
}

// TokenHandle validates the bearer token and attaches its claims to the
// request context for downstream handlers.
func (c *TokenHandler) TokenHandle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if len(tokenString) == 0 {
			http.Error(w, "Token authorization required", http.StatusUnauthorized)
			return
		}
		tokenString = strings.Replace(tokenString, "Bearer ", "", 1)
		claims, err := c.sec.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsContextKey, claims)))
	})
}

// AdminHandle rejects requests whose session does not carry the admin role.
// It must run after TokenHandle.
func (c *TokenHandler) AdminHandle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Token authorization required", http.StatusUnauthorized)
			return
		}
		if claims.Role != modelstorage.RoleAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext retrieves session claims attached by TokenHandle.
func ClaimsFromContext(ctx context.Context) (*modelclaims.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*modelclaims.SessionClaims)
	return claims, ok
}
