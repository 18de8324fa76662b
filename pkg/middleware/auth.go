package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"desa-feedback-system/pkg/response"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	// AdminContextKey holds the *AdminClaims of the authenticated admin.
	AdminContextKey contextKey = "admin"
)

// AdminClaims is the payload of an admin bearer token.
type AdminClaims struct {
	AdminID  string `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RequireAdmin returns a middleware that rejects requests without a valid
// bearer token. The wrapped handler never runs on a failed check.
func RequireAdmin(secret []byte) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Error(w, http.StatusUnauthorized, "Missing Authorization header", "")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				response.Error(w, http.StatusUnauthorized, "Invalid token format", "Format must be Bearer <token>")
				return
			}

			token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token", err.Error())
				return
			}

			claims, ok := token.Claims.(*AdminClaims)
			if !ok || !token.Valid {
				response.Error(w, http.StatusUnauthorized, "Invalid token claims", "")
				return
			}

			ctx := context.WithValue(r.Context(), AdminContextKey, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// AdminFromContext returns the claims stored by RequireAdmin.
func AdminFromContext(ctx context.Context) (*AdminClaims, bool) {
	claims, ok := ctx.Value(AdminContextKey).(*AdminClaims)
	return claims, ok
}
