package middleware

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const ProfileCtxKey = contextKey("profile_id")

// JWTAuth resolves the caller's profile id from a bearer token and stores
// it in the request context. Handlers receive an already-resolved id; no
// token parsing happens past this boundary.
func JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jwtSecret := []byte(os.Getenv("JWT_SECRET"))
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing Authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return jwtSecret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			http.Error(w, "invalid token claims", http.StatusUnauthorized)
			return
		}

		profileID, ok := claims["profile_id"].(string)
		if !ok {
			http.Error(w, "invalid profile_id in token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), ProfileCtxKey, profileID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ProfileIDFromContext extracts the resolved caller profile id.
func ProfileIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ProfileCtxKey).(string)
	return id, ok
}
