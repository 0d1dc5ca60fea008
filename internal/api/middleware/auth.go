package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const IdentityContextKey contextKey = "identity"

// Identity is the verified caller extracted from a bearer token. Tokens
// are issued by the external identity provider; this middleware only
// verifies them and never mints.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// AuthMiddleware verifies bearer tokens on authenticated endpoints.
type AuthMiddleware struct {
	secret []byte
}

// NewAuthMiddleware creates an auth middleware verifying HS256 tokens
// with the given shared secret.
func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

type claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// RequireAuth rejects requests without a valid bearer token and puts
// the caller's identity in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			jsonError(w, http.StatusUnauthorized, "no token provided")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			jsonError(w, http.StatusUnauthorized, "malformed authorization header")
			return
		}

		var c claims
		token, err := jwt.ParseWithClaims(parts[1], &c, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			jsonError(w, http.StatusForbidden, "token is not valid")
			return
		}

		identity := &Identity{
			Subject: c.Subject,
			Email:   c.Email,
			Name:    c.Name,
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetIdentityFromContext retrieves the authenticated caller from the
// request context.
func GetIdentityFromContext(ctx context.Context) *Identity {
	identity, ok := ctx.Value(IdentityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return identity
}
