// Package middleware provides HTTP middlewares for authentication, logging
// and request hygiene.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/cabellfineart/gallery-api/internal/token"
)

type ctxKey string

const (
	userKey    ctxKey = "user"
	userLogKey ctxKey = "user-log"
)

// loggedUser lets BearerAuth hand the authenticated name back to the request
// logger, which only sees the outer request.
type loggedUser struct {
	name string
}

// TokenVerifier checks a raw bearer token of the wanted kind.
type TokenVerifier interface {
	Verify(raw string, want token.Kind) (*token.Claims, error)
}

// BearerAuth is a middleware that requires a valid bearer token of the given kind.
//
// A missing header or an expired token is answered with 401. A malformed
// header, a bad signature or a token of the wrong kind is answered with 422.
// On success the token subject is stored in the request context.
func BearerAuth(verifier TokenVerifier, kind token.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeMsg(w, http.StatusUnauthorized, "Missing Authorization Header")
				return
			}
			scheme, raw, ok := strings.Cut(header, " ")
			if !ok || scheme != "Bearer" || raw == "" || strings.Contains(raw, " ") {
				writeMsg(w, http.StatusUnprocessableEntity, "Bad Authorization header. Expected value 'Bearer <JWT>'")
				return
			}

			claims, err := verifier.Verify(raw, kind)
			switch {
			case errors.Is(err, token.ErrExpired):
				writeMsg(w, http.StatusUnauthorized, "Token has expired")
				return
			case errors.Is(err, token.ErrWrongType):
				writeMsg(w, http.StatusUnprocessableEntity, "Only "+string(kind)+" tokens are allowed")
				return
			case err != nil:
				writeMsg(w, http.StatusUnprocessableEntity, "Signature verification failed")
				return
			}

			if lu, ok := r.Context().Value(userLogKey).(*loggedUser); ok {
				lu.name = claims.Username()
			}
			ctx := context.WithValue(r.Context(), userKey, claims.Username())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUsernameFromContext extracts the authenticated username from the
// request context. Returns an empty string if not found.
func GetUsernameFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
