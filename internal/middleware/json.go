package middleware

import (
	"mime"
	"net/http"
	"strings"
)

// RequireJSON rejects requests whose body is not declared as JSON.
func RequireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsJSON(r) {
			writeMsg(w, http.StatusBadRequest, "Request body must be application/json")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsJSON reports whether the request Content-Type is application/json or an
// application/*+json variant.
func IsJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mt == "application/json" ||
		(strings.HasPrefix(mt, "application/") && strings.HasSuffix(mt, "+json"))
}
