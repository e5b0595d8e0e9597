package http

import "net/http"

// Healthcheck answers 200 with an empty body.
func Healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
