// Package http provides HTTP handlers for authentication and the art and
// psalms catalogs.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/cabellfineart/gallery-api/internal/middleware"
	"github.com/cabellfineart/gallery-api/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates a credential, returning a user-facing error on rejection.
	Register(ctx context.Context, username, password, code string) error
	// Login checks credentials and returns an access/refresh token pair.
	Login(ctx context.Context, username, password string) (*service.Tokens, error)
	// Refresh issues a new access token for username.
	Refresh(username string) (string, error)
}

// AuthHandler handles HTTP requests for registration, login and token refresh.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Failures    *Failures
}

// credentialsRequest is the JSON payload for registration and login.
type credentialsRequest struct {
	Username         string
	Password         string
	RegistrationCode string
}

// readCredentials extracts the string fields of a credentials body.
// Absent or non-string values read as empty.
func readCredentials(raw any) credentialsRequest {
	obj, _ := raw.(map[string]any)
	str := func(key string) string {
		s, _ := obj[key].(string)
		return s
	}
	return credentialsRequest{
		Username:         str("username"),
		Password:         str("password"),
		RegistrationCode: str("registrationCode"),
	}
}

// Register handles user registration requests.
// It expects a JSON body with "username" and "password" and, when the
// server requires one, a "registrationCode".
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	req := readCredentials(raw)

	err = h.AuthService.Register(r.Context(), req.Username, req.Password, req.RegistrationCode)
	var exists *service.UserExistsError
	switch {
	case err == nil:
		writeMsg(w, http.StatusOK, "User created, you may now log in")
	case errors.As(err, &exists),
		errors.Is(err, service.ErrUsernameRequired),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrUsernameInvalid),
		errors.Is(err, service.ErrRegistrationCode):
		writeMsg(w, http.StatusBadRequest, err.Error())
	default:
		h.Failures.Internal(w, r, err)
	}
}

// Login handles password login requests and returns an access and a
// refresh token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	raw, err := decodeBody(w, r)
	if err != nil {
		writeMsg(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	req := readCredentials(raw)
	if req.Username == "" {
		writeMsg(w, http.StatusBadRequest, "Username required for login")
		return
	}

	tokens, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, service.ErrBadCredentials) {
		writeMsg(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

// Refresh exchanges the refresh token authenticated by the middleware for a
// new access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.AuthService.Refresh(middleware.GetUsernameFromContext(r.Context()))
	if err != nil {
		h.Failures.Internal(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// VerifyToken confirms that the presented access token is valid.
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"msg":      "Token is valid",
		"username": middleware.GetUsernameFromContext(r.Context()),
	})
}
