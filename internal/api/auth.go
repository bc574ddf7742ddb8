package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"vidshare/internal/models"
)

type contextKey string

const userContextKey contextKey = "authenticatedUser"

// ErrUnauthorized is returned by AuthenticateRequest for every token failure:
// missing, malformed, expired, or referencing a deleted account.
var ErrUnauthorized = errors.New("unauthorized")

// ContextWithUser stores the authenticated user in the provided context.
func ContextWithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from context if present.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// ExtractToken reads the bearer token from the authorization header. The
// header carries the raw token, no scheme prefix.
func ExtractToken(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("Authorization"))
}

// AuthenticateRequest verifies the request token and resolves it to a user
// record. The record never carries the password hash; the store strips it.
func (h *Handler) AuthenticateRequest(r *http.Request) (models.User, error) {
	token := ExtractToken(r)
	if token == "" {
		return models.User{}, ErrUnauthorized
	}
	userID, err := h.Tokens.Verify(token)
	if err != nil {
		return models.User{}, ErrUnauthorized
	}
	user, ok, err := h.Store.GetUser(r.Context(), userID)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrUnauthorized
	}
	return user, nil
}

func (h *Handler) requireAuthenticatedUser(w http.ResponseWriter, r *http.Request) (models.User, bool) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return models.User{}, false
	}
	return user, true
}
