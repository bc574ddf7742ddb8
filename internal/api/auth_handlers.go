package api

import (
	"errors"
	"net/http"

	"vidshare/internal/storage"
)

type loginResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

// Login exchanges a username and password for a signed token. The account
// record in the response keeps the email field since the caller just proved
// ownership.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSONAllowUnknown(r, &req); err != nil {
		req = loginRequest{}
	}
	if verr := validateLogin(req); verr != nil {
		writeValidationFailure(w, verr)
		return
	}

	user, err := h.Store.AuthenticateUser(r.Context(), req.Login, req.Password)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.recorder().ObserveLogin("unknown_user")
		writeNotFound(w)
		return
	case errors.Is(err, storage.ErrInvalidCredentials):
		h.recorder().ObserveLogin("rejected")
		writeBadRequest(w, codeInvalidPassword, "Invalid password")
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}
	h.recorder().ObserveLogin("success")

	token, err := h.Tokens.Issue(user.ID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, loginResponse{Token: token, User: user})
}
