package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"vidshare/internal/storage"
)

// maxUploadMemory bounds the in-memory portion of a multipart upload; larger
// bodies spill to disk.
const maxUploadMemory = 32 << 20

// CreateUser registers a new account.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req registrationRequest
	if err := decodeJSONAllowUnknown(r, &req); err != nil {
		req = registrationRequest{}
	}
	if verr := validateRegistration(req); verr != nil {
		writeValidationFailure(w, verr)
		return
	}

	user, err := h.Store.CreateUser(r.Context(), storage.CreateUserParams{
		Username: req.Username,
		Pseudo:   req.Pseudo,
		Email:    req.Email,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, storage.ErrConflict):
		writeBadRequest(w, codeRegisterConflict, "Email or username already taken")
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, user)
}

// Users lists accounts, optionally filtered by pseudo substring.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	page, verr := parsePagination(r.URL.Query())
	if verr != nil {
		writeValidationFailure(w, verr)
		return
	}
	var pseudo *string
	if value := r.URL.Query().Get("pseudo"); value != "" {
		pseudo = &value
	}

	users, total, err := h.Store.ListUsers(r.Context(), pseudo, page)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !pageExists(page, len(users)) {
		writeBadRequest(w, codeNonExistingPage, "Non existing page")
		return
	}
	writePage(w, users, buildPager(page, total))
}

// UserByID dispatches the /user/{id} subtree: the account itself plus its
// video collection.
func (h *Handler) UserByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/user/"), "/")
	segments := strings.Split(rest, "/")

	id, ok := parseResourceID(w, segments[0])
	if !ok {
		return
	}

	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodGet:
			h.getUser(w, r, id)
		case http.MethodPut:
			h.updateUser(w, r, id)
		case http.MethodDelete:
			h.deleteUser(w, r, id)
		default:
			methodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	case len(segments) == 2 && segments[1] == "video":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.uploadVideo(w, r, id)
	case len(segments) == 2 && segments[1] == "videos":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.listUserVideos(w, r, id)
	default:
		writeNotFound(w)
	}
}

// getUser returns a single account. The email field is visible only to the
// account owner.
func (h *Handler) getUser(w http.ResponseWriter, r *http.Request, id int64) {
	requester, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	user, found, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !found {
		writeNotFound(w)
		return
	}
	if requester.ID != id {
		user.Email = ""
	}
	writeData(w, http.StatusOK, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, id int64) {
	requester, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if requester.ID != id {
		writeBadRequest(w, codeUpdateOtherUser, "You can not update another user")
		return
	}

	var req userUpdateRequest
	if err := decodeJSONAllowUnknown(r, &req); err != nil {
		req = userUpdateRequest{}
	}
	update, verr := validateUserUpdate(req)
	if verr != nil {
		writeValidationFailure(w, verr)
		return
	}

	user, err := h.Store.UpdateUser(r.Context(), id, update)
	switch {
	case errors.Is(err, storage.ErrConflict):
		writeBadRequest(w, codeUpdateConflict, "Email or username already taken")
		return
	case errors.Is(err, storage.ErrNotFound):
		writeNotFound(w)
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request, id int64) {
	requester, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if requester.ID != id {
		writeBadRequest(w, codeDeleteOtherUser, "You can not delete another user")
		return
	}
	if err := h.Store.DeleteUser(r.Context(), id); err != nil {
		h.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadVideo accepts a multipart upload under the owner's account. Duration
// probing is best effort: a probe failure is logged and the video is stored
// with duration zero.
func (h *Handler) uploadVideo(w http.ResponseWriter, r *http.Request, ownerID int64) {
	requester, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	if requester.ID != ownerID {
		writeBadRequest(w, codeVideoForOtherUser, "You can't create a video for another user")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeBadRequest(w, codeMissingSource, "Missing source parameter in request body")
		return
	}
	sources := r.MultipartForm.File["source"]
	if len(sources) != 1 {
		writeBadRequest(w, codeMissingSource, "Missing source parameter in request body")
		return
	}
	source := sources[0]
	if !strings.HasPrefix(source.Header.Get("Content-Type"), "video/") {
		writeBadRequest(w, codeSourceNotVideo, "Source file is not a video")
		return
	}
	if _, present := r.MultipartForm.Value["name"]; !present {
		writeBadRequest(w, codeMissingVideoName, "Missing name parameter in request body")
		return
	}
	name := r.MultipartForm.Value["name"][0]

	path, err := h.saveUpload(source)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	duration := 0
	if probed, err := h.prober().Duration(path); err != nil {
		h.Logger.Warn("duration probe failed", "path", path, "error", err)
		h.recorder().ObserveProbeFailure()
	} else {
		duration = probed
	}

	video, err := h.Store.CreateVideo(r.Context(), storage.CreateVideoParams{
		Name:     name,
		Source:   path,
		Duration: duration,
		OwnerID:  ownerID,
	})
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			h.Logger.Warn("orphaned upload not removed", "path", path, "error", rmErr)
		}
		h.internalError(w, r, err)
		return
	}
	h.recorder().ObserveUpload()
	writeData(w, http.StatusCreated, video)
}

// saveUpload copies the multipart part into the upload directory under a
// generated name and returns the stored path.
func (h *Handler) saveUpload(header *multipart.FileHeader) (string, error) {
	dir := h.UploadDir
	if dir == "" {
		dir = filepath.Join("public", "videos")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	src, err := header.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp(dir, "video-*")
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return dst.Name(), nil
}

func (h *Handler) listUserVideos(w http.ResponseWriter, r *http.Request, ownerID int64) {
	page, verr := parsePagination(r.URL.Query())
	if verr != nil {
		writeValidationFailure(w, verr)
		return
	}

	videos, total, err := h.Store.ListVideos(r.Context(), storage.VideoFilter{OwnerID: &ownerID}, page)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !pageExists(page, len(videos)) {
		writeBadRequest(w, codeVideoBadRequest, "Non existing page")
		return
	}
	writePage(w, videos, buildPager(page, total))
}
