package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"vidshare/internal/storage"
)

// Videos lists videos with optional name, owner, and duration filters. The
// user filter accepts either a numeric id or a pseudo substring.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	page, verr := parsePagination(r.URL.Query())
	if verr != nil {
		writeValidationFailure(w, verr)
		return
	}

	var filter storage.VideoFilter
	query := r.URL.Query()
	if value := query.Get("name"); value != "" {
		filter.Name = &value
	}
	if value := query.Get("user"); value != "" {
		if id, err := strconv.ParseInt(value, 10, 64); err == nil {
			filter.OwnerID = &id
		} else {
			filter.OwnerPseudo = &value
		}
	}
	if value := query.Get("duration"); value != "" {
		duration, err := strconv.Atoi(value)
		if err != nil {
			writeBadRequest(w, codeDurationNotNumber, "Parameter duration must be a number")
			return
		}
		filter.MaxDuration = &duration
	}

	videos, total, err := h.Store.ListVideos(r.Context(), filter, page)
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

// VideoByID dispatches the /video/{id} subtree: mutations on the video itself
// plus its comment collection.
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/video/"), "/")
	segments := strings.Split(rest, "/")

	id, ok := parseResourceID(w, segments[0])
	if !ok {
		return
	}

	switch {
	case len(segments) == 1:
		switch r.Method {
		case http.MethodPut:
			h.updateVideo(w, r, id)
		case http.MethodPatch:
			h.attachEncoding(w, r, id)
		case http.MethodDelete:
			h.deleteVideo(w, r, id)
		default:
			methodNotAllowed(w, http.MethodPut, http.MethodPatch, http.MethodDelete)
		}
	case len(segments) == 2 && segments[1] == "comment":
		if r.Method != http.MethodPost {
			methodNotAllowed(w, http.MethodPost)
			return
		}
		h.postComment(w, r, id)
	case len(segments) == 2 && segments[1] == "comments":
		if r.Method != http.MethodGet {
			methodNotAllowed(w, http.MethodGet)
			return
		}
		h.listComments(w, r, id)
	default:
		writeNotFound(w)
	}
}

// updateVideo renames a video or transfers it to another owner. A mutation
// that matches no owned row answers 404 without revealing whether the video
// exists.
func (h *Handler) updateVideo(w http.ResponseWriter, r *http.Request, id int64) {
	requester, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	var req videoUpdateRequest
	if err := decodeJSONAllowUnknown(r, &req); err != nil {
		req = videoUpdateRequest{}
	}
	update, verr := validateVideoUpdate(req)
	if verr != nil {
		writeValidationFailure(w, verr)
		return
	}

	video, err := h.Store.UpdateVideo(r.Context(), id, requester.ID, update)
	switch {
	case errors.Is(err, storage.ErrConflict):
		writeBadRequest(w, codeVideoOwnerConflict, "New owner does not exist")
		return
	case errors.Is(err, storage.ErrNotFoundOrForbidden):
		writeFailure(w, http.StatusNotFound, "Not Found", codeVideoUpdateDenied,
			"Video not found or you don't have the permission to update it")
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, video)
}

// attachEncoding records the locator of a transcoded rendition. The endpoint
// sits on the encoder trust boundary: when a shared secret is configured the
// caller must present it in the x-encoder-token header.
func (h *Handler) attachEncoding(w http.ResponseWriter, r *http.Request, id int64) {
	if h.EncoderToken != "" {
		presented := r.Header.Get("x-encoder-token")
		if subtle.ConstantTimeCompare([]byte(presented), []byte(h.EncoderToken)) != 1 {
			writeUnauthorized(w)
			return
		}
	}

	var req encodingRequest
	if err := decodeJSONAllowUnknown(r, &req); err != nil {
		req = encodingRequest{}
	}
	if verr := validateEncoding(req); verr != nil {
		writeValidationFailure(w, verr)
		return
	}

	video, err := h.Store.AttachEncoding(r.Context(), id, req.Format, req.File)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeNotFound(w)
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}
	h.recorder().ObserveEncoding(req.Format)
	writeData(w, http.StatusOK, video)
}

func (h *Handler) deleteVideo(w http.ResponseWriter, r *http.Request, id int64) {
	requester, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}
	err := h.Store.DeleteVideo(r.Context(), id, requester.ID)
	switch {
	case errors.Is(err, storage.ErrNotFoundOrForbidden):
		writeFailure(w, http.StatusNotFound, "Not Found", codeVideoDeleteDenied,
			"Video not found or you don't have the permission to delete it")
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
