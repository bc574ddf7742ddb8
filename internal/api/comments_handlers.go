package api

import (
	"net/http"
)

type commentRequest struct {
	Body string `json:"body"`
}

// postComment attaches a comment to a video on behalf of the authenticated
// user. Commenting on a deleted video is a client error with its own code
// rather than a plain 404.
func (h *Handler) postComment(w http.ResponseWriter, r *http.Request, videoID int64) {
	author, ok := h.requireAuthenticatedUser(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSONAllowUnknown(r, &req); err != nil {
		req = commentRequest{}
	}
	if req.Body == "" {
		writeBadRequest(w, codeCommentBodyRequired, "Parameter 'body' is missing")
		return
	}

	_, found, err := h.Store.GetVideo(r.Context(), videoID)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !found {
		writeBadRequest(w, codeCommentVideoGone, "Video does not exist anymore")
		return
	}

	comment, err := h.Store.CreateComment(r.Context(), videoID, author.ID, req.Body)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, comment)
}

// listComments pages through a video's comments, newest first.
func (h *Handler) listComments(w http.ResponseWriter, r *http.Request, videoID int64) {
	if _, ok := h.requireAuthenticatedUser(w, r); !ok {
		return
	}

	page, verr := parsePagination(r.URL.Query())
	if verr != nil {
		writeValidationFailure(w, verr)
		return
	}

	comments, total, err := h.Store.ListComments(r.Context(), videoID, page)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !pageExists(page, len(comments)) {
		writeBadRequest(w, codeVideoBadRequest, "Non existing page")
		return
	}
	writePage(w, comments, buildPager(page, total))
}
