// Package api implements the HTTP handlers, request validation, and response
// shaping for the video-sharing REST surface. Handlers stay thin: they decode
// and validate input, call the storage repository, and map the outcome onto
// the response envelope.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"vidshare/internal/auth"
	"vidshare/internal/media"
	"vidshare/internal/observability/metrics"
	"vidshare/internal/storage"
)

// Handler carries the collaborators every endpoint needs. All fields are
// injected at startup; there is no ambient global state.
type Handler struct {
	Store  storage.Repository
	Tokens *auth.TokenManager
	Logger *slog.Logger

	// UploadDir receives raw video uploads before probing.
	UploadDir string
	// EncoderToken, when non-empty, gates the encoding-attachment endpoint
	// behind a shared secret presented in the x-encoder-token header.
	EncoderToken string
	// Prober measures uploaded video durations. Nil falls back to ffprobe.
	Prober media.Prober
	// Metrics collects domain counters. Nil falls back to the shared recorder.
	Metrics *metrics.Recorder
}

// NewHandler wires a Handler with its required collaborators.
func NewHandler(store storage.Repository, tokens *auth.TokenManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Store: store, Tokens: tokens, Logger: logger}
}

func (h *Handler) prober() media.Prober {
	if h.Prober == nil {
		return media.FFProbe{}
	}
	return h.Prober
}

func (h *Handler) recorder() *metrics.Recorder {
	if h.Metrics == nil {
		return metrics.Default()
	}
	return h.Metrics
}

// successBody is the 2xx envelope: {message, data?, pager?}.
type successBody struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Pager   *Pager `json:"pager,omitempty"`
}

// failureBody is the 4xx/5xx envelope: {message, code, data: [reasons]}.
type failureBody struct {
	Message string   `json:"message"`
	Code    int      `json:"code"`
	Data    []string `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successBody{Message: "OK", Data: data})
}

func writePage(w http.ResponseWriter, data any, pager Pager) {
	writeJSON(w, http.StatusOK, successBody{Message: "OK", Data: data, Pager: &pager})
}

func writeFailure(w http.ResponseWriter, status int, message string, code int, reasons ...string) {
	writeJSON(w, status, failureBody{Message: message, Code: code, Data: reasons})
}

func writeBadRequest(w http.ResponseWriter, code int, reasons ...string) {
	writeFailure(w, http.StatusBadRequest, "Bad Request", code, reasons...)
}

func writeValidationFailure(w http.ResponseWriter, verr *ValidationError) {
	writeBadRequest(w, verr.Code, verr.Reasons...)
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not found"})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method Not Allowed"})
}

// internalError logs the underlying failure and answers with the generic 500
// body; detail never reaches the client.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.Logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err)
	writeFailure(w, http.StatusInternalServerError, "Internal Server Error", codeInternalError, "Unknown server error")
}

// decodeJSONAllowUnknown decodes leniently: clients may send extra fields,
// and a malformed body simply leaves the destination zeroed so validation
// reports the missing fields.
func decodeJSONAllowUnknown(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

// parseResourceID extracts the integer id segment; a malformed id answers
// 400 with its dedicated code.
func parseResourceID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeBadRequest(w, codeInvalidResourceID, "Invalid id parameter, must be a number, got '"+raw+"'")
		return 0, false
	}
	return id, true
}

// Health reports whether the datastore is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Logger.Warn("datastore ping failed", "error", err)
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, map[string]string{"status": status})
}
