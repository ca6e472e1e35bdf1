package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Strob0t/ProposalForge/internal/domain"
)

// maxRequestBodySize caps decoded request bodies.
const maxRequestBodySize = 1 << 20

// ---------------------------------------------------------------------------
// Request helpers
// ---------------------------------------------------------------------------

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		}
		return v, false
	}
	return v, true
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

type idResponse struct {
	ID string `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

var errorStatus = map[string]int{
	"unauthenticated":           http.StatusUnauthorized,
	"forbidden":                 http.StatusForbidden,
	"validation_failed":         http.StatusBadRequest,
	"agency_not_found":          http.StatusNotFound,
	"unit_not_found_for_agency": http.StatusNotFound,
	"unit_not_found":            http.StatusNotFound,
	"not_found":                 http.StatusNotFound,
	"conflict":                  http.StatusConflict,
	"store_failure":             http.StatusInternalServerError,
}

var errorMessage = map[string]string{
	"unauthenticated":           "authentication required",
	"forbidden":                 "operation not permitted for this caller",
	"validation_failed":         "validation failed",
	"agency_not_found":          "no agency registered for this location",
	"unit_not_found_for_agency": "unit not found for this agency",
	"unit_not_found":            "no unit matches the given address",
	"not_found":                 "resource not found",
	"conflict":                  "resource already exists",
	"store_failure":             "internal server error",
}

// writeDomainError maps err to its stable code. Store diagnostics are logged
// and never returned to the client.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.Code(err)
	resp := errorResponse{Code: code, Message: errorMessage[code]}

	var verr *domain.ValidationError
	var serr *domain.StoreError
	switch {
	case errors.As(err, &verr):
		resp.Message = verr.Error()
		resp.Fields = verr.Fields()
	case errors.As(err, &serr):
		resp.Message = serr.Stage + " failed"
		slog.ErrorContext(r.Context(), "store failure",
			"method", r.Method,
			"path", r.URL.Path,
			"stage", serr.Stage,
			"sqlstate", serr.Code,
			"error", serr.Message,
			"detail", serr.Detail,
			"hint", serr.Hint,
		)
	case code == "store_failure":
		slog.ErrorContext(r.Context(), "unhandled domain error", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	writeJSON(w, errorStatus[code], resp)
}

// writeFieldError reports a single offending request field.
func writeFieldError(w http.ResponseWriter, r *http.Request, field string, missing bool) {
	verr := &domain.ValidationError{}
	if missing {
		verr.Missing = []string{field}
	} else {
		verr.Invalid = []string{field}
	}
	writeDomainError(w, r, verr)
}
