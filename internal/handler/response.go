// Package handler translates HTTP requests into service calls and service
// results back into JSON.
//
// Every error response has the same shape:
//
//	{"error": "not_found", "message": "model not found with id abc123"}
//
// Validation failures add a per-field map:
//
//	{"error": "validation_error", "message": "...", "fields": {"fileUrl": "required"}}
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/roomview/internal/apperror"
	"github.com/sakif/roomview/internal/metrics"
	"github.com/sakif/roomview/internal/repository"
	"github.com/sakif/roomview/internal/schema"
)

// maxBodyBytes bounds request bodies. Payloads here are small metadata
// records, never the asset bytes.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // machine-readable, e.g. "not_found"
	Message string            `json:"message"`          // human-readable
	Fields  map[string]string `json:"fields,omitempty"` // field -> violation code
}

// writeJSON sends data as JSON with the given status.
//
// HEADER ORDER MATTERS:
// Content-Type must be set before WriteHeader. Once the status line is sent
// the header map is frozen, and anything set afterwards is silently dropped.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// headers are already sent; all we can do is log
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to an HTTP status and sends it.
//
// ERROR MAPPING:
// The service layer knows nothing about HTTP. It returns apperror sentinels
// and this is the one place they become status codes:
//
//	ErrValidation   → 400 validation_error (plus the per-field map)
//	ErrUnauthorized → 401 unauthorized
//	ErrForbidden    → 403 forbidden
//	ErrNotFound     → 404 not_found
//	ErrConflict     → 409 conflict
//	anything else   → 500 internal_error, details logged but never echoed
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		})
		return
	}

	// Never echo unknown errors: they can carry SQL or file paths.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.ValidationFailed("", fmt.Sprintf("request body must be %d bytes or fewer", maxBodyBytes))
		}
		return nil, apperror.ValidationFailed("", "could not read request body")
	}
	return body, nil
}

// decodeInsert reads the body and decodes it through an insert schema.
//
// WHY DECODE THROUGH THE SCHEMA?
// A plain json.Decoder silently drops keys it does not know and leaves missing
// ones at their zero value. Going through the schema instead means:
//   - every violation is reported at once, not just the first
//   - system-assigned fields (id, uploadedAt, createdAt) are rejected, never
//     quietly copied into dst
//
// This is where most bad payloads are turned away, so it is also where the
// validation-failure counter for the schema's table is recorded.
func decodeInsert(w http.ResponseWriter, r *http.Request, s *schema.InsertSchema, m *metrics.Metrics, dst any) error {
	body, err := readBody(w, r)
	if err == nil {
		err = s.Decode(body, dst)
	}
	if err != nil && errors.Is(err, apperror.ErrValidation) {
		m.RecordValidationFailure(s.Table().Name)
	}
	return err
}

// listOptions parses ?limit=&offset=. Missing values fall back to the
// repository defaults; non-numeric values are a 400.
func listOptions(r *http.Request) (repository.ListOptions, error) {
	var opts repository.ListOptions
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, apperror.ValidationFailed("limit", "limit must be an integer")
		}
		opts.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, apperror.ValidationFailed("offset", "offset must be an integer")
		}
		opts.Offset = n
	}

	return opts.Clamp(), nil
}
