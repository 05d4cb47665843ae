// Package api provides the HTTP handlers and error plumbing for the
// Skylight backend.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/skylight-social/skylight/internal/handle"
	"github.com/skylight-social/skylight/internal/image"
	"github.com/skylight-social/skylight/internal/middleware"
	"github.com/skylight-social/skylight/internal/principal"
	"github.com/skylight-social/skylight/internal/scene"
	"github.com/skylight-social/skylight/internal/tessellation"
)

// Error codes recorded in the access log for 4xx/5xx responses. The wire
// body carries only the message; codes exist for operators.
const (
	ErrCodeSchema      = "schema_error"
	ErrCodeReference   = "reference_error"
	ErrCodeBadRequest  = "bad_request"
	ErrCodeForbidden   = "forbidden"
	ErrCodeNotFound    = "not_found"
	ErrCodeConsistency = "consistency_error"
	ErrCodeStorage     = "storage_error"
	ErrCodeInternal    = "internal_error"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// WriteError writes the standard JSON error body and records the error code
// on the response context so the logging middleware picks it up.
//
//	ctx := middleware.SetErrorCode(r.Context(), api.ErrCodeNotFound)
//	api.WriteError(w, ctx, http.StatusNotFound, api.ErrCodeNotFound, "scene not found")
func WriteError(w http.ResponseWriter, ctx context.Context, status int, code, message string) {
	middleware.UpdateResponseContext(w, middleware.SetErrorCode(ctx, code))

	data, err := json.Marshal(errorBody{Error: true, Message: message})
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal error response", "error", err)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// WriteDomainError maps a domain error to its HTTP status and writes the
// standard body. Unknown errors become 500s with a generic message so
// internals never leak to clients.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	var schemaErr scene.SchemaError
	var refErr scene.ReferenceError
	var forbiddenErr principal.ForbiddenError
	var consistencyErr scene.ConsistencyError
	var storageErr scene.StorageError

	switch {
	case errors.As(err, &schemaErr):
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeSchema, schemaErr.Error())
	case errors.As(err, &refErr):
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeReference, refErr.Error())
	case errors.As(err, &forbiddenErr):
		WriteError(w, ctx, http.StatusForbidden, ErrCodeForbidden, forbiddenErr.Error())
	case errors.Is(err, scene.ErrSceneNotFound):
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "scene not found")
	case errors.Is(err, handle.ErrHandleNotFound):
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "handle not found")
	case errors.Is(err, image.ErrImageNotFound):
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "image not found")
	case errors.Is(err, tessellation.ErrTableNotFound):
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "tessellation table not found")
	case errors.Is(err, scene.ErrNotSinglePlace):
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "scene is not representable as a single place")
	case errors.As(err, &consistencyErr):
		slog.ErrorContext(ctx, "consistency failure", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeConsistency, "internal data inconsistency")
	case errors.As(err, &storageErr):
		slog.ErrorContext(ctx, "storage failure", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeStorage, "storage failure")
	default:
		slog.ErrorContext(ctx, "unhandled error", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// WriteJSON writes a success payload. Payload structs embed their own
// "error":false marker.
func WriteJSON(w http.ResponseWriter, ctx context.Context, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal response", "error", err)
		WriteError(w, ctx, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
