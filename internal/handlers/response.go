package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"campus-advisor/internal/contextutil"
	"campus-advisor/internal/service"
)

// ErrorResponse represents an error response.
//
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrExternalService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		logger.WarnContext(ctx, "invalid request", "error", err)
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			writeError(w, status, ve.Error())
			return
		}
		writeError(w, status, "Invalid input")
	case http.StatusNotFound:
		logger.InfoContext(ctx, "resource not found", "error", err)
		writeError(w, status, "Not found")
	case http.StatusServiceUnavailable:
		logger.WarnContext(ctx, "backend unavailable", "error", err)
		writeError(w, status, "Service unavailable, retry later")
	case http.StatusBadGateway:
		logger.ErrorContext(ctx, "external service error", "error", err)
		writeError(w, status, "External service error")
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		writeError(w, status, defaultMsg)
	}
}
