// Package response provides HTTP response utilities.
package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// Common error codes.
const (
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeTooManyRequests  = "TOO_MANY_REQUESTS"
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeBadGateway       = "BAD_GATEWAY"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// JSON writes a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; nothing more to do here.
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
		}
	}
}

// Error writes an error response envelope. The message should be safe to
// show to callers; internal detail belongs in logs, not here.
func Error(w http.ResponseWriter, statusCode int, code, message, requestID string) {
	JSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: requestID,
		},
	})
}

// InternalError writes the generic 500 envelope.
func InternalError(w http.ResponseWriter, requestID string) {
	Error(w, http.StatusInternalServerError, ErrCodeInternalServer, "something went wrong", requestID)
}
