package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes produced by the transport itself.
const (
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeValidationError = "VALIDATION_ERROR"
	CodeInternalError   = "INTERNAL_SERVER_ERROR"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

type successResponse struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type errorResponse struct {
	Status string      `json:"status"`
	Error  errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Status: statusSuccess, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message, details string) {
	writeJSON(w, status, errorResponse{
		Status: statusError,
		Error: errorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}
